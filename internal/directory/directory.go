package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/bbernstein/laundrylocator/backend-go/internal/models"
	"github.com/bbernstein/laundrylocator/backend-go/pkg/http/client"
	"github.com/rs/zerolog/log"
)

// ErrNotFound is returned when the backend has no such listing.
var ErrNotFound = errors.New("listing not found")

// Client calls the directory REST backend. It owns no data; every method is a thin
// request/decode around one endpoint.
type Client struct {
	httpClient client.Interface
}

func New(httpClient client.Interface) *Client {
	return &Client{httpClient: httpClient}
}

// NearbyListings returns listings within radius miles of the point.
func (c *Client) NearbyListings(ctx context.Context, lat, lng, radius float64, f models.Filter) ([]models.Listing, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	q.Set("lng", strconv.FormatFloat(lng, 'f', 6, 64))
	q.Set("radius", strconv.FormatFloat(radius, 'f', -1, 64))
	f.Apply(q)

	return c.listings(ctx, "/api/laundromats/nearby?"+q.Encode())
}

// ListingsByState returns every listing in the state with the two-letter code.
func (c *Client) ListingsByState(ctx context.Context, code string, f models.Filter) ([]models.Listing, error) {
	return c.listings(ctx, withFilter("/api/laundromats/state/"+url.PathEscape(code), f))
}

// ListingsByCity returns the listings for a city slug such as "denver-co".
func (c *Client) ListingsByCity(ctx context.Context, slug string, f models.Filter) ([]models.Listing, error) {
	return c.listings(ctx, withFilter("/api/laundromats/city/"+url.PathEscape(slug), f))
}

// SearchListings runs a free-text search. location and radius are optional.
func (c *Client) SearchListings(ctx context.Context, query, location string, radius float64, f models.Filter) ([]models.Listing, error) {
	q := url.Values{}
	if query != "" {
		q.Set("q", query)
	}
	if location != "" {
		q.Set("location", location)
	}
	if radius > 0 {
		q.Set("radius", strconv.FormatFloat(radius, 'f', -1, 64))
	}
	f.Apply(q)

	return c.listings(ctx, "/api/laundromats/search?"+q.Encode())
}

// Listing returns a single listing by numeric id or slug.
func (c *Client) Listing(ctx context.Context, idOrSlug string) (*models.Listing, error) {
	resp, err := c.httpClient.Get(ctx, "/api/laundromats/"+url.PathEscape(idOrSlug))
	if err != nil {
		return nil, fmt.Errorf("fetching listing %s: %w", idOrSlug, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}

	var listing models.Listing
	if err := client.DecodeJSON(resp, &listing); err != nil {
		return nil, fmt.Errorf("fetching listing %s: %w", idOrSlug, err)
	}
	return &listing, nil
}

func withFilter(path string, f models.Filter) string {
	if f.IsZero() {
		return path
	}
	return path + "?" + f.Key()
}

func (c *Client) listings(ctx context.Context, path string) ([]models.Listing, error) {
	resp, err := c.httpClient.Get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("fetching listings: %w", err)
	}

	var raw json.RawMessage
	if err := client.DecodeJSON(resp, &raw); err != nil {
		return nil, fmt.Errorf("fetching listings: %w", err)
	}

	listings, err := decodeListings(raw)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("path", path).
		Int("count", len(listings)).
		Msg("Fetched listings")

	return listings, nil
}

// decodeListings accepts either a bare array or an envelope. The backend uses both
// depending on the endpoint.
func decodeListings(raw json.RawMessage) ([]models.Listing, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return []models.Listing{}, nil
	}

	var listings []models.Listing
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &listings); err != nil {
			return nil, fmt.Errorf("decoding listings: %w", err)
		}
		return listings, nil
	}

	var envelope struct {
		Laundromats []models.Listing `json:"laundromats"`
		Results     []models.Listing `json:"results"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decoding listings: %w", err)
	}
	switch {
	case envelope.Laundromats != nil:
		return envelope.Laundromats, nil
	case envelope.Results != nil:
		return envelope.Results, nil
	}
	return []models.Listing{}, nil
}
