package geocode

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/bbernstein/laundrylocator/backend-go/internal/geo"
	"github.com/bbernstein/laundrylocator/backend-go/pkg/http/client"
	"github.com/rs/zerolog/log"
)

// ErrNoMatch is returned when the geocoder has nothing at the given point.
var ErrNoMatch = errors.New("no place found at coordinates")

// Place is a human-readable location for a point.
type Place struct {
	DisplayName string `json:"displayName"`
	City        string `json:"city"`
	StateCode   string `json:"stateCode"`
}

type ReverseGeocoder interface {
	Reverse(ctx context.Context, c geo.Coordinates) (Place, error)
}

// NominatimGeocoder talks to a Nominatim-compatible /reverse endpoint.
type NominatimGeocoder struct {
	httpClient client.Interface
}

var _ ReverseGeocoder = (*NominatimGeocoder)(nil)

func NewNominatimGeocoder(httpClient client.Interface) *NominatimGeocoder {
	return &NominatimGeocoder{httpClient: httpClient}
}

type nominatimResponse struct {
	Error   string `json:"error"`
	Address struct {
		City         string `json:"city"`
		Town         string `json:"town"`
		Village      string `json:"village"`
		Hamlet       string `json:"hamlet"`
		County       string `json:"county"`
		State        string `json:"state"`
		ISO3166Lvl4  string `json:"ISO3166-2-lvl4"`
		CountryCode  string `json:"country_code"`
		Postcode     string `json:"postcode"`
		Neighborhood string `json:"neighbourhood"`
	} `json:"address"`
}

func (g *NominatimGeocoder) Reverse(ctx context.Context, c geo.Coordinates) (Place, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(c.Latitude, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(c.Longitude, 'f', 6, 64))
	q.Set("zoom", "10")
	q.Set("addressdetails", "1")

	resp, err := g.httpClient.Get(ctx, "/reverse?"+q.Encode())
	if err != nil {
		return Place{}, fmt.Errorf("reverse geocoding: %w", err)
	}

	var body nominatimResponse
	if err := client.DecodeJSON(resp, &body); err != nil {
		return Place{}, fmt.Errorf("reverse geocoding: %w", err)
	}
	if body.Error != "" {
		return Place{}, ErrNoMatch
	}

	a := body.Address
	city := firstNonEmpty(a.City, a.Town, a.Village, a.Hamlet, a.County)
	stateCode := stateCodeFromISO(a.ISO3166Lvl4)
	if stateCode == "" {
		if s, ok := geo.LookupState(a.State); ok {
			stateCode = s.Code
		}
	}

	place := Place{City: city, StateCode: stateCode}
	switch {
	case city != "" && stateCode != "":
		place.DisplayName = city + ", " + stateCode
	case city != "":
		place.DisplayName = city
	case a.State != "":
		place.DisplayName = a.State
	default:
		return Place{}, ErrNoMatch
	}

	log.Debug().
		Float64("lat", c.Latitude).
		Float64("lng", c.Longitude).
		Str("display_name", place.DisplayName).
		Msg("Reverse geocoded location")
	return place, nil
}

// stateCodeFromISO turns "US-CO" into "CO". Non-US subdivisions are ignored.
func stateCodeFromISO(iso string) string {
	country, code, ok := strings.Cut(iso, "-")
	if !ok || country != "US" || len(code) != 2 {
		return ""
	}
	return code
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

