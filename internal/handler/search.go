package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/bbernstein/laundrylocator/backend-go/internal/api"
	"github.com/bbernstein/laundrylocator/backend-go/internal/directory"
	"github.com/bbernstein/laundrylocator/backend-go/internal/geo"
	"github.com/bbernstein/laundrylocator/backend-go/internal/models"
	"github.com/bbernstein/laundrylocator/backend-go/internal/search"
	"github.com/bbernstein/laundrylocator/backend-go/internal/view"
	"github.com/rs/zerolog/log"
)

const sessionHeader = "X-Session-ID"

// requestHref rebuilds the page URL so error panels can offer a retry.
func requestHref(req events.APIGatewayProxyRequest) string {
	q := url.Values{}
	for k, vs := range req.MultiValueQueryStringParameters {
		q[k] = append([]string(nil), vs...)
	}
	for k, v := range req.QueryStringParameters {
		if _, ok := q[k]; !ok {
			q.Set(k, v)
		}
	}
	if len(q) == 0 {
		return req.Path
	}
	return req.Path + "?" + q.Encode()
}

// Nearby runs the fallback chain from the device position, or from the last known place
// when the client sent none.
func (h *Handler) Nearby(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	params := req.QueryStringParameters
	origin, err := api.ParseCoordinates(ctx, params)
	if err != nil && !errors.Is(err, geo.ErrLocationUnavailable) {
		return fail(routeNearby, err.Error(), http.StatusBadRequest)
	}
	return h.runChain(ctx, routeNearby, req, origin, "")
}

// Search is the free-text or ZIP search. With lat/lng it behaves like Nearby.
func (h *Handler) Search(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	params := req.QueryStringParameters
	query := strings.TrimSpace(params["q"])
	where := strings.TrimSpace(params["location"])

	origin, err := api.ParseCoordinates(ctx, params)
	switch {
	case err == nil:
		return h.runChain(ctx, routeSearch, req, origin, query)
	case !errors.Is(err, geo.ErrLocationUnavailable):
		return fail(routeSearch, err.Error(), http.StatusBadRequest)
	}

	if query == "" && where == "" {
		return fail(routeSearch, "q or location is required", http.StatusBadRequest)
	}

	radius := api.ParseRadius(params, h.defaultRadius, h.maxRadius)
	filter := models.ParseFilter(params, req.MultiValueQueryStringParameters)
	label := firstNonEmpty(where, query)
	title := fmt.Sprintf("Laundromats matching %q", label)

	listings, err := h.Listings.SearchListings(ctx, query, where, radius, filter)
	if err != nil {
		log.Error().Err(err).Str("q", query).Str("location", where).Msg("Search failed")
		return page(routeSearch, http.StatusBadGateway, string(view.TypeError), view.ErrorPage(title, err, requestHref(req)))
	}

	listings = search.Arrange(listings, nil)
	p := view.RenderResults(view.ResultsInput{
		Title:       title,
		Location:    label,
		Listings:    listings,
		Center:      view.CenterOf(listings, label),
		Strategy:    "search",
		Mode:        view.ParseMode(params["mode"]),
		Page:        api.ParsePage(params),
		Query:       query,
		RadiusMiles: radius,
	})
	return page(routeSearch, http.StatusOK, string(p.Type), p)
}

func (h *Handler) runChain(ctx context.Context, route string, req events.APIGatewayProxyRequest, origin *geo.Coordinates, query string) (events.APIGatewayProxyResponse, error) {
	params := req.QueryStringParameters
	q := search.Query{
		Origin:      origin,
		RadiusMiles: api.ParseRadius(params, h.defaultRadius, h.maxRadius),
		Filter:      models.ParseFilter(params, req.MultiValueQueryStringParameters),
	}

	if origin != nil {
		loc := h.Locator.Resolve(ctx, *origin)
		q.StateCode = loc.StateCode
		q.Label = loc.DisplayName
	} else {
		q.StateCode = strings.ToUpper(params["state"])
		q.Label = h.Locator.LastName(ctx)
	}
	title := "Laundromats near " + q.Label

	var result *search.Result
	err := h.Sessions.Run(ctx, header(req, sessionHeader), func(ctx context.Context) error {
		r, err := h.Searcher.Run(ctx, q)
		result = r
		return err
	})
	if errors.Is(err, search.ErrSuperseded) {
		log.Debug().Str("session", header(req, sessionHeader)).Msg("Dropping superseded search")
		return fail(route, err.Error(), http.StatusConflict)
	}
	if err != nil {
		log.Error().Err(err).Str("route", route).Msg("Search chain failed")
		return page(route, http.StatusBadGateway, string(view.TypeError), view.ErrorPage(title, err, requestHref(req)))
	}

	location := firstNonEmpty(result.Center.Label, q.Label)
	if result.Strategy != string(search.KindCoordinates) {
		title = "Laundromats in " + location
	}

	p := view.RenderResults(view.ResultsInput{
		Title:       title,
		Location:    location,
		Listings:    result.Listings,
		Center:      &result.Center,
		Strategy:    result.Strategy,
		Mode:        view.ParseMode(params["mode"]),
		Page:        api.ParsePage(params),
		Query:       query,
		RadiusMiles: q.RadiusMiles,
		StateCode:   q.StateCode,
	})
	return page(route, http.StatusOK, string(p.Type), p)
}

// City is the canonical page for a city slug.
func (h *Handler) City(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	slug := strings.ToLower(req.PathParameters["slug"])
	if slug == "" {
		return fail(routeCity, "city is required", http.StatusBadRequest)
	}

	name := view.CityName(slug)
	title := "Laundromats in " + name
	listings, err := h.Fetcher.Fetch(ctx, search.Request{
		Kind:     search.KindCity,
		CitySlug: slug,
		Filter:   models.ParseFilter(req.QueryStringParameters, req.MultiValueQueryStringParameters),
	})
	if err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("Loading city failed")
		return page(routeCity, http.StatusBadGateway, string(view.TypeError), view.ErrorPage(title, err, requestHref(req)))
	}

	listings = search.Arrange(listings, nil)
	p := view.RenderResults(view.ResultsInput{
		Title:     title,
		Location:  name,
		Listings:  listings,
		Center:    view.CenterOf(listings, name),
		Strategy:  string(search.KindCity),
		Mode:      view.ParseMode(req.QueryStringParameters["mode"]),
		Page:      api.ParsePage(req.QueryStringParameters),
		StateCode: stateOfSlug(slug),
	})
	return page(routeCity, http.StatusOK, string(p.Type), p)
}

// State is the canonical page for a state code or name.
func (h *Handler) State(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	state, ok := geo.LookupState(req.PathParameters["code"])
	if !ok {
		return fail(routeState, "unknown state", http.StatusNotFound)
	}

	fetch := search.Request{
		Kind:      search.KindState,
		StateCode: state.Code,
		Filter:    models.ParseFilter(req.QueryStringParameters, req.MultiValueQueryStringParameters),
	}
	title := "Laundromats in " + state.Name
	listings, err := h.Fetcher.Fetch(ctx, fetch)
	if err != nil {
		log.Error().Err(err).Str("state", state.Code).Msg("Loading state failed")
		return page(routeState, http.StatusBadGateway, string(view.TypeError), view.ErrorPage(title, err, requestHref(req)))
	}

	center := search.StateStrategy{}.Center(search.Query{}, fetch)
	p := view.RenderResults(view.ResultsInput{
		Title:     title,
		Location:  state.Name,
		Listings:  search.Arrange(listings, nil),
		Center:    &center,
		Strategy:  string(search.KindState),
		Mode:      view.ParseMode(req.QueryStringParameters["mode"]),
		Page:      api.ParsePage(req.QueryStringParameters),
		StateCode: state.Code,
	})
	return page(routeState, http.StatusOK, string(p.Type), p)
}

// Detail renders one laundromat by id or slug.
func (h *Handler) Detail(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	idOrSlug := req.PathParameters["idOrSlug"]
	if idOrSlug == "" {
		return fail(routeDetail, "laundromat is required", http.StatusBadRequest)
	}

	listing, err := h.Listings.Listing(ctx, idOrSlug)
	switch {
	case errors.Is(err, directory.ErrNotFound):
		return page(routeDetail, http.StatusNotFound, string(view.TypeEmpty), view.RenderDetail(nil))
	case err != nil:
		log.Error().Err(err).Str("laundromat", idOrSlug).Msg("Loading laundromat failed")
		return page(routeDetail, http.StatusBadGateway, string(view.TypeError), view.DetailError(err, requestHref(req)))
	}

	p := view.RenderDetail(listing)
	return page(routeDetail, http.StatusOK, string(p.Type), p)
}

type locationResponse struct {
	api.APIResponse
	DisplayName string `json:"displayName"`
}

// Location reports the last resolved place name.
func (h *Handler) Location(ctx context.Context, _ events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return page(routeLocation, http.StatusOK, "location", &locationResponse{
		APIResponse: api.APIResponse{ResponseType: "location"},
		DisplayName: h.Locator.LastName(ctx),
	})
}

func stateOfSlug(slug string) string {
	i := strings.LastIndex(slug, "-")
	if i < 0 {
		return ""
	}
	if s, ok := geo.LookupState(slug[i+1:]); ok {
		return s.Code
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
