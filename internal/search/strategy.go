package search

import (
	"fmt"
	"strings"

	"github.com/bbernstein/laundrylocator/backend-go/internal/config"
	"github.com/bbernstein/laundrylocator/backend-go/internal/geo"
	"github.com/bbernstein/laundrylocator/backend-go/internal/models"
)

type Kind string

const (
	KindCoordinates Kind = "coordinates"
	KindState       Kind = "state"
	KindCity        Kind = "city"
)

// Request is one backend query in the fallback chain.
type Request struct {
	Kind        Kind
	Origin      geo.Coordinates
	RadiusMiles float64
	StateCode   string
	CitySlug    string
	Filter      models.Filter
}

// Key identifies the request for caching and in-flight dedup.
func (r Request) Key() string {
	var b strings.Builder
	switch r.Kind {
	case KindCoordinates:
		fmt.Fprintf(&b, "nearby:%.4f,%.4f:%g", r.Origin.Latitude, r.Origin.Longitude, r.RadiusMiles)
	case KindState:
		b.WriteString("state:" + strings.ToUpper(r.StateCode))
	case KindCity:
		b.WriteString("city:" + r.CitySlug)
	}
	if !r.Filter.IsZero() {
		b.WriteString("?" + r.Filter.Key())
	}
	return b.String()
}

// Query is what the caller knows when a search starts.
type Query struct {
	// Origin is nil when the user's position is unknown.
	Origin      *geo.Coordinates
	RadiusMiles float64
	// StateCode is the resolved state, empty when reverse geocoding failed.
	StateCode string
	// Label is the display name of the origin, used for the map center.
	Label  string
	Filter models.Filter
}

// Outcome is the settled result of one step.
type Outcome struct {
	Strategy string
	Request  Request
	Listings []models.Listing
	Err      error
}

// Settled reports whether the outcome ends the chain: it succeeded with data.
func (o *Outcome) Settled() bool {
	return o != nil && o.Err == nil && len(o.Listings) > 0
}

// Step is the decision of a strategy: issue Next, or stop with Final.
// A zero Step means the strategy does not apply to this query.
type Step struct {
	Next  *Request
	Final *Outcome
}

// Strategy plans one rung of the fallback chain. Plan must be pure.
type Strategy interface {
	Name() string
	Plan(q Query, prev *Outcome) Step
	// Center is the map center for data returned by req.
	Center(q Query, req Request) models.MapCenter
}

// DefaultStrategies is the standard chain: coordinates, then state, then the fixed city.
func DefaultStrategies(defaultState string, city config.City) []Strategy {
	return []Strategy{
		CoordinateStrategy{},
		StateStrategy{DefaultCode: defaultState},
		CityStrategy{City: city},
	}
}

const (
	pointZoom = 12
	stateZoom = 7
	cityZoom  = 12
	// Continental US, used when a state has no known centroid.
	fallbackZoom = 4
)

var usCenter = geo.Coordinates{Latitude: 39.8283, Longitude: -98.5795}

// CoordinateStrategy queries around the user's position.
type CoordinateStrategy struct{}

func (CoordinateStrategy) Name() string { return string(KindCoordinates) }

func (CoordinateStrategy) Plan(q Query, prev *Outcome) Step {
	if prev.Settled() {
		return Step{Final: prev}
	}
	if q.Origin == nil {
		return Step{}
	}
	return Step{Next: &Request{
		Kind:        KindCoordinates,
		Origin:      *q.Origin,
		RadiusMiles: q.RadiusMiles,
		Filter:      q.Filter,
	}}
}

func (CoordinateStrategy) Center(q Query, req Request) models.MapCenter {
	return models.MapCenter{
		Latitude:    req.Origin.Latitude,
		Longitude:   req.Origin.Longitude,
		Zoom:        pointZoom,
		Label:       q.Label,
		Granularity: models.GranularityPoint,
	}
}

// StateStrategy queries the whole resolved state, or DefaultCode when none was resolved.
type StateStrategy struct {
	DefaultCode string
}

func (StateStrategy) Name() string { return string(KindState) }

func (s StateStrategy) Plan(q Query, prev *Outcome) Step {
	if prev.Settled() {
		return Step{Final: prev}
	}
	code := q.StateCode
	if code == "" {
		code = s.DefaultCode
	}
	if code == "" {
		return Step{}
	}
	return Step{Next: &Request{
		Kind:      KindState,
		StateCode: strings.ToUpper(code),
		Filter:    q.Filter,
	}}
}

func (StateStrategy) Center(_ Query, req Request) models.MapCenter {
	state, ok := geo.LookupState(req.StateCode)
	if !ok {
		return models.MapCenter{
			Latitude:    usCenter.Latitude,
			Longitude:   usCenter.Longitude,
			Zoom:        fallbackZoom,
			Label:       req.StateCode,
			Granularity: models.GranularityState,
		}
	}
	return models.MapCenter{
		Latitude:    state.Centroid.Latitude,
		Longitude:   state.Centroid.Longitude,
		Zoom:        stateZoom,
		Label:       state.Name,
		Granularity: models.GranularityState,
	}
}

// CityStrategy is the last resort: a fixed city dataset.
type CityStrategy struct {
	City config.City
}

func (CityStrategy) Name() string { return string(KindCity) }

func (s CityStrategy) Plan(q Query, prev *Outcome) Step {
	if prev.Settled() {
		return Step{Final: prev}
	}
	return Step{Next: &Request{
		Kind:     KindCity,
		CitySlug: s.City.Slug,
		Filter:   q.Filter,
	}}
}

func (s CityStrategy) Center(Query, Request) models.MapCenter {
	return models.MapCenter{
		Latitude:    s.City.Latitude,
		Longitude:   s.City.Longitude,
		Zoom:        cityZoom,
		Label:       s.City.Name,
		Granularity: models.GranularityCity,
	}
}
