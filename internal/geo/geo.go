// Package geo holds coordinates, great-circle distance and the providers that say where
// a search starts from.
package geo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// EarthRadiusMiles is the mean Earth radius.
const EarthRadiusMiles = 3958.8

// ErrLocationUnavailable is returned by a Provider that cannot produce coordinates.
var ErrLocationUnavailable = errors.New("location unavailable")

// Coordinates is a point in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate checks the coordinates are on the globe.
func (c Coordinates) Validate() error {
	if !finite(c.Latitude) || !finite(c.Longitude) {
		return fmt.Errorf("coordinates must be finite: %f,%f", c.Latitude, c.Longitude)
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("invalid latitude: %f", c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("invalid longitude: %f", c.Longitude)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// DistanceMiles returns the haversine distance between a and b.
func DistanceMiles(a, b Coordinates) float64 {
	dLat := toRadians(b.Latitude - a.Latitude)
	dLon := toRadians(b.Longitude - a.Longitude)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Latitude))*math.Cos(toRadians(b.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	// Rounding can push h a hair outside [0,1] for antipodal points.
	h = math.Min(1, math.Max(0, h))
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusMiles * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Provider defines the interface for obtaining the current location.
type Provider interface {
	Locate(ctx context.Context) (Coordinates, error)
}

// StaticProvider implements Provider with a fixed location.
type StaticProvider struct {
	Point Coordinates
}

// NewStaticProvider creates a provider that always returns the same location.
func NewStaticProvider(lat, lng float64) *StaticProvider {
	return &StaticProvider{Point: Coordinates{Latitude: lat, Longitude: lng}}
}

// Locate returns the fixed location.
func (s *StaticProvider) Locate(_ context.Context) (Coordinates, error) {
	return s.Point, nil
}

// ParamsProvider reads the device position the client forwarded as lat/lng query parameters.
type ParamsProvider struct {
	params map[string]string
}

func NewParamsProvider(params map[string]string) *ParamsProvider {
	return &ParamsProvider{params: params}
}

// Locate fails with ErrLocationUnavailable when either parameter is missing, and with a
// wrapped parse or range error when present but unusable.
func (p *ParamsProvider) Locate(_ context.Context) (Coordinates, error) {
	latStr, hasLat := p.params["lat"]
	lngStr, hasLng := p.params["lng"]
	if !hasLat || !hasLng || latStr == "" || lngStr == "" {
		return Coordinates{}, ErrLocationUnavailable
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("parsing lat: %w", err)
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("parsing lng: %w", err)
	}

	c := Coordinates{Latitude: lat, Longitude: lng}
	if err := c.Validate(); err != nil {
		return Coordinates{}, err
	}
	return c, nil
}
