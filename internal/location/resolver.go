package location

import (
	"context"

	"github.com/bbernstein/laundrylocator/backend-go/internal/geo"
	"github.com/bbernstein/laundrylocator/backend-go/internal/geocode"
	"github.com/bbernstein/laundrylocator/backend-go/internal/models"
	"github.com/rs/zerolog/log"
)

// Resolver turns coordinates into a Location with a display name and state code.
type Resolver struct {
	geocoder geocode.ReverseGeocoder
	cache    *Cache
}

func NewResolver(geocoder geocode.ReverseGeocoder, cache *Cache) *Resolver {
	return &Resolver{geocoder: geocoder, cache: cache}
}

// Resolve never fails: when reverse geocoding does, the display name comes from the
// cache and the state code is left empty.
func (r *Resolver) Resolve(ctx context.Context, point geo.Coordinates) models.Location {
	loc := models.Location{
		Latitude:  point.Latitude,
		Longitude: point.Longitude,
	}

	place, err := r.geocoder.Reverse(ctx, point)
	if err != nil {
		log.Warn().
			Err(err).
			Float64("lat", point.Latitude).
			Float64("lng", point.Longitude).
			Msg("Reverse geocoding failed, using last known location name")
		loc.DisplayName = r.cache.Load(ctx)
		return loc
	}

	loc.DisplayName = place.DisplayName
	loc.StateCode = place.StateCode
	if err := r.cache.Save(ctx, place.DisplayName); err != nil {
		log.Warn().Err(err).Str("display_name", place.DisplayName).Msg("Saving last location failed")
	}
	return loc
}

// LastName returns the most recently resolved display name or the default.
func (r *Resolver) LastName(ctx context.Context) string {
	return r.cache.Load(ctx)
}
