package search

import (
	"sort"

	"github.com/bbernstein/laundrylocator/backend-go/internal/geo"
	"github.com/bbernstein/laundrylocator/backend-go/internal/models"
)

// Arrange returns a copy of listings ready for display. Missing distances are computed
// from origin when it is known, and the result is sorted ascending by distance with
// unknown distances last. The input is not modified, so cached slices stay intact.
func Arrange(listings []models.Listing, origin *geo.Coordinates) []models.Listing {
	out := make([]models.Listing, len(listings))
	copy(out, listings)

	if origin != nil {
		for i := range out {
			if out[i].Distance != nil {
				continue
			}
			d := geo.DistanceMiles(*origin, geo.Coordinates{
				Latitude:  out[i].Latitude,
				Longitude: out[i].Longitude,
			})
			out[i].Distance = &d
		}
	}

	SortByDistance(out)
	return out
}

// SortByDistance sorts in place, stable, unknown distances last.
func SortByDistance(listings []models.Listing) {
	sort.SliceStable(listings, func(i, j int) bool {
		a, b := listings[i].Distance, listings[j].Distance
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return *a < *b
	})
}
