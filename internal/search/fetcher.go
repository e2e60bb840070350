package search

import (
	"context"
	"fmt"

	"github.com/bbernstein/laundrylocator/backend-go/internal/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Fetcher executes one request against the backend.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) ([]models.Listing, error)
}

// Directory is the part of the backend client the chain needs.
type Directory interface {
	NearbyListings(ctx context.Context, lat, lng, radius float64, f models.Filter) ([]models.Listing, error)
	ListingsByState(ctx context.Context, code string, f models.Filter) ([]models.Listing, error)
	ListingsByCity(ctx context.Context, slug string, f models.Filter) ([]models.Listing, error)
}

type DirectoryFetcher struct {
	dir Directory
}

var _ Fetcher = (*DirectoryFetcher)(nil)

func NewDirectoryFetcher(dir Directory) *DirectoryFetcher {
	return &DirectoryFetcher{dir: dir}
}

func (f *DirectoryFetcher) Fetch(ctx context.Context, req Request) ([]models.Listing, error) {
	switch req.Kind {
	case KindCoordinates:
		return f.dir.NearbyListings(ctx, req.Origin.Latitude, req.Origin.Longitude, req.RadiusMiles, req.Filter)
	case KindState:
		return f.dir.ListingsByState(ctx, req.StateCode, req.Filter)
	case KindCity:
		return f.dir.ListingsByCity(ctx, req.CitySlug, req.Filter)
	default:
		return nil, fmt.Errorf("unknown request kind %q", req.Kind)
	}
}

// ListingCache is the result cache in front of the backend.
type ListingCache interface {
	Get(ctx context.Context, key string) ([]models.Listing, bool, error)
	Save(ctx context.Context, key string, listings []models.Listing) error
}

// CachingFetcher serves repeated requests from cache and collapses concurrent identical
// requests into one backend call.
type CachingFetcher struct {
	next  Fetcher
	cache ListingCache
	group singleflight.Group
}

var _ Fetcher = (*CachingFetcher)(nil)

// NewCachingFetcher wraps next. cache may be nil to only dedup in-flight requests.
func NewCachingFetcher(next Fetcher, cache ListingCache) *CachingFetcher {
	return &CachingFetcher{next: next, cache: cache}
}

func (f *CachingFetcher) Fetch(ctx context.Context, req Request) ([]models.Listing, error) {
	key := req.Key()

	if f.cache != nil {
		listings, ok, err := f.cache.Get(ctx, key)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Listing cache read failed")
		} else if ok {
			return listings, nil
		}
	}

	// The shared call must outlive any single caller, since a superseded caller would
	// otherwise fail every other waiter on the same key.
	shared := context.WithoutCancel(ctx)
	ch := f.group.DoChan(key, func() (interface{}, error) {
		listings, err := f.next.Fetch(shared, req)
		if err != nil {
			return nil, err
		}
		if f.cache != nil {
			if err := f.cache.Save(shared, key, listings); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("Listing cache write failed")
			}
		}
		return listings, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			log.Debug().Str("key", key).Msg("Shared in-flight listing request")
		}
		return res.Val.([]models.Listing), nil
	}
}
