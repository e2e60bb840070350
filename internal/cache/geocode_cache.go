package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bbernstein/laundrylocator/backend-go/internal/config"
	"github.com/bbernstein/laundrylocator/backend-go/internal/geo"
	"github.com/bbernstein/laundrylocator/backend-go/internal/geocode"
	"github.com/bbernstein/laundrylocator/backend-go/internal/telemetry"
	"github.com/hashicorp/golang-lru/v2"
)

type geocodeCacheEntry struct {
	Place     geocode.Place
	ExpiresAt time.Time
}

// GeocodeCache memoises reverse geocoding. Points are bucketed to three decimals
// (roughly 100m), which is finer than any display name changes.
type GeocodeCache struct {
	next  geocode.ReverseGeocoder
	lru   *lru.Cache[string, *geocodeCacheEntry]
	ttl   time.Duration
	clock clock
	mu    sync.Mutex
}

var _ geocode.ReverseGeocoder = (*GeocodeCache)(nil)

func NewGeocodeCache(next geocode.ReverseGeocoder, cfg *config.CacheConfig) (*GeocodeCache, error) {
	lruCache, err := lru.New[string, *geocodeCacheEntry](cfg.GeocodeLRUSize)
	if err != nil {
		return nil, fmt.Errorf("creating LRU cache: %w", err)
	}

	return &GeocodeCache{
		next:  next,
		lru:   lruCache,
		ttl:   cfg.GetGeocodeLRUTTL(),
		clock: systemClock{},
	}, nil
}

func geocodeKey(c geo.Coordinates) string {
	return fmt.Sprintf("%.3f,%.3f", c.Latitude, c.Longitude)
}

// Reverse returns a cached place when fresh, otherwise asks the wrapped geocoder.
// Failures are not cached.
func (c *GeocodeCache) Reverse(ctx context.Context, point geo.Coordinates) (geocode.Place, error) {
	key := geocodeKey(point)

	c.mu.Lock()
	entry, ok := c.lru.Get(key)
	if ok && c.clock.Now().After(entry.ExpiresAt) {
		c.lru.Remove(key)
		ok = false
	}
	c.mu.Unlock()

	if ok {
		telemetry.CacheLookups.WithLabelValues("geocode", "hit").Inc()
		return entry.Place, nil
	}
	telemetry.CacheLookups.WithLabelValues("geocode", "miss").Inc()

	place, err := c.next.Reverse(ctx, point)
	if err != nil {
		return geocode.Place{}, err
	}

	c.mu.Lock()
	c.lru.Add(key, &geocodeCacheEntry{
		Place:     place,
		ExpiresAt: c.clock.Now().Add(c.ttl),
	})
	c.mu.Unlock()

	return place, nil
}

func (c *GeocodeCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}
