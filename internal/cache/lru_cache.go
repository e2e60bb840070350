package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bbernstein/laundrylocator/backend-go/internal/config"
	"github.com/bbernstein/laundrylocator/backend-go/internal/models"
	"github.com/bbernstein/laundrylocator/backend-go/internal/telemetry"
	"github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
)

// LRUCacheEntry wraps the cached data with metadata
type LRUCacheEntry struct {
	Listings  []models.Listing
	ExpiresAt time.Time
}

// ListingStore is the persistent layer behind the LRU
type ListingStore interface {
	GetListings(ctx context.Context, key string) (*ListingRecord, error)
	SaveListings(ctx context.Context, key string, listings []models.Listing) error
}

// ListingCache provides a two-layer cache for search results: an in-process LRU in front
// of an optional shared store.
type ListingCache struct {
	lru         *lru.Cache[string, *LRUCacheEntry]
	store       ListingStore
	ttl         time.Duration
	clock       clock
	lruHits     atomic.Uint64
	lruMisses   atomic.Uint64
	storeHits   atomic.Uint64
	storeMisses atomic.Uint64
}

// NewListingCache creates the cache. store may be nil to run with the LRU alone.
func NewListingCache(cfg *config.CacheConfig, store ListingStore) (*ListingCache, error) {
	lruCache, err := lru.New[string, *LRUCacheEntry](cfg.ListingLRUSize)
	if err != nil {
		return nil, fmt.Errorf("creating LRU cache: %w", err)
	}

	return &ListingCache{
		lru:   lruCache,
		store: store,
		ttl:   cfg.GetListingLRUTTL(),
		clock: systemClock{},
	}, nil
}

// Get tries the LRU first, then the store. ok is false on a miss in both.
func (c *ListingCache) Get(ctx context.Context, key string) ([]models.Listing, bool, error) {
	if entry, ok := c.lru.Get(key); ok {
		if c.clock.Now().Before(entry.ExpiresAt) {
			c.lruHits.Add(1)
			telemetry.CacheLookups.WithLabelValues("listing_lru", "hit").Inc()
			return entry.Listings, true, nil
		}
		// Entry expired, remove it
		c.lru.Remove(key)
	}
	c.lruMisses.Add(1)
	telemetry.CacheLookups.WithLabelValues("listing_lru", "miss").Inc()

	if c.store == nil {
		return nil, false, nil
	}

	record, err := c.store.GetListings(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("getting listings from store: %w", err)
	}

	if record == nil {
		c.storeMisses.Add(1)
		telemetry.CacheLookups.WithLabelValues("listing_store", "miss").Inc()
		return nil, false, nil
	}

	c.storeHits.Add(1)
	telemetry.CacheLookups.WithLabelValues("listing_store", "hit").Inc()
	c.lru.Add(key, &LRUCacheEntry{
		Listings:  record.Listings,
		ExpiresAt: c.clock.Now().Add(c.ttl),
	})
	return record.Listings, true, nil
}

// Save stores listings in both layers. A store failure is logged and returned; the LRU
// is still updated.
func (c *ListingCache) Save(ctx context.Context, key string, listings []models.Listing) error {
	c.lru.Add(key, &LRUCacheEntry{
		Listings:  listings,
		ExpiresAt: c.clock.Now().Add(c.ttl),
	})

	if c.store == nil {
		return nil
	}
	if err := c.store.SaveListings(ctx, key, listings); err != nil {
		log.Warn().Err(err).Str("query_key", key).Msg("Saving listings to store failed")
		return fmt.Errorf("saving listings to store: %w", err)
	}
	return nil
}

// GetCacheStats returns statistics about cache hits and misses
func (c *ListingCache) GetCacheStats() map[string]uint64 {
	return map[string]uint64{
		"lru_hits":     c.lruHits.Load(),
		"lru_misses":   c.lruMisses.Load(),
		"store_hits":   c.storeHits.Load(),
		"store_misses": c.storeMisses.Load(),
	}
}

// Clear removes all entries from the LRU cache
func (c *ListingCache) Clear() {
	c.lru.Purge()
}
