package config

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// CacheConfig holds all cache-related configuration
type CacheConfig struct {
	// Listing search results
	ListingLRUSize       int
	ListingLRUTTLMinutes int
	ListingDynamoTTLMins int
	ListingTableName     string

	// Reverse geocoding
	GeocodeLRUSize       int
	GeocodeLRUTTLMinutes int

	// General settings
	EnableLRUCache    bool
	EnableDynamoCache bool
}

const (
	// Default values
	defaultListingLRUSize       = 1000
	defaultListingTTLMinutes    = 5
	defaultListingDynamoTTLMins = 60
	defaultListingTableName     = "laundromat-search-cache"
	defaultGeocodeLRUSize       = 5000
	defaultGeocodeTTLMinutes    = 24 * 60
)

// GetCacheConfig returns the cache configuration from environment variables or defaults
func GetCacheConfig() *CacheConfig {
	config := &CacheConfig{
		ListingLRUSize:       getEnvInt("CACHE_LISTING_LRU_SIZE", defaultListingLRUSize),
		ListingLRUTTLMinutes: getEnvInt("CACHE_LISTING_LRU_TTL_MINUTES", defaultListingTTLMinutes),
		ListingDynamoTTLMins: getEnvInt("CACHE_LISTING_DYNAMO_TTL_MINUTES", defaultListingDynamoTTLMins),
		ListingTableName:     getEnvOrDefault("CACHE_LISTING_TABLE", defaultListingTableName),
		GeocodeLRUSize:       getEnvInt("CACHE_GEOCODE_LRU_SIZE", defaultGeocodeLRUSize),
		GeocodeLRUTTLMinutes: getEnvInt("CACHE_GEOCODE_TTL_MINUTES", defaultGeocodeTTLMinutes),
		EnableLRUCache:       getEnvBool("CACHE_ENABLE_LRU", true),
		EnableDynamoCache:    getEnvBool("CACHE_ENABLE_DYNAMO", false),
	}

	log.Debug().
		Int("ListingLRUSize", config.ListingLRUSize).
		Int("ListingLRUTTLMinutes", config.ListingLRUTTLMinutes).
		Int("ListingDynamoTTLMins", config.ListingDynamoTTLMins).
		Str("ListingTableName", config.ListingTableName).
		Int("GeocodeLRUSize", config.GeocodeLRUSize).
		Int("GeocodeLRUTTLMinutes", config.GeocodeLRUTTLMinutes).
		Bool("EnableLRUCache", config.EnableLRUCache).
		Bool("EnableDynamoCache", config.EnableDynamoCache).
		Msg("Cache configuration loaded")

	return config
}

func (c *CacheConfig) GetListingLRUTTL() time.Duration {
	return time.Duration(c.ListingLRUTTLMinutes) * time.Minute
}

func (c *CacheConfig) GetListingDynamoTTL() time.Duration {
	return time.Duration(c.ListingDynamoTTLMins) * time.Minute
}

func (c *CacheConfig) GetGeocodeLRUTTL() time.Duration {
	return time.Duration(c.GeocodeLRUTTLMinutes) * time.Minute
}

// Helper functions to get environment variables with defaults
func getEnvInt(key string, defaultVal int) int {
	if val, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
		log.Warn().Str("key", key).Msg("Invalid integer value in environment variable, using default")
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val, exists := os.LookupEnv(key); exists {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}
