package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetCacheConfig(t *testing.T) {
	tests := []struct {
		name             string
		envVars          map[string]string
		wantLRUSize      int
		wantTTL          time.Duration
		wantEnableLRU    bool
		wantEnableDynamo bool
	}{
		{
			name:          "default configuration",
			envVars:       map[string]string{},
			wantLRUSize:   defaultListingLRUSize,
			wantTTL:       time.Duration(defaultListingTTLMinutes) * time.Minute,
			wantEnableLRU: true,
		},
		{
			name: "custom configuration",
			envVars: map[string]string{
				"CACHE_LISTING_LRU_SIZE":        "2000",
				"CACHE_LISTING_LRU_TTL_MINUTES": "30",
				"CACHE_ENABLE_DYNAMO":           "yes",
			},
			wantLRUSize:      2000,
			wantTTL:          30 * time.Minute,
			wantEnableLRU:    true,
			wantEnableDynamo: true,
		},
		{
			name: "disabled LRU cache",
			envVars: map[string]string{
				"CACHE_ENABLE_LRU": "false",
			},
			wantLRUSize:   defaultListingLRUSize,
			wantTTL:       time.Duration(defaultListingTTLMinutes) * time.Minute,
			wantEnableLRU: false,
		},
		{
			name: "invalid numeric values fall back to defaults",
			envVars: map[string]string{
				"CACHE_LISTING_LRU_SIZE": "invalid",
			},
			wantLRUSize:   defaultListingLRUSize,
			wantTTL:       time.Duration(defaultListingTTLMinutes) * time.Minute,
			wantEnableLRU: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			config := GetCacheConfig()

			assert.Equal(t, tt.wantLRUSize, config.ListingLRUSize)
			assert.Equal(t, tt.wantTTL, config.GetListingLRUTTL())
			assert.Equal(t, tt.wantEnableLRU, config.EnableLRUCache)
			assert.Equal(t, tt.wantEnableDynamo, config.EnableDynamoCache)
		})
	}
}

func TestCacheDefaultValues(t *testing.T) {
	config := GetCacheConfig()

	assert.Equal(t, defaultListingTableName, config.ListingTableName)
	assert.Equal(t, defaultGeocodeLRUSize, config.GeocodeLRUSize)
	assert.Equal(t, time.Duration(defaultListingDynamoTTLMins)*time.Minute, config.GetListingDynamoTTL())
	assert.Equal(t, time.Duration(defaultGeocodeTTLMinutes)*time.Minute, config.GetGeocodeLRUTTL())
}
