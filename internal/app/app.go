// Package app builds the page handlers and everything behind them from configuration.
package app

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/bbernstein/laundrylocator/backend-go/internal/account"
	"github.com/bbernstein/laundrylocator/backend-go/internal/admin"
	"github.com/bbernstein/laundrylocator/backend-go/internal/business"
	"github.com/bbernstein/laundrylocator/backend-go/internal/cache"
	"github.com/bbernstein/laundrylocator/backend-go/internal/config"
	"github.com/bbernstein/laundrylocator/backend-go/internal/directory"
	"github.com/bbernstein/laundrylocator/backend-go/internal/geocode"
	"github.com/bbernstein/laundrylocator/backend-go/internal/handler"
	"github.com/bbernstein/laundrylocator/backend-go/internal/location"
	"github.com/bbernstein/laundrylocator/backend-go/internal/payment"
	"github.com/bbernstein/laundrylocator/backend-go/internal/search"
	"github.com/bbernstein/laundrylocator/backend-go/internal/telemetry"
	"github.com/bbernstein/laundrylocator/backend-go/pkg/http/client"
	"github.com/rs/zerolog/log"
)

type App struct {
	Handler *handler.Handler
	Router  *handler.Router
	// Listings is nil when the LRU cache is disabled.
	Listings *cache.ListingCache
}

// New wires the service. AWS clients are only created when the S3 location bucket or the
// DynamoDB listing cache is configured.
func New(ctx context.Context, cfg *config.Config, cacheCfg *config.CacheConfig) (*App, error) {
	directoryClient := directory.New(client.New(client.Options{
		BaseURL:    cfg.APIBaseURL,
		Timeout:    cfg.HTTPTimeout,
		MaxRetries: cfg.MaxRetries,
		Observer:   telemetry.ObserveUpstream("directory"),
	}))
	geocoderClient := client.New(client.Options{
		BaseURL:    cfg.GeocoderBaseURL,
		Timeout:    cfg.HTTPTimeout,
		MaxRetries: cfg.MaxRetries,
		Observer:   telemetry.ObserveUpstream("geocoder"),
	})

	var geocoder geocode.ReverseGeocoder = geocode.NewNominatimGeocoder(geocoderClient)
	geocodeCache, err := cache.NewGeocodeCache(geocoder, cacheCfg)
	if err != nil {
		return nil, fmt.Errorf("initializing geocode cache: %w", err)
	}

	locationStore, err := newLocationStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	resolver := location.NewResolver(geocodeCache, location.NewCache(locationStore, cfg.DefaultLocationName))

	a := &App{}
	var listingCache search.ListingCache
	if cacheCfg.EnableLRUCache {
		store, err := newListingStore(ctx, cacheCfg)
		if err != nil {
			return nil, err
		}
		a.Listings, err = cache.NewListingCache(cacheCfg, store)
		if err != nil {
			return nil, fmt.Errorf("initializing listing cache: %w", err)
		}
		listingCache = a.Listings
	}
	fetcher := search.NewCachingFetcher(search.NewDirectoryFetcher(directoryClient), listingCache)

	a.Handler = handler.New(cfg, handler.Deps{
		Locator:    resolver,
		Searcher:   search.NewOrchestrator(fetcher, search.DefaultStrategies(cfg.DefaultStateCode, cfg.DefaultCity)...),
		Fetcher:    fetcher,
		Listings:   directoryClient,
		Sessions:   search.NewSessions(),
		Accounts:   account.NewService(directoryClient),
		Moderation: admin.NewService(directoryClient),
		Dashboards: business.NewService(directoryClient),
		Payments:   payment.NewService(directoryClient, cfg.PaymentPublicKey),
		Auth:       account.NewTokenVerifier(cfg.JWTSecret),
	})
	a.Router = handler.NewRouter(a.Handler.Routes())

	log.Info().
		Str("api", cfg.APIBaseURL).
		Bool("lru_cache", cacheCfg.EnableLRUCache).
		Bool("dynamo_cache", cacheCfg.EnableLRUCache && cacheCfg.EnableDynamoCache).
		Bool("s3_location", cfg.LocationBucket != "").
		Bool("verify_tokens", cfg.JWTSecret != "").
		Msg("Service initialized")
	return a, nil
}

func newLocationStore(ctx context.Context, cfg *config.Config) (location.Store, error) {
	if cfg.LocationBucket == "" {
		return location.NewMemoryStore(), nil
	}
	awsCfg, err := cache.LoadAWSConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return cache.NewS3LocationStore(s3.NewFromConfig(awsCfg), cfg.LocationBucket), nil
}

// newListingStore returns a nil interface, not a typed nil, when DynamoDB is off.
func newListingStore(ctx context.Context, cacheCfg *config.CacheConfig) (cache.ListingStore, error) {
	if !cacheCfg.EnableDynamoCache {
		return nil, nil
	}
	dynamoClient, err := cache.NewDynamoClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("initializing DynamoDB client: %w", err)
	}
	return cache.NewDynamoListingCache(dynamoClient, cacheCfg), nil
}
