package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/bbernstein/laundrylocator/backend-go/internal/config"
	"github.com/bbernstein/laundrylocator/backend-go/internal/models"
	"github.com/rs/zerolog/log"
)

// ListingRecord is one cached search result set
type ListingRecord struct {
	QueryKey    string           `dynamodbav:"queryKey"`
	Listings    []models.Listing `dynamodbav:"listings"`
	LastUpdated int64            `dynamodbav:"lastUpdated"`
	TTL         int64            `dynamodbav:"ttl"`
}

// DynamoListingCache stores search results in DynamoDB so warm results are shared
// between Lambda instances.
type DynamoListingCache struct {
	client    DynamoDBClient
	tableName string
	ttl       time.Duration
	clock     clock
}

func NewDynamoListingCache(client DynamoDBClient, cacheConfig *config.CacheConfig) *DynamoListingCache {
	if cacheConfig == nil {
		cacheConfig = config.GetCacheConfig()
	}
	return &DynamoListingCache{
		client:    client,
		tableName: cacheConfig.ListingTableName,
		ttl:       cacheConfig.GetListingDynamoTTL(),
		clock:     systemClock{},
	}
}

// GetListings returns the cached record for key, or nil when absent or expired
func (c *DynamoListingCache) GetListings(ctx context.Context, key string) (*ListingRecord, error) {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			"queryKey": &types.AttributeValueMemberS{Value: key},
		},
	}

	result, err := c.client.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("getting listings from DynamoDB: %w", err)
	}

	if result.Item == nil {
		return nil, nil
	}

	var record ListingRecord
	if err := attributevalue.UnmarshalMap(result.Item, &record); err != nil {
		return nil, fmt.Errorf("unmarshaling listing record: %w", err)
	}

	// DynamoDB TTL deletion is lazy, so expiry is checked here too
	if c.clock.Now().Unix() >= record.TTL {
		log.Debug().Str("query_key", key).Msg("Cache expired")
		return nil, nil
	}

	return &record, nil
}

// SaveListings writes listings for key with the configured TTL
func (c *DynamoListingCache) SaveListings(ctx context.Context, key string, listings []models.Listing) error {
	if key == "" {
		return fmt.Errorf("query key is required")
	}

	now := c.clock.Now().Unix()
	record := ListingRecord{
		QueryKey:    key,
		Listings:    listings,
		LastUpdated: now,
		TTL:         now + int64(c.ttl.Seconds()),
	}

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("marshaling listing record: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item:      item,
	}

	if _, err := c.client.PutItem(ctx, input); err != nil {
		return fmt.Errorf("putting listings in DynamoDB: %w", err)
	}

	log.Debug().
		Str("query_key", key).
		Int("listing_count", len(listings)).
		Msg("Saved listings to cache")

	return nil
}
