package cache

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/rs/zerolog/log"
)

// DynamoDBClient is the subset of the DynamoDB API the listing cache uses
type DynamoDBClient interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// LoadAWSConfig loads the default AWS configuration, honouring AWS_REGION and friends.
func LoadAWSConfig(ctx context.Context) (aws.Config, error) {
	return config.LoadDefaultConfig(ctx)
}

// NewDynamoClient creates a new DynamoDB client based on environment
func NewDynamoClient(ctx context.Context) (*dynamodb.Client, error) {
	if endpoint := os.Getenv("DYNAMODB_ENDPOINT"); endpoint != "" {
		// Local development configuration
		log.Debug().Str("endpoint", endpoint).Msg("Using local DynamoDB endpoint")
		customOptions := []func(*config.LoadOptions) error{
			config.WithRegion("local"),
			config.WithClientLogMode(aws.LogRetries),
		}

		cfg, err := config.LoadDefaultConfig(ctx, customOptions...)
		if err != nil {
			return nil, err
		}

		client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})

		return client, nil
	}

	cfg, err := LoadAWSConfig(ctx)
	if err != nil {
		return nil, err
	}

	return dynamodb.NewFromConfig(cfg), nil
}
