package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/bbernstein/laundrylocator/backend-go/internal/location"
	"github.com/rs/zerolog/log"
)

// S3Client defines the interface for S3 operations we need
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

const locationObjectKey = "last-location.json"

// S3LocationStore keeps the last resolved location name in a single S3 object so it
// survives cold starts.
type S3LocationStore struct {
	client     S3Client
	bucketName string
	clock      clock
}

var _ location.Store = (*S3LocationStore)(nil)

// locationRecord is the JSON document stored in the bucket
type locationRecord struct {
	DisplayName string `json:"displayName"`
	LastUpdated int64  `json:"lastUpdated"`
}

func NewS3LocationStore(client S3Client, bucketName string) *S3LocationStore {
	return &S3LocationStore{
		client:     client,
		bucketName: bucketName,
		clock:      systemClock{},
	}
}

// Get reads the stored name. A missing object is reported as not stored, not as an error.
func (c *S3LocationStore) Get(ctx context.Context) (string, bool, error) {
	if c.bucketName == "" {
		return "", false, fmt.Errorf("empty bucket name")
	}

	result, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucketName),
		Key:    aws.String(locationObjectKey),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading from S3: %w", err)
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			log.Error().Err(err).Msg("Error closing S3 object body")
		}
	}(result.Body)

	var record locationRecord
	if err := json.NewDecoder(result.Body).Decode(&record); err != nil {
		return "", false, fmt.Errorf("decoding location record: %w", err)
	}

	return record.DisplayName, record.DisplayName != "", nil
}

// Put overwrites the stored name.
func (c *S3LocationStore) Put(ctx context.Context, name string) error {
	if c.bucketName == "" {
		return fmt.Errorf("empty bucket name")
	}

	record := locationRecord{
		DisplayName: name,
		LastUpdated: c.clock.Now().Unix(),
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(record); err != nil {
		return fmt.Errorf("encoding location record: %w", err)
	}

	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucketName),
		Key:         aws.String(locationObjectKey),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("saving to S3: %w", err)
	}

	log.Debug().Str("display_name", name).Msg("Saved last location to S3")
	return nil
}
