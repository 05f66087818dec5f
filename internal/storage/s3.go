// Package storage provides S3-backed blob storage for generated icons.
package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// contentType for stored icon blobs. The provider returns PNG data.
const contentType = "image/png"

// Config holds S3 connection settings.
type Config struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// Store uploads icon blobs to a single S3 bucket.
type Store struct {
	client *s3.Client
	bucket string
	region string
}

// New creates a Store with static credentials.
func New(ctx context.Context, cfg Config) (*Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Store{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.Bucket,
		region: cfg.Region,
	}, nil
}

// Upload decodes the base64 payload and writes it under key id.
func (s *Store) Upload(ctx context.Context, id string, b64 string) error {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return fmt.Errorf("decode image payload: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(id),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", id, err)
	}

	return nil
}

// URL derives the public URL for an icon id. This is a pure function of
// the bucket, region and id, so callers can persist the URL before the
// upload confirms.
func (s *Store) URL(id string) string {
	return ObjectURL(s.bucket, s.region, id)
}

// ObjectURL builds the virtual-hosted-style S3 URL for a key.
func ObjectURL(bucket, region, id string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, region, id)
}
