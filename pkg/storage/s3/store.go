// Package s3 provides an S3-backed FileIO for warehouses on S3 or
// S3-compatible object stores (MinIO, Localstack).
package s3

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/marmos91/lakecleaner/internal/telemetry"
	"github.com/marmos91/lakecleaner/pkg/storage"
)

// Config holds configuration for the S3 store.
type Config struct {
	// Bucket is used for bare keys and must match the bucket of s3:// URIs
	// unless AllowAnyBucket is set.
	Bucket string `mapstructure:"bucket" yaml:"bucket"`

	// Region is the AWS region (optional, uses SDK default if empty).
	Region string `mapstructure:"region" yaml:"region"`

	// Endpoint is the S3 endpoint URL (optional, for S3-compatible services).
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// KeyPrefix is prepended to bare keys. Should end with "/" if non-empty.
	KeyPrefix string `mapstructure:"key_prefix" yaml:"key_prefix"`

	// ForcePathStyle forces path-style addressing (required for Localstack/MinIO).
	ForcePathStyle bool `mapstructure:"force_path_style" yaml:"force_path_style"`

	// AllowAnyBucket lets s3:// URIs address buckets other than Bucket.
	AllowAnyBucket bool `mapstructure:"allow_any_bucket" yaml:"allow_any_bucket"`

	// Static credentials. Empty values fall back to the default AWS chain.
	AccessKeyID     string `mapstructure:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key"`
}

// API is the subset of the S3 client used by Store.
type API interface {
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// Metrics receives per-request observations. A nil Metrics has no overhead.
type Metrics interface {
	ObserveOperation(operation string, duration time.Duration, err error)
}

// Store is an S3-backed implementation of storage.FileIO.
type Store struct {
	client    API
	bucket    string
	keyPrefix string
	anyBucket bool
	metrics   Metrics

	mu     sync.RWMutex
	closed bool
}

// New creates a store over an existing client.
func New(client API, config Config, metrics Metrics) *Store {
	return &Store{
		client:    client,
		bucket:    config.Bucket,
		keyPrefix: config.KeyPrefix,
		anyBucket: config.AllowAnyBucket,
		metrics:   metrics,
	}
}

// NewFromConfig creates a store by building an S3 client from config.
func NewFromConfig(ctx context.Context, config Config, metrics Metrics) (*Store, error) {
	client, err := NewClient(ctx, config)
	if err != nil {
		return nil, err
	}
	return New(client, config, metrics), nil
}

// NewClient builds an S3 client from config.
func NewClient(ctx context.Context, config Config) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error

	if config.Region != "" {
		opts = append(opts, awsconfig.WithRegion(config.Region))
	}
	if config.AccessKeyID != "" && config.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(config.AccessKeyID, config.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if config.Endpoint != "" {
			o.BaseEndpoint = aws.String(config.Endpoint)
		}
		o.UsePathStyle = config.ForcePathStyle
	}), nil
}

// Type implements storage.Typed.
func (s *Store) Type() string {
	return "s3"
}

// Exists implements storage.FileIO using HeadObject.
func (s *Store) Exists(ctx context.Context, path string) (bool, error) {
	if err := s.checkOpen(); err != nil {
		return false, err
	}

	bucket, key, err := s.locate(path)
	if err != nil {
		return false, err
	}

	ctx, span := telemetry.StartStorageSpan(ctx, telemetry.SpanStorageHead, s.Type(),
		telemetry.Bucket(bucket), telemetry.Key(key))
	defer span.End()

	start := time.Now()
	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil && isNotFoundError(err) {
		s.observe("HeadObject", start, nil)
		return false, nil
	}
	s.observe("HeadObject", start, err)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return false, fmt.Errorf("s3 head object: %w", err)
	}

	return true, nil
}

// Delete implements storage.FileIO using DeleteObject. S3 deletes are
// idempotent, so a missing key succeeds.
func (s *Store) Delete(ctx context.Context, path string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	bucket, key, err := s.locate(path)
	if err != nil {
		return err
	}

	ctx, span := telemetry.StartStorageSpan(ctx, telemetry.SpanStorageDel, s.Type(),
		telemetry.Bucket(bucket), telemetry.Key(key))
	defer span.End()

	start := time.Now()
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil && isNotFoundError(err) {
		err = nil
	}
	s.observe("DeleteObject", start, err)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return fmt.Errorf("s3 delete object: %w", err)
	}

	return nil
}

// HealthCheck verifies the configured bucket is accessible.
func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("S3 health check failed: %w", err)
	}
	return nil
}

// Close marks the store as closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Store) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return storage.ErrStoreClosed
	}
	return nil
}

func (s *Store) observe(op string, start time.Time, err error) {
	if s.metrics != nil {
		s.metrics.ObserveOperation(op, time.Since(start), err)
	}
}

// locate splits path into bucket and key. It accepts s3://, s3a:// and
// s3n:// URIs as well as bare keys, which are resolved against the
// configured bucket and key prefix.
func (s *Store) locate(path string) (bucket, key string, err error) {
	bucket, key, isURI := ParseURI(path)
	if !isURI {
		if s.bucket == "" {
			return "", "", fmt.Errorf("%w: bare key %q without a configured bucket", storage.ErrInvalidPath, path)
		}
		bucket, key = s.bucket, s.keyPrefix+strings.TrimPrefix(path, "/")
	}

	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %q", storage.ErrInvalidPath, path)
	}
	if !s.anyBucket && s.bucket != "" && bucket != s.bucket {
		return "", "", fmt.Errorf("%w: bucket %q does not match %q", storage.ErrInvalidPath, bucket, s.bucket)
	}
	return bucket, key, nil
}

// ParseURI splits an s3-style URI into bucket and key. ok is false when path
// carries no s3 scheme.
func ParseURI(path string) (bucket, key string, ok bool) {
	for _, scheme := range []string{"s3://", "s3a://", "s3n://"} {
		if rest, found := strings.CutPrefix(path, scheme); found {
			bucket, key, _ = strings.Cut(rest, "/")
			return bucket, key, true
		}
	}
	return "", "", false
}

// isNotFoundError reports whether err means the object does not exist.
func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}

	var nsk *types.NoSuchKey
	var nf *types.NotFound
	if errors.As(err, &nsk) || errors.As(err, &nf) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "404":
			return true
		}
	}

	errStr := err.Error()
	return strings.Contains(errStr, "NoSuchKey") ||
		strings.Contains(errStr, "NotFound") ||
		strings.Contains(errStr, "StatusCode: 404")
}

var _ storage.FileIO = (*Store)(nil)
