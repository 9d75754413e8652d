package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/serpscope/serpscope/internal/config"
	"github.com/serpscope/serpscope/internal/types"
)

// S3Store archives analyses (and rendered artifacts) to an S3 bucket.
// It is write-only: there is no Reader implementation.
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
	logger *slog.Logger
}

// NewS3Store builds the client from the default AWS credential chain,
// honoring a custom endpoint for S3-compatible stores.
func NewS3Store(ctx context.Context, cfg *config.StorageConfig, logger *slog.Logger) (*S3Store, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("s3 backend requires a bucket")
	}

	var loadOpts []func(*awsConfig.LoadOptions) error
	if cfg.S3Region != "" {
		loadOpts = append(loadOpts, awsConfig.WithRegion(cfg.S3Region))
	}
	if cfg.S3Endpoint != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				return aws.Endpoint{URL: cfg.S3Endpoint, SigningRegion: cfg.S3Region}, nil
			})
		loadOpts = append(loadOpts, awsConfig.WithEndpointResolverWithOptions(resolver))
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	pathStyle := cfg.S3PathStyle
	return &S3Store{
		client: s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.UsePathStyle = pathStyle
		}),
		bucket: cfg.S3Bucket,
		prefix: cfg.S3Prefix,
		logger: logger.With("component", "s3_storage"),
	}, nil
}

func (s *S3Store) Name() string { return "s3" }

func (s *S3Store) Close() error { return nil }

func (s *S3Store) Save(ctx context.Context, a *types.Analysis) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return &types.StorageError{Backend: "s3", Op: "marshal", Err: err}
	}

	key := fmt.Sprintf("serp_%s_%s.json", a.Slug(), a.Timestamp.Format("20060102_150405"))
	if _, err := s.Put(ctx, key, "application/json", data); err != nil {
		return &types.StorageError{Backend: "s3", Op: "put", Err: err}
	}
	return nil
}

// Put uploads one artifact under the configured prefix and returns its
// s3:// URL. Used for analyses and for rendered report files.
func (s *S3Store) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	fullKey := key
	if s.prefix != "" {
		fullKey = path.Join(s.prefix, key)
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(fullKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("s3://%s/%s", s.bucket, fullKey)
	s.logger.Debug("artifact uploaded", "url", url, "bytes", len(data))
	return url, nil
}
