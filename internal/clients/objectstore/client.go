// Package objectstore uploads export files to an S3-compatible bucket (AWS S3, Cloudflare R2,
// MinIO).
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// defaultRegion is what R2 and most S3-compatible stores accept.
const defaultRegion = "auto"

// ErrNotConfigured is returned by a nil client.
var ErrNotConfigured = errors.New("object store not configured")

// Config describes the target bucket and how to reach it.
type Config struct {
	Bucket          string
	Endpoint        string // empty for AWS S3
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
}

// Uploader is the subset of manager.Uploader the client needs.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Client uploads objects under a fixed bucket and key prefix.
type Client struct {
	uploader Uploader
	bucket   string
	prefix   string
	log      zerolog.Logger
}

// New builds a client from static credentials, falling back to the default AWS credential
// chain when no key pair is given.
func New(ctx context.Context, cfg Config, log zerolog.Logger) (*Client, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewWithUploader(manager.NewUploader(s3Client), cfg.Bucket, cfg.Prefix, log), nil
}

// NewWithUploader creates a client around an existing uploader
func NewWithUploader(uploader Uploader, bucket, prefix string, log zerolog.Logger) *Client {
	return &Client{
		uploader: uploader,
		bucket:   bucket,
		prefix:   prefix,
		log:      log.With().Str("client", "objectstore").Str("bucket", bucket).Logger(),
	}
}

// Key returns the object key a file name is stored under.
func (c *Client) Key(name string) string {
	if c.prefix == "" {
		return name
	}
	return path.Join(c.prefix, name)
}

// Upload stores body under the prefixed name and returns the object location.
func (c *Client) Upload(ctx context.Context, name string, body io.Reader, contentType string) (string, error) {
	if c == nil {
		return "", ErrNotConfigured
	}

	key := c.Key(name)
	out, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	location := fmt.Sprintf("s3://%s/%s", c.bucket, key)
	if out != nil && out.Location != "" {
		location = out.Location
	}

	c.log.Info().Str("key", key).Str("location", location).Msg("Uploaded export")
	return location, nil
}
