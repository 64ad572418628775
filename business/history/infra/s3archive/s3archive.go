// Package s3archive uploads closed history partitions to S3 or an
// S3-compatible store (MinIO, R2, LocalStack).
package s3archive

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/fd1az/dex-arbitrage-scanner/business/history/app"
)

const partSize int64 = 5 * 1024 * 1024

// Config holds the destination bucket and connection settings.
type Config struct {
	Bucket   string
	Region   string
	Endpoint string // empty for AWS
	// Static credentials. Empty uses the default AWS credential chain.
	AccessKey      string
	SecretKey      string
	ForcePathStyle bool
}

type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type bucketHeader interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// Archiver implements app.Archiver.
type Archiver struct {
	uploader uploader
	head     bucketHeader
	bucket   string
}

var _ app.Archiver = (*Archiver)(nil)

// New builds the S3 client and upload manager.
func New(ctx context.Context, cfg Config) (*Archiver, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3archive: bucket name is required")
	}

	opts := []func(*config.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3archive: load aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	if cfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}
	client := s3.NewFromConfig(awsCfg, s3Opts...)

	return &Archiver{
		uploader: manager.NewUploader(client, func(u *manager.Uploader) {
			u.PartSize = partSize
		}),
		head:   client,
		bucket: cfg.Bucket,
	}, nil
}

// Upload stores body under key as JSON.
func (a *Archiver) Upload(ctx context.Context, key string, body []byte) error {
	_, err := a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("s3archive: upload %s: %w", key, err)
	}
	return nil
}

// Ping checks the bucket is reachable with the configured credentials.
func (a *Archiver) Ping(ctx context.Context) error {
	if _, err := a.head.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(a.bucket)}); err != nil {
		return fmt.Errorf("s3archive: head bucket %s: %w", a.bucket, err)
	}
	return nil
}
