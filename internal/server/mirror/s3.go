// Package mirror copies merged files to S3-compatible object storage.
package mirror

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config describes the target bucket. Endpoint is optional and switches the
// client to path-style addressing (MinIO and friends).
type Config struct {
	Bucket   string
	Region   string
	Endpoint string
	User     string
	Password string
}

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

type S3Mirror struct {
	bucket string
	client objectPutter
}

func New(ctx context.Context, c Config) (*S3Mirror, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(c.Region)}
	if c.User != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.User, c.Password, "")))
	}

	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Mirror{bucket: c.Bucket, client: client}, nil
}

// Put uploads body under key.
func (m *S3Mirror) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	in := &s3.PutObjectInput{
		Bucket:        aws.String(m.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if _, err := m.client.PutObject(ctx, in); err != nil {
		return fmt.Errorf("put object %s/%s: %w", m.bucket, key, err)
	}
	return nil
}
