package media

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Store implements Store against an S3-compatible backend (AWS S3 or MinIO).
// Single bucket; object keys are "<scope>/<uuid>".
type S3Store struct {
	client *s3.Client
	bucket string
	region string
	base   *url.URL // optional explicit endpoint for constructing local-style URLs
}

// S3Config holds explicit construction parameters.
type S3Config struct {
	Region    string
	Bucket    string
	Endpoint  string // optional; enables a custom endpoint (e.g. MinIO)
	PathStyle bool
}

// NewS3Store creates an S3-backed media store.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	var base *url.URL
	if cfg.Endpoint != "" {
		if u, err := url.Parse(cfg.Endpoint); err == nil {
			base = u
		}
	}

	return &S3Store{client: client, bucket: cfg.Bucket, region: region, base: base}, nil
}

func (s *S3Store) Upload(ctx context.Context, scope string, r io.Reader, opts UploadOptions) (Object, error) {
	key := fmt.Sprintf("%s/%s", strings.Trim(scope, "/"), uuid.NewString())

	input := &s3.PutObjectInput{Bucket: &s.bucket, Key: &key, Body: r}
	if opts.ContentType != "" {
		input.ContentType = &opts.ContentType
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return Object{}, err
	}

	return Object{URL: s.objectURL(key), Key: key}, nil
}

func (s *S3Store) Destroy(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &s.bucket, Key: &key})
	return err
}

func (s *S3Store) objectURL(key string) string {
	if s.base != nil {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.base.String(), "/"), s.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
