package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config selects the bucket results are copied into.
type S3Config struct {
	Bucket string
	Prefix string
	Region string
}

// objectPutter is the slice of the S3 API the store needs.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store saves downloaded results into an S3 bucket.
type S3Store struct {
	client objectPutter
	bucket string
	prefix string
}

// NewS3Store loads the default AWS credential chain and returns a store for cfg.Bucket.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("storage: s3 bucket is required")
	}
	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}
	return newS3Store(s3.NewFromConfig(awsCfg), cfg), nil
}

func newS3Store(client objectPutter, cfg S3Config) *S3Store {
	prefix := strings.TrimLeft(strings.TrimSpace(cfg.Prefix), "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3Store{client: client, bucket: cfg.Bucket, prefix: prefix}
}

// Write uploads data to prefix+key and returns the s3:// location.
func (s *S3Store) Write(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	objectKey := s.prefix + cleanKey
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("storage: put s3 object: %w", err)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, objectKey), nil
}

// MultiStore writes to every store in order. The first store's location is
// returned; an error from any store aborts the write.
type MultiStore []Store

func (m MultiStore) Write(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if len(m) == 0 {
		return "", errors.New("storage: no store configured")
	}
	var first string
	for i, store := range m {
		location, err := store.Write(ctx, key, data, contentType)
		if err != nil {
			return "", err
		}
		if i == 0 {
			first = location
		}
	}
	return first, nil
}

var (
	_ Store = (*S3Store)(nil)
	_ Store = MultiStore(nil)
)
