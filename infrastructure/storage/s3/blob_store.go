package s3

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"salesadmin/pkg/errors"
)

// API is the slice of the S3 client the blob store uses
type API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// BlobStore implements ports.BlobStore on one S3 bucket. URLs are the
// public base URL joined with the object key.
type BlobStore struct {
	client  API
	bucket  string
	baseURL string
	logger  *zap.Logger
}

// NewBlobStore creates a new S3 blob store. An empty publicBaseURL means
// the bucket's virtual-hosted URL in the given region.
func NewBlobStore(client API, bucket, region, publicBaseURL string, logger *zap.Logger) *BlobStore {
	base := strings.TrimSpace(publicBaseURL)
	if base == "" {
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return &BlobStore{
		client:  client,
		bucket:  bucket,
		baseURL: strings.TrimSuffix(base, "/") + "/",
		logger:  logger,
	}
}

// Put uploads the body and returns its public URL
func (s *BlobStore) Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return "", errors.NewValidationError("blob key is empty")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", errors.NewStoreUnavailableError("upload", fmt.Errorf("bucket %s, key %s: %w", s.bucket, key, err))
	}

	s.logger.Debug("Blob uploaded", zap.String("bucket", s.bucket), zap.String("key", key))
	return s.baseURL + escapeKey(key), nil
}

// Delete removes the object behind a URL this store handed out
func (s *BlobStore) Delete(ctx context.Context, blobURL string) error {
	key, err := s.keyOf(blobURL)
	if err != nil {
		return err
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return errors.NewStoreUnavailableError("delete blob", fmt.Errorf("bucket %s, key %s: %w", s.bucket, key, err))
	}

	s.logger.Debug("Blob deleted", zap.String("bucket", s.bucket), zap.String("key", key))
	return nil
}

func (s *BlobStore) keyOf(blobURL string) (string, error) {
	if !strings.HasPrefix(blobURL, s.baseURL) {
		return "", errors.NewValidationError("blob URL does not belong to this store").WithDetail("url", blobURL)
	}
	key, err := url.PathUnescape(strings.TrimPrefix(blobURL, s.baseURL))
	if err != nil || key == "" {
		return "", errors.NewValidationError("blob URL has no usable key").WithDetail("url", blobURL)
	}
	return key, nil
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
