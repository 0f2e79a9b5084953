// Package storage keeps uploaded images in an S3-compatible object store
// (MinIO in development).
package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/gophplaces/internal/common"
	sc "github.com/dmitrijs2005/gophplaces/internal/server/config"
	"github.com/dmitrijs2005/gophplaces/internal/server/metrics"
	"github.com/dmitrijs2005/gophplaces/internal/server/models"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Folders objects are grouped under.
const (
	FolderPlaces = "places"
	FolderUsers  = "users"
)

// allowedTypes are the accepted image content types, keyed by what
// clients send; image/jpg is a common non-standard alias.
var allowedTypes = map[string]string{
	"image/png":  "image/png",
	"image/jpeg": "image/jpeg",
	"image/jpg":  "image/jpeg",
	"image/avif": "image/avif",
}

// objectAPI is the part of *s3.Client the store uses.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) objectAPI {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// S3Storage uploads and deletes objects in a single bucket.
type S3Storage struct {
	client    objectAPI
	bucket    string
	publicURL string
	timeout   time.Duration
}

// NewS3Storage builds a path-style S3 client from static credentials.
func NewS3Storage(ctx context.Context, c *sc.Config) (*S3Storage, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(c.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.S3RootUser,
			c.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(c.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	publicBase := c.S3PublicBaseURL
	if publicBase == "" {
		publicBase = c.S3BaseEndpoint
	}

	return newS3Storage(client, c.S3Bucket, publicBase, c.ExternalCallTimeout), nil
}

func newS3Storage(client objectAPI, bucket, publicBase string, timeout time.Duration) *S3Storage {
	return &S3Storage{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicBase, "/") + "/" + bucket + "/",
		timeout:   timeout,
	}
}

// Upload stores data under folder and returns its handle. The declared
// contentType must be an accepted image type and agree with the sniffed
// content; an empty contentType is taken from the sniffed content.
func (s *S3Storage) Upload(ctx context.Context, data []byte, contentType, folder string) (*models.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image", common.ErrUploadFailed)
	}

	detected := mimetype.Detect(data)
	if contentType == "" {
		contentType = detected.String()
	}
	normalized, ok := allowedTypes[strings.ToLower(contentType)]
	if !ok {
		return nil, fmt.Errorf("%w: invalid mime type %q", common.ErrUploadFailed, contentType)
	}
	if !detected.Is(normalized) {
		return nil, fmt.Errorf("%w: content is %s, declared %s", common.ErrUploadFailed, detected.String(), contentType)
	}

	key := folder + "/" + uuid.NewString() + detected.Extension()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(normalized),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		metrics.RecordExternalCall("storage", "upload", metrics.OutcomeError)
		return nil, fmt.Errorf("%w: %v", common.ErrUploadFailed, err)
	}
	metrics.RecordExternalCall("storage", "upload", metrics.OutcomeOK)

	return &models.Image{Key: key, URL: s.publicURL + key}, nil
}

// Delete removes the object stored under key. Callers treat failures as
// non-fatal.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		metrics.RecordExternalCall("storage", "delete", metrics.OutcomeError)
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	metrics.RecordExternalCall("storage", "delete", metrics.OutcomeOK)
	return nil
}

func (s *S3Storage) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}
