package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"induction-portal/internal/config"
	"induction-portal/internal/domain"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const defaultPresignTTL = time.Hour

// Presigner is the subset of *minio.Client used to sign video downloads.
type Presigner interface {
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
}

// NewMinioClient connects to the S3-compatible store holding uploaded videos.
func NewMinioClient(cfg config.StorageConfig) (*minio.Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("storage endpoint is not configured")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return client, nil
}

// VideoResolver turns chapter video references into playable URLs.
// External URLs win; uploaded paths are presigned against the bucket.
type VideoResolver struct {
	client Presigner
	bucket string
	ttl    time.Duration
}

// NewVideoResolver builds a resolver. A nil client returns stored paths unchanged.
func NewVideoResolver(client Presigner, bucket string, ttl time.Duration) domain.VideoURLResolver {
	if ttl <= 0 {
		ttl = defaultPresignTTL
	}
	return &VideoResolver{client: client, bucket: bucket, ttl: ttl}
}

func (r *VideoResolver) ResolveVideoURL(ctx context.Context, chapter *domain.Chapter) (string, error) {
	if chapter == nil {
		return "", nil
	}
	if u := strings.TrimSpace(chapter.VideoURL); u != "" {
		return u, nil
	}
	path := strings.TrimSpace(chapter.VideoPath)
	if path == "" {
		return "", nil
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path, nil
	}
	if r.client == nil {
		return path, nil
	}

	object := strings.TrimPrefix(path, "/")
	object = strings.TrimPrefix(object, r.bucket+"/")
	signed, err := r.client.PresignedGetObject(ctx, r.bucket, object, r.ttl, nil)
	if err != nil {
		return "", fmt.Errorf("failed to presign video %s: %w", object, err)
	}
	return signed.String(), nil
}
