package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"storefront/internal/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MaxImageSize caps admin uploads.
const MaxImageSize = 5 << 20

// ErrUnsupportedType is returned for uploads that are not images.
var ErrUnsupportedType = errors.New("unsupported content type")

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ObjectStore persists uploaded files and exposes them by URL.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	URL(key string) string
}

// MinioStore implements ObjectStore on MinIO or any S3 compatible service.
type MinioStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewMinioStore connects and creates the bucket when missing.
func NewMinioStore(ctx context.Context, cfg config.StorageConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = scheme + "://" + cfg.Endpoint + "/" + cfg.Bucket
	}
	return &MinioStore{client: client, bucket: cfg.Bucket, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

func (m *MinioStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

func (m *MinioStore) URL(key string) string {
	return m.publicURL + "/" + key
}

// ImageKey builds a unique object key for an image of contentType under
// folder, or ErrUnsupportedType.
func ImageKey(folder, contentType string) (string, error) {
	ext, ok := imageExtensions[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return "", ErrUnsupportedType
	}
	folder = strings.Trim(folder, "/")
	if folder == "" {
		folder = "uploads"
	}
	return path.Join(folder, time.Now().UTC().Format("2006/01"), uuid.NewString()+ext), nil
}
