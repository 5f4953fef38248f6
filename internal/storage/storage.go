package storage

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/bbm-admin/apiserver/config"
)

// ErrNotConfigured is returned when no object storage backend is
// configured. Callers must see it before any network call is made.
var ErrNotConfigured = errors.New("object storage is not configured")

// ObjectStorage defines common object operations across backends.
// PublicURL is derived deterministically; no round trip is needed to
// know an object's URL after a successful upload.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
	Bucket() string
}

// Storage wraps an ObjectStorage backend with a stable API. A nil
// backend reports ErrNotConfigured for every operation.
type Storage struct {
	backend ObjectStorage
}

// New constructs a Storage for the configured backend. An empty
// backend name yields an unconfigured Storage, not an error: uploads
// fail with ErrNotConfigured while the rest of the API keeps working.
func New(ctx context.Context, cfg config.StorageConfig) (*Storage, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "":
		return &Storage{}, nil
	case "minio":
		backend, err := NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, err
		}
		return &Storage{backend: backend}, nil
	case "gcs":
		backend, err := NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		return &Storage{backend: backend}, nil
	default:
		return nil, errors.New("unknown storage backend: " + cfg.Backend)
	}
}

// Configured reports whether a backend is available.
func (s *Storage) Configured() bool {
	return s.backend != nil
}

// EnsureBucket ensures the configured bucket exists.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	if s.backend == nil {
		return ErrNotConfigured
	}
	return s.backend.EnsureBucket(ctx)
}

// Put uploads an object to the configured bucket.
func (s *Storage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if s.backend == nil {
		return ErrNotConfigured
	}
	return s.backend.Put(ctx, key, r, size, contentType)
}

// Delete removes an object from the configured bucket.
func (s *Storage) Delete(ctx context.Context, key string) error {
	if s.backend == nil {
		return ErrNotConfigured
	}
	return s.backend.Delete(ctx, key)
}

// PublicURL returns the public URL for an object key.
func (s *Storage) PublicURL(key string) string {
	if s.backend == nil {
		return ""
	}
	return s.backend.PublicURL(key)
}

// Bucket returns the configured bucket name.
func (s *Storage) Bucket() string {
	if s.backend == nil {
		return ""
	}
	return s.backend.Bucket()
}
