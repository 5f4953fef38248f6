package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/bbm-admin/apiserver/internal/events"
	"github.com/bbm-admin/apiserver/internal/storage"
	"github.com/bbm-admin/apiserver/types"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ImageRepository defines persistence operations for gallery images.
type ImageRepository interface {
	List(ctx context.Context, albumID string, limit int) ([]types.Image, error)
	Create(ctx context.Context, img types.Image) (types.Image, error)
	FindByIDs(ctx context.Context, ids []string) ([]types.Image, error)
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
}

// ObjectStore is the slice of the storage API the image service uses.
type ObjectStore interface {
	Configured() bool
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

// UploadInput carries a buffered upload into the image service.
type UploadInput struct {
	Filename    string
	ContentType string
	Data        []byte
	AlbumID     *string
}

// ImageService orchestrates the object store and the metadata rows.
type ImageService struct {
	repo         ImageRepository
	store        ObjectStore
	emitter      *events.Emitter
	strictDelete bool
	log          *logrus.Entry
}

func NewImageService(repo ImageRepository, store ObjectStore, emitter *events.Emitter, strictDelete bool) *ImageService {
	return &ImageService{
		repo:         repo,
		store:        store,
		emitter:      emitter,
		strictDelete: strictDelete,
		log:          logrus.WithField("component", "images"),
	}
}

// List returns images newest-first, optionally filtered by album. A
// requested limit is clamped to 100.
func (s *ImageService) List(ctx context.Context, albumID string, limit int) ([]types.Image, error) {
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.repo.List(ctx, albumID, limit)
}

// Upload writes the bytes to the object store under a generated key,
// then records the metadata row. The store must be configured; the
// check happens before any network call.
func (s *ImageService) Upload(ctx context.Context, in UploadInput) (types.Image, error) {
	if !s.store.Configured() {
		return types.Image{}, storage.ErrNotConfigured
	}

	key := objectKey(in.Filename)
	size := int64(len(in.Data))
	if err := s.store.Put(ctx, key, bytes.NewReader(in.Data), size, in.ContentType); err != nil {
		return types.Image{}, err
	}

	img := types.Image{
		AlbumID:  in.AlbumID,
		URL:      s.store.PublicURL(key),
		Path:     key,
		Filename: in.Filename,
		Size:     &size,
	}
	if in.ContentType != "" {
		contentType := in.ContentType
		img.MimeType = &contentType
	}

	created, err := s.repo.Create(ctx, img)
	if err != nil {
		return types.Image{}, err
	}
	s.emitter.Emit(ctx, "image", "created", created.ID)
	return created, nil
}

// Delete removes the requested images. Only ids that exist count
// toward the result. Each object is removed from storage before its
// row; a storage failure is logged and skipped unless strict deletes
// are configured, in which case it aborts the whole batch.
func (s *ImageService) Delete(ctx context.Context, ids []string) (int64, error) {
	found, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return 0, err
	}
	if len(found) == 0 {
		return 0, nil
	}

	foundIDs := make([]string, 0, len(found))
	for _, img := range found {
		if s.store.Configured() {
			if err := s.store.Delete(ctx, img.Path); err != nil {
				if s.strictDelete {
					return 0, fmt.Errorf("delete object %s: %w", img.Path, err)
				}
				s.log.WithError(err).WithField("path", img.Path).
					Warn("failed to delete object from storage, removing row anyway")
			}
		}
		foundIDs = append(foundIDs, img.ID)
	}

	deleted, err := s.repo.DeleteByIDs(ctx, foundIDs)
	if err != nil {
		return 0, err
	}
	s.emitter.Emit(ctx, "image", "deleted", strings.Join(foundIDs, ","))
	return deleted, nil
}

// objectKey builds a storage key of the form
// uploads/<year>/<month>/<uuid><ext>.
func objectKey(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	now := time.Now()
	return fmt.Sprintf("uploads/%04d/%02d/%s%s", now.Year(), int(now.Month()), uuid.NewString(), ext)
}
