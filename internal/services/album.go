package services

import (
	"context"

	"github.com/bbm-admin/apiserver/internal/events"
	"github.com/bbm-admin/apiserver/types"
)

// AlbumRepository defines persistence operations for albums.
type AlbumRepository interface {
	List(ctx context.Context, limit int, summary bool) ([]types.Album, error)
	Get(ctx context.Context, id string) (types.Album, error)
	Create(ctx context.Context, album types.Album) (types.Album, error)
	Update(ctx context.Context, id string, patch types.AlbumUpdate) (types.Album, error)
	Delete(ctx context.Context, id string) error
}

// AlbumService encapsulates album use-cases.
type AlbumService struct {
	repo    AlbumRepository
	emitter *events.Emitter
}

func NewAlbumService(repo AlbumRepository, emitter *events.Emitter) *AlbumService {
	return &AlbumService{repo: repo, emitter: emitter}
}

// List returns albums newest-first; summary mode swaps nested image
// arrays for counts. A requested limit is clamped to 100.
func (s *AlbumService) List(ctx context.Context, limit int, summary bool) ([]types.Album, error) {
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.repo.List(ctx, limit, summary)
}

func (s *AlbumService) Get(ctx context.Context, id string) (types.Album, error) {
	return s.repo.Get(ctx, id)
}

func (s *AlbumService) Create(ctx context.Context, album types.Album) (types.Album, error) {
	created, err := s.repo.Create(ctx, album)
	if err != nil {
		return types.Album{}, err
	}
	s.emitter.Emit(ctx, "album", "created", created.ID)
	return created, nil
}

// Update patches an album. The existence check runs first so a missing
// id is reported as not-found rather than a generic write failure.
func (s *AlbumService) Update(ctx context.Context, id string, patch types.AlbumUpdate) (types.Album, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return types.Album{}, err
	}
	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return types.Album{}, err
	}
	s.emitter.Emit(ctx, "album", "updated", id)
	return updated, nil
}

// Delete removes an album; member images survive with their album
// reference cleared.
func (s *AlbumService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.emitter.Emit(ctx, "album", "deleted", id)
	return nil
}
