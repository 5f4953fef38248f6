package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/bbm-admin/apiserver/types"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ImageRepository handles persistence for gallery images.
type ImageRepository struct {
	db *sql.DB
}

func NewImageRepository(db *sql.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

// List returns images newest-first, optionally filtered by album.
// A limit below 1 returns all rows.
func (r *ImageRepository) List(ctx context.Context, albumID string, limit int) ([]types.Image, error) {
	query := `
		SELECT id, album_id, url, path, filename, size, mime_type, created_at
		FROM images`
	var args []any
	if albumID != "" {
		args = append(args, albumID)
		query += ` WHERE album_id = $1`
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		args = append(args, limit)
		if albumID != "" {
			query += ` LIMIT $2`
		} else {
			query += ` LIMIT $1`
		}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	images := make([]types.Image, 0)
	for rows.Next() {
		var img types.Image
		if err := rows.Scan(
			&img.ID,
			&img.AlbumID,
			&img.URL,
			&img.Path,
			&img.Filename,
			&img.Size,
			&img.MimeType,
			&img.CreatedAt,
		); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return images, nil
}

func (r *ImageRepository) Create(ctx context.Context, img types.Image) (types.Image, error) {
	img.ID = uuid.NewString()
	img.CreatedAt = time.Now()

	const query = `
		INSERT INTO images (id, album_id, url, path, filename, size, mime_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		img.ID,
		img.AlbumID,
		img.URL,
		img.Path,
		img.Filename,
		img.Size,
		img.MimeType,
		img.CreatedAt,
	); err != nil {
		return types.Image{}, err
	}
	return img, nil
}

// FindByIDs returns the subset of the given ids that exist.
func (r *ImageRepository) FindByIDs(ctx context.Context, ids []string) ([]types.Image, error) {
	const query = `
		SELECT id, album_id, url, path, filename, size, mime_type, created_at
		FROM images
		WHERE id = ANY($1)`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	images := make([]types.Image, 0, len(ids))
	for rows.Next() {
		var img types.Image
		if err := rows.Scan(
			&img.ID,
			&img.AlbumID,
			&img.URL,
			&img.Path,
			&img.Filename,
			&img.Size,
			&img.MimeType,
			&img.CreatedAt,
		); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return images, nil
}

// DeleteByIDs removes the given rows and reports how many existed.
func (r *ImageRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM images WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
