package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bbm-admin/apiserver/types"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// AlbumRepository handles persistence for albums.
type AlbumRepository struct {
	db *sql.DB
}

func NewAlbumRepository(db *sql.DB) *AlbumRepository {
	return &AlbumRepository{db: db}
}

// List returns albums newest-first. In summary mode each album carries
// its member image count; otherwise the full image list is attached.
// A limit below 1 returns all rows.
func (r *AlbumRepository) List(ctx context.Context, limit int, summary bool) ([]types.Album, error) {
	query := `
		SELECT id, name, description, cover_url, created_at, updated_at
		FROM albums
		ORDER BY created_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	albums := make([]types.Album, 0)
	ids := make([]string, 0)
	for rows.Next() {
		var album types.Album
		if err := rows.Scan(
			&album.ID,
			&album.Name,
			&album.Description,
			&album.CoverURL,
			&album.CreatedAt,
			&album.UpdatedAt,
		); err != nil {
			return nil, err
		}
		albums = append(albums, album)
		ids = append(ids, album.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(albums) == 0 {
		return albums, nil
	}

	if summary {
		if err := r.attachCounts(ctx, albums, ids); err != nil {
			return nil, err
		}
		return albums, nil
	}
	if err := r.attachImages(ctx, albums, ids); err != nil {
		return nil, err
	}
	return albums, nil
}

func (r *AlbumRepository) attachCounts(ctx context.Context, albums []types.Album, ids []string) error {
	const query = `
		SELECT album_id, COUNT(1)
		FROM images
		WHERE album_id = ANY($1)
		GROUP BY album_id`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	counts := make(map[string]int, len(albums))
	for rows.Next() {
		var albumID string
		var count int
		if err := rows.Scan(&albumID, &count); err != nil {
			return err
		}
		counts[albumID] = count
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range albums {
		albums[i].Count = &types.AlbumCount{Images: counts[albums[i].ID]}
	}
	return nil
}

func (r *AlbumRepository) attachImages(ctx context.Context, albums []types.Album, ids []string) error {
	const query = `
		SELECT id, album_id, url, path, filename, size, mime_type, created_at
		FROM images
		WHERE album_id = ANY($1)
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	byAlbum := make(map[string][]types.Image, len(albums))
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
			return err
		}
		if img.AlbumID != nil {
			byAlbum[*img.AlbumID] = append(byAlbum[*img.AlbumID], img)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range albums {
		images := byAlbum[albums[i].ID]
		if images == nil {
			images = make([]types.Image, 0)
		}
		albums[i].Images = images
	}
	return nil
}

func (r *AlbumRepository) Get(ctx context.Context, id string) (types.Album, error) {
	const query = `
		SELECT id, name, description, cover_url, created_at, updated_at
		FROM albums
		WHERE id = $1`
	var album types.Album
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&album.ID,
		&album.Name,
		&album.Description,
		&album.CoverURL,
		&album.CreatedAt,
		&album.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Album{}, ErrNotFound
		}
		return types.Album{}, err
	}
	return album, nil
}

func (r *AlbumRepository) Create(ctx context.Context, album types.Album) (types.Album, error) {
	now := time.Now()
	album.ID = uuid.NewString()
	album.CreatedAt = now
	album.UpdatedAt = now

	const query = `
		INSERT INTO albums (id, name, description, cover_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		album.ID,
		album.Name,
		album.Description,
		album.CoverURL,
		album.CreatedAt,
		album.UpdatedAt,
	); err != nil {
		return types.Album{}, err
	}
	return album, nil
}

// Update applies the non-nil fields of the patch and returns the
// resulting row. ClearCover sets cover_url to NULL.
func (r *AlbumRepository) Update(ctx context.Context, id string, patch types.AlbumUpdate) (types.Album, error) {
	sets := make([]string, 0, 4)
	args := make([]any, 0, 4)

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.ClearDescription {
		sets = append(sets, "description = NULL")
	} else if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.ClearCover {
		sets = append(sets, "cover_url = NULL")
	} else if patch.CoverURL != nil {
		add("cover_url", *patch.CoverURL)
	}
	add("updated_at", time.Now())

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE albums SET %s WHERE id = $%d`,
		strings.Join(sets, ", "), len(args))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return types.Album{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Album{}, err
	}
	if affected == 0 {
		return types.Album{}, ErrNotFound
	}

	return r.Get(ctx, id)
}

// Delete detaches member images and removes the album row in a single
// transaction, so a crash cannot leave images pointing at a missing
// album.
func (r *AlbumRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE images SET album_id = NULL WHERE album_id = $1`, id); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM albums WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}
