package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/bbm-admin/apiserver/types"
)

// AdminRepository handles persistence for operator accounts.
type AdminRepository struct {
	db *sql.DB
}

func NewAdminRepository(db *sql.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) GetByID(ctx context.Context, id int) (types.Admin, error) {
	const query = `
		SELECT id, email, password_hash, active, created_at, updated_at
		FROM admins
		WHERE id = $1`
	var admin types.Admin
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&admin.ID,
		&admin.Email,
		&admin.PasswordHash,
		&admin.Active,
		&admin.CreatedAt,
		&admin.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Admin{}, ErrNotFound
		}
		return types.Admin{}, err
	}
	return admin, nil
}

func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (types.Admin, error) {
	const query = `
		SELECT id, email, password_hash, active, created_at, updated_at
		FROM admins
		WHERE email = $1`
	var admin types.Admin
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&admin.ID,
		&admin.Email,
		&admin.PasswordHash,
		&admin.Active,
		&admin.CreatedAt,
		&admin.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Admin{}, ErrNotFound
		}
		return types.Admin{}, err
	}
	return admin, nil
}

func (r *AdminRepository) Create(ctx context.Context, admin types.Admin) (types.Admin, error) {
	now := time.Now()
	admin.CreatedAt = now
	admin.UpdatedAt = now

	const query = `
		INSERT INTO admins (email, password_hash, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		admin.Email,
		admin.PasswordHash,
		admin.Active,
		admin.CreatedAt,
		admin.UpdatedAt,
	).Scan(&admin.ID); err != nil {
		return types.Admin{}, err
	}
	return admin, nil
}

func (r *AdminRepository) SetActive(ctx context.Context, email string, active bool) error {
	const query = `
		UPDATE admins
		SET active = $1,
			updated_at = $2
		WHERE email = $3`
	result, err := r.db.ExecContext(ctx, query, active, time.Now(), email)
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
	return nil
}
