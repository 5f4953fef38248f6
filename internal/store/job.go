package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bbm-admin/apiserver/types"
)

// JobRepository handles persistence for job postings.
type JobRepository struct {
	db *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

const jobColumns = `
	j.id, j.title, j.job_description, j.job_type, j.location, j.salary,
	j.job_time, j.job_status, j.active, j.posted_date, j.created_at, j.updated_at,
	(SELECT COUNT(1) FROM applications a WHERE a.job_id = j.id)`

func scanJob(row interface{ Scan(...any) error }) (types.Job, error) {
	var job types.Job
	err := row.Scan(
		&job.ID,
		&job.Title,
		&job.JobDescription,
		&job.JobType,
		&job.Location,
		&job.Salary,
		&job.JobTime,
		&job.JobStatus,
		&job.Active,
		&job.PostedDate,
		&job.CreatedAt,
		&job.UpdatedAt,
		&job.Count.Applications,
	)
	return job, err
}

// List returns jobs newest-created-first, each with its application
// count. A limit below 1 returns all rows.
func (r *JobRepository) List(ctx context.Context, limit int) ([]types.Job, error) {
	query := `SELECT` + jobColumns + `
		FROM jobs j
		ORDER BY j.created_at DESC`
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

	jobs := make([]types.Job, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *JobRepository) Get(ctx context.Context, id int) (types.Job, error) {
	query := `SELECT` + jobColumns + `
		FROM jobs j
		WHERE j.id = $1`
	job, err := scanJob(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Job{}, ErrNotFound
		}
		return types.Job{}, err
	}
	return job, nil
}

func (r *JobRepository) Create(ctx context.Context, job types.Job) (types.Job, error) {
	now := time.Now()
	job.PostedDate = now
	job.CreatedAt = now
	job.UpdatedAt = now
	job.Active = true

	const query = `
		INSERT INTO jobs (title, job_description, job_type, location, salary,
			job_time, job_status, active, posted_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		job.Title,
		job.JobDescription,
		job.JobType,
		job.Location,
		float64(job.Salary),
		job.JobTime,
		job.JobStatus,
		job.Active,
		job.PostedDate,
		job.CreatedAt,
		job.UpdatedAt,
	).Scan(&job.ID); err != nil {
		return types.Job{}, err
	}
	return job, nil
}

// Update applies the non-nil fields of the patch and returns the
// resulting row.
func (r *JobRepository) Update(ctx context.Context, id int, patch types.JobUpdate) (types.Job, error) {
	sets := make([]string, 0, 8)
	args := make([]any, 0, 8)

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.JobDescription != nil {
		add("job_description", *patch.JobDescription)
	}
	if patch.JobType != nil {
		add("job_type", *patch.JobType)
	}
	if patch.Location != nil {
		add("location", *patch.Location)
	}
	if patch.Salary != nil {
		add("salary", float64(*patch.Salary))
	}
	if patch.JobTime != nil {
		add("job_time", *patch.JobTime)
	}
	if patch.JobStatus != nil {
		add("job_status", *patch.JobStatus)
	}
	add("updated_at", time.Now())

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE jobs SET %s WHERE id = $%d`,
		strings.Join(sets, ", "), len(args))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return types.Job{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Job{}, err
	}
	if affected == 0 {
		return types.Job{}, ErrNotFound
	}

	return r.Get(ctx, id)
}

func (r *JobRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM jobs WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
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

// CountByStatus counts jobs with the given status. An empty status
// counts every job.
func (r *JobRepository) CountByStatus(ctx context.Context, status string) (int, error) {
	var count int
	if status == "" {
		err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM jobs`).Scan(&count)
		return count, err
	}
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM jobs WHERE job_status = $1`, status).Scan(&count)
	return count, err
}
