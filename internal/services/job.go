package services

import (
	"context"
	"strconv"

	"github.com/bbm-admin/apiserver/internal/events"
	"github.com/bbm-admin/apiserver/types"
	"golang.org/x/sync/errgroup"
)

const maxListLimit = 100

// JobRepository defines persistence operations for job postings.
type JobRepository interface {
	List(ctx context.Context, limit int) ([]types.Job, error)
	Get(ctx context.Context, id int) (types.Job, error)
	Create(ctx context.Context, job types.Job) (types.Job, error)
	Update(ctx context.Context, id int, patch types.JobUpdate) (types.Job, error)
	Delete(ctx context.Context, id int) error
	CountByStatus(ctx context.Context, status string) (int, error)
}

// JobService encapsulates job use-cases.
type JobService struct {
	repo    JobRepository
	emitter *events.Emitter
}

func NewJobService(repo JobRepository, emitter *events.Emitter) *JobService {
	return &JobService{repo: repo, emitter: emitter}
}

// List returns jobs newest-first. A requested limit is clamped to 100;
// no limit returns the full table.
func (s *JobService) List(ctx context.Context, limit int) ([]types.Job, error) {
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.repo.List(ctx, limit)
}

func (s *JobService) Get(ctx context.Context, id int) (types.Job, error) {
	return s.repo.Get(ctx, id)
}

func (s *JobService) Create(ctx context.Context, job types.Job) (types.Job, error) {
	if job.JobStatus == "" {
		job.JobStatus = types.JobStatusPublished
	}
	created, err := s.repo.Create(ctx, job)
	if err != nil {
		return types.Job{}, err
	}
	s.emitter.Emit(ctx, "job", "created", strconv.Itoa(created.ID))
	return created, nil
}

func (s *JobService) Update(ctx context.Context, id int, patch types.JobUpdate) (types.Job, error) {
	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return types.Job{}, err
	}
	s.emitter.Emit(ctx, "job", "updated", strconv.Itoa(id))
	return updated, nil
}

func (s *JobService) Delete(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.emitter.Emit(ctx, "job", "deleted", strconv.Itoa(id))
	return nil
}

// Stats runs the four dashboard count queries concurrently. Any
// failure fails the whole aggregate; partial stats are never returned.
func (s *JobService) Stats(ctx context.Context) (types.DashboardStats, error) {
	var stats types.DashboardStats

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		count, err := s.repo.CountByStatus(ctx, "")
		stats.TotalJobs = count
		return err
	})
	g.Go(func() error {
		count, err := s.repo.CountByStatus(ctx, types.JobStatusPublished)
		stats.PublishedJobs = count
		return err
	})
	g.Go(func() error {
		count, err := s.repo.CountByStatus(ctx, types.JobStatusDraft)
		stats.DraftJobs = count
		return err
	})
	g.Go(func() error {
		count, err := s.repo.CountByStatus(ctx, types.JobStatusClosed)
		stats.ClosedJobs = count
		return err
	})

	if err := g.Wait(); err != nil {
		return types.DashboardStats{}, err
	}
	return stats, nil
}
