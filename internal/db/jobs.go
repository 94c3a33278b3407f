package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"castforge/internal/models"
	"castforge/internal/podcast"
)

type JobStore struct {
	db *sqlx.DB
}

func NewJobStore(conn *sqlx.DB) *JobStore {
	return &JobStore{db: conn}
}

func (s *JobStore) Create(ctx context.Context, podcastID, jobType string, payload []byte) (models.GenerationJob, error) {
	query := `
		INSERT INTO generation_jobs (podcast_id, type, status, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`
	job := models.GenerationJob{}
	err := s.db.GetContext(ctx, &job, query, podcastID, jobType, models.JobPending, payload)
	return job, err
}

func (s *JobStore) GetByID(ctx context.Context, id string) (models.GenerationJob, error) {
	job := models.GenerationJob{}
	err := s.db.GetContext(ctx, &job, "SELECT * FROM generation_jobs WHERE id = $1", id)
	return job, notFound(err)
}

// FindPendingForPodcast returns the in-flight generation job for a
// podcast, or nil when none exists. Scoped by podcast, not job type: one
// run per podcast at a time.
func (s *JobStore) FindPendingForPodcast(ctx context.Context, podcastID string) (*models.GenerationJob, error) {
	job := models.GenerationJob{}
	query := `
		SELECT * FROM generation_jobs
		WHERE podcast_id = $1 AND status IN ($2, $3)
		ORDER BY created_at ASC
		LIMIT 1
	`
	err := s.db.GetContext(ctx, &job, query, podcastID, models.JobPending, models.JobProcessing)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *JobStore) MarkProcessing(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, models.JobProcessing, nil)
}

func (s *JobStore) MarkCompleted(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, models.JobCompleted, nil)
}

func (s *JobStore) MarkFailed(ctx context.Context, id, errorMessage string) error {
	return s.setStatus(ctx, id, models.JobFailed, &errorMessage)
}

func (s *JobStore) setStatus(ctx context.Context, id, status string, errorMessage *string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE generation_jobs SET status = $1, error = $2, updated_at = NOW() WHERE id = $3",
		status, errorMessage, id)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return podcast.ErrNotFound
	}
	return nil
}

// Delete removes a job row. Used as the compensating action when enqueue
// fails after the row was created.
func (s *JobStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM generation_jobs WHERE id = $1", id)
	return err
}

// ReapStale marks processing jobs older than the lease as failed and
// returns them so the caller can fail their versions too.
func (s *JobStore) ReapStale(ctx context.Context, lease time.Duration) ([]models.GenerationJob, error) {
	query := `
		UPDATE generation_jobs
		SET status = $1, error = $2, updated_at = NOW()
		WHERE status = $3 AND updated_at < NOW() - $4::interval
		RETURNING *
	`
	interval := fmt.Sprintf("%d seconds", int(lease.Seconds()))
	var jobs []models.GenerationJob
	err := s.db.SelectContext(ctx, &jobs, query,
		models.JobFailed, "generation lease expired", models.JobProcessing, interval)
	return jobs, err
}
