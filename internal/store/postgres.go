package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vileikis/glowbooth/internal/job"
)

// PostgresRepository persists job documents in the transform_jobs table.
// Snapshot, progress, output and error are stored as JSONB so the document
// shape stays the wire contract the UI and submission path read.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

var _ job.Repository = (*PostgresRepository)(nil)

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const getJobQuery = `
SELECT id, project_id, session_id, experience_id, step_id, status,
       progress, output, error, snapshot,
       created_at, updated_at, started_at, completed_at
FROM transform_jobs
WHERE id = $1`

func (r *PostgresRepository) GetJob(ctx context.Context, id uuid.UUID) (*job.Job, error) {
	var (
		j                                  job.Job
		stepID                             *string
		progress, output, jobErr, snapshot []byte
		startedAt, completedAt             *time.Time
	)

	row := r.pool.QueryRow(ctx, getJobQuery, id)
	err := row.Scan(&j.ID, &j.ProjectID, &j.SessionID, &j.ExperienceID, &stepID, &j.Status,
		&progress, &output, &jobErr, &snapshot,
		&j.CreatedAt, &j.UpdatedAt, &startedAt, &completedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, job.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}

	if stepID != nil {
		j.StepID = *stepID
	}
	j.StartedAt = startedAt
	j.CompletedAt = completedAt

	if err := unmarshalInto(progress, &j.Progress); err != nil {
		return nil, fmt.Errorf("decode progress for job %s: %w", id, err)
	}
	if err := unmarshalInto(output, &j.Output); err != nil {
		return nil, fmt.Errorf("decode output for job %s: %w", id, err)
	}
	if err := unmarshalInto(jobErr, &j.Error); err != nil {
		return nil, fmt.Errorf("decode error for job %s: %w", id, err)
	}
	if len(snapshot) > 0 {
		if err := json.Unmarshal(snapshot, &j.Snapshot); err != nil {
			return nil, fmt.Errorf("decode snapshot for job %s: %w", id, err)
		}
	}

	return &j, nil
}

const createJobQuery = `
INSERT INTO transform_jobs
  (id, project_id, session_id, experience_id, step_id, status, snapshot, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())`

func (r *PostgresRepository) CreateJob(ctx context.Context, j *job.Job) error {
	snapshot, err := json.Marshal(j.Snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	var stepID *string
	if j.StepID != "" {
		stepID = &j.StepID
	}

	_, err = r.pool.Exec(ctx, createJobQuery,
		j.ID, j.ProjectID, j.SessionID, j.ExperienceID, stepID, job.StatusPending, snapshot)
	if err != nil {
		return fmt.Errorf("create job %s: %w", j.ID, err)
	}
	return nil
}

const markRunningQuery = `
UPDATE transform_jobs
SET status = $2, started_at = $3, updated_at = now()
WHERE id = $1 AND status = $4`

func (r *PostgresRepository) MarkRunning(ctx context.Context, id uuid.UUID, startedAt time.Time) error {
	tag, err := r.pool.Exec(ctx, markRunningQuery, id, job.StatusRunning, startedAt, job.StatusPending)
	if err != nil {
		return fmt.Errorf("mark job %s running: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return job.ErrTerminal
	}
	return nil
}

const markCompletedQuery = `
UPDATE transform_jobs
SET status = $2, output = $3, completed_at = now(), updated_at = now()
WHERE id = $1 AND status NOT IN ($4, $5)`

func (r *PostgresRepository) MarkCompleted(ctx context.Context, id uuid.UUID, output *job.Output) error {
	encoded, err := json.Marshal(output)
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}

	tag, err := r.pool.Exec(ctx, markCompletedQuery, id, job.StatusCompleted, encoded,
		job.StatusCompleted, job.StatusFailed)
	if err != nil {
		return fmt.Errorf("mark job %s completed: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return job.ErrTerminal
	}
	return nil
}

const markFailedQuery = `
UPDATE transform_jobs
SET status = $2, error = $3, completed_at = now(), updated_at = now()
WHERE id = $1 AND status NOT IN ($4, $5)`

func (r *PostgresRepository) MarkFailed(ctx context.Context, id uuid.UUID, jobErr *job.Error) error {
	encoded, err := json.Marshal(jobErr)
	if err != nil {
		return fmt.Errorf("encode error: %w", err)
	}

	tag, err := r.pool.Exec(ctx, markFailedQuery, id, job.StatusFailed, encoded,
		job.StatusCompleted, job.StatusFailed)
	if err != nil {
		return fmt.Errorf("mark job %s failed: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return job.ErrTerminal
	}
	return nil
}

const updateProgressQuery = `
UPDATE transform_jobs
SET progress = $2, updated_at = now()
WHERE id = $1 AND status = $3`

func (r *PostgresRepository) UpdateProgress(ctx context.Context, id uuid.UUID, p job.Progress) error {
	encoded, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}

	// Progress writes race with terminal transitions; losing one is fine.
	_, err = r.pool.Exec(ctx, updateProgressQuery, id, encoded, job.StatusRunning)
	if err != nil {
		return fmt.Errorf("update progress for job %s: %w", id, err)
	}
	return nil
}

func unmarshalInto[T any](data []byte, target **T) error {
	if len(data) == 0 {
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*target = &v
	return nil
}
