package job

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("job: not found")
	ErrTerminal = errors.New("job: already in a terminal state")
)

// Repository is the narrow persistence surface the engine needs. The job
// document is mutated only by the handler owning that job.
type Repository interface {
	GetJob(ctx context.Context, id uuid.UUID) (*Job, error)
	CreateJob(ctx context.Context, j *Job) error
	MarkRunning(ctx context.Context, id uuid.UUID, startedAt time.Time) error
	MarkCompleted(ctx context.Context, id uuid.UUID, output *Output) error
	MarkFailed(ctx context.Context, id uuid.UUID, jobErr *Error) error
	// UpdateProgress is fire-and-forget: callers treat failures as non-fatal.
	UpdateProgress(ctx context.Context, id uuid.UUID, p Progress) error
}
