package job

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-memory Repository for tests and dry runs.
// It is safe for concurrent use and records the progress history so tests
// can assert ordering guarantees.
type MemoryRepository struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*Job

	GetJobErr         error
	MarkRunningErr    error
	UpdateProgressErr error

	progressHistory map[uuid.UUID][]Progress
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		jobs:            make(map[uuid.UUID]*Job),
		progressHistory: make(map[uuid.UUID][]Progress),
	}
}

func (m *MemoryRepository) GetJob(ctx context.Context, id uuid.UUID) (*Job, error) {
	if m.GetJobErr != nil {
		return nil, m.GetJobErr
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	j, ok := m.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *j
	return &copied, nil
}

func (m *MemoryRepository) CreateJob(ctx context.Context, j *Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *j
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = time.Now()
	}
	copied.UpdatedAt = copied.CreatedAt
	m.jobs[j.ID] = &copied
	return nil
}

func (m *MemoryRepository) MarkRunning(ctx context.Context, id uuid.UUID, startedAt time.Time) error {
	if m.MarkRunningErr != nil {
		return m.MarkRunningErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if j.Status.Terminal() {
		return ErrTerminal
	}
	j.Status = StatusRunning
	j.StartedAt = &startedAt
	j.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryRepository) MarkCompleted(ctx context.Context, id uuid.UUID, output *Output) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if j.Status.Terminal() {
		return ErrTerminal
	}
	now := time.Now()
	j.Status = StatusCompleted
	j.Output = output
	j.CompletedAt = &now
	j.UpdatedAt = now
	return nil
}

func (m *MemoryRepository) MarkFailed(ctx context.Context, id uuid.UUID, jobErr *Error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if j.Status.Terminal() {
		return ErrTerminal
	}
	now := time.Now()
	j.Status = StatusFailed
	j.Error = jobErr
	j.CompletedAt = &now
	j.UpdatedAt = now
	return nil
}

func (m *MemoryRepository) UpdateProgress(ctx context.Context, id uuid.UUID, p Progress) error {
	if m.UpdateProgressErr != nil {
		return m.UpdateProgressErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[id]
	if !ok {
		return ErrNotFound
	}
	copied := p
	j.Progress = &copied
	j.UpdatedAt = time.Now()
	m.progressHistory[id] = append(m.progressHistory[id], copied)
	return nil
}

// ProgressHistory returns every progress write for a job, in order (test helper).
func (m *MemoryRepository) ProgressHistory(id uuid.UUID) []Progress {
	m.mu.RLock()
	defer m.mu.RUnlock()

	history := make([]Progress, len(m.progressHistory[id]))
	copy(history, m.progressHistory[id])
	return history
}
