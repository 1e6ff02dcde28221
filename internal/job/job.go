package job

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

type Format string

const (
	FormatImage Format = "image"
	FormatGIF   Format = "gif"
	FormatVideo Format = "video"
)

type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type Progress struct {
	CurrentStep string `json:"currentStep"`
	Percentage  int    `json:"percentage"`
	Message     string `json:"message,omitempty"`
}

type Output struct {
	AssetID          string     `json:"assetId"`
	URL              string     `json:"url"`
	Format           Format     `json:"format"`
	Dimensions       Dimensions `json:"dimensions"`
	SizeBytes        int64      `json:"sizeBytes"`
	ThumbnailURL     string     `json:"thumbnailUrl,omitempty"`
	ProcessingTimeMs int64      `json:"processingTimeMs"`
}

// Error is the sanitized, guest-visible failure record. Internal diagnostics
// never land here.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Job is one execution of the transform pipeline for a single guest
// submission. The snapshot is immutable after creation; everything the
// executor needs was resolved by the submission path.
type Job struct {
	ID           uuid.UUID `json:"id"`
	ProjectID    string    `json:"projectId"`
	SessionID    string    `json:"sessionId"`
	ExperienceID string    `json:"experienceId"`
	StepID       string    `json:"stepId,omitempty"`

	Status   Status    `json:"status"`
	Progress *Progress `json:"progress,omitempty"`
	Output   *Output   `json:"output,omitempty"`
	Error    *Error    `json:"error,omitempty"`

	Snapshot Snapshot `json:"snapshot"`

	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}
