package transform

import (
	"github.com/google/uuid"

	"github.com/vileikis/glowbooth/internal/tracing"
)

// JobType is the queue job type the worker registers the handler under.
const JobType = "transform"

// Payload is the queue message body. The job document carries everything
// else; the queue only names which job to run. The trace carrier lets worker
// spans join the trace of whatever enqueued the job.
type Payload struct {
	JobID uuid.UUID            `json:"jobId"`
	Trace tracing.TraceCarrier `json:"trace,omitzero"`
}
