package transform

import (
	"context"
	"fmt"

	"github.com/vileikis/glowbooth/internal/job"
)

// ExecutorFunc runs one outcome to completion and returns the artifact record.
type ExecutorFunc func(ctx context.Context, deps Dependencies, ec *ExecContext) (*job.Output, error)

var executors = map[job.OutcomeType]ExecutorFunc{
	job.OutcomePhoto:   executePhoto,
	job.OutcomeAIImage: executeAIImage,
	job.OutcomeAIVideo: executeAIVideo,
}

// executorFor panics on an unknown outcome type. Submission validates the
// type, so reaching this with anything else is a programming error.
func executorFor(t job.OutcomeType) ExecutorFunc {
	exec, ok := executors[t]
	if !ok {
		panic(fmt.Sprintf("transform: no executor registered for outcome type %q", t))
	}
	return exec
}
