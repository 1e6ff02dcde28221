package transform

import (
	"context"
	"time"

	"github.com/vileikis/glowbooth/internal/job"
	"github.com/vileikis/glowbooth/internal/logger"
)

// ExecContext carries one job execution through its executor. Progress writes
// go through ReportProgress, which enforces that percentages never move
// backwards regardless of what stage an executor reports.
type ExecContext struct {
	Job       *job.Job
	Snapshot  job.Snapshot
	TmpDir    string
	StartTime time.Time

	report      func(ctx context.Context, p job.Progress)
	lastPercent int
}

func newExecContext(j *job.Job, tmpDir string, report func(ctx context.Context, p job.Progress)) *ExecContext {
	return &ExecContext{
		Job:       j,
		Snapshot:  j.Snapshot,
		TmpDir:    tmpDir,
		StartTime: time.Now(),
		report:    report,
	}
}

// ReportProgress records a stage transition. Unknown stages and failed
// persistence are logged and swallowed; progress is advisory.
func (ec *ExecContext) ReportProgress(ctx context.Context, stage, message string) {
	percent, ok := stagePercent[stage]
	if !ok {
		logger.FromContext(ctx).Warn("unknown progress stage", "stage", stage)
		return
	}
	if percent < ec.lastPercent {
		percent = ec.lastPercent
	}
	ec.lastPercent = percent

	if ec.report != nil {
		ec.report(ctx, job.Progress{CurrentStep: stage, Percentage: percent, Message: message})
	}
}

// Elapsed is the wall-clock duration since execution started.
func (ec *ExecContext) Elapsed() time.Duration {
	return time.Since(ec.StartTime)
}
