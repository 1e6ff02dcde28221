package transform

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	queuejob "github.com/abdul-hamid-achik/job-queue/pkg/job"
	"github.com/abdul-hamid-achik/job-queue/pkg/middleware"
	"github.com/google/uuid"

	"github.com/vileikis/glowbooth/internal/job"
	"github.com/vileikis/glowbooth/internal/logger"
	"github.com/vileikis/glowbooth/internal/tracing"
)

// Handler returns the queue handler that runs one transform job end to end.
// Any error it returns is wrapped Permanent: every failure lands the job
// document in a terminal state, so queue-level retries would only duplicate
// provider spend.
func Handler(deps Dependencies) func(context.Context, *queuejob.Job) error {
	return func(ctx context.Context, qj *queuejob.Job) error {
		var payload Payload
		if err := qj.UnmarshalPayload(&payload); err != nil {
			logger.FromContext(ctx).Error("invalid payload", "error", err)
			return middleware.Permanent(fmt.Errorf("invalid payload: %w", err))
		}

		ctx = tracing.ExtractTraceContext(ctx, payload.Trace)
		if err := processJob(ctx, deps, payload.JobID); err != nil {
			return middleware.Permanent(err)
		}
		return nil
	}
}

// processJob is the full lifecycle for one job: load, guard, run, persist the
// terminal state. The job-scoped temp directory is always removed, success or
// failure.
func processJob(ctx context.Context, deps Dependencies, jobID uuid.UUID) error {
	ctx = logger.WithJobID(ctx, jobID.String())
	log := logger.FromContext(ctx).With("job_id", jobID.String(), "job_type", JobType)
	log.Info("job started")
	start := time.Now()

	j, err := deps.Repo.GetJob(ctx, jobID)
	if err != nil {
		log.Error("failed to load job", "error", err)
		return fmt.Errorf("load job %s: %w", jobID, err)
	}

	ctx = logger.WithSessionID(ctx, j.SessionID)
	log = log.With("session_id", j.SessionID, "outcome", string(j.Snapshot.Outcome.Type))

	// A duplicate or stale delivery for a job already picked up is a no-op,
	// not an error.
	if j.Status != job.StatusPending {
		log.Warn("skipping job not in pending state", "status", string(j.Status))
		return nil
	}

	if err := deps.Repo.MarkRunning(ctx, j.ID, start); err != nil {
		if errors.Is(err, job.ErrTerminal) {
			log.Warn("job reached a terminal state before execution")
			return nil
		}
		log.Error("failed to mark job running", "error", err)
		return fmt.Errorf("mark running: %w", err)
	}

	tmpDir, err := os.MkdirTemp(deps.TempRoot, "transform-"+j.ID.String()+"-")
	if err != nil {
		failErr := Classify(StagePreparing, fmt.Errorf("create temp dir: %w", err))
		markFailed(ctx, deps, j, failErr)
		return failErr
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			log.Warn("temp dir cleanup failed", "dir", tmpDir, "error", err)
		}
	}()

	ec := newExecContext(j, tmpDir, func(ctx context.Context, p job.Progress) {
		if err := deps.Repo.UpdateProgress(ctx, j.ID, p); err != nil {
			log.Warn("progress update failed", "step", p.CurrentStep, "error", err)
		}
	})

	execCtx, span := tracing.StartOutcomeSpan(ctx, string(j.Snapshot.Outcome.Type), j.ID.String())
	output, execErr := executorFor(j.Snapshot.Outcome.Type)(execCtx, deps, ec)
	if execErr != nil {
		span.RecordError(execErr)
	}
	span.End()
	if execErr != nil {
		failErr := Classify(StageProcessing, execErr)
		log.Error("job failed",
			"code", failErr.Code,
			"step", failErr.Step,
			"error", execErr,
			"duration_ms", time.Since(start).Milliseconds())
		markFailed(ctx, deps, j, failErr)
		return failErr
	}

	output.ProcessingTimeMs = time.Since(start).Milliseconds()
	// The final progress write must land while the job is still running; the
	// store drops progress for terminal jobs.
	ec.ReportProgress(ctx, StageDone, "Done")
	if err := deps.Repo.MarkCompleted(ctx, j.ID, output); err != nil {
		log.Error("failed to mark job completed", "error", err)
		return fmt.Errorf("mark completed: %w", err)
	}

	log.Info("job completed",
		"format", string(output.Format),
		"size_bytes", output.SizeBytes,
		"duration_ms", output.ProcessingTimeMs)
	return nil
}

func markFailed(ctx context.Context, deps Dependencies, j *job.Job, failErr *Error) {
	if err := deps.Repo.MarkFailed(ctx, j.ID, failErr.Sanitized()); err != nil {
		logger.FromContext(ctx).Error("failed to persist job failure", "error", err)
	}
}
