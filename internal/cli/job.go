package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/job-queue/pkg/broker"
	queuejob "github.com/abdul-hamid-achik/job-queue/pkg/job"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/vileikis/glowbooth/internal/job"
	"github.com/vileikis/glowbooth/internal/metrics"
	"github.com/vileikis/glowbooth/internal/store"
	"github.com/vileikis/glowbooth/internal/tracing"
	"github.com/vileikis/glowbooth/internal/transform"
)

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Inspect and manage transform jobs",
}

var jobInspectCmd = &cobra.Command{
	Use:   "inspect <job-id>",
	Short: "Show a job document",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobInspect,
}

var jobRequeueCmd = &cobra.Command{
	Use:   "requeue <job-id>",
	Short: "Re-enqueue a pending job that never got picked up",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobRequeue,
}

var jobWatchCmd = &cobra.Command{
	Use:   "watch <job-id>",
	Short: "Poll a job until it reaches a terminal state",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobWatch,
}

var watchInterval time.Duration

func init() {
	jobCmd.AddCommand(jobInspectCmd)
	jobCmd.AddCommand(jobRequeueCmd)
	jobCmd.AddCommand(jobWatchCmd)

	jobWatchCmd.Flags().DurationVar(&watchInterval, "interval", 2*time.Second, "Poll interval")
}

func openRepository(ctx context.Context) (job.Repository, func(), error) {
	if cfg.DatabaseURL == "" {
		return nil, nil, fmt.Errorf("database URL not configured (set %s or database_url in the config file)", EnvDatabaseURL)
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return store.NewPostgresRepository(pool), pool.Close, nil
}

func parseJobID(arg string) (uuid.UUID, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid job id %q: %w", arg, err)
	}
	return id, nil
}

func runJobInspect(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	id, err := parseJobID(args[0])
	if err != nil {
		return err
	}

	repo, closeRepo, err := openRepository(ctx)
	if err != nil {
		return err
	}
	defer closeRepo()

	j, err := repo.GetJob(ctx, id)
	if err != nil {
		return err
	}

	if printer.IsJSON() {
		return printer.JSON(j)
	}

	printer.Header(fmt.Sprintf("Job %s", j.ID))
	printer.KeyValue("status", string(j.Status))
	printer.KeyValue("outcome", string(j.Snapshot.Outcome.Type))
	printer.KeyValue("project", j.ProjectID)
	printer.KeyValue("session", j.SessionID)
	printer.KeyValue("created", j.CreatedAt.Format(time.RFC3339))
	if j.Progress != nil {
		printer.KeyValue("progress", fmt.Sprintf("%s (%d%%)", j.Progress.CurrentStep, j.Progress.Percentage))
	}
	if j.Output != nil {
		printer.KeyValue("format", string(j.Output.Format))
		printer.KeyValue("url", j.Output.URL)
		printer.KeyValue("size", fmt.Sprintf("%d bytes", j.Output.SizeBytes))
		printer.KeyValue("took", fmt.Sprintf("%dms", j.Output.ProcessingTimeMs))
	}
	if j.Error != nil {
		printer.KeyValue("error", fmt.Sprintf("%s: %s", j.Error.Code, j.Error.Message))
	}
	return nil
}

func runJobRequeue(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	id, err := parseJobID(args[0])
	if err != nil {
		return err
	}

	repo, closeRepo, err := openRepository(ctx)
	if err != nil {
		return err
	}
	defer closeRepo()

	j, err := repo.GetJob(ctx, id)
	if err != nil {
		return err
	}
	// Requeueing a running or finished job would race the worker.
	if j.Status != job.StatusPending {
		return fmt.Errorf("job %s is %s, only pending jobs can be requeued", id, j.Status)
	}

	if cfg.RedisURL == "" {
		return fmt.Errorf("redis URL not configured (set %s or redis_url in the config file)", EnvRedisURL)
	}
	redisOpt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	redisClient := redis.NewClient(redisOpt)
	defer func() { _ = redisClient.Close() }()

	spanCtx, span := tracing.StartEnqueueSpan(ctx, transform.JobType)
	defer span.End()

	b := broker.NewRedisStreamsBroker(redisClient)
	qj, err := queuejob.New(transform.JobType, transform.Payload{
		JobID: id,
		Trace: tracing.InjectTraceContext(spanCtx),
	})
	if err != nil {
		return fmt.Errorf("enqueue: %w", err)
	}
	if err := b.Enqueue(spanCtx, qj); err != nil {
		return fmt.Errorf("enqueue: %w", err)
	}
	metrics.RecordJobEnqueued(transform.JobType)

	printer.Success("job %s requeued (queue id %s)", id, qj.ID)
	return nil
}

func runJobWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.WatchTimeout())
	defer cancel()

	id, err := parseJobID(args[0])
	if err != nil {
		return err
	}

	repo, closeRepo, err := openRepository(ctx)
	if err != nil {
		return err
	}
	defer closeRepo()

	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	lastStep := ""
	for {
		j, err := repo.GetJob(ctx, id)
		if err != nil {
			return err
		}

		if j.Progress != nil && j.Progress.CurrentStep != lastStep {
			lastStep = j.Progress.CurrentStep
			printer.Info("%s (%d%%)", j.Progress.CurrentStep, j.Progress.Percentage)
		}

		if j.Status.Terminal() {
			switch j.Status {
			case job.StatusCompleted:
				printer.Success("completed: %s", j.Output.URL)
			case job.StatusFailed:
				printer.Error("failed: %s: %s", j.Error.Code, j.Error.Message)
			}
			if printer.IsJSON() {
				return printer.JSON(j)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("gave up waiting for job %s: %w", id, ctx.Err())
		case <-ticker.C:
		}
	}
}
