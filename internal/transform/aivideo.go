package transform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vileikis/glowbooth/internal/genai"
	"github.com/vileikis/glowbooth/internal/job"
	"github.com/vileikis/glowbooth/internal/logger"
	"github.com/vileikis/glowbooth/internal/metrics"
)

// executeAIVideo runs the three-task video pipeline. Frame generation happens
// first (task-dependent), then the video call is submitted and polled to
// completion.
func executeAIVideo(ctx context.Context, deps Dependencies, ec *ExecContext) (*job.Output, error) {
	log := logger.FromContext(ctx)

	cfg := ec.Snapshot.Outcome.AIVideo
	if cfg == nil {
		return nil, invalidInput(StagePreparing, "This experience has no AI video configuration.")
	}
	if err := validateVideoConfig(cfg, ec.Snapshot.Responses); err != nil {
		return nil, err
	}

	if ec.Snapshot.Overlay != nil && ec.Snapshot.Overlay.AssetPath != "" {
		log.Warn("overlay configured for a video outcome, skipping", "asset", ec.Snapshot.Overlay.AssetPath)
	}

	ec.ReportProgress(ctx, StagePreparing, "Fetching your photo")

	subjectPath, err := downloadSubject(ctx, deps, ec, cfg.CaptureStepID)
	if err != nil {
		return nil, err
	}

	startFrame, endFrame, err := prepareFrames(ctx, deps, ec, cfg, subjectPath)
	if err != nil {
		return nil, err
	}

	ec.ReportProgress(ctx, StageGeneratingVideo, "Creating your video")

	videoPrompt := ResolvePrompt(cfg.VideoGeneration.Prompt, ec.Snapshot.Responses)
	op, err := deps.Videos.SubmitVideo(ctx, genai.VideoRequest{
		Prompt:          videoPrompt,
		Model:           cfg.VideoGeneration.Model,
		AspectRatio:     videoAspectRatio(cfg),
		DurationSeconds: cfg.VideoGeneration.DurationSeconds,
		StartFramePath:  startFrame,
		EndFramePath:    endFrame,
	})
	if err != nil {
		return nil, err
	}

	op, err = waitForVideo(ctx, deps, op.ID)
	if err != nil {
		return nil, err
	}

	ec.ReportProgress(ctx, StageDownloading, "Downloading your video")

	videoPath := filepath.Join(ec.TmpDir, "result.mp4")
	if err := deps.Videos.DownloadVideo(ctx, op.ResultURL, videoPath); err != nil {
		return nil, err
	}

	info, err := deps.Media.Probe(ctx, videoPath)
	if err != nil {
		return nil, fmt.Errorf("probe video: %w", err)
	}

	thumbPath := filepath.Join(ec.TmpDir, "thumbnail.jpg")
	if err := deps.Media.Thumbnail(ctx, videoPath, thumbPath, deps.thumbnailWidth()); err != nil {
		log.Warn("video thumbnail failed", "error", err)
		thumbPath = ""
	}

	ec.ReportProgress(ctx, StageUploading, "Saving your video")

	output, err := uploadArtifact(ctx, deps, ec, videoPath, job.FormatVideo, job.Dimensions{Width: info.Width, Height: info.Height}, thumbPath)
	if err != nil {
		return nil, err
	}

	// Provider scratch under our prefix is garbage once the artifact is
	// durable. Losing this cleanup is fine.
	if err := deps.Store.DeletePrefix(ctx, scratchPrefix(ec.Job)); err != nil {
		log.Warn("scratch cleanup failed", "error", err)
	}

	return output, nil
}

// validateVideoConfig enforces the per-task requirements before any external
// call is made.
func validateVideoConfig(cfg *job.AIVideoConfig, responses job.Responses) error {
	if _, ok := responses.MediaForStep(cfg.CaptureStepID); !ok {
		return invalidInput(StagePreparing, "The captured photo for this experience is missing.")
	}
	if ResolvePrompt(cfg.VideoGeneration.Prompt, responses) == "" {
		return invalidInput(StagePreparing, "The video prompt for this experience is empty.")
	}
	switch cfg.VideoGeneration.DurationSeconds {
	case 4, 6, 8:
	default:
		return invalidInput(StagePreparing, "The video length for this experience is not supported.")
	}

	switch cfg.Task {
	case job.TaskAnimate:
		return nil
	case job.TaskTransform:
		if cfg.EndFrameImageGen == nil || ResolvePrompt(cfg.EndFrameImageGen.Prompt, responses) == "" {
			return invalidInput(StagePreparing, "The transform effect for this experience is not configured.")
		}
		return nil
	case job.TaskReimagine:
		if cfg.StartFrameImageGen == nil || ResolvePrompt(cfg.StartFrameImageGen.Prompt, responses) == "" {
			return invalidInput(StagePreparing, "The reimagine effect for this experience is not configured.")
		}
		if cfg.EndFrameImageGen == nil || ResolvePrompt(cfg.EndFrameImageGen.Prompt, responses) == "" {
			return invalidInput(StagePreparing, "The reimagine effect for this experience is not configured.")
		}
		return nil
	default:
		return invalidInput(StagePreparing, "This experience has an unsupported video task.")
	}
}

// prepareFrames produces the start and end frame paths for the configured
// task. The end frame path is empty for animate.
func prepareFrames(ctx context.Context, deps Dependencies, ec *ExecContext, cfg *job.AIVideoConfig, subjectPath string) (string, string, error) {
	switch cfg.Task {
	case job.TaskAnimate:
		return subjectPath, "", nil

	case job.TaskTransform:
		ec.ReportProgress(ctx, StageGeneratingEnd, "Creating the final look")
		endFrame, err := generateFrame(ctx, deps, ec, cfg.EndFrameImageGen, subjectPath, "end-frame")
		if err != nil {
			return "", "", err
		}
		return subjectPath, endFrame, nil

	case job.TaskReimagine:
		ec.ReportProgress(ctx, StageGeneratingFrames, "Creating your scenes")

		var startFrame, endFrame string
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			startFrame, err = generateFrame(gctx, deps, ec, cfg.StartFrameImageGen, subjectPath, "start-frame")
			return err
		})
		g.Go(func() error {
			var err error
			endFrame, err = generateFrame(gctx, deps, ec, cfg.EndFrameImageGen, subjectPath, "end-frame")
			return err
		})
		// Either frame failing fails the whole step; a single generated
		// frame is never used on its own.
		if err := g.Wait(); err != nil {
			return "", "", err
		}
		return startFrame, endFrame, nil

	default:
		return "", "", invalidInput(StagePreparing, "This experience has an unsupported video task.")
	}
}

func generateFrame(ctx context.Context, deps Dependencies, ec *ExecContext, gen *job.FrameGenConfig, subjectPath, name string) (string, error) {
	result, err := deps.Images.GenerateImage(ctx, genai.ImageRequest{
		Prompt:          ResolvePrompt(gen.Prompt, ec.Snapshot.Responses),
		Model:           gen.Model,
		AspectRatio:     gen.AspectRatio,
		SourceMediaPath: subjectPath,
	})
	if err != nil {
		return "", err
	}

	framePath := filepath.Join(ec.TmpDir, name+extensionFor(result.MimeType))
	if err := os.WriteFile(framePath, result.Data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return framePath, nil
}

func videoAspectRatio(cfg *job.AIVideoConfig) string {
	if cfg.VideoGeneration.AspectRatio != "" {
		return cfg.VideoGeneration.AspectRatio
	}
	return cfg.AspectRatio
}

// waitForVideo polls the operation until it completes, fails, or the ceiling
// is hit. A done operation with no result is the provider's safety filter.
func waitForVideo(ctx context.Context, deps Dependencies, operationID string) (*genai.Operation, error) {
	log := logger.FromContext(ctx)
	deadline := time.Now().Add(deps.pollTimeout())

	ticker := time.NewTicker(deps.pollInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: operation %s still pending after %s", ErrPollTimeout, operationID, deps.pollTimeout())
		}

		metrics.RecordVideoPollCycle()
		op, err := deps.Videos.PollVideo(ctx, operationID)
		if err != nil {
			// Transient poll failures do not kill the operation; the next
			// tick retries until the ceiling.
			log.Warn("video poll failed", "operation_id", operationID, "error", err)
			continue
		}

		if !op.Done {
			log.Debug("video operation pending", "operation_id", operationID)
			continue
		}

		if op.Filtered || (op.ResultURL == "" && op.FailureMessage == "") {
			return nil, genai.ErrSafetyFiltered
		}
		if op.FailureMessage != "" {
			return nil, &genai.APIError{StatusCode: 0, Message: op.FailureMessage}
		}
		return op, nil
	}
}
