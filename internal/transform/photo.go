package transform

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/vileikis/glowbooth/internal/job"
	"github.com/vileikis/glowbooth/internal/logger"
	"github.com/vileikis/glowbooth/internal/media"
)

// executePhoto produces a styled still from the guest's capture, or an
// animated image when the experience captured a burst of frames.
func executePhoto(ctx context.Context, deps Dependencies, ec *ExecContext) (*job.Output, error) {
	cfg := ec.Snapshot.Outcome.Photo
	if cfg == nil {
		return nil, invalidInput(StagePreparing, "This experience has no photo configuration.")
	}

	ec.ReportProgress(ctx, StagePreparing, "Fetching your photo")

	burstRefs := resolveBurstRefs(ec.Snapshot, cfg)
	if len(burstRefs) >= 2 {
		return executeBurst(ctx, deps, ec, cfg, burstRefs)
	}

	subjectPath, err := downloadSubject(ctx, deps, ec, cfg.CaptureStepID)
	if err != nil {
		return nil, err
	}

	ec.ReportProgress(ctx, StageProcessing, "Finishing your photo")

	workPath := subjectPath
	if cfg.AspectRatio != "" {
		cropped := filepath.Join(ec.TmpDir, "cropped.jpg")
		if err := deps.Media.ScaleAndCrop(ctx, subjectPath, cropped, cfg.AspectRatio); err != nil {
			return nil, fmt.Errorf("scale and crop: %w", err)
		}
		workPath = cropped
	}

	workPath, err = applyOverlay(ctx, deps, ec, workPath)
	if err != nil {
		return nil, err
	}

	dims, err := probeDimensions(ctx, deps, workPath)
	if err != nil {
		return nil, err
	}

	ec.ReportProgress(ctx, StageUploading, "Saving your photo")
	return uploadArtifact(ctx, deps, ec, workPath, job.FormatImage, dims, "")
}

// resolveBurstRefs collects the capture step plus any burst steps that have
// media attached, in configured order.
func resolveBurstRefs(snapshot job.Snapshot, cfg *job.PhotoConfig) []job.MediaReference {
	stepIDs := append([]string{cfg.CaptureStepID}, cfg.BurstStepIDs...)

	var refs []job.MediaReference
	for _, stepID := range stepIDs {
		if ref, ok := snapshot.Responses.MediaForStep(stepID); ok {
			refs = append(refs, ref)
		}
	}
	return refs
}

func executeBurst(ctx context.Context, deps Dependencies, ec *ExecContext, cfg *job.PhotoConfig, refs []job.MediaReference) (*job.Output, error) {
	log := logger.FromContext(ctx)
	log.Info("encoding burst capture", "frames", len(refs))

	aspectRatio := cfg.AspectRatio
	if aspectRatio == "" {
		aspectRatio = "1:1"
	}

	framePaths := make([]string, 0, len(refs))
	for i, ref := range refs {
		raw := filepath.Join(ec.TmpDir, fmt.Sprintf("burst-%d%s", i, extensionFor(ref.MimeType)))
		if _, err := deps.Store.DownloadToFile(ctx, ref.StoragePath, raw); err != nil {
			return nil, fmt.Errorf("download burst frame %d: %w", i, err)
		}

		// Every frame must share exact dimensions or the encode drifts.
		framed := filepath.Join(ec.TmpDir, fmt.Sprintf("frame-%d.jpg", i))
		if err := deps.Media.ScaleAndCrop(ctx, raw, framed, aspectRatio); err != nil {
			return nil, fmt.Errorf("normalize burst frame %d: %w", i, err)
		}
		framePaths = append(framePaths, framed)
	}

	ec.ReportProgress(ctx, StageProcessing, "Animating your burst")

	animPath := filepath.Join(ec.TmpDir, "result.gif")
	if err := deps.Media.EncodeAnimatedImage(ctx, framePaths, animPath, media.AnimOptions{}); err != nil {
		return nil, fmt.Errorf("encode animated image: %w", err)
	}

	dims, err := probeDimensions(ctx, deps, framePaths[0])
	if err != nil {
		return nil, err
	}

	thumbPath := filepath.Join(ec.TmpDir, "thumbnail.jpg")
	if err := deps.Media.Thumbnail(ctx, framePaths[0], thumbPath, deps.thumbnailWidth()); err != nil {
		log.Warn("burst thumbnail failed", "error", err)
		thumbPath = ""
	}

	ec.ReportProgress(ctx, StageUploading, "Saving your animation")
	return uploadArtifact(ctx, deps, ec, animPath, job.FormatGIF, dims, thumbPath)
}
