package transform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vileikis/glowbooth/internal/genai"
	"github.com/vileikis/glowbooth/internal/job"
)

// executeAIImage turns the guest's capture into a generated image. Validation
// happens before any provider call so bad configuration never burns quota.
func executeAIImage(ctx context.Context, deps Dependencies, ec *ExecContext) (*job.Output, error) {
	cfg := ec.Snapshot.Outcome.AIImage
	if cfg == nil {
		return nil, invalidInput(StagePreparing, "This experience has no AI image configuration.")
	}

	prompt := ResolvePrompt(cfg.Prompt, ec.Snapshot.Responses)
	if prompt == "" {
		return nil, invalidInput(StagePreparing, "The prompt for this experience is empty.")
	}
	if _, ok := ec.Snapshot.Responses.MediaForStep(cfg.CaptureStepID); !ok {
		return nil, invalidInput(StagePreparing, "The captured photo for this experience is missing.")
	}

	ec.ReportProgress(ctx, StagePreparing, "Fetching your photo")

	subjectPath, err := downloadSubject(ctx, deps, ec, cfg.CaptureStepID)
	if err != nil {
		return nil, err
	}

	referencePaths, err := downloadReferences(ctx, deps, ec, cfg.ReferenceMediaRefs)
	if err != nil {
		return nil, err
	}

	ec.ReportProgress(ctx, StageGeneratingImage, "Creating your image")

	result, err := deps.Images.GenerateImage(ctx, genai.ImageRequest{
		Prompt:              prompt,
		Model:               cfg.Model,
		AspectRatio:         cfg.AspectRatio,
		SourceMediaPath:     subjectPath,
		ReferenceMediaPaths: referencePaths,
	})
	if err != nil {
		return nil, err
	}

	generatedPath := filepath.Join(ec.TmpDir, "generated"+extensionFor(result.MimeType))
	if err := os.WriteFile(generatedPath, result.Data, 0o644); err != nil {
		return nil, fmt.Errorf("write generated image: %w", err)
	}

	workPath, err := applyOverlay(ctx, deps, ec, generatedPath)
	if err != nil {
		return nil, err
	}

	dims, err := probeDimensions(ctx, deps, workPath)
	if err != nil {
		return nil, err
	}

	ec.ReportProgress(ctx, StageUploading, "Saving your image")
	return uploadArtifact(ctx, deps, ec, workPath, job.FormatImage, dims, "")
}

func downloadReferences(ctx context.Context, deps Dependencies, ec *ExecContext, refs []job.MediaReference) ([]string, error) {
	if len(refs) == 0 {
		return nil, nil
	}

	paths := make([]string, 0, len(refs))
	for i, ref := range refs {
		localPath := filepath.Join(ec.TmpDir, fmt.Sprintf("reference-%d%s", i, extensionFor(ref.MimeType)))
		if _, err := deps.Store.DownloadToFile(ctx, ref.StoragePath, localPath); err != nil {
			return nil, fmt.Errorf("download reference %d: %w", i, err)
		}
		paths = append(paths, localPath)
	}
	return paths, nil
}
