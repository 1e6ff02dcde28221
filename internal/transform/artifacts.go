package transform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vileikis/glowbooth/internal/job"
	"github.com/vileikis/glowbooth/internal/logger"
)

// outputKey builds the object-store key for a job artifact.
func outputKey(j *job.Job, filename string) string {
	return fmt.Sprintf("outputs/%s/%s/%s/%s", j.ProjectID, j.SessionID, j.ID, filename)
}

// scratchPrefix is where intermediate provider output for a job lives; it is
// removed best-effort after a successful run.
func scratchPrefix(j *job.Job) string {
	return fmt.Sprintf("scratch/%s/%s/", j.ProjectID, j.ID)
}

func contentTypeForFormat(format job.Format) string {
	switch format {
	case job.FormatGIF:
		return "image/gif"
	case job.FormatVideo:
		return "video/mp4"
	default:
		return "image/jpeg"
	}
}

func filenameForFormat(format job.Format) string {
	switch format {
	case job.FormatGIF:
		return "result.gif"
	case job.FormatVideo:
		return "result.mp4"
	default:
		return "result.jpg"
	}
}

// downloadSubject pulls the capture-step media reference into the job temp dir.
func downloadSubject(ctx context.Context, deps Dependencies, ec *ExecContext, stepID string) (string, error) {
	ref, ok := ec.Snapshot.Responses.MediaForStep(stepID)
	if !ok {
		return "", invalidInput(StagePreparing, "The captured photo for this experience is missing.")
	}

	localPath := filepath.Join(ec.TmpDir, "subject"+extensionFor(ref.MimeType))
	if _, err := deps.Store.DownloadToFile(ctx, ref.StoragePath, localPath); err != nil {
		return "", fmt.Errorf("download subject %s: %w", ref.StoragePath, err)
	}
	return localPath, nil
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	case "video/mp4":
		return ".mp4"
	default:
		return ".jpg"
	}
}

// applyOverlay composites the guest's overlay choice onto a still image. The
// overlay asset is fetched from the object store; the result replaces the
// input path in the pipeline.
func applyOverlay(ctx context.Context, deps Dependencies, ec *ExecContext, imagePath string) (string, error) {
	overlay := ec.Snapshot.Overlay
	if overlay == nil || overlay.AssetPath == "" {
		return imagePath, nil
	}

	overlayLocal := filepath.Join(ec.TmpDir, "overlay"+filepath.Ext(overlay.AssetPath))
	if _, err := deps.Store.DownloadToFile(ctx, overlay.AssetPath, overlayLocal); err != nil {
		return "", fmt.Errorf("download overlay %s: %w", overlay.AssetPath, err)
	}

	outPath := filepath.Join(ec.TmpDir, "composited.jpg")
	if err := deps.Media.CompositeOverlay(imagePath, overlayLocal, overlay.Caption, outPath); err != nil {
		return "", fmt.Errorf("composite overlay: %w", err)
	}
	return outPath, nil
}

// uploadArtifact stores the final file plus an optional thumbnail and
// assembles the output record.
func uploadArtifact(ctx context.Context, deps Dependencies, ec *ExecContext, localPath string, format job.Format, dims job.Dimensions, thumbnailPath string) (*job.Output, error) {
	log := logger.FromContext(ctx)

	info, err := os.Stat(localPath)
	if err != nil {
		return nil, fmt.Errorf("stat artifact: %w", err)
	}

	result, err := deps.Store.UploadFile(ctx, localPath, outputKey(ec.Job, filenameForFormat(format)), contentTypeForFormat(format))
	if err != nil {
		return nil, fmt.Errorf("upload artifact: %w", err)
	}

	output := &job.Output{
		AssetID:    result.AssetID,
		URL:        result.URL,
		Format:     format,
		Dimensions: dims,
		SizeBytes:  info.Size(),
	}

	if thumbnailPath != "" {
		thumb, err := deps.Store.UploadFile(ctx, thumbnailPath, outputKey(ec.Job, "thumbnail.jpg"), "image/jpeg")
		if err != nil {
			// The main artifact is already durable; a lost thumbnail is not
			// worth failing the job over.
			log.Warn("thumbnail upload failed", "error", err)
		} else {
			output.ThumbnailURL = thumb.URL
		}
	}

	return output, nil
}

// probeDimensions reads the true pixel dimensions of a local file.
func probeDimensions(ctx context.Context, deps Dependencies, path string) (job.Dimensions, error) {
	info, err := deps.Media.Probe(ctx, path)
	if err != nil {
		return job.Dimensions{}, fmt.Errorf("probe %s: %w", path, err)
	}
	return job.Dimensions{Width: info.Width, Height: info.Height}, nil
}
