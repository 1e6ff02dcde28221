package transform

import (
	"context"
	"time"

	"github.com/vileikis/glowbooth/internal/genai"
	"github.com/vileikis/glowbooth/internal/job"
	"github.com/vileikis/glowbooth/internal/media"
	"github.com/vileikis/glowbooth/internal/storage"
)

// MediaOps is the slice of media operations the executors use, satisfied by
// *media.Ops and replaceable with a fake in tests.
type MediaOps interface {
	ScaleAndCrop(ctx context.Context, inPath, outPath, aspectRatio string) error
	EncodeAnimatedImage(ctx context.Context, framePaths []string, outPath string, opts media.AnimOptions) error
	Thumbnail(ctx context.Context, inPath, outPath string, width int) error
	Probe(ctx context.Context, path string) (*media.ProbeInfo, error)
	CompositeOverlay(basePath, overlayPath, caption, outPath string) error
}

// Dependencies is everything an executor needs. The worker wires real
// implementations; tests wire fakes.
type Dependencies struct {
	Repo   job.Repository
	Store  storage.Storage
	Media  MediaOps
	Images genai.ImageGenerator
	Videos genai.VideoGenerator

	// PollInterval and PollTimeout bound the video operation wait loop.
	PollInterval time.Duration
	PollTimeout  time.Duration

	// TempRoot is where per-job scratch directories are created. Empty means
	// the system default.
	TempRoot string

	ThumbnailWidth int
}

const defaultThumbnailWidth = 480

func (d Dependencies) thumbnailWidth() int {
	if d.ThumbnailWidth > 0 {
		return d.ThumbnailWidth
	}
	return defaultThumbnailWidth
}

func (d Dependencies) pollInterval() time.Duration {
	if d.PollInterval > 0 {
		return d.PollInterval
	}
	return 15 * time.Second
}

func (d Dependencies) pollTimeout() time.Duration {
	if d.PollTimeout > 0 {
		return d.PollTimeout
	}
	return 5 * time.Minute
}
