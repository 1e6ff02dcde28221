package transform

import (
	"context"
	"strings"
	"testing"

	"github.com/vileikis/glowbooth/internal/job"
)

func TestPhotoWithOverlay(t *testing.T) {
	td := newTestDeps(t)
	ref := td.seedMedia(t, "uploads/sess-1/capture.jpg")
	td.seedMedia(t, "overlays/party-frame.png")

	snapshot := photoSnapshot(ref)
	snapshot.Overlay = &job.OverlayChoice{AssetPath: "overlays/party-frame.png", Caption: "summer party"}
	j := td.createJob(t, snapshot)

	if err := processJob(context.Background(), td.Deps, j.ID); err != nil {
		t.Fatalf("processJob() error = %v", err)
	}

	stored, _ := td.Repo.GetJob(context.Background(), j.ID)
	if stored.Status != job.StatusCompleted {
		t.Fatalf("status = %s, want completed", stored.Status)
	}
}

func TestPhotoMissingOverlayAssetFails(t *testing.T) {
	td := newTestDeps(t)
	ref := td.seedMedia(t, "uploads/sess-1/capture.jpg")

	snapshot := photoSnapshot(ref)
	snapshot.Overlay = &job.OverlayChoice{AssetPath: "overlays/deleted.png"}
	j := td.createJob(t, snapshot)

	if err := processJob(context.Background(), td.Deps, j.ID); err == nil {
		t.Fatal("processJob() succeeded with a missing overlay asset")
	}

	stored, _ := td.Repo.GetJob(context.Background(), j.ID)
	if stored.Error == nil || stored.Error.Code != CodeProcessingFailed {
		t.Errorf("error = %+v, want PROCESSING_FAILED", stored.Error)
	}
}

func TestPhotoWithoutAspectRatioSkipsCrop(t *testing.T) {
	td := newTestDeps(t)
	ref := td.seedMedia(t, "uploads/sess-1/capture.jpg")

	j := td.createJob(t, job.Snapshot{
		Outcome: job.OutcomeConfig{
			Type:  job.OutcomePhoto,
			Photo: &job.PhotoConfig{CaptureStepID: "capture"},
		},
		Responses: job.Responses{Media: map[string]job.MediaReference{"capture": ref}},
	})

	if err := processJob(context.Background(), td.Deps, j.ID); err != nil {
		t.Fatalf("processJob() error = %v", err)
	}
	if td.Media.scaleCalls != 0 {
		t.Errorf("ScaleAndCrop called %d times without an aspect ratio, want 0", td.Media.scaleCalls)
	}
}

func TestBurstProducesAnimatedImage(t *testing.T) {
	td := newTestDeps(t)
	first := td.seedMedia(t, "uploads/sess-1/shot-1.jpg")
	second := td.seedMedia(t, "uploads/sess-1/shot-2.jpg")
	third := td.seedMedia(t, "uploads/sess-1/shot-3.jpg")

	j := td.createJob(t, job.Snapshot{
		Outcome: job.OutcomeConfig{
			Type: job.OutcomePhoto,
			Photo: &job.PhotoConfig{
				CaptureStepID: "shot-1",
				BurstStepIDs:  []string{"shot-2", "shot-3"},
				AspectRatio:   "1:1",
			},
		},
		Responses: job.Responses{
			Media: map[string]job.MediaReference{
				"shot-1": first,
				"shot-2": second,
				"shot-3": third,
			},
		},
	})

	if err := processJob(context.Background(), td.Deps, j.ID); err != nil {
		t.Fatalf("processJob() error = %v", err)
	}

	stored, _ := td.Repo.GetJob(context.Background(), j.ID)
	if stored.Output.Format != job.FormatGIF {
		t.Fatalf("format = %s, want gif", stored.Output.Format)
	}
	if stored.Output.ThumbnailURL == "" {
		t.Error("burst output has no thumbnail")
	}

	data, ok := td.Store.GetData(stored.Output.AssetID)
	if !ok {
		t.Fatal("animated artifact not found in storage")
	}
	if string(data) != "gif:3-frames" {
		t.Errorf("encoded %q, want all three frames", data)
	}
}

func TestBurstWithSingleResolvedFrameFallsBackToStill(t *testing.T) {
	td := newTestDeps(t)
	ref := td.seedMedia(t, "uploads/sess-1/shot-1.jpg")

	// Burst steps configured but the guest only captured one frame.
	j := td.createJob(t, job.Snapshot{
		Outcome: job.OutcomeConfig{
			Type: job.OutcomePhoto,
			Photo: &job.PhotoConfig{
				CaptureStepID: "shot-1",
				BurstStepIDs:  []string{"shot-2", "shot-3"},
			},
		},
		Responses: job.Responses{Media: map[string]job.MediaReference{"shot-1": ref}},
	})

	if err := processJob(context.Background(), td.Deps, j.ID); err != nil {
		t.Fatalf("processJob() error = %v", err)
	}

	stored, _ := td.Repo.GetJob(context.Background(), j.ID)
	if stored.Output.Format != job.FormatImage {
		t.Errorf("format = %s, want image fallback", stored.Output.Format)
	}
	if !strings.HasSuffix(stored.Output.AssetID, "result.jpg") {
		t.Errorf("asset key = %s, want still image key", stored.Output.AssetID)
	}
}
