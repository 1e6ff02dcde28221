package transform

import (
	"context"
	"testing"

	"github.com/vileikis/glowbooth/internal/genai"
	"github.com/vileikis/glowbooth/internal/job"
)

func aiImageSnapshot(capture job.MediaReference, prompt string) job.Snapshot {
	return job.Snapshot{
		Outcome: job.OutcomeConfig{
			Type: job.OutcomeAIImage,
			AIImage: &job.AIImageConfig{
				CaptureStepID: "capture",
				Prompt:        prompt,
				Model:         "img-model-1",
				AspectRatio:   "9:16",
			},
		},
		Responses: job.Responses{
			Media: map[string]job.MediaReference{"capture": capture},
		},
	}
}

func TestAIImageSuccess(t *testing.T) {
	td := newTestDeps(t)
	ref := td.seedMedia(t, "uploads/sess-1/capture.jpg")
	j := td.createJob(t, aiImageSnapshot(ref, "a neon portrait"))

	if err := processJob(context.Background(), td.Deps, j.ID); err != nil {
		t.Fatalf("processJob() error = %v", err)
	}

	stored, _ := td.Repo.GetJob(context.Background(), j.ID)
	if stored.Status != job.StatusCompleted {
		t.Fatalf("status = %s, want completed", stored.Status)
	}
	if stored.Output.Format != job.FormatImage {
		t.Errorf("format = %s, want image", stored.Output.Format)
	}

	if td.Images.calls() != 1 {
		t.Fatalf("provider called %d times, want 1", td.Images.calls())
	}
	req := td.Images.request(0)
	if req.Prompt != "a neon portrait" {
		t.Errorf("prompt = %q", req.Prompt)
	}
	if req.Model != "img-model-1" || req.AspectRatio != "9:16" {
		t.Errorf("request config not forwarded: %+v", req)
	}
	if req.SourceMediaPath == "" {
		t.Error("subject photo was not attached")
	}
}

func TestAIImagePromptSubstitution(t *testing.T) {
	td := newTestDeps(t)
	ref := td.seedMedia(t, "uploads/sess-1/capture.jpg")

	snapshot := aiImageSnapshot(ref, "a {{mood}} scene in {{place}}")
	snapshot.Responses.Answers = map[string]string{"mood": "dreamy", "place": "tokyo"}
	j := td.createJob(t, snapshot)

	if err := processJob(context.Background(), td.Deps, j.ID); err != nil {
		t.Fatalf("processJob() error = %v", err)
	}
	if got := td.Images.request(0).Prompt; got != "a dreamy scene in tokyo" {
		t.Errorf("resolved prompt = %q", got)
	}
}

func TestAIImageEmptyPromptFailsBeforeProviderCall(t *testing.T) {
	td := newTestDeps(t)
	ref := td.seedMedia(t, "uploads/sess-1/capture.jpg")

	// The prompt collapses to whitespace once the unanswered mention resolves.
	j := td.createJob(t, aiImageSnapshot(ref, "  {{unanswered}}  "))

	if err := processJob(context.Background(), td.Deps, j.ID); err == nil {
		t.Fatal("processJob() succeeded with an empty prompt")
	}

	stored, _ := td.Repo.GetJob(context.Background(), j.ID)
	if stored.Error.Code != CodeInvalidInput {
		t.Errorf("code = %s, want INVALID_INPUT", stored.Error.Code)
	}
	if td.Images.calls() != 0 {
		t.Errorf("provider called %d times on invalid input, want 0", td.Images.calls())
	}
}

func TestAIImageSafetyFiltered(t *testing.T) {
	td := newTestDeps(t)
	ref := td.seedMedia(t, "uploads/sess-1/capture.jpg")
	td.Images.Err = genai.ErrSafetyFiltered
	j := td.createJob(t, aiImageSnapshot(ref, "a neon portrait"))

	if err := processJob(context.Background(), td.Deps, j.ID); err == nil {
		t.Fatal("processJob() succeeded, want safety failure")
	}

	stored, _ := td.Repo.GetJob(context.Background(), j.ID)
	if stored.Error.Code != CodeAIModelError {
		t.Errorf("code = %s, want AI_MODEL_ERROR", stored.Error.Code)
	}
}

func TestAIImageProviderError(t *testing.T) {
	td := newTestDeps(t)
	ref := td.seedMedia(t, "uploads/sess-1/capture.jpg")
	td.Images.Err = &genai.APIError{StatusCode: 503, Message: "upstream overloaded"}
	j := td.createJob(t, aiImageSnapshot(ref, "a neon portrait"))

	if err := processJob(context.Background(), td.Deps, j.ID); err == nil {
		t.Fatal("processJob() succeeded, want provider failure")
	}

	stored, _ := td.Repo.GetJob(context.Background(), j.ID)
	if stored.Error.Code != CodeAIModelError {
		t.Errorf("code = %s, want AI_MODEL_ERROR", stored.Error.Code)
	}
	// Provider diagnostics must not reach the guest-facing record.
	if stored.Error.Message == "upstream overloaded" {
		t.Error("raw provider message leaked into the job error")
	}
}

func TestAIImageWithReferences(t *testing.T) {
	td := newTestDeps(t)
	ref := td.seedMedia(t, "uploads/sess-1/capture.jpg")
	styleA := td.seedMedia(t, "styles/a.jpg")
	styleB := td.seedMedia(t, "styles/b.jpg")

	snapshot := aiImageSnapshot(ref, "a neon portrait")
	snapshot.Outcome.AIImage.ReferenceMediaRefs = []job.MediaReference{styleA, styleB}
	j := td.createJob(t, snapshot)

	if err := processJob(context.Background(), td.Deps, j.ID); err != nil {
		t.Fatalf("processJob() error = %v", err)
	}
	if got := len(td.Images.request(0).ReferenceMediaPaths); got != 2 {
		t.Errorf("reference count = %d, want 2", got)
	}
}
