package transform

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vileikis/glowbooth/internal/genai"
	"github.com/vileikis/glowbooth/internal/job"
	"github.com/vileikis/glowbooth/internal/media"
	"github.com/vileikis/glowbooth/internal/storage"
)

// fakeImageGen records every request and returns canned bytes. Err short
// circuits all calls.
type fakeImageGen struct {
	mu       sync.Mutex
	requests []genai.ImageRequest

	Err    error
	Result []byte
}

func (f *fakeImageGen) GenerateImage(ctx context.Context, req genai.ImageRequest) (*genai.ImageResult, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.Err != nil {
		return nil, f.Err
	}
	data := f.Result
	if data == nil {
		data = []byte("generated:" + req.Prompt)
	}
	return &genai.ImageResult{Data: data, MimeType: "image/jpeg"}, nil
}

func (f *fakeImageGen) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeImageGen) request(i int) genai.ImageRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[i]
}

// fakeVideoGen plays back a scripted sequence of poll results after a single
// submit. Downloads write VideoBytes to the destination path.
type fakeVideoGen struct {
	mu      sync.Mutex
	submits []genai.VideoRequest
	polls   int

	SubmitErr  error
	PollScript []*genai.Operation
	VideoBytes []byte
}

func (f *fakeVideoGen) SubmitVideo(ctx context.Context, req genai.VideoRequest) (*genai.Operation, error) {
	f.mu.Lock()
	f.submits = append(f.submits, req)
	f.mu.Unlock()

	if f.SubmitErr != nil {
		return nil, f.SubmitErr
	}
	return &genai.Operation{ID: "op-test"}, nil
}

func (f *fakeVideoGen) PollVideo(ctx context.Context, operationID string) (*genai.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.PollScript) == 0 {
		return &genai.Operation{ID: operationID}, nil
	}
	op := f.PollScript[f.polls]
	if f.polls < len(f.PollScript)-1 {
		f.polls++
	}
	return op, nil
}

func (f *fakeVideoGen) DownloadVideo(ctx context.Context, resultURL, localPath string) error {
	data := f.VideoBytes
	if data == nil {
		data = []byte("mp4-bytes")
	}
	return os.WriteFile(localPath, data, 0o644)
}

func (f *fakeVideoGen) submitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submits)
}

func (f *fakeVideoGen) lastSubmit() genai.VideoRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submits[len(f.submits)-1]
}

// fakeMedia stands in for the ffmpeg layer. File-producing operations copy or
// stub out real files so downstream stat/upload steps behave.
type fakeMedia struct {
	ProbeInfo    media.ProbeInfo
	ScaleErr     error
	EncodeErr    error
	ThumbnailErr error
	OverlayErr   error

	mu         sync.Mutex
	scaleCalls int
}

func (f *fakeMedia) ScaleAndCrop(ctx context.Context, inPath, outPath, aspectRatio string) error {
	f.mu.Lock()
	f.scaleCalls++
	f.mu.Unlock()

	if f.ScaleErr != nil {
		return f.ScaleErr
	}
	return copyFile(inPath, outPath)
}

func (f *fakeMedia) EncodeAnimatedImage(ctx context.Context, framePaths []string, outPath string, opts media.AnimOptions) error {
	if f.EncodeErr != nil {
		return f.EncodeErr
	}
	return os.WriteFile(outPath, []byte(fmt.Sprintf("gif:%d-frames", len(framePaths))), 0o644)
}

func (f *fakeMedia) Thumbnail(ctx context.Context, inPath, outPath string, width int) error {
	if f.ThumbnailErr != nil {
		return f.ThumbnailErr
	}
	return os.WriteFile(outPath, []byte("thumb"), 0o644)
}

func (f *fakeMedia) Probe(ctx context.Context, path string) (*media.ProbeInfo, error) {
	info := f.ProbeInfo
	if info.Width == 0 {
		info = media.ProbeInfo{Width: 1080, Height: 1920, Duration: 8}
	}
	return &info, nil
}

func (f *fakeMedia) CompositeOverlay(basePath, overlayPath, caption, outPath string) error {
	if f.OverlayErr != nil {
		return f.OverlayErr
	}
	return copyFile(basePath, outPath)
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}

// testDeps bundles the fakes with the Dependencies wiring under test.
type testDeps struct {
	Deps   Dependencies
	Repo   *job.MemoryRepository
	Store  *storage.MemoryStorage
	Images *fakeImageGen
	Videos *fakeVideoGen
	Media  *fakeMedia
}

func newTestDeps(t *testing.T) *testDeps {
	t.Helper()

	td := &testDeps{
		Repo:   job.NewMemoryRepository(),
		Store:  storage.NewMemoryStorage(),
		Images: &fakeImageGen{},
		Videos: &fakeVideoGen{},
		Media:  &fakeMedia{},
	}
	td.Deps = Dependencies{
		Repo:         td.Repo,
		Store:        td.Store,
		Media:        td.Media,
		Images:       td.Images,
		Videos:       td.Videos,
		PollInterval: time.Millisecond,
		PollTimeout:  200 * time.Millisecond,
		TempRoot:     t.TempDir(),
	}
	return td
}

// seedMedia uploads bytes for a guest capture and returns its reference.
func (td *testDeps) seedMedia(t *testing.T, key string) job.MediaReference {
	t.Helper()
	if err := td.Store.Upload(context.Background(), key, bytes.NewReader([]byte("photo:"+key)), "image/jpeg", 0); err != nil {
		t.Fatalf("failed to seed media %s: %v", key, err)
	}
	return job.MediaReference{StoragePath: key, MimeType: "image/jpeg"}
}

func (td *testDeps) createJob(t *testing.T, snapshot job.Snapshot) *job.Job {
	t.Helper()
	j := &job.Job{
		ID:           uuid.New(),
		ProjectID:    "proj-1",
		SessionID:    "sess-1",
		ExperienceID: "exp-1",
		Status:       job.StatusPending,
		Snapshot:     snapshot,
	}
	if err := td.Repo.CreateJob(context.Background(), j); err != nil {
		t.Fatalf("failed to create job: %v", err)
	}
	return j
}
