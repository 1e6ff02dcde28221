package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestMemoryStorageRoundTrip(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	data := []byte("subject photo bytes")
	if err := s.Upload(ctx, "sessions/abc/capture.jpg", bytes.NewReader(data), "image/jpeg", int64(len(data))); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	reader, err := s.Download(ctx, "sessions/abc/capture.jpg")
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	defer reader.Close()

	got, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("downloaded data mismatch: got %d bytes, want %d", len(got), len(data))
	}

	ct, ok := s.GetContentType("sessions/abc/capture.jpg")
	if !ok || ct != "image/jpeg" {
		t.Errorf("content type = %q, %v; want image/jpeg, true", ct, ok)
	}
}

func TestMemoryStorageDownloadMissing(t *testing.T) {
	s := NewMemoryStorage()

	_, err := s.Download(context.Background(), "missing")
	if err != ErrNotFound {
		t.Errorf("Download(missing) error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStorageFileHelpers(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()
	dir := t.TempDir()

	src := filepath.Join(dir, "artifact.mp4")
	if err := os.WriteFile(src, []byte("video bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := s.UploadFile(ctx, src, "outputs/job1/result.mp4", "video/mp4")
	if err != nil {
		t.Fatalf("UploadFile() error = %v", err)
	}
	if result.AssetID != "outputs/job1/result.mp4" {
		t.Errorf("AssetID = %q", result.AssetID)
	}
	if result.URL == "" {
		t.Error("URL is empty")
	}

	dst := filepath.Join(dir, "downloaded.mp4")
	n, err := s.DownloadToFile(ctx, "outputs/job1/result.mp4", dst)
	if err != nil {
		t.Fatalf("DownloadToFile() error = %v", err)
	}
	if n != int64(len("video bytes")) {
		t.Errorf("DownloadToFile() wrote %d bytes, want %d", n, len("video bytes"))
	}
}

func TestMemoryStorageDeletePrefix(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	for _, key := range []string{"scratch/op1/a", "scratch/op1/b", "outputs/keep"} {
		if err := s.Upload(ctx, key, bytes.NewReader([]byte("x")), "application/octet-stream", 1); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.DeletePrefix(ctx, "scratch/op1/"); err != nil {
		t.Fatalf("DeletePrefix() error = %v", err)
	}

	if s.Count() != 1 {
		t.Errorf("Count() = %d, want 1", s.Count())
	}
	if ok, _ := s.Exists(ctx, "outputs/keep"); !ok {
		t.Error("unrelated key was deleted")
	}
}
