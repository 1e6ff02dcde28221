package genai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestGenerateImageSuccess(t *testing.T) {
	payload := []byte("fake-png-bytes")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/images:generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}

		var req imageGenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Model != "img-model-1" {
			t.Errorf("model = %q, want img-model-1", req.Model)
		}
		if req.SourceImage == nil {
			t.Error("expected source image in request")
		}

		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]string{
				{"data": base64.StdEncoding.EncodeToString(payload), "mimeType": "image/png"},
			},
		})
	}))
	defer server.Close()

	client := NewImageClient(server.URL, "test-key", "img-model-1")
	source := writeTempFile(t, "source.png", []byte("input"))

	result, err := client.GenerateImage(context.Background(), ImageRequest{
		Prompt:          "a neon portrait",
		AspectRatio:     "9:16",
		SourceMediaPath: source,
	})
	if err != nil {
		t.Fatalf("GenerateImage() error = %v", err)
	}
	if string(result.Data) != string(payload) {
		t.Errorf("result data mismatch")
	}
	if result.MimeType != "image/png" {
		t.Errorf("mime type = %q, want image/png", result.MimeType)
	}
}

func TestGenerateImageSafetyFiltered(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
	}))
	defer server.Close()

	client := NewImageClient(server.URL, "test-key", "img-model-1")
	_, err := client.GenerateImage(context.Background(), ImageRequest{Prompt: "blocked"})
	if !errors.Is(err, ErrSafetyFiltered) {
		t.Errorf("GenerateImage() error = %v, want ErrSafetyFiltered", err)
	}
}

func TestGenerateImageAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "quota exceeded"},
		})
	}))
	defer server.Close()

	client := NewImageClient(server.URL, "test-key", "img-model-1")
	_, err := client.GenerateImage(context.Background(), ImageRequest{Prompt: "anything"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("GenerateImage() error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", apiErr.StatusCode)
	}
	if apiErr.Message != "quota exceeded" {
		t.Errorf("message = %q, want quota exceeded", apiErr.Message)
	}
}

func TestVideoSubmitAndPoll(t *testing.T) {
	polls := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/videos:generate":
			var req videoSubmitRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatalf("failed to decode submit request: %v", err)
			}
			if req.StartFrame == nil {
				t.Error("expected start frame in request")
			}
			if req.EndFrame == nil {
				t.Error("expected end frame in request")
			}
			json.NewEncoder(w).Encode(map[string]any{"operationId": "op-42", "done": false})

		case r.Method == http.MethodGet && r.URL.Path == "/v1/operations/op-42":
			polls++
			if polls < 2 {
				json.NewEncoder(w).Encode(map[string]any{"operationId": "op-42", "done": false})
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"operationId": "op-42",
				"done":        true,
				"resultUrl":   "http://example.com/result.mp4",
			})

		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewVideoClient(server.URL, "test-key", "vid-model-1")
	start := writeTempFile(t, "start.jpg", []byte("start"))
	end := writeTempFile(t, "end.jpg", []byte("end"))

	op, err := client.SubmitVideo(context.Background(), VideoRequest{
		Prompt:          "slow zoom",
		DurationSeconds: 8,
		StartFramePath:  start,
		EndFramePath:    end,
	})
	if err != nil {
		t.Fatalf("SubmitVideo() error = %v", err)
	}
	if op.ID != "op-42" || op.Done {
		t.Fatalf("unexpected submit operation: %+v", op)
	}

	op, err = client.PollVideo(context.Background(), op.ID)
	if err != nil {
		t.Fatalf("PollVideo() error = %v", err)
	}
	if op.Done {
		t.Fatal("first poll reported done, want pending")
	}

	op, err = client.PollVideo(context.Background(), op.ID)
	if err != nil {
		t.Fatalf("PollVideo() error = %v", err)
	}
	if !op.Done || op.ResultURL != "http://example.com/result.mp4" {
		t.Errorf("unexpected final operation: %+v", op)
	}
}

func TestVideoPollFiltered(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"operationId": "op-9",
			"done":        true,
			"filtered":    true,
		})
	}))
	defer server.Close()

	client := NewVideoClient(server.URL, "test-key", "vid-model-1")
	op, err := client.PollVideo(context.Background(), "op-9")
	if err != nil {
		t.Fatalf("PollVideo() error = %v", err)
	}
	if !op.Done || !op.Filtered {
		t.Errorf("operation = %+v, want done and filtered", op)
	}
	if op.ResultURL != "" {
		t.Errorf("filtered operation has result URL %q", op.ResultURL)
	}
}

func TestDownloadVideo(t *testing.T) {
	content := []byte("mp4-bytes")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		w.Write(content)
	}))
	defer server.Close()

	client := NewVideoClient(server.URL, "test-key", "vid-model-1")
	dest := filepath.Join(t.TempDir(), "result.mp4")

	if err := client.DownloadVideo(context.Background(), server.URL+"/files/result.mp4", dest); err != nil {
		t.Fatalf("DownloadVideo() error = %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("failed to read download: %v", err)
	}
	if string(data) != string(content) {
		t.Errorf("downloaded %q, want %q", data, content)
	}
}

func TestEncodeMediaFileMimeFallback(t *testing.T) {
	path := writeTempFile(t, "frame.bin", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46, 0x49, 0x46, 0x00, 0x01})

	media, err := encodeMediaFile(path)
	if err != nil {
		t.Fatalf("encodeMediaFile() error = %v", err)
	}
	if media.MimeType != "image/jpeg" {
		t.Errorf("mime type = %q, want image/jpeg (sniffed)", media.MimeType)
	}
}
