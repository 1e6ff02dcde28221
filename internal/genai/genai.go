// Package genai holds the thin HTTP clients for the external generative
// providers. Image generation is one synchronous call; video generation is
// submit-then-poll against an operation handle.
package genai

import (
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// ErrSafetyFiltered is returned when the provider completed successfully but
// every candidate was suppressed by its content-safety policy. Callers must
// surface this distinctly from transport or API failures.
var ErrSafetyFiltered = errors.New("genai: output filtered by safety policy")

// APIError is a non-2xx provider response. The message may contain provider
// diagnostics and is for logs only.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("genai: provider returned status %d: %s", e.StatusCode, e.Message)
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 120 * time.Second}
}

// inlineMedia is the wire form for a local file attached to a request.
type inlineMedia struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

func encodeMediaFile(path string) (*inlineMedia, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("genai: read media %s: %w", path, err)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	return &inlineMedia{
		Data:     base64.StdEncoding.EncodeToString(data),
		MimeType: mimeType,
	}, nil
}

type apiErrorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}
