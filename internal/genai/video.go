package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/vileikis/glowbooth/internal/logger"
	"github.com/vileikis/glowbooth/internal/metrics"
	"github.com/vileikis/glowbooth/internal/tracing"
)

// VideoRequest describes one video generation submission. StartFramePath is
// required; EndFramePath is optional (animate has none).
type VideoRequest struct {
	Prompt          string
	Model           string
	AspectRatio     string
	DurationSeconds int
	StartFramePath  string
	EndFramePath    string
}

// Operation is the provider-side handle for an in-flight generation. The
// caller polls until Done; a done operation either carries a result URL, a
// failure message, or was filtered with no output at all.
type Operation struct {
	ID             string
	Done           bool
	ResultURL      string
	Filtered       bool
	FailureMessage string
}

// VideoGenerator is the asynchronous video provider surface.
type VideoGenerator interface {
	SubmitVideo(ctx context.Context, req VideoRequest) (*Operation, error)
	PollVideo(ctx context.Context, operationID string) (*Operation, error)
	DownloadVideo(ctx context.Context, resultURL, localPath string) error
}

type VideoClient struct {
	endpoint     string
	apiKey       string
	defaultModel string
	httpClient   *http.Client
}

var _ VideoGenerator = (*VideoClient)(nil)

func NewVideoClient(endpoint, apiKey, defaultModel string) *VideoClient {
	return &VideoClient{
		endpoint:     endpoint,
		apiKey:       apiKey,
		defaultModel: defaultModel,
		httpClient:   newHTTPClient(),
	}
}

type videoSubmitRequest struct {
	Prompt          string       `json:"prompt"`
	Model           string       `json:"model"`
	AspectRatio     string       `json:"aspectRatio,omitempty"`
	DurationSeconds int          `json:"durationSeconds"`
	StartFrame      *inlineMedia `json:"startFrame"`
	EndFrame        *inlineMedia `json:"endFrame,omitempty"`
}

type videoOperationResponse struct {
	OperationID string `json:"operationId"`
	Done        bool   `json:"done"`
	ResultURL   string `json:"resultUrl,omitempty"`
	Filtered    bool   `json:"filtered,omitempty"`
	Error       string `json:"error,omitempty"`
}

func (c *VideoClient) SubmitVideo(ctx context.Context, req VideoRequest) (op *Operation, err error) {
	log := logger.FromContext(ctx)

	ctx, span := tracing.StartProviderSpan(ctx, "video", "submit")
	defer span.End()

	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
			span.RecordError(err)
		}
		metrics.RecordProviderCall("video", "submit", status, time.Since(start).Seconds())
	}()

	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	startFrame, err := encodeMediaFile(req.StartFramePath)
	if err != nil {
		return nil, err
	}

	body := videoSubmitRequest{
		Prompt:          req.Prompt,
		Model:           model,
		AspectRatio:     req.AspectRatio,
		DurationSeconds: req.DurationSeconds,
		StartFrame:      startFrame,
	}

	if req.EndFramePath != "" {
		endFrame, err := encodeMediaFile(req.EndFramePath)
		if err != nil {
			return nil, err
		}
		body.EndFrame = endFrame
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("genai: encode video request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/v1/videos:generate", bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("genai: build video request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	log.Info("submitting video generation", "model", model, "duration_s", req.DurationSeconds, "has_end_frame", req.EndFramePath != "")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("genai: video submit failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return nil, readAPIError(resp)
	}

	var opResp videoOperationResponse
	if err := json.NewDecoder(resp.Body).Decode(&opResp); err != nil {
		return nil, fmt.Errorf("genai: decode video submit response: %w", err)
	}
	if opResp.OperationID == "" {
		return nil, fmt.Errorf("genai: video submit returned no operation id")
	}

	return operationFromResponse(&opResp), nil
}

func (c *VideoClient) PollVideo(ctx context.Context, operationID string) (*Operation, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/v1/operations/"+operationID, nil)
	if err != nil {
		return nil, fmt.Errorf("genai: build poll request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("genai: poll failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readAPIError(resp)
	}

	var opResp videoOperationResponse
	if err := json.NewDecoder(resp.Body).Decode(&opResp); err != nil {
		return nil, fmt.Errorf("genai: decode poll response: %w", err)
	}

	return operationFromResponse(&opResp), nil
}

func (c *VideoClient) DownloadVideo(ctx context.Context, resultURL, localPath string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, resultURL, nil)
	if err != nil {
		return fmt.Errorf("genai: build download request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("genai: video download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return readAPIError(resp)
	}

	file, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("genai: create %s: %w", localPath, err)
	}
	defer file.Close()

	if _, err := io.Copy(file, resp.Body); err != nil {
		return fmt.Errorf("genai: write video to %s: %w", localPath, err)
	}
	return nil
}

func operationFromResponse(resp *videoOperationResponse) *Operation {
	return &Operation{
		ID:             resp.OperationID,
		Done:           resp.Done,
		ResultURL:      resp.ResultURL,
		Filtered:       resp.Filtered,
		FailureMessage: resp.Error,
	}
}
