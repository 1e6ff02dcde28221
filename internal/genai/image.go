package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vileikis/glowbooth/internal/logger"
	"github.com/vileikis/glowbooth/internal/metrics"
	"github.com/vileikis/glowbooth/internal/tracing"
)

// ImageRequest describes one image generation call. SourceMediaPath is the
// guest's subject photo; ReferenceMediaPaths are optional style references.
type ImageRequest struct {
	Prompt              string
	Model               string
	AspectRatio         string
	SourceMediaPath     string
	ReferenceMediaPaths []string
}

type ImageResult struct {
	Data     []byte
	MimeType string
}

// ImageGenerator is the synchronous image provider surface.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, req ImageRequest) (*ImageResult, error)
}

type ImageClient struct {
	endpoint     string
	apiKey       string
	defaultModel string
	httpClient   *http.Client
}

var _ ImageGenerator = (*ImageClient)(nil)

func NewImageClient(endpoint, apiKey, defaultModel string) *ImageClient {
	return &ImageClient{
		endpoint:     endpoint,
		apiKey:       apiKey,
		defaultModel: defaultModel,
		httpClient:   newHTTPClient(),
	}
}

type imageGenerateRequest struct {
	Prompt          string        `json:"prompt"`
	Model           string        `json:"model"`
	AspectRatio     string        `json:"aspectRatio,omitempty"`
	SourceImage     *inlineMedia  `json:"sourceImage,omitempty"`
	ReferenceImages []inlineMedia `json:"referenceImages,omitempty"`
}

type imageGenerateResponse struct {
	Candidates []struct {
		Data     string `json:"data"`
		MimeType string `json:"mimeType"`
	} `json:"candidates"`
}

func (c *ImageClient) GenerateImage(ctx context.Context, req ImageRequest) (result *ImageResult, err error) {
	log := logger.FromContext(ctx)

	ctx, span := tracing.StartProviderSpan(ctx, "image", "generate")
	defer span.End()

	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
			span.RecordError(err)
		}
		metrics.RecordProviderCall("image", "generate", status, time.Since(start).Seconds())
	}()

	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	body := imageGenerateRequest{
		Prompt:      req.Prompt,
		Model:       model,
		AspectRatio: req.AspectRatio,
	}

	if req.SourceMediaPath != "" {
		source, err := encodeMediaFile(req.SourceMediaPath)
		if err != nil {
			return nil, err
		}
		body.SourceImage = source
	}

	for _, path := range req.ReferenceMediaPaths {
		ref, err := encodeMediaFile(path)
		if err != nil {
			return nil, err
		}
		body.ReferenceImages = append(body.ReferenceImages, *ref)
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("genai: encode image request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/v1/images:generate", bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("genai: build image request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	log.Debug("calling image provider", "model", model, "aspect_ratio", req.AspectRatio)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("genai: image request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readAPIError(resp)
	}

	var decoded imageGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("genai: decode image response: %w", err)
	}

	if len(decoded.Candidates) == 0 {
		return nil, ErrSafetyFiltered
	}

	candidate := decoded.Candidates[0]
	data, err := base64.StdEncoding.DecodeString(candidate.Data)
	if err != nil {
		return nil, fmt.Errorf("genai: decode image payload: %w", err)
	}

	mimeType := candidate.MimeType
	if mimeType == "" {
		mimeType = "image/png"
	}

	return &ImageResult{Data: data, MimeType: mimeType}, nil
}

func readAPIError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var body apiErrorBody
	if err := json.Unmarshal(data, &body); err == nil && body.Error.Message != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: body.Error.Message}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: string(data)}
}
