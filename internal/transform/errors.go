package transform

import (
	"context"
	"errors"
	"fmt"

	"github.com/vileikis/glowbooth/internal/genai"
	"github.com/vileikis/glowbooth/internal/job"
)

// Guest-facing failure codes. Everything the pipeline can go wrong with maps
// onto one of these three.
const (
	CodeInvalidInput     = "INVALID_INPUT"
	CodeAIModelError     = "AI_MODEL_ERROR"
	CodeProcessingFailed = "PROCESSING_FAILED"
)

// ErrPollTimeout marks a video operation that never completed within the
// polling ceiling.
var ErrPollTimeout = errors.New("transform: video operation timed out")

// Error carries both faces of a failure: Code and Message are sanitized for
// the job document, Internal is the wrapped cause for logs and traces only.
type Error struct {
	Code     string
	Message  string
	Step     string
	Internal error
}

func (e *Error) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s at %s: %v", e.Code, e.Step, e.Internal)
	}
	return fmt.Sprintf("%s at %s: %s", e.Code, e.Step, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Internal
}

// Sanitized returns the guest-visible record. Internal never leaks here.
func (e *Error) Sanitized() *job.Error {
	return &job.Error{Code: e.Code, Message: e.Message}
}

func invalidInput(step, message string) *Error {
	return &Error{Code: CodeInvalidInput, Message: message, Step: step}
}

// Classify wraps an arbitrary pipeline error into the taxonomy. Errors that
// are already classified pass through unchanged.
func Classify(step string, err error) *Error {
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	var apiErr *genai.APIError
	switch {
	case errors.Is(err, genai.ErrSafetyFiltered):
		return &Error{
			Code:     CodeAIModelError,
			Message:  "The AI model could not process this content. Please try a different photo.",
			Step:     step,
			Internal: err,
		}
	case errors.As(err, &apiErr):
		return &Error{
			Code:     CodeAIModelError,
			Message:  "The AI model is temporarily unavailable. Please try again.",
			Step:     step,
			Internal: err,
		}
	case errors.Is(err, ErrPollTimeout), errors.Is(err, context.DeadlineExceeded):
		return &Error{
			Code:     CodeProcessingFailed,
			Message:  "Processing took too long and was stopped. Please try again.",
			Step:     step,
			Internal: err,
		}
	default:
		return &Error{
			Code:     CodeProcessingFailed,
			Message:  "Something went wrong while creating your result. Please try again.",
			Step:     step,
			Internal: err,
		}
	}
}
