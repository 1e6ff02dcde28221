package job

type OutcomeType string

const (
	OutcomePhoto   OutcomeType = "photo"
	OutcomeAIImage OutcomeType = "ai.image"
	OutcomeAIVideo OutcomeType = "ai.video"
)

type VideoTask string

const (
	TaskAnimate   VideoTask = "animate"
	TaskTransform VideoTask = "transform"
	TaskReimagine VideoTask = "reimagine"
)

// MediaReference points at a previously uploaded guest asset.
type MediaReference struct {
	StoragePath string `json:"storagePath"`
	MimeType    string `json:"mimeType"`
}

// Responses holds the guest's session answers and captured media, keyed by
// step ID.
type Responses struct {
	Answers map[string]string         `json:"answers,omitempty"`
	Media   map[string]MediaReference `json:"media,omitempty"`
}

// MediaForStep resolves a captured media reference by step ID.
func (r Responses) MediaForStep(stepID string) (MediaReference, bool) {
	ref, ok := r.Media[stepID]
	return ref, ok
}

// AnswerForStep resolves a text answer by step ID.
func (r Responses) AnswerForStep(stepID string) (string, bool) {
	v, ok := r.Answers[stepID]
	return v, ok
}

// OverlayChoice is an optional frame/sticker the guest picked. Caption is
// rendered onto the overlay when present.
type OverlayChoice struct {
	AssetPath string `json:"assetPath"`
	Caption   string `json:"caption,omitempty"`
}

// Snapshot is the immutable copy of configuration and session data captured
// at job creation. Jobs never observe experience edits made after submission.
type Snapshot struct {
	Outcome   OutcomeConfig  `json:"outcome"`
	Responses Responses      `json:"responses"`
	Overlay   *OverlayChoice `json:"overlay,omitempty"`
}

// OutcomeConfig is a tagged union discriminated by Type. Exactly one of the
// pointer fields matching Type is populated.
type OutcomeConfig struct {
	Type    OutcomeType    `json:"type"`
	Photo   *PhotoConfig   `json:"photo,omitempty"`
	AIImage *AIImageConfig `json:"aiImage,omitempty"`
	AIVideo *AIVideoConfig `json:"aiVideo,omitempty"`
}

type PhotoConfig struct {
	CaptureStepID string `json:"captureStepId"`
	// BurstStepIDs lists additional capture steps for multi-shot sessions;
	// two or more resolved frames produce an animated image instead of a
	// still.
	BurstStepIDs []string `json:"burstStepIds,omitempty"`
	AspectRatio  string   `json:"aspectRatio,omitempty"`
}

type AIImageConfig struct {
	CaptureStepID      string           `json:"captureStepId"`
	Prompt             string           `json:"prompt"`
	Model              string           `json:"model,omitempty"`
	AspectRatio        string           `json:"aspectRatio,omitempty"`
	ReferenceMediaRefs []MediaReference `json:"referenceMediaRefs,omitempty"`
}

type FrameGenConfig struct {
	Prompt      string `json:"prompt"`
	Model       string `json:"model,omitempty"`
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type VideoGenConfig struct {
	Prompt          string `json:"prompt"`
	Model           string `json:"model,omitempty"`
	DurationSeconds int    `json:"durationSeconds"`
	AspectRatio     string `json:"aspectRatio,omitempty"`
}

type AIVideoConfig struct {
	Task               VideoTask       `json:"task"`
	CaptureStepID      string          `json:"captureStepId"`
	AspectRatio        string          `json:"aspectRatio,omitempty"`
	VideoGeneration    VideoGenConfig  `json:"videoGeneration"`
	StartFrameImageGen *FrameGenConfig `json:"startFrameImageGen,omitempty"`
	EndFrameImageGen   *FrameGenConfig `json:"endFrameImageGen,omitempty"`
}
