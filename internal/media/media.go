package media

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var (
	ErrFFmpegNotFound  = errors.New("media: ffmpeg binary not found")
	ErrFFprobeNotFound = errors.New("media: ffprobe binary not found")
	ErrInvalidMedia    = errors.New("media: invalid or unreadable media")
	ErrInvalidAspect   = errors.New("media: invalid aspect ratio")
	ErrNoFrames        = errors.New("media: no input frames")
)

// ExecError carries a failed subprocess's exit status and captured stderr.
// The stderr text is for logs and traces only; it must never be surfaced to
// guests.
type ExecError struct {
	Tool   string
	Err    error
	Stderr string
}

func (e *ExecError) Error() string {
	stderr := strings.TrimSpace(e.Stderr)
	if len(stderr) > 512 {
		stderr = stderr[:512] + "..."
	}
	return fmt.Sprintf("media: %s failed: %v: %s", e.Tool, e.Err, stderr)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

type Config struct {
	FFmpegPath  string
	FFprobePath string

	// MaxDimension clamps scale/crop output on the longest edge.
	MaxDimension int
	JPEGQuality  int
}

func DefaultConfig() *Config {
	return &Config{
		FFmpegPath:   "ffmpeg",
		FFprobePath:  "ffprobe",
		MaxDimension: 2048,
		JPEGQuality:  90,
	}
}

// Ops performs the subprocess-driven media operations the executors depend
// on. All methods are blocking.
type Ops struct {
	config *Config
}

func NewOps(cfg *Config) (*Ops, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if _, err := exec.LookPath(cfg.FFmpegPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFFmpegNotFound, err)
	}
	if _, err := exec.LookPath(cfg.FFprobePath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFFprobeNotFound, err)
	}

	return &Ops{config: cfg}, nil
}

// ProbeInfo is the subset of stream metadata the executors trust. Dimensions
// and duration always come from probing the actual file, never from request
// parameters.
type ProbeInfo struct {
	Width    int
	Height   int
	Duration float64
}

// AnimOptions controls the palette-based animated image encode.
type AnimOptions struct {
	FPS       int
	LoopCount int // 0 loops forever
	MaxColors int
	Dither    string
}

func (o AnimOptions) withDefaults() AnimOptions {
	if o.FPS <= 0 {
		o.FPS = 8
	}
	if o.MaxColors <= 0 {
		o.MaxColors = 256
	}
	if o.Dither == "" {
		o.Dither = "sierra2_4a"
	}
	return o
}
