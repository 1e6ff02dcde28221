package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// ScaleAndCrop resizes the input with lanczos filtering and centre-crops to
// the exact target aspect ratio (e.g. "9:16"). Output dimensions are derived
// from the probed input, clamped to MaxDimension, and forced even.
func (o *Ops) ScaleAndCrop(ctx context.Context, inPath, outPath, aspectRatio string) error {
	info, err := o.Probe(ctx, inPath)
	if err != nil {
		return err
	}

	targetW, targetH, err := cropDimensions(info.Width, info.Height, aspectRatio, o.config.MaxDimension)
	if err != nil {
		return err
	}

	vf := fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase:flags=lanczos,crop=%d:%d",
		targetW, targetH, targetW, targetH)

	args := []string{
		"-i", inPath,
		"-vf", vf,
		"-frames:v", "1",
		"-q:v", "2",
		"-y",
		outPath,
	}

	return o.runFFmpeg(ctx, args)
}

// EncodeAnimatedImage runs the two-pass palette pipeline over an ordered
// frame sequence: palettegen first, then a dithered paletteuse encode.
func (o *Ops) EncodeAnimatedImage(ctx context.Context, framePaths []string, outPath string, opts AnimOptions) error {
	if len(framePaths) == 0 {
		return ErrNoFrames
	}
	opts = opts.withDefaults()

	workDir, err := os.MkdirTemp(filepath.Dir(outPath), "anim-*")
	if err != nil {
		return fmt.Errorf("media: create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	listPath := filepath.Join(workDir, "frames.txt")
	if err := writeConcatList(listPath, framePaths, opts.FPS); err != nil {
		return err
	}

	palettePath := filepath.Join(workDir, "palette.png")
	paletteArgs := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-vf", fmt.Sprintf("palettegen=max_colors=%d", opts.MaxColors),
		"-y",
		palettePath,
	}
	if err := o.runFFmpeg(ctx, paletteArgs); err != nil {
		return err
	}

	encodeArgs := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-i", palettePath,
		"-lavfi", fmt.Sprintf("fps=%d,paletteuse=dither=%s", opts.FPS, opts.Dither),
		"-loop", strconv.Itoa(opts.LoopCount),
		"-y",
		outPath,
	}
	return o.runFFmpeg(ctx, encodeArgs)
}

// Thumbnail extracts a representative frame (the first, for video) scaled to
// the given width.
func (o *Ops) Thumbnail(ctx context.Context, inPath, outPath string, width int) error {
	if width <= 0 {
		width = 320
	}

	args := []string{
		"-i", inPath,
		"-vframes", "1",
		"-vf", fmt.Sprintf("scale=%d:-2:flags=lanczos", width),
		"-q:v", "2",
		"-y",
		outPath,
	}
	return o.runFFmpeg(ctx, args)
}

// Probe inspects a media file and returns its true pixel dimensions and, for
// time-based media, duration in seconds.
func (o *Ops) Probe(ctx context.Context, path string) (*ProbeInfo, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}

	cmd := exec.CommandContext(ctx, o.config.FFprobePath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		return nil, &ExecError{Tool: "ffprobe", Err: err, Stderr: stderr.String()}
	}

	return parseProbeOutput(output)
}

func (o *Ops) runFFmpeg(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, o.config.FFmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return &ExecError{Tool: "ffmpeg", Err: err, Stderr: stderr.String()}
	}
	return nil
}

// ffprobeOutput is the JSON shape ffprobe emits with -show_format -show_streams.
type ffprobeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func parseProbeOutput(data []byte) (*ProbeInfo, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: parse ffprobe output: %v", ErrInvalidMedia, err)
	}

	info := &ProbeInfo{}
	for _, stream := range probe.Streams {
		if stream.CodecType == "video" && stream.Width > 0 {
			info.Width = stream.Width
			info.Height = stream.Height
			break
		}
	}

	if info.Width == 0 || info.Height == 0 {
		return nil, fmt.Errorf("%w: no video stream with dimensions", ErrInvalidMedia)
	}

	if probe.Format.Duration != "" {
		if d, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
			info.Duration = d
		}
	}

	return info, nil
}

// cropDimensions returns the largest centred region of (w, h) matching the
// ratio string "rw:rh", clamped to maxDim on the longest edge and rounded
// down to even values.
func cropDimensions(w, h int, ratio string, maxDim int) (int, int, error) {
	rw, rh, err := parseAspectRatio(ratio)
	if err != nil {
		return 0, 0, err
	}

	targetW, targetH := w, h
	if w*rh > h*rw {
		targetW = h * rw / rh
	} else {
		targetH = w * rh / rw
	}

	if maxDim > 0 {
		if targetW > targetH && targetW > maxDim {
			targetH = targetH * maxDim / targetW
			targetW = maxDim
		} else if targetH >= targetW && targetH > maxDim {
			targetW = targetW * maxDim / targetH
			targetH = maxDim
		}
	}

	targetW -= targetW % 2
	targetH -= targetH % 2

	if targetW <= 0 || targetH <= 0 {
		return 0, 0, fmt.Errorf("%w: %dx%d with ratio %s", ErrInvalidMedia, w, h, ratio)
	}

	return targetW, targetH, nil
}

func parseAspectRatio(ratio string) (int, int, error) {
	parts := strings.Split(ratio, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidAspect, ratio)
	}

	rw, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || rw <= 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidAspect, ratio)
	}
	rh, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || rh <= 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidAspect, ratio)
	}

	return rw, rh, nil
}

func writeConcatList(listPath string, framePaths []string, fps int) error {
	var b strings.Builder
	frameDuration := 1.0 / float64(fps)
	for _, p := range framePaths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("media: resolve frame path %s: %w", p, err)
		}
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
		fmt.Fprintf(&b, "duration %.4f\n", frameDuration)
	}
	// The concat demuxer ignores the last duration unless the final entry is
	// repeated.
	last, err := filepath.Abs(framePaths[len(framePaths)-1])
	if err != nil {
		return fmt.Errorf("media: resolve frame path: %w", err)
	}
	fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(last, "'", `'\''`))

	if err := os.WriteFile(listPath, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("media: write concat list: %w", err)
	}
	return nil
}
