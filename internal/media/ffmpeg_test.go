package media

import (
	"errors"
	"testing"
)

func TestCropDimensions(t *testing.T) {
	tests := []struct {
		name    string
		w, h    int
		ratio   string
		maxDim  int
		wantW   int
		wantH   int
		wantErr bool
	}{
		{"landscape to portrait 9:16", 1920, 1080, "9:16", 0, 606, 1080, false},
		{"portrait to portrait 9:16", 1080, 1920, "9:16", 0, 1080, 1920, false},
		{"square to 1:1 is identity", 1000, 1000, "1:1", 0, 1000, 1000, false},
		{"landscape to 16:9 crop height", 2000, 1500, "16:9", 0, 2000, 1124, false},
		{"clamp to max dimension", 4000, 4000, "1:1", 2048, 2048, 2048, false},
		{"clamp portrait keeps ratio", 2160, 3840, "9:16", 1920, 1080, 1920, false},
		{"odd results rounded even", 101, 101, "1:1", 0, 100, 100, false},
		{"bad ratio", 100, 100, "wide", 0, 0, 0, true},
		{"zero ratio component", 100, 100, "0:16", 0, 0, 0, true},
		{"negative ratio component", 100, 100, "-9:16", 0, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h, err := cropDimensions(tt.w, tt.h, tt.ratio, tt.maxDim)
			if (err != nil) != tt.wantErr {
				t.Fatalf("cropDimensions() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("cropDimensions(%d, %d, %q) = %dx%d, want %dx%d",
					tt.w, tt.h, tt.ratio, w, h, tt.wantW, tt.wantH)
			}
			if w%2 != 0 || h%2 != 0 {
				t.Errorf("dimensions %dx%d are not even", w, h)
			}
		})
	}
}

func TestParseProbeOutput(t *testing.T) {
	jsonOut := []byte(`{
		"streams": [
			{"codec_type": "audio", "codec_name": "aac"},
			{"codec_type": "video", "width": 1080, "height": 1920}
		],
		"format": {"duration": "8.042000"}
	}`)

	info, err := parseProbeOutput(jsonOut)
	if err != nil {
		t.Fatalf("parseProbeOutput() error = %v", err)
	}
	if info.Width != 1080 || info.Height != 1920 {
		t.Errorf("dimensions = %dx%d, want 1080x1920", info.Width, info.Height)
	}
	if info.Duration != 8.042 {
		t.Errorf("duration = %v, want 8.042", info.Duration)
	}
}

func TestParseProbeOutputStillImage(t *testing.T) {
	jsonOut := []byte(`{
		"streams": [{"codec_type": "video", "width": 640, "height": 480}],
		"format": {}
	}`)

	info, err := parseProbeOutput(jsonOut)
	if err != nil {
		t.Fatalf("parseProbeOutput() error = %v", err)
	}
	if info.Duration != 0 {
		t.Errorf("duration = %v, want 0 for still image", info.Duration)
	}
}

func TestParseProbeOutputNoVideoStream(t *testing.T) {
	jsonOut := []byte(`{"streams": [{"codec_type": "audio"}], "format": {}}`)

	_, err := parseProbeOutput(jsonOut)
	if !errors.Is(err, ErrInvalidMedia) {
		t.Errorf("parseProbeOutput() error = %v, want ErrInvalidMedia", err)
	}
}

func TestExecErrorTruncatesStderr(t *testing.T) {
	long := make([]byte, 2048)
	for i := range long {
		long[i] = 'x'
	}

	execErr := &ExecError{Tool: "ffmpeg", Err: errors.New("exit status 1"), Stderr: string(long)}
	msg := execErr.Error()
	if len(msg) > 700 {
		t.Errorf("error message length = %d, want truncated", len(msg))
	}
}

func TestAnimOptionsDefaults(t *testing.T) {
	opts := AnimOptions{}.withDefaults()

	if opts.FPS != 8 {
		t.Errorf("FPS = %d, want 8", opts.FPS)
	}
	if opts.MaxColors != 256 {
		t.Errorf("MaxColors = %d, want 256", opts.MaxColors)
	}
	if opts.Dither != "sierra2_4a" {
		t.Errorf("Dither = %q, want sierra2_4a", opts.Dither)
	}
	if opts.LoopCount != 0 {
		t.Errorf("LoopCount = %d, want 0", opts.LoopCount)
	}
}
