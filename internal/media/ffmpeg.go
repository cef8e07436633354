package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os/exec"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// FFmpegSampler grabs a single mjpeg frame through the ffmpeg binary.
type FFmpegSampler struct {
	Bin string
}

// NewFFmpegSampler returns a sampler that runs bin, or "ffmpeg" from PATH.
func NewFFmpegSampler(bin string) *FFmpegSampler {
	if bin == "" {
		bin = "ffmpeg"
	}
	return &FFmpegSampler{Bin: bin}
}

// errNoFrame means ffmpeg exited cleanly but wrote nothing, which is what it
// does when the seek lands past the end of the stream.
var errNoFrame = errors.New("no frame at offset")

// SampleFrame decodes the frame at offset. Videos shorter than offset fall
// back to their first frame.
func (s *FFmpegSampler) SampleFrame(ctx context.Context, path string, offset time.Duration) (image.Image, error) {
	img, err := s.grab(ctx, path, offset)
	if errors.Is(err, errNoFrame) && offset > 0 {
		return s.grab(ctx, path, 0)
	}
	return img, err
}

func (s *FFmpegSampler) grab(ctx context.Context, path string, offset time.Duration) (image.Image, error) {
	args := ffmpeg.Input(path, ffmpeg.KwArgs{"ss": fmt.Sprintf("%.3f", offset.Seconds())}).
		Output("pipe:", ffmpeg.KwArgs{"vframes": 1, "format": "image2", "vcodec": "mjpeg"}).
		GetArgs()

	var stdout, stderr bytes.Buffer
	// #nosec G204: binary comes from config, path from Storage.Resolve
	cmd := exec.CommandContext(ctx, s.Bin, append([]string{"-loglevel", "error"}, args...)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, errNoFrame
	}

	img, _, err := image.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return img, nil
}
