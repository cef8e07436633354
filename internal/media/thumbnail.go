package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vaultbox/internal/config"
	"vaultbox/internal/models"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp" // extra decoders
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	// JPEGQuality is used for every JPEG thumbnail.
	JPEGQuality = 82
	// DefaultThumbnailMaxDim bounds both thumbnail sides when config leaves it unset.
	DefaultThumbnailMaxDim = 1024
)

// Dimensions are the pixel size of a source, nil when it could not be measured.
type Dimensions struct {
	Width  *int
	Height *int
}

func dimensionsOf(img image.Image) Dimensions {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	return Dimensions{Width: &w, Height: &h}
}

// FrameSampler extracts one still frame from a video file.
type FrameSampler interface {
	SampleFrame(ctx context.Context, path string, offset time.Duration) (image.Image, error)
}

// Thumbnailer writes bounded previews for images and video.
type Thumbnailer struct {
	maxDim  int
	offset  time.Duration
	sampler FrameSampler
}

// NewThumbnailer builds a Thumbnailer; sampler handles video sources.
func NewThumbnailer(cfg *config.Config, sampler FrameSampler) *Thumbnailer {
	maxDim := cfg.ThumbnailMaxDim
	if maxDim <= 0 {
		maxDim = DefaultThumbnailMaxDim
	}
	return &Thumbnailer{maxDim: maxDim, offset: cfg.VideoFrameOffset, sampler: sampler}
}

// MaxDim returns the bound applied to both thumbnail sides.
func (t *Thumbnailer) MaxDim() int { return t.maxDim }

// Derive writes a thumbnail of src to dst and returns the source dimensions.
func (t *Thumbnailer) Derive(ctx context.Context, src, contentType, dst string) (Dimensions, error) {
	ct := NormalizeContentType(contentType)
	switch {
	case strings.HasPrefix(ct, "image/"):
		img, err := imaging.Open(src, imaging.AutoOrientation(true))
		if err != nil {
			return Dimensions{}, &models.AppError{Code: models.CodeValidation, Message: "could not decode image", Err: err}
		}
		if err := t.write(img, dst); err != nil {
			return Dimensions{}, err
		}
		return dimensionsOf(img), nil

	case strings.HasPrefix(ct, "video/"):
		if t.sampler == nil {
			return Dimensions{}, models.NewUnsupportedMediaTypeError(ct)
		}
		frame, err := t.sampler.SampleFrame(ctx, src, t.offset)
		if err != nil {
			return Dimensions{}, &models.AppError{Code: models.CodeValidation, Message: "could not sample video frame", Err: err}
		}
		if err := t.write(frame, dst); err != nil {
			return Dimensions{}, err
		}
		return dimensionsOf(frame), nil

	default:
		return Dimensions{}, models.NewUnsupportedMediaTypeError(ct)
	}
}

func (t *Thumbnailer) write(img image.Image, dst string) error {
	thumb := resizeToFit(img, t.maxDim, t.maxDim)

	format, err := imaging.FormatFromFilename(dst)
	if err != nil {
		format = imaging.JPEG
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, format, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return models.NewInternalError(fmt.Errorf("encode thumbnail: %w", err))
	}
	if err := writeBytesToFile(dst, buf.Bytes()); err != nil {
		return models.NewInternalError(fmt.Errorf("write thumbnail: %w", err))
	}
	return nil
}

// resizeToFit scales src down so neither side exceeds the bounds, keeping the
// aspect ratio. Smaller images are returned untouched.
func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	if s := float64(maxHeight) / float64(h); s < scale {
		scale = s
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func writeBytesToFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
