// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"sync"
	"time"
)

// TB is the subset of testing.TB the fixtures need.
type TB interface {
	Helper()
	Fatalf(string, ...any)
}

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	return img
}

// TinyPNG returns an in-memory PNG byte slice with the requested dimensions.
func TinyPNG(t TB, w, h int) []byte {
	t.Helper()
	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, gradient(w, h)); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// TinyJPEG returns an in-memory JPEG byte slice with the requested dimensions.
func TinyJPEG(t TB, w, h int) []byte {
	t.Helper()
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, gradient(w, h), &jpeg.Options{Quality: 75}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

// FrameSamplerStub stands in for ffmpeg. It returns Frame, or Err when set,
// and records the last call.
type FrameSamplerStub struct {
	Frame image.Image
	Err   error

	mu         sync.Mutex
	Calls      int
	LastPath   string
	LastOffset time.Duration
}

// SampleFrame implements media.FrameSampler.
func (s *FrameSamplerStub) SampleFrame(_ context.Context, path string, offset time.Duration) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	s.LastPath = path
	s.LastOffset = offset
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Frame, nil
}
