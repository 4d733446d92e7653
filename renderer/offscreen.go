package renderer

import (
	"fmt"
	"image"
	"image/png"
	"os"
)

// OffscreenSurface presents into an in-memory image. It backs headless runs
// and tests.
type OffscreenSurface struct {
	back  *image.RGBA
	front *image.RGBA

	presented    int
	reconfigures int
	failures     int // remaining Acquire calls that fail
}

// NewOffscreenSurface creates a w x h offscreen surface.
func NewOffscreenSurface(w, h int) *OffscreenSurface {
	s := &OffscreenSurface{}
	s.resize(w, h)
	return s
}

func (s *OffscreenSurface) resize(w, h int) {
	s.back = image.NewRGBA(image.Rect(0, 0, w, h))
	s.front = image.NewRGBA(image.Rect(0, 0, w, h))
}

// Size returns the surface size in pixels.
func (s *OffscreenSurface) Size() (int, int) {
	b := s.front.Bounds()
	return b.Dx(), b.Dy()
}

// FailAcquires makes the next n Acquire calls return ErrSurfaceUnavailable.
func (s *OffscreenSurface) FailAcquires(n int) {
	s.failures = n
}

// Acquire returns the back buffer as a Target.
func (s *OffscreenSurface) Acquire() (Target, error) {
	if s.failures > 0 {
		s.failures--
		return nil, ErrSurfaceUnavailable
	}
	if s.back.Bounds().Empty() {
		return nil, ErrSurfaceUnavailable
	}
	return offscreenTarget{s: s}, nil
}

// Reconfigure reallocates both buffers at the new size.
func (s *OffscreenSurface) Reconfigure(w, h int) error {
	if w < 0 || h < 0 {
		return fmt.Errorf("offscreen: invalid size %dx%d", w, h)
	}
	s.resize(w, h)
	s.reconfigures++
	return nil
}

// Image returns the most recently presented image.
func (s *OffscreenSurface) Image() *image.RGBA {
	return s.front
}

// Presented returns the number of presented frames.
func (s *OffscreenSurface) Presented() int {
	return s.presented
}

// Reconfigures returns the number of Reconfigure calls.
func (s *OffscreenSurface) Reconfigures() int {
	return s.reconfigures
}

// WritePNG encodes the most recently presented image to path.
func (s *OffscreenSurface) WritePNG(path string) error {
	return WritePNG(path, s.front)
}

// WritePNG encodes img to path.
func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating snapshot: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return f.Close()
}

type offscreenTarget struct {
	s *OffscreenSurface
}

func (t offscreenTarget) Draw(tex *image.RGBA, q Quad, smp Sampler) error {
	Rasterize(t.s.back, q, tex, smp)
	return nil
}

func (t offscreenTarget) Present() error {
	t.s.back, t.s.front = t.s.front, t.s.back
	t.s.presented++
	return nil
}
