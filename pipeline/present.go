package pipeline

import (
	"errors"
	"image"

	"github.com/pthm-cable/slime/field"
	"github.com/pthm-cable/slime/renderer"
	"github.com/pthm-cable/slime/telemetry"
)

var errNoTarget = errors.New("present: no surface target for this frame")

// PresentStage samples Display through the palette into a texture and draws
// it onto the frame's surface target with the full-screen quad.
type PresentStage struct {
	src     field.Name
	palette renderer.Palette
	quad    renderer.Quad
	sampler renderer.Sampler
	rows    int
	d       *Dispatcher

	tex    *image.RGBA
	target renderer.Target
}

// NewPresentStage creates the presentation pass for src.
func NewPresentStage(src field.Name, palette renderer.Palette, rowsPerGroup int, d *Dispatcher) *PresentStage {
	return &PresentStage{
		src:     src,
		palette: palette,
		quad:    renderer.FullScreenQuad,
		sampler: renderer.NearestRepeat,
		rows:    max(rowsPerGroup, 1),
		d:       d,
	}
}

// SetTarget hands the stage the surface image for the next dispatch.
func (s *PresentStage) SetTarget(t renderer.Target) {
	s.target = t
}

// Texture returns the most recently shaded texture.
func (s *PresentStage) Texture() *image.RGBA {
	return s.tex
}

func (s *PresentStage) Name() string { return telemetry.PhasePresent }

func (s *PresentStage) Configure(FrameParams) {}

func (s *PresentStage) Bind() field.Pass {
	return field.Pass{Label: "present", Reads: []field.Name{s.src}}
}

func (s *PresentStage) Dispatch(b *field.Bound) error {
	target := s.target
	if target == nil {
		return errNoTarget
	}
	s.target = nil

	r := b.Reader(s.src)
	w, h := r.Width(), r.Height()
	if s.tex == nil || s.tex.Bounds().Dx() != w || s.tex.Bounds().Dy() != h {
		s.tex = image.NewRGBA(image.Rect(0, 0, w, h))
	}

	tex := s.tex
	s.d.Run(ceilDiv(h, s.rows), func(g0, g1 int) {
		for y := g0 * s.rows; y < min(g1*s.rows, h); y++ {
			for x := 0; x < w; x++ {
				tex.SetRGBA(x, y, s.palette.Shade(r.Load(x, y)))
			}
		}
	})

	if err := target.Draw(tex, s.quad, s.sampler); err != nil {
		return err
	}
	return target.Present()
}
