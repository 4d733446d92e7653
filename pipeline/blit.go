package pipeline

import (
	"fmt"

	"github.com/pthm-cable/slime/field"
	"github.com/pthm-cable/slime/telemetry"
)

// BlitStage copies one slot onto another in bands of rows.
type BlitStage struct {
	src, dst field.Name
	rows     int
	d        *Dispatcher
}

// NewBlitStage creates a src -> dst copy dispatched in bands of tileSize rows.
func NewBlitStage(src, dst field.Name, tileSize int, d *Dispatcher) *BlitStage {
	return &BlitStage{src: src, dst: dst, rows: max(tileSize, 1), d: d}
}

func (s *BlitStage) Name() string { return telemetry.PhaseBlit }

func (s *BlitStage) Configure(FrameParams) {}

func (s *BlitStage) Bind() field.Pass {
	return field.Pass{
		Label:  fmt.Sprintf("blit %s->%s", s.src, s.dst),
		Reads:  []field.Name{s.src},
		Writes: []field.Name{s.dst},
	}
}

func (s *BlitStage) Dispatch(b *field.Bound) error {
	r := b.Reader(s.src)
	w := b.Writer(s.dst)
	if r.Width() != w.Width() || r.Height() != w.Height() {
		return fmt.Errorf("%w: %s (%dx%d) -> %s (%dx%d)", field.ErrDimensionMismatch,
			s.src, r.Width(), r.Height(), s.dst, w.Width(), w.Height())
	}

	h := r.Height()
	s.d.Run(ceilDiv(h, s.rows), func(g0, g1 int) {
		// Sizes match, so Copy cannot fail.
		_ = field.Copy(w, r, g0*s.rows, min(g1*s.rows, h))
	})
	return nil
}
