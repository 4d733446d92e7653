package pipeline

import (
	"github.com/pthm-cable/slime/field"
	"github.com/pthm-cable/slime/telemetry"
)

// ClearStage zeroes every cell of a slot.
type ClearStage struct {
	dst      field.Name
	perGroup int
	d        *Dispatcher
}

// NewClearStage creates a clear of dst dispatched in groups of cellsPerGroup.
func NewClearStage(dst field.Name, cellsPerGroup int, d *Dispatcher) *ClearStage {
	return &ClearStage{dst: dst, perGroup: max(cellsPerGroup, 1), d: d}
}

func (s *ClearStage) Name() string { return telemetry.PhaseClear }

func (s *ClearStage) Configure(FrameParams) {}

func (s *ClearStage) Bind() field.Pass {
	return field.Pass{Label: "clear " + s.dst.String(), Writes: []field.Name{s.dst}}
}

func (s *ClearStage) Dispatch(b *field.Bound) error {
	w := b.Writer(s.dst)
	cells := w.Width() * w.Height()
	s.d.Run(ceilDiv(cells, s.perGroup), func(g0, g1 int) {
		w.ClearRange(g0*s.perGroup, min(g1*s.perGroup, cells))
	})
	return nil
}
