package field

import (
	"errors"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/blas/blas32"
)

var (
	// ErrDimensionMismatch is returned when a blit joins slots of different
	// sizes. Sizes are fixed for the run, so this is a setup error.
	ErrDimensionMismatch = errors.New("field: slot dimensions differ")
	// ErrRoleConflict is returned when a pass names a slot as both source and
	// destination, or writes the same slot twice.
	ErrRoleConflict = errors.New("field: slot bound for read and write in one pass")
	// ErrSlotBusy is returned when a slot is already bound by another pass.
	ErrSlotBusy = errors.New("field: slot already bound")
	// ErrUnknownSlot is returned for a Name outside the pool.
	ErrUnknownSlot = errors.New("field: unknown slot")
)

// Pool owns the four field slots.
type Pool struct {
	slots [numSlots]*slot
}

type poolOptions struct {
	sizes map[Name][2]int
}

// Option configures a Pool.
type Option func(*poolOptions)

// WithSlotSize overrides the size of a single slot. Blits that touch a
// resized slot fail CheckBlit.
func WithSlotSize(name Name, w, h int) Option {
	return func(o *poolOptions) {
		o.sizes[name] = [2]int{w, h}
	}
}

// New creates a pool whose slots are w x h cells, zero-filled.
func New(w, h int, opts ...Option) (*Pool, error) {
	o := poolOptions{sizes: make(map[Name][2]int)}
	for _, opt := range opts {
		opt(&o)
	}

	p := &Pool{}
	for _, name := range Names() {
		sw, sh := w, h
		if sz, ok := o.sizes[name]; ok {
			sw, sh = sz[0], sz[1]
		}
		if sw <= 0 || sh <= 0 {
			return nil, fmt.Errorf("field: slot %s size %dx%d must be positive", name, sw, sh)
		}
		p.slots[name] = newSlot(name, sw, sh)
	}
	return p, nil
}

func (p *Pool) slot(n Name) (*slot, error) {
	if n >= numSlots {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSlot, n)
	}
	return p.slots[n], nil
}

// Size returns the dimensions of a slot.
func (p *Pool) Size(n Name) (w, h int) {
	s, err := p.slot(n)
	if err != nil {
		return 0, 0
	}
	return s.w, s.h
}

// Role returns the binding role a slot currently holds.
func (p *Pool) Role(n Name) Role {
	s, err := p.slot(n)
	if err != nil {
		return RoleNone
	}
	return s.role
}

// CheckBlit reports whether src can be copied onto dst.
func (p *Pool) CheckBlit(src, dst Name) error {
	s, err := p.slot(src)
	if err != nil {
		return err
	}
	d, err := p.slot(dst)
	if err != nil {
		return err
	}
	if src == dst {
		return fmt.Errorf("%w: blit %s -> %s", ErrRoleConflict, src, dst)
	}
	if !s.sameSize(d) {
		return fmt.Errorf("%w: blit %s (%dx%d) -> %s (%dx%d)",
			ErrDimensionMismatch, src, s.w, s.h, dst, d.w, d.h)
	}
	return nil
}

// Copy copies rows [y0, y1) of src into dst. Both handles must have the
// same dimensions.
func Copy(dst Writer, src Reader, y0, y1 int) error {
	if dst.s.w != src.s.w || dst.s.h != src.s.h {
		return fmt.Errorf("%w: %s (%dx%d) -> %s (%dx%d)",
			ErrDimensionMismatch, src.s.name, src.s.w, src.s.h, dst.s.name, dst.s.w, dst.s.h)
	}
	lo := y0 * src.s.w * Channels
	hi := y1 * src.s.w * Channels
	n := hi - lo
	if n <= 0 {
		return nil
	}
	blas32.Copy(
		blas32.Vector{N: n, Inc: 1, Data: src.s.texels[lo:hi]},
		blas32.Vector{N: n, Inc: 1, Data: dst.s.texels[lo:hi]},
	)
	return nil
}

// Snapshot returns a copy of a slot's texels. The slot must not be bound
// for writing.
func (p *Pool) Snapshot(n Name) ([]float32, error) {
	s, err := p.slot(n)
	if err != nil {
		return nil, err
	}
	if s.role == RoleWrite {
		return nil, fmt.Errorf("%w: %s is bound for write by %q", ErrSlotBusy, n, s.owner)
	}
	return slices.Clone(s.texels), nil
}

// Load replaces a slot's texels. The slot must be unbound and data must be
// exactly width*height*Channels long.
func (p *Pool) Load(n Name, data []float32) error {
	s, err := p.slot(n)
	if err != nil {
		return err
	}
	if s.role != RoleNone {
		return fmt.Errorf("%w: %s is bound by %q", ErrSlotBusy, n, s.owner)
	}
	if len(data) != len(s.texels) {
		return fmt.Errorf("%w: %s holds %d texels, got %d", ErrDimensionMismatch, n, len(s.texels), len(data))
	}
	copy(s.texels, data)
	return nil
}
