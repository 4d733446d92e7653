package field

import (
	"fmt"
	"slices"
)

// Pass declares the slots one unit of work reads and writes.
type Pass struct {
	Label  string
	Reads  []Name
	Writes []Name
}

// Validate checks the pass in isolation: every slot in range, no slot
// written twice, and no slot both read and written.
func (p Pass) Validate() error {
	for _, n := range p.Reads {
		if n >= numSlots {
			return fmt.Errorf("%w: %s reads %s", ErrUnknownSlot, p.Label, n)
		}
	}
	for i, n := range p.Writes {
		if n >= numSlots {
			return fmt.Errorf("%w: %s writes %s", ErrUnknownSlot, p.Label, n)
		}
		if slices.Contains(p.Writes[:i], n) {
			return fmt.Errorf("%w: %s writes %s twice", ErrRoleConflict, p.Label, n)
		}
		if slices.Contains(p.Reads, n) {
			return fmt.Errorf("%w: %s reads and writes %s", ErrRoleConflict, p.Label, n)
		}
	}
	return nil
}

// Bound is an acquired pass. Its handles are valid until Release.
type Bound struct {
	pool     *Pool
	pass     Pass
	released bool
}

// Acquire moves every slot named by the pass from RoleNone into its
// declared role. It fails without side effects if the pass is invalid or
// any slot is already bound.
func (p *Pool) Acquire(pass Pass) (*Bound, error) {
	if err := pass.Validate(); err != nil {
		return nil, err
	}
	for _, n := range slices.Concat(pass.Reads, pass.Writes) {
		if s := p.slots[n]; s.role != RoleNone {
			return nil, fmt.Errorf("%w: %s wants %s, held for %s by %q",
				ErrSlotBusy, pass.Label, n, s.role, s.owner)
		}
	}
	for _, n := range pass.Reads {
		p.slots[n].role = RoleRead
		p.slots[n].owner = pass.Label
	}
	for _, n := range pass.Writes {
		p.slots[n].role = RoleWrite
		p.slots[n].owner = pass.Label
	}
	return &Bound{pool: p, pass: pass}, nil
}

// Pass returns the pass this binding was acquired for.
func (b *Bound) Pass() Pass {
	return b.pass
}

// Reader returns the read-only handle for n. It panics if the pass does not
// read n; that is a programming error in the stage, not a runtime condition.
func (b *Bound) Reader(n Name) Reader {
	if b.released || !slices.Contains(b.pass.Reads, n) {
		panic(fmt.Sprintf("field: %s has no read binding for %s", b.pass.Label, n))
	}
	return Reader{s: b.pool.slots[n]}
}

// Writer returns the write-only handle for n. It panics if the pass does not
// write n.
func (b *Bound) Writer(n Name) Writer {
	if b.released || !slices.Contains(b.pass.Writes, n) {
		panic(fmt.Sprintf("field: %s has no write binding for %s", b.pass.Label, n))
	}
	return Writer{s: b.pool.slots[n]}
}

// Release returns every slot of the pass to RoleNone. Calling it twice is a
// no-op.
func (b *Bound) Release() {
	if b.released {
		return
	}
	for _, n := range slices.Concat(b.pass.Reads, b.pass.Writes) {
		b.pool.slots[n].role = RoleNone
		b.pool.slots[n].owner = ""
	}
	b.released = true
}

// Reader is a read-only view of a bound slot.
type Reader struct {
	s *slot
}

// Name returns the slot this handle reads.
func (r Reader) Name() Name { return r.s.name }

// Width returns the slot width in cells.
func (r Reader) Width() int { return r.s.w }

// Height returns the slot height in cells.
func (r Reader) Height() int { return r.s.h }

// Load returns all channels of cell (x, y). Coordinates must be in range.
func (r Reader) Load(x, y int) [Channels]float32 {
	i := (y*r.s.w + x) * Channels
	t := r.s.texels
	return [Channels]float32{t[i], t[i+1], t[i+2], t[i+3]}
}

// LoadChannel returns channel c of cell (x, y). Coordinates must be in range.
func (r Reader) LoadChannel(x, y, c int) float32 {
	return r.s.texels[(y*r.s.w+x)*Channels+c]
}

// LoadIndex returns channel c of the cell at row-major index i.
func (r Reader) LoadIndex(i, c int) float32 {
	return r.s.texels[i*Channels+c]
}

// LoadClamped is LoadChannel with x and y clamped into the slot.
func (r Reader) LoadClamped(x, y, c int) float32 {
	x = min(max(x, 0), r.s.w-1)
	y = min(max(y, 0), r.s.h-1)
	return r.s.texels[(y*r.s.w+x)*Channels+c]
}

// Writer is a write-only view of a bound slot.
type Writer struct {
	s *slot
}

// Name returns the slot this handle writes.
func (w Writer) Name() Name { return w.s.name }

// Width returns the slot width in cells.
func (w Writer) Width() int { return w.s.w }

// Height returns the slot height in cells.
func (w Writer) Height() int { return w.s.h }

// Store writes all channels of cell (x, y).
func (w Writer) Store(x, y int, v [Channels]float32) {
	i := (y*w.s.w + x) * Channels
	copy(w.s.texels[i:i+Channels], v[:])
}

// StoreChannel writes channel c of cell (x, y).
func (w Writer) StoreChannel(x, y, c int, v float32) {
	w.s.texels[(y*w.s.w+x)*Channels+c] = v
}

// StoreIndex writes channel c of the cell at row-major index i.
func (w Writer) StoreIndex(i, c int, v float32) {
	w.s.texels[i*Channels+c] = v
}

// ClearRange zeroes cells [i0, i1) in row-major order.
func (w Writer) ClearRange(i0, i1 int) {
	clear(w.s.texels[i0*Channels : i1*Channels])
}
