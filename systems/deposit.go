package systems

import (
	"math"
	"sync/atomic"
)

// Blend selects how concurrent deposits into one cell combine.
type Blend uint8

const (
	// BlendAdditive sums every deposit into the cell.
	BlendAdditive Blend = iota
	// BlendLastWrite keeps one deposit per cell; which one is unspecified.
	BlendLastWrite
)

// DepositBuffer accumulates per-cell deposits from many goroutines. Cells
// are stored as float32 bit patterns so updates can use atomic operations.
type DepositBuffer struct {
	w, h     int
	channels int
	cells    []atomic.Uint32
	touched  []atomic.Bool
}

// NewDepositBuffer allocates a zeroed buffer for a w x h field with the
// given channel count.
func NewDepositBuffer(w, h, channels int) *DepositBuffer {
	return &DepositBuffer{
		w:        w,
		h:        h,
		channels: channels,
		cells:    make([]atomic.Uint32, w*h*channels),
		touched:  make([]atomic.Bool, w*h),
	}
}

// Deposit adds v to channel c of cell i using the given blend. Safe for
// concurrent use.
func (b *DepositBuffer) Deposit(i, c int, v float32, mode Blend) {
	b.touched[i].Store(true)
	slot := &b.cells[i*b.channels+c]
	if mode == BlendLastWrite {
		slot.Store(math.Float32bits(v))
		return
	}
	for {
		old := slot.Load()
		next := math.Float32bits(math.Float32frombits(old) + v)
		if slot.CompareAndSwap(old, next) {
			return
		}
	}
}

// Touched reports whether any deposit landed in cell i since the last Take.
func (b *DepositBuffer) Touched(i int) bool {
	return b.touched[i].Load()
}

// Take returns the accumulated value of channel c of cell i and zeroes it.
// Callers must not overlap Take with Deposit on the same cell.
func (b *DepositBuffer) Take(i, c int) float32 {
	return math.Float32frombits(b.cells[i*b.channels+c].Swap(0))
}

// Untouch clears the touched mark of cell i.
func (b *DepositBuffer) Untouch(i int) {
	b.touched[i].Store(false)
}

// Cells returns the number of cells the buffer covers.
func (b *DepositBuffer) Cells() int {
	return b.w * b.h
}
