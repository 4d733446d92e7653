// Package field holds the simulation's 2D grid resources and the binding
// rules between them.
//
// A Pool owns four named slots. Work never touches a slot directly: it
// acquires a Pass that names which slots it reads and which it writes, and
// receives role-tagged handles. A Reader exposes only loads and a Writer
// exposes only stores, and no slot may appear on both sides of one Pass.
// Updating a slot "in place" is therefore always expressed as a blit into a
// scratch slot, a pass that reads one slot and writes another, and a blit
// back.
package field

import "fmt"

// Channels is the number of float32 channels per cell. Channel 0 is the
// primary trail intensity; 1 and 2 carry additional species; 3 is alpha.
const Channels = 4

// Name identifies one of the pool's slots.
type Name uint8

const (
	// Trail is the authoritative field at the start and end of every sub-step.
	Trail Name = iota
	// TrailStaging receives the simulate pass's deposits.
	TrailStaging
	// Diffused receives the diffuse/decay pass's output.
	Diffused
	// Display holds the presentable composition for the current frame.
	Display

	numSlots
)

var slotNames = [numSlots]string{
	Trail:        "trail",
	TrailStaging: "trail_staging",
	Diffused:     "diffused",
	Display:      "display",
}

func (n Name) String() string {
	if n >= numSlots {
		return fmt.Sprintf("slot(%d)", uint8(n))
	}
	return slotNames[n]
}

// Names returns every slot name in pool order.
func Names() []Name {
	return []Name{Trail, TrailStaging, Diffused, Display}
}

// Role is the binding role a slot currently holds.
type Role uint8

const (
	RoleNone Role = iota
	RoleRead
	RoleWrite
)

func (r Role) String() string {
	switch r {
	case RoleRead:
		return "read"
	case RoleWrite:
		return "write"
	default:
		return "none"
	}
}

// slot is a dense width x height grid of Channels-wide float32 cells.
type slot struct {
	name   Name
	w, h   int
	texels []float32

	role  Role
	owner string // label of the pass holding the binding
}

func newSlot(name Name, w, h int) *slot {
	return &slot{
		name:   name,
		w:      w,
		h:      h,
		texels: make([]float32, w*h*Channels),
	}
}

func (s *slot) sameSize(o *slot) bool {
	return s.w == o.w && s.h == o.h
}
