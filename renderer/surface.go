package renderer

import (
	"errors"
	"image"
)

// ErrSurfaceUnavailable is returned by Acquire when no presentable image can
// be obtained right now, e.g. the window is minimized or the terminal has no
// cells. Reconfiguring the surface may recover it.
var ErrSurfaceUnavailable = errors.New("renderer: surface image unavailable")

// Surface is a presentation target that hands out one Target per frame.
type Surface interface {
	// Size returns the surface size in pixels.
	Size() (w, h int)
	// Acquire returns the image to draw this frame into.
	Acquire() (Target, error)
	// Reconfigure resizes the surface. The field resolution is unaffected.
	Reconfigure(w, h int) error
}

// Target is one acquired surface image.
type Target interface {
	// Draw renders tex onto the target through the quad with the sampler.
	Draw(tex *image.RGBA, q Quad, s Sampler) error
	// Present hands the image to the display. The Target is invalid afterwards.
	Present() error
}
