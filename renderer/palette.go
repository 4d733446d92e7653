package renderer

import (
	"image/color"
	"math"

	"github.com/pthm-cable/slime/config"
)

// Palette maps field channels to display colours.
type Palette struct {
	tints [config.MaxSpecies]config.Tint
}

// NewPalette builds a palette from per-channel tints. Channels without a
// tint reuse the first entry.
func NewPalette(tints []config.Tint) Palette {
	var p Palette
	first := config.Tint{R: 1, G: 1, B: 1}
	if len(tints) > 0 {
		first = tints[0]
	}
	for i := range p.tints {
		if i < len(tints) {
			p.tints[i] = tints[i]
		} else {
			p.tints[i] = first
		}
	}
	return p
}

// Shade converts one field cell to an opaque colour. Each species channel
// contributes its tint scaled by the channel value clamped to [0, 1].
func (p Palette) Shade(v [4]float32) color.RGBA {
	var r, g, b float32
	for c, t := range p.tints {
		i := min(max(v[c], 0), 1)
		r += i * t.R
		g += i * t.G
		b += i * t.B
	}
	return color.RGBA{R: to8(r), G: to8(g), B: to8(b), A: 255}
}

func to8(v float32) uint8 {
	return uint8(min(max(v, 0), 1)*255 + 0.5)
}

func floor32(v float32) float32 { return float32(math.Floor(float64(v))) }
func ceil32(v float32) float32  { return float32(math.Ceil(float64(v))) }
