package renderer

import (
	"errors"
	"image"
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// WindowSurface presents through a raylib window. The caller owns the
// window lifecycle (InitWindow/CloseWindow) and must use the surface from
// the thread that created the window.
type WindowSurface struct {
	tex     rl.Texture2D
	texW    int
	texH    int
	pixels  []color.RGBA
	overlay func()
}

// NewWindowSurface wraps the current raylib window.
func NewWindowSurface() *WindowSurface {
	return &WindowSurface{}
}

// SetOverlay registers a callback drawn after the field, before the frame
// is presented. Used for the HUD.
func (s *WindowSurface) SetOverlay(fn func()) {
	s.overlay = fn
}

// Size returns the window size in pixels.
func (s *WindowSurface) Size() (int, int) {
	return rl.GetScreenWidth(), rl.GetScreenHeight()
}

// Acquire fails while the window is not ready or is minimized.
func (s *WindowSurface) Acquire() (Target, error) {
	if !rl.IsWindowReady() || rl.IsWindowMinimized() {
		return nil, ErrSurfaceUnavailable
	}
	if rl.GetScreenWidth() <= 0 || rl.GetScreenHeight() <= 0 {
		return nil, ErrSurfaceUnavailable
	}
	return windowTarget{s: s}, nil
}

// Reconfigure resizes the window if it differs from the requested size.
func (s *WindowSurface) Reconfigure(w, h int) error {
	if w <= 0 || h <= 0 {
		return ErrSurfaceUnavailable
	}
	if rl.GetScreenWidth() != w || rl.GetScreenHeight() != h {
		rl.SetWindowSize(w, h)
	}
	return nil
}

// Unload releases GPU resources.
func (s *WindowSurface) Unload() {
	if s.texW > 0 {
		rl.UnloadTexture(s.tex)
		s.texW, s.texH = 0, 0
	}
}

func (s *WindowSurface) ensureTexture(w, h int) {
	if s.texW == w && s.texH == h {
		return
	}
	s.Unload()
	img := rl.GenImageColor(w, h, rl.Black)
	s.tex = rl.LoadTextureFromImage(img)
	rl.SetTextureFilter(s.tex, rl.FilterPoint)
	rl.SetTextureWrap(s.tex, rl.WrapRepeat)
	rl.UnloadImage(img)
	s.texW, s.texH = w, h
	s.pixels = make([]color.RGBA, w*h)
}

type windowTarget struct {
	s *WindowSurface
}

var errWindowQuad = errors.New("renderer: window surface only draws the full-screen quad")

// Draw uploads tex and draws it across the window. The texture's filter and
// wrap mode carry the sampler; the flipped source rectangle puts row 0 at
// the bottom like FullScreenQuad.
func (t windowTarget) Draw(tex *image.RGBA, q Quad, smp Sampler) error {
	if q != FullScreenQuad {
		return errWindowQuad
	}
	s := t.s
	b := tex.Bounds()
	w, h := b.Dx(), b.Dy()
	s.ensureTexture(w, h)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			s.pixels[y*w+x] = tex.RGBAAt(b.Min.X+x, b.Min.Y+y)
		}
	}
	rl.UpdateTexture(s.tex, s.pixels)
	if smp.Address == AddressClampToEdge {
		rl.SetTextureWrap(s.tex, rl.WrapClamp)
	} else {
		rl.SetTextureWrap(s.tex, rl.WrapRepeat)
	}

	srcRect := rl.Rectangle{X: 0, Y: 0, Width: float32(w), Height: -float32(h)}
	dstRect := rl.Rectangle{X: 0, Y: 0, Width: float32(rl.GetScreenWidth()), Height: float32(rl.GetScreenHeight())}

	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)
	rl.DrawTexturePro(s.tex, srcRect, dstRect, rl.Vector2{}, 0, rl.White)
	return nil
}

func (t windowTarget) Present() error {
	if t.s.overlay != nil {
		t.s.overlay()
	}
	rl.EndDrawing()
	return nil
}
