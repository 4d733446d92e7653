package renderer

import (
	"image"

	"github.com/gdamore/tcell/v2"
)

// halfBlock draws the top pixel as foreground and the bottom as background,
// so each terminal cell shows two vertically stacked pixels.
const halfBlock = '▀'

// TerminalSurface presents into a tcell screen at two pixels per cell.
type TerminalSurface struct {
	screen tcell.Screen
	img    *image.RGBA
}

// NewTerminalSurface initializes screen and wraps it. Close restores the
// terminal.
func NewTerminalSurface(screen tcell.Screen) (*TerminalSurface, error) {
	if err := screen.Init(); err != nil {
		return nil, err
	}
	screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack))
	screen.HideCursor()
	screen.Clear()

	s := &TerminalSurface{screen: screen}
	cols, rows := screen.Size()
	s.img = image.NewRGBA(image.Rect(0, 0, cols, rows*2))
	return s, nil
}

// Screen returns the wrapped screen for event polling.
func (s *TerminalSurface) Screen() tcell.Screen {
	return s.screen
}

// Size returns the surface size in pixels: one column and two rows per cell.
func (s *TerminalSurface) Size() (int, int) {
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

// Acquire returns a Target for the current screen size.
func (s *TerminalSurface) Acquire() (Target, error) {
	if s.img.Bounds().Empty() {
		return nil, ErrSurfaceUnavailable
	}
	return terminalTarget{s: s}, nil
}

// Reconfigure re-reads the terminal size. The requested size is ignored
// because the terminal dictates its own dimensions.
func (s *TerminalSurface) Reconfigure(_, _ int) error {
	s.screen.Sync()
	cols, rows := s.screen.Size()
	s.img = image.NewRGBA(image.Rect(0, 0, cols, rows*2))
	return nil
}

// Close restores the terminal.
func (s *TerminalSurface) Close() {
	s.screen.Fini()
}

type terminalTarget struct {
	s *TerminalSurface
}

func (t terminalTarget) Draw(tex *image.RGBA, q Quad, smp Sampler) error {
	Rasterize(t.s.img, q, tex, smp)
	return nil
}

func (t terminalTarget) Present() error {
	img := t.s.img
	b := img.Bounds()
	for y := 0; y+1 < b.Dy(); y += 2 {
		for x := 0; x < b.Dx(); x++ {
			top := img.RGBAAt(x, y)
			bottom := img.RGBAAt(x, y+1)
			style := tcell.StyleDefault.
				Foreground(tcell.NewRGBColor(int32(top.R), int32(top.G), int32(top.B))).
				Background(tcell.NewRGBColor(int32(bottom.R), int32(bottom.G), int32(bottom.B)))
			t.s.screen.SetContent(x, y/2, halfBlock, nil, style)
		}
	}
	t.s.screen.Show()
	return nil
}
