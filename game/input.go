package game

import (
	"fmt"
	"log/slog"

	"github.com/gdamore/tcell/v2"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/slime/renderer"
)

// handleInput processes keyboard input for the window loop.
func (g *Game) handleInput(ws *renderer.WindowSurface) {
	// Window resize propagation
	g.handleResize(ws)

	// Fullscreen toggle
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	// Display mode: L key or the HUD button
	if rl.IsKeyPressed(rl.KeyL) || g.toggleRequested {
		g.toggleRequested = false
		g.Toggle()
	}

	if rl.IsKeyPressed(rl.KeyEscape) {
		g.quit = true
	}
}

// handleResize reconfigures the window surface after a resize. The field
// resolution never changes.
func (g *Game) handleResize(ws *renderer.WindowSurface) {
	if !rl.IsWindowResized() {
		return
	}
	w, h := rl.GetScreenWidth(), rl.GetScreenHeight()
	if err := ws.Reconfigure(w, h); err != nil {
		slog.Warn("window reconfigure failed", "width", w, "height", h, "error", err)
		return
	}
	slog.Info("window resized", "width", w, "height", h)
}

// handleTerminalEvent applies one tcell event: 'l' toggles the display
// mode, Escape or Ctrl-C quits, and a resize reconfigures the surface.
func (g *Game) handleTerminalEvent(ts *renderer.TerminalSurface, ev tcell.Event) error {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC:
			g.quit = true
		case ev.Key() == tcell.KeyRune && (ev.Rune() == 'l' || ev.Rune() == 'L'):
			g.Toggle()
		}

	case *tcell.EventResize:
		if err := ts.Reconfigure(ev.Size()); err != nil {
			return fmt.Errorf("terminal resize: %w", err)
		}
		w, h := ts.Size()
		slog.Info("terminal resized", "width", w, "height", h)
	}
	return nil
}
