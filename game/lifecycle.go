package game

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gdamore/tcell/v2"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/slime/renderer"
)

// Run drives frames until the context is cancelled, the user quits, the
// frame limit is reached, or a fatal error occurs. The loop is chosen by
// the surface: a raylib window polls keyboard and resize each frame, a
// terminal polls tcell events, and anything else runs headless.
func (g *Game) Run(ctx context.Context) error {
	g.clock.Start()

	var err error
	switch s := g.surface.(type) {
	case *renderer.WindowSurface:
		g.logStartup("window")
		err = g.runWindow(ctx, s)
	case *renderer.TerminalSurface:
		g.logStartup("terminal")
		err = g.runTerminal(ctx, s)
	default:
		g.logStartup("headless")
		err = g.runHeadless(ctx)
	}
	if err != nil {
		return err
	}

	g.logSummary()
	return g.writeSnapshot()
}

func (g *Game) runHeadless(ctx context.Context) error {
	for g.running(ctx) {
		if err := g.Step(ctx); err != nil {
			if stopped(err) {
				return nil
			}
			return err
		}
	}
	return nil
}

// runWindow must be called from the thread that created the window.
func (g *Game) runWindow(ctx context.Context, ws *renderer.WindowSurface) error {
	ws.SetOverlay(func() {
		if g.hud.Draw(g.hudState()) {
			g.toggleRequested = true
		}
	})
	defer ws.SetOverlay(nil)

	for !rl.WindowShouldClose() && g.running(ctx) {
		g.handleInput(ws)
		if g.quit {
			break
		}

		// A minimized window has no image to present. Keep pumping events
		// without simulating so restoring the window resumes the run; the
		// loop condition still observes cancellation.
		if rl.IsWindowMinimized() {
			rl.BeginDrawing()
			rl.EndDrawing()
			continue
		}

		if err := g.Step(ctx); err != nil {
			if stopped(err) {
				return nil
			}
			return err
		}
	}
	return nil
}

func (g *Game) runTerminal(ctx context.Context, ts *renderer.TerminalSurface) error {
	screen := ts.Screen()

	events := make(chan tcell.Event, 16)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	fps := max(g.cfg.Screen.TargetFPS, 1)
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for !g.done() {
		select {
		case <-ctx.Done():
			slog.Info("run cancelled")
			return nil

		case ev := <-events:
			if err := g.handleTerminalEvent(ts, ev); err != nil {
				return err
			}

		case <-ticker.C:
			if err := g.Step(ctx); err != nil {
				if stopped(err) {
					return nil
				}
				return err
			}
		}
	}
	return nil
}

// writeSnapshot saves the last presented image when a snapshot path is set.
// The offscreen surface writes its front buffer; other surfaces write the
// shaded field texture at field resolution.
func (g *Game) writeSnapshot() error {
	if g.snapshotPath == "" {
		return nil
	}
	var err error
	if off, ok := g.surface.(*renderer.OffscreenSurface); ok {
		err = off.WritePNG(g.snapshotPath)
	} else if tex := g.scheduler.Texture(); tex != nil {
		err = renderer.WritePNG(g.snapshotPath, tex)
	} else {
		slog.Warn("no frame presented, skipping snapshot", "path", g.snapshotPath)
		return nil
	}
	if err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	slog.Info("snapshot written", "path", g.snapshotPath, "frame", g.frame)
	return nil
}

func (g *Game) hudState() renderer.HUDState {
	return renderer.HUDState{
		AgentsOnly: g.agentsOnly,
		Frame:      g.frame,
		Agents:     g.agents.Len(),
		Steps:      g.scheduler.Steps(),
	}
}
