package game

import (
	"log/slog"
)

// logStartup logs the run parameters.
func (g *Game) logStartup(mode string) {
	cfg := g.cfg
	w, h := g.surface.Size()
	slog.Info("starting simulation",
		"mode", mode,
		"field", slog.GroupValue(
			slog.Int("width", cfg.Field.Width),
			slog.Int("height", cfg.Field.Height),
		),
		"surface", slog.GroupValue(
			slog.Int("width", w),
			slog.Int("height", h),
		),
		"agents", g.agents.Len(),
		"species", cfg.Agents.Species,
		"steps_per_frame", g.scheduler.Steps(),
		"delta_mode", cfg.Frame.DeltaMode,
		"agents_only", g.agentsOnly,
		"max_frames", g.maxFrames,
	)
}

// logSummary logs the final frame counters and field state.
func (g *Game) logSummary() {
	attrs := []any{
		"frames", g.frame,
		"dropped", g.dropped,
		"sim_time", g.simTime,
	}
	if m, err := g.measureField(); err == nil {
		attrs = append(attrs, "field", m)
	}
	slog.Info("simulation finished", attrs...)
}
