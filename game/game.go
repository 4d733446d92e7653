// Package game owns a running simulation: the field pool, the agent store,
// the frame scheduler and the surface it presents to, plus the loops that
// drive them from a window, a terminal, or nothing at all.
package game

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/pthm-cable/slime/config"
	"github.com/pthm-cable/slime/field"
	"github.com/pthm-cable/slime/pipeline"
	"github.com/pthm-cable/slime/renderer"
	"github.com/pthm-cable/slime/systems"
	"github.com/pthm-cable/slime/telemetry"
)

// Options configures a Game.
type Options struct {
	Seed    int64
	Surface renderer.Surface // nil = offscreen at field size

	// Telemetry
	LogStats      bool
	OutputDir     string                      // CSV and config snapshot (empty = disabled)
	StatsCallback func(telemetry.WindowStats) // called on every stats flush

	// Run limits
	MaxFrames    int    // stop after N presented frames (0 = unlimited)
	SnapshotPath string // PNG of the last presented image
}

// Game holds the complete simulation state.
type Game struct {
	cfg *config.Config
	rng *rand.Rand

	pool      *field.Pool
	agents    *systems.AgentStore
	scheduler *pipeline.Scheduler
	surface   renderer.Surface
	clock     *pipeline.Clock
	hud       renderer.HUD

	// Telemetry
	perfCollector *telemetry.PerfCollector
	collector     *telemetry.Collector
	outputManager *telemetry.OutputManager
	statsCallback func(telemetry.WindowStats)
	logStats      bool

	// State
	agentsOnly      bool
	toggleRequested bool
	quit            bool
	frame           int64
	dropped         int64
	simTime         float64

	maxFrames    int
	snapshotPath string
}

// New creates a game from cfg. Agents spawn at the field centre with random
// headings drawn from opts.Seed.
func New(cfg *config.Config, opts Options) (*Game, error) {
	pool, err := field.New(cfg.Field.Width, cfg.Field.Height)
	if err != nil {
		return nil, fmt.Errorf("creating field pool: %w", err)
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	cx := float32(cfg.Field.Width) / 2
	cy := float32(cfg.Field.Height) / 2
	agents := systems.NewAgentStore(cfg.Agents.Count, cfg.Agents.Species, cx, cy, rng)

	surface := opts.Surface
	if surface == nil {
		surface = renderer.NewOffscreenSurface(cfg.Field.Width, cfg.Field.Height)
	}

	perf := telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow)
	scheduler, err := pipeline.NewScheduler(pipeline.Options{
		Config:  cfg,
		Pool:    pool,
		Agents:  agents,
		Surface: surface,
		Perf:    perf,
	})
	if err != nil {
		return nil, err
	}

	g := &Game{
		cfg:           cfg,
		rng:           rng,
		pool:          pool,
		agents:        agents,
		scheduler:     scheduler,
		surface:       surface,
		clock:         pipeline.NewClock(cfg.Frame, nil),
		hud:           renderer.HUD{X: 10, Y: 10},
		perfCollector: perf,
		collector:     telemetry.NewCollector(cfg.Telemetry.StatsWindow),
		statsCallback: opts.StatsCallback,
		logStats:      opts.LogStats,
		agentsOnly:    cfg.Frame.AgentsOnly,
		maxFrames:     opts.MaxFrames,
		snapshotPath:  opts.SnapshotPath,
	}

	if opts.OutputDir != "" {
		om, err := telemetry.NewOutputManager(opts.OutputDir)
		if err != nil {
			scheduler.Close()
			return nil, err
		}
		if err := om.WriteConfig(cfg); err != nil {
			om.Close()
			scheduler.Close()
			return nil, err
		}
		g.outputManager = om
		slog.Info("output enabled", "dir", om.Dir())
	}

	return g, nil
}

// Toggle flips between the trail view and the agents-only view. The change
// applies from the next frame.
func (g *Game) Toggle() {
	g.agentsOnly = !g.agentsOnly
	g.collector.RecordToggle()
	slog.Info("display mode changed", "agents_only", g.agentsOnly, "frame", g.frame)
}

// AgentsOnly reports the current display mode.
func (g *Game) AgentsOnly() bool {
	return g.agentsOnly
}

// Frame returns the number of presented frames.
func (g *Game) Frame() int64 {
	return g.frame
}

// Dropped returns the number of dropped frames.
func (g *Game) Dropped() int64 {
	return g.dropped
}

// SimTime returns the simulated seconds so far.
func (g *Game) SimTime() float64 {
	return g.simTime
}

// Agents returns a read-only view of the agent store.
func (g *Game) Agents() systems.AgentView {
	return g.agents.View()
}

// Pool returns the field pool.
func (g *Game) Pool() *field.Pool {
	return g.pool
}

// Surface returns the presentation surface.
func (g *Game) Surface() renderer.Surface {
	return g.surface
}

// Close stops the worker pool and flushes output files. The surface is
// owned by the caller.
func (g *Game) Close() {
	g.scheduler.Close()
	if g.outputManager != nil {
		if err := g.outputManager.Close(); err != nil {
			slog.Error("failed to close output", "error", err)
		}
	}
}
