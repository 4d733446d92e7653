package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/pthm-cable/slime/config"
	"github.com/pthm-cable/slime/field"
	"github.com/pthm-cable/slime/renderer"
	"github.com/pthm-cable/slime/systems"
	"github.com/pthm-cable/slime/telemetry"
)

var (
	// ErrFrameDropped is returned when no surface image could be acquired
	// even after reconfiguring. Nothing was simulated; the next frame may
	// proceed normally.
	ErrFrameDropped = errors.New("pipeline: frame dropped")
	// ErrSurfaceLost is returned when more consecutive frames than allowed
	// were dropped. It is fatal for the run.
	ErrSurfaceLost = errors.New("pipeline: presentation surface lost")
)

// Options configures a Scheduler.
type Options struct {
	Config  *config.Config
	Pool    *field.Pool
	Agents  *systems.AgentStore
	Surface renderer.Surface
	Perf    *telemetry.PerfCollector // optional
}

// Scheduler orchestrates one visual frame: steps_per_frame simulation
// sub-steps, the display composition, and presentation, recorded into one
// command buffer and submitted as a batch.
type Scheduler struct {
	pool    *field.Pool
	surface renderer.Surface
	queue   *Queue
	perf    *telemetry.PerfCollector
	d       *Dispatcher

	steps      int
	maxDropped int
	dropped    int
	frames     int64

	simulate  *SimulateStage
	diffuse   *DiffuseDecayStage
	clear     *ClearStage
	composite *CompositeAgentsStage
	present   *PresentStage

	trailToStaging  *BlitStage
	stagingToTrail  *BlitStage
	diffusedToTrail *BlitStage
	trailToDisplay  *BlitStage

	stages []Stage
	plans  [2]CommandBuffer // indexed by agentsOnly
}

// NewScheduler builds every stage and checks the dispatch plan. Any error
// here is setup-fatal: blits between slots of different sizes and passes
// that bind a slot in both roles are rejected before the first frame.
func NewScheduler(opts Options) (*Scheduler, error) {
	cfg := opts.Config
	if cfg == nil || opts.Pool == nil || opts.Agents == nil || opts.Surface == nil {
		return nil, errors.New("pipeline: scheduler needs config, pool, agents and surface")
	}

	blits := [][2]field.Name{
		{field.Trail, field.TrailStaging},
		{field.TrailStaging, field.Trail},
		{field.Diffused, field.Trail},
		{field.Trail, field.Display},
	}
	for _, b := range blits {
		if err := opts.Pool.CheckBlit(b[0], b[1]); err != nil {
			return nil, fmt.Errorf("scheduler setup: %w", err)
		}
	}

	d := NewDispatcher(cfg.Dispatch.Workers)
	tile := cfg.Dispatch.TileSize
	s := &Scheduler{
		pool:       opts.Pool,
		surface:    opts.Surface,
		queue:      NewQueue(opts.Pool, opts.Perf),
		perf:       opts.Perf,
		d:          d,
		steps:      cfg.Frame.StepsPerFrame,
		maxDropped: max(cfg.Surface.MaxDroppedFrames, 0),

		simulate:  NewSimulateStage(cfg, opts.Agents, d),
		diffuse:   NewDiffuseDecayStage(cfg, d),
		clear:     NewClearStage(field.Display, cfg.Dispatch.CellsPerGroup, d),
		composite: NewCompositeAgentsStage(opts.Agents, field.Display, cfg.Dispatch.CompositePerGroup, d),
		present:   NewPresentStage(field.Display, renderer.NewPalette(cfg.Palette), tile, d),

		trailToStaging:  NewBlitStage(field.Trail, field.TrailStaging, tile, d),
		stagingToTrail:  NewBlitStage(field.TrailStaging, field.Trail, tile, d),
		diffusedToTrail: NewBlitStage(field.Diffused, field.Trail, tile, d),
		trailToDisplay:  NewBlitStage(field.Trail, field.Display, tile, d),
	}
	s.stages = []Stage{
		s.trailToStaging, s.simulate, s.stagingToTrail, s.diffuse, s.diffusedToTrail,
		s.clear, s.composite, s.trailToDisplay, s.present,
	}

	for i, agentsOnly := range []bool{false, true} {
		s.plans[i] = s.record(agentsOnly)
		for _, cmd := range s.plans[i].Commands {
			if err := cmd.Pass.Validate(); err != nil {
				d.Stop()
				return nil, fmt.Errorf("scheduler setup: %w", err)
			}
		}
	}
	return s, nil
}

// record encodes the frame's command sequence.
func (s *Scheduler) record(agentsOnly bool) CommandBuffer {
	var enc Encoder
	for step := 0; step < s.steps; step++ {
		enc.Dispatch(s.trailToStaging)
		enc.Dispatch(s.simulate)
		enc.Dispatch(s.stagingToTrail)
		enc.Dispatch(s.diffuse)
		enc.Dispatch(s.diffusedToTrail)
	}
	if agentsOnly {
		enc.Dispatch(s.clear)
		enc.Dispatch(s.composite)
	} else {
		enc.Dispatch(s.trailToDisplay)
	}
	enc.Dispatch(s.present)
	return enc.Finish()
}

// Plan returns the command sequence for one frame in the given display mode.
func (s *Scheduler) Plan(agentsOnly bool) CommandBuffer {
	if agentsOnly {
		return s.plans[1]
	}
	return s.plans[0]
}

// Steps returns the number of sub-steps per frame.
func (s *Scheduler) Steps() int {
	return s.steps
}

// Frames returns the number of frames submitted.
func (s *Scheduler) Frames() int64 {
	return s.frames
}

// Texture returns the texture shaded by the most recent present.
func (s *Scheduler) Texture() *image.RGBA {
	return s.present.Texture()
}

// Frame acquires a surface image, then runs and presents one visual frame.
//
// If the surface cannot be acquired it is reconfigured and acquired once
// more. If that also fails the frame is dropped before any simulation work
// and ErrFrameDropped is returned; once more than surface.max_dropped_frames
// consecutive frames have been dropped, ErrSurfaceLost is returned instead.
// Any other error is fatal.
func (s *Scheduler) Frame(ctx context.Context, in FrameInput) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if s.perf != nil {
		s.perf.StartPhase(telemetry.PhaseAcquire)
	}
	target, err := s.acquire()
	if err != nil {
		s.dropped++
		if s.dropped > s.maxDropped {
			return fmt.Errorf("%w after %d consecutive dropped frames: %w", ErrSurfaceLost, s.dropped, err)
		}
		slog.Warn("frame dropped", "consecutive", s.dropped, "err", err)
		return fmt.Errorf("%w: %w", ErrFrameDropped, err)
	}
	s.dropped = 0

	for _, st := range s.stages {
		st.Configure(in.Params)
	}
	s.present.SetTarget(target)

	if err := s.queue.Submit(s.Plan(in.AgentsOnly)); err != nil {
		return fmt.Errorf("frame %d: %w", s.frames, err)
	}
	s.frames++
	return nil
}

func (s *Scheduler) acquire() (renderer.Target, error) {
	target, err := s.surface.Acquire()
	if err == nil {
		return target, nil
	}
	slog.Warn("surface unavailable, reconfiguring", "err", err)
	w, h := s.surface.Size()
	if rerr := s.surface.Reconfigure(w, h); rerr != nil {
		return nil, fmt.Errorf("reconfigure surface: %w", rerr)
	}
	return s.surface.Acquire()
}

// Close stops the worker pool.
func (s *Scheduler) Close() {
	s.d.Stop()
}
