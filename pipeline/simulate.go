package pipeline

import (
	"fmt"

	"github.com/pthm-cable/slime/config"
	"github.com/pthm-cable/slime/field"
	"github.com/pthm-cable/slime/systems"
	"github.com/pthm-cable/slime/telemetry"
)

// SimulateStage steers, moves and deposits for every agent.
//
// It reads Trail and writes TrailStaging, which the preceding blit has
// filled with a copy of Trail. Deposits from all agents accumulate in a
// DepositBuffer during the agent dispatch; a commit dispatch then writes
// trail+deposit into TrailStaging for every touched cell. Untouched cells
// keep the blitted copy.
type SimulateStage struct {
	agents *systems.AgentStore
	params systems.SpeciesParams

	weight    float32
	afterMove bool
	blend     systems.Blend

	agentsPerGroup int
	cellsPerGroup  int
	d              *Dispatcher

	frame   FrameParams
	deposit *systems.DepositBuffer
	scratch []systems.Agent
}

// NewSimulateStage binds the simulation constants from cfg.
func NewSimulateStage(cfg *config.Config, agents *systems.AgentStore, d *Dispatcher) *SimulateStage {
	blend := systems.BlendAdditive
	if cfg.Deposit.Blend == config.BlendLastWrite {
		blend = systems.BlendLastWrite
	}
	return &SimulateStage{
		agents: agents,
		params: systems.SpeciesParams{
			MoveSpeed:    cfg.Species.MoveSpeed,
			TurnSpeed:    cfg.Species.TurnSpeed,
			SensorAngle:  cfg.Derived.SensorAngleRad,
			SensorOffset: cfg.Species.SensorOffsetDst,
			SensorSize:   cfg.Species.SensorSize,
			NumSpecies:   cfg.Agents.Species,
		},
		weight:         cfg.Trail.Weight,
		afterMove:      cfg.Deposit.Position == config.DepositAfterMove,
		blend:          blend,
		agentsPerGroup: max(cfg.Dispatch.AgentsPerGroup, 1),
		cellsPerGroup:  max(cfg.Dispatch.CellsPerGroup, 1),
		d:              d,
	}
}

func (s *SimulateStage) Name() string { return telemetry.PhaseSimulate }

func (s *SimulateStage) Configure(p FrameParams) { s.frame = p }

func (s *SimulateStage) Bind() field.Pass {
	return field.Pass{
		Label:  "simulate",
		Reads:  []field.Name{field.Trail},
		Writes: []field.Name{field.TrailStaging},
	}
}

func (s *SimulateStage) Dispatch(b *field.Bound) error {
	w, err := s.agents.ClaimWriter()
	if err != nil {
		return fmt.Errorf("simulate: %w", err)
	}
	defer w.Release()

	trail := b.Reader(field.Trail)
	staging := b.Writer(field.TrailStaging)
	fw, fh := trail.Width(), trail.Height()
	cells := fw * fh
	if s.deposit == nil || s.deposit.Cells() != cells {
		s.deposit = systems.NewDepositBuffer(fw, fh, field.Channels)
	}

	// Phase A: snapshot agents
	s.scratch = w.Snapshot(s.scratch)
	agents := s.scratch
	n := len(agents)

	// Phase B: steer, move and deposit in parallel
	per := s.agentsPerGroup
	s.d.Run(ceilDiv(n, per), func(g0, g1 int) {
		for i := g0 * per; i < min(g1*per, n); i++ {
			s.step(trail, agents, i, fw, fh)
		}
	})

	// Phase C: commit deposits onto the staged copy
	buf := s.deposit
	cpg := s.cellsPerGroup
	s.d.Run(ceilDiv(cells, cpg), func(g0, g1 int) {
		for i := g0 * cpg; i < min(g1*cpg, cells); i++ {
			if !buf.Touched(i) {
				continue
			}
			for c := 0; c < config.MaxSpecies; c++ {
				if v := buf.Take(i, c); v != 0 {
					staging.StoreIndex(i, c, trail.LoadIndex(i, c)+v)
				}
			}
			buf.Untouch(i)
		}
	})

	// Phase D: write agents back
	return w.Apply(agents)
}

func (s *SimulateStage) step(trail field.Reader, agents []systems.Agent, i, fw, fh int) {
	a := &agents[i]
	dt := s.frame.DeltaTime

	cell := systems.Cell(a.Pos, fw, fh)
	rnd := systems.SteerRandom(cell, i, s.frame.ElapsedMicros)
	a.Angle = systems.Steer(trail, *a, s.params, rnd, dt)

	pos := systems.Integrate(a.Pos, a.Angle, s.params.MoveSpeed, dt)
	a.Pos, a.Angle, _ = systems.ReflectBounds(pos, a.Angle, fw, fh)

	if s.weight == 0 {
		return
	}
	if s.afterMove {
		cell = systems.Cell(a.Pos, fw, fh)
	}
	s.deposit.Deposit(cell, int(a.Species), s.weight, s.blend)
}
