package pipeline

import (
	"fmt"

	"github.com/pthm-cable/slime/field"
	"github.com/pthm-cable/slime/systems"
	"github.com/pthm-cable/slime/telemetry"
)

// alphaChannel marks a cell as covered in the agents-only composition.
const alphaChannel = field.Channels - 1

// CompositeAgentsStage writes one marker per agent into Display: the
// agent's species channel and alpha are set to 1 at its current cell.
// It only reads the agent store.
type CompositeAgentsStage struct {
	agents   *systems.AgentStore
	dst      field.Name
	perGroup int
	d        *Dispatcher

	scratch []systems.Agent
	cells   []int
}

// NewCompositeAgentsStage creates the agent marker pass, dispatched in
// groups of agentsPerGroup.
func NewCompositeAgentsStage(agents *systems.AgentStore, dst field.Name, agentsPerGroup int, d *Dispatcher) *CompositeAgentsStage {
	return &CompositeAgentsStage{agents: agents, dst: dst, perGroup: max(agentsPerGroup, 1), d: d}
}

func (s *CompositeAgentsStage) Name() string { return telemetry.PhaseComposite }

func (s *CompositeAgentsStage) Configure(FrameParams) {}

func (s *CompositeAgentsStage) Bind() field.Pass {
	return field.Pass{Label: "composite_agents", Writes: []field.Name{s.dst}}
}

func (s *CompositeAgentsStage) Dispatch(b *field.Bound) error {
	if s.agents.Writable() {
		return fmt.Errorf("composite: %w", systems.ErrWriterClaimed)
	}
	w := b.Writer(s.dst)
	fw, fh := w.Width(), w.Height()

	s.scratch = s.agents.View().Snapshot(s.scratch)
	agents := s.scratch
	n := len(agents)
	if cap(s.cells) < n {
		s.cells = make([]int, n)
	}
	cells := s.cells[:n]

	// Locate markers in parallel
	per := s.perGroup
	s.d.Run(ceilDiv(n, per), func(g0, g1 int) {
		for i := g0 * per; i < min(g1*per, n); i++ {
			cells[i] = systems.Cell(agents[i].Pos, fw, fh)
		}
	})

	// Apply markers single-threaded; agents sharing a cell write the same values
	for i, cell := range cells {
		w.StoreIndex(cell, int(agents[i].Species), 1)
		w.StoreIndex(cell, alphaChannel, 1)
	}
	return nil
}
