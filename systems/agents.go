package systems

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/slime/components"
)

var (
	// ErrWriterClaimed is returned when a second writer is requested while
	// one is outstanding.
	ErrWriterClaimed = errors.New("agents: writer already claimed")
	// ErrAgentCount is returned when an applied slice does not match the store.
	ErrAgentCount = errors.New("agents: count mismatch")
)

// AgentStore holds every agent as an ECS entity. The population is fixed
// for the lifetime of the store, so query order is stable and a snapshot
// slice lines up index-for-index with the entities.
type AgentStore struct {
	world  *ecs.World
	mapper *ecs.Map3[components.Position, components.Heading, components.Species]
	filter *ecs.Filter3[components.Position, components.Heading, components.Species]
	count  int

	writer *AgentWriter
}

func newStore() *AgentStore {
	world := ecs.NewWorld()
	return &AgentStore{
		world:  world,
		mapper: ecs.NewMap3[components.Position, components.Heading, components.Species](world),
		filter: ecs.NewFilter3[components.Position, components.Heading, components.Species](world),
	}
}

// NewAgentStore spawns n agents at (cx, cy) with headings uniform in
// [0, 2*pi). Agents are assigned to species round-robin.
func NewAgentStore(n, species int, cx, cy float32, rng *rand.Rand) *AgentStore {
	s := newStore()
	species = max(species, 1)
	for i := 0; i < n; i++ {
		pos := components.Position{X: cx, Y: cy}
		head := components.Heading{Angle: rng.Float32() * 2 * math.Pi}
		sp := components.Species{Index: uint8(i % species)}
		s.mapper.NewEntity(&pos, &head, &sp)
	}
	s.count = n
	return s
}

// NewAgentStoreFrom spawns one entity per record, in order.
func NewAgentStoreFrom(agents []Agent) *AgentStore {
	s := newStore()
	for _, a := range agents {
		pos := a.Pos
		head := components.Heading{Angle: a.Angle}
		sp := components.Species{Index: a.Species}
		s.mapper.NewEntity(&pos, &head, &sp)
	}
	s.count = len(agents)
	return s
}

// Len returns the number of agents.
func (s *AgentStore) Len() int {
	return s.count
}

// ClaimWriter returns the store's exclusive writer. It fails while a
// previous writer has not been released.
func (s *AgentStore) ClaimWriter() (*AgentWriter, error) {
	if s.writer != nil {
		return nil, ErrWriterClaimed
	}
	s.writer = &AgentWriter{s: s}
	return s.writer, nil
}

// Writable reports whether a writer is currently claimed.
func (s *AgentStore) Writable() bool {
	return s.writer != nil
}

// View returns a read-only view of the store.
func (s *AgentStore) View() AgentView {
	return AgentView{s: s}
}

func (s *AgentStore) snapshot(dst []Agent) []Agent {
	dst = dst[:0]
	query := s.filter.Query()
	for query.Next() {
		pos, head, sp := query.Get()
		dst = append(dst, Agent{Pos: *pos, Angle: head.Angle, Species: sp.Index})
	}
	return dst
}

// AgentView reads agent state without mutating it.
type AgentView struct {
	s *AgentStore
}

// Len returns the number of agents.
func (v AgentView) Len() int {
	return v.s.count
}

// Snapshot appends every agent to dst[:0] in store order.
func (v AgentView) Snapshot(dst []Agent) []Agent {
	return v.s.snapshot(dst)
}

// AgentWriter is the single mutable handle on an AgentStore.
type AgentWriter struct {
	s *AgentStore
}

// Snapshot appends every agent to dst[:0] in store order.
func (w *AgentWriter) Snapshot(dst []Agent) []Agent {
	return w.s.snapshot(dst)
}

// Apply writes agents back in store order. src must come from Snapshot.
func (w *AgentWriter) Apply(src []Agent) error {
	if w.s.writer != w {
		return fmt.Errorf("agents: apply on released writer")
	}
	if len(src) != w.s.count {
		return fmt.Errorf("%w: store holds %d, got %d", ErrAgentCount, w.s.count, len(src))
	}
	i := 0
	query := w.s.filter.Query()
	for query.Next() {
		pos, head, sp := query.Get()
		a := &src[i]
		*pos = a.Pos
		head.Angle = a.Angle
		sp.Index = a.Species
		i++
	}
	return nil
}

// Release gives up the writer so another can be claimed.
func (w *AgentWriter) Release() {
	if w.s.writer == w {
		w.s.writer = nil
	}
}
