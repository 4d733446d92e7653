package pipeline

import (
	"fmt"

	"github.com/pthm-cable/slime/field"
	"github.com/pthm-cable/slime/telemetry"
)

// Command is one recorded stage dispatch with the pass it will hold.
type Command struct {
	Stage Stage
	Pass  field.Pass
}

// CommandBuffer is an ordered, immutable list of commands.
type CommandBuffer struct {
	Commands []Command
}

// Encoder records stage dispatches in order.
type Encoder struct {
	cmds []Command
}

// Dispatch records s with the pass it binds.
func (e *Encoder) Dispatch(s Stage) {
	e.cmds = append(e.cmds, Command{Stage: s, Pass: s.Bind()})
}

// Finish returns the recorded commands. The encoder is reset.
func (e *Encoder) Finish() CommandBuffer {
	cb := CommandBuffer{Commands: e.cmds}
	e.cmds = nil
	return cb
}

// Queue executes command buffers against a pool in submission order. Each
// command's pass is acquired before its dispatch and released after it,
// so a later command always observes every write of an earlier one.
type Queue struct {
	pool *field.Pool
	perf *telemetry.PerfCollector

	submitted uint64
}

// NewQueue creates a queue over pool. perf may be nil.
func NewQueue(pool *field.Pool, perf *telemetry.PerfCollector) *Queue {
	return &Queue{pool: pool, perf: perf}
}

// Submit runs every command of cb. The first failure stops the buffer.
func (q *Queue) Submit(cb CommandBuffer) error {
	for i, cmd := range cb.Commands {
		if q.perf != nil {
			q.perf.StartPhase(cmd.Stage.Name())
		}
		b, err := q.pool.Acquire(cmd.Pass)
		if err != nil {
			return fmt.Errorf("command %d (%s): %w", i, cmd.Pass.Label, err)
		}
		err = cmd.Stage.Dispatch(b)
		b.Release()
		if err != nil {
			return fmt.Errorf("command %d (%s): %w", i, cmd.Pass.Label, err)
		}
	}
	q.submitted++
	return nil
}

// Submitted returns the number of command buffers completed.
func (q *Queue) Submitted() uint64 {
	return q.submitted
}
