// Package pipeline orchestrates one visual frame as an ordered sequence of
// stages over the field pool.
//
// Each stage declares the slots it reads and writes as a field.Pass. The
// queue acquires that pass, dispatches the stage's workgroups, and
// releases it before the next command, so a stage only ever sees read
// handles for its sources and write handles for its destinations.
package pipeline

import (
	"github.com/pthm-cable/slime/field"
)

// FrameParams is recomputed once per visual frame and pushed to every
// time-sensitive stage before dispatch.
type FrameParams struct {
	ElapsedMicros uint32  // microseconds since start, truncated
	DeltaTime     float32 // seconds simulated per sub-step
}

// FrameInput is what the caller supplies for each visual frame.
type FrameInput struct {
	Params     FrameParams
	AgentsOnly bool // composite agent markers instead of the trail field
}

// Stage is one unit of dispatched work with a fixed binding contract.
type Stage interface {
	// Name identifies the stage kind; it is also the perf phase it reports to.
	Name() string
	// Configure receives the frame's parameters before any dispatch.
	Configure(FrameParams)
	// Bind returns the pass the stage must hold while it dispatches.
	Bind() field.Pass
	// Dispatch runs the stage against the acquired pass.
	Dispatch(b *field.Bound) error
}
