package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pthm-cable/slime/field"
	"github.com/pthm-cable/slime/pipeline"
	"github.com/pthm-cable/slime/telemetry"
)

// massSampleInterval is how often, in frames, the field mass is sampled
// for the window distribution.
const massSampleInterval = 8

// Step runs one visual frame in the current display mode. A dropped frame
// is counted and is not an error; ErrSurfaceLost and stage failures are.
func (g *Game) Step(ctx context.Context) error {
	g.perfCollector.BeginFrame()
	params := g.clock.Tick()

	err := g.scheduler.Frame(ctx, pipeline.FrameInput{Params: params, AgentsOnly: g.agentsOnly})
	if errors.Is(err, pipeline.ErrFrameDropped) {
		g.dropped++
		g.collector.RecordDrop()
		g.perfCollector.EndFrame(0)
		return nil
	}
	if err != nil {
		return err
	}

	steps := g.scheduler.Steps()
	g.perfCollector.Presented()
	g.frame++
	g.simTime += float64(params.DeltaTime) * float64(steps)
	g.collector.RecordFrame(steps)

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	if g.frame%massSampleInterval == 0 {
		if m, err := g.measureField(); err == nil {
			g.collector.RecordMass(m.TotalMass())
		}
	}
	g.flushTelemetry()

	g.perfCollector.EndFrame(steps)
	return nil
}

// measureField reduces the current trail field.
func (g *Game) measureField() (telemetry.FieldMeasure, error) {
	data, err := g.pool.Snapshot(field.Trail)
	if err != nil {
		return telemetry.FieldMeasure{}, fmt.Errorf("measuring field: %w", err)
	}
	w, h := g.pool.Size(field.Trail)
	return telemetry.MeasureField(data, w, h), nil
}

// done reports whether the frame limit has been reached.
func (g *Game) done() bool {
	return g.quit || (g.maxFrames > 0 && g.frame >= int64(g.maxFrames))
}

// running reports whether a loop should start another frame.
func (g *Game) running(ctx context.Context) bool {
	return ctx.Err() == nil && !g.done()
}

// stopped reports whether err ends a run cleanly.
func stopped(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		slog.Info("run cancelled")
		return true
	}
	return false
}
