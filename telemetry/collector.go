package telemetry

// Collector accumulates frame events within windows and produces WindowStats.
type Collector struct {
	windowFrames int64

	// Current window tracking
	windowStartFrame int64

	// Event counters for current window
	frames   int
	dropped  int
	subSteps int
	toggles  int

	// Per-frame total mass samples for the window distribution
	mass []float64
}

// NewCollector creates a new stats collector that flushes every
// windowFrames visual frames.
func NewCollector(windowFrames int) *Collector {
	if windowFrames < 1 {
		windowFrames = 1
	}
	return &Collector{
		windowFrames: int64(windowFrames),
		mass:         make([]float64, 0, windowFrames),
	}
}

// RecordFrame records a presented frame and the sub-steps it ran.
func (c *Collector) RecordFrame(subSteps int) {
	c.frames++
	c.subSteps += subSteps
}

// RecordDrop records a frame dropped for lack of a presentable surface.
func (c *Collector) RecordDrop() {
	c.dropped++
}

// RecordToggle records a display mode change.
func (c *Collector) RecordToggle() {
	c.toggles++
}

// RecordMass records one field mass sample.
func (c *Collector) RecordMass(total float64) {
	c.mass = append(c.mass, total)
}

// ShouldFlush returns true if enough frames have passed to flush the window.
func (c *Collector) ShouldFlush(currentFrame int64) bool {
	return currentFrame-c.windowStartFrame >= c.windowFrames
}

// Flush produces a WindowStats and resets counters for the next window.
// The caller provides the current frame, simulated seconds so far, the
// agent count, the display mode and a measure of the field at window end.
func (c *Collector) Flush(
	currentFrame int64,
	simTime float64,
	agents int,
	agentsOnly bool,
	field FieldMeasure,
) WindowStats {
	mean, std, p10, p50, p90 := ComputeMassStats(c.mass)

	stats := WindowStats{
		WindowStartFrame: c.windowStartFrame,
		WindowEndFrame:   currentFrame,
		SimTimeSec:       simTime,

		Frames:   c.frames,
		Dropped:  c.dropped,
		SubSteps: c.subSteps,
		Toggles:  c.toggles,

		Agents:     agents,
		AgentsOnly: agentsOnly,

		MassTotal: field.TotalMass(),
		Mass0:     field.Mass[0],
		Mass1:     field.Mass[1],
		Mass2:     field.Mass[2],
		Peak:      float64(field.Peak),
		Coverage:  field.Coverage,

		MassMean: mean,
		MassStd:  std,
		MassP10:  p10,
		MassP50:  p50,
		MassP90:  p90,
	}

	// Reset for next window
	c.windowStartFrame = currentFrame
	c.frames = 0
	c.dropped = 0
	c.subSteps = 0
	c.toggles = 0
	c.mass = c.mass[:0]

	return stats
}
