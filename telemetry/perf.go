package telemetry

import (
	"log/slog"
	"time"
)

// Phase names for one visual frame. Stage phases accumulate across every
// dispatch of that stage kind in the frame.
const (
	PhaseAcquire   = "acquire"
	PhaseBlit      = "blit"
	PhaseSimulate  = "simulate"
	PhaseDiffuse   = "diffuse_decay"
	PhaseClear     = "clear"
	PhaseComposite = "composite_agents"
	PhasePresent   = "present"
	PhaseTelemetry = "telemetry"
)

// Phases lists every phase in frame order.
var Phases = []string{
	PhaseAcquire, PhaseBlit, PhaseSimulate, PhaseDiffuse,
	PhaseClear, PhaseComposite, PhasePresent, PhaseTelemetry,
}

// frameSample is the CPU work of one frame.
type frameSample struct {
	work   time.Duration
	steps  int
	phases map[string]time.Duration
}

// PerfCollector times frame phases over a rolling window.
//
// Two rates come out of it. Simulation throughput counts sub-steps per
// second of frame work, so it scales with steps_per_frame. Presentation
// rate counts presented frames per wall-clock second, measured between
// Presented calls, so it includes time the loop spends waiting.
type PerfCollector struct {
	now func() time.Time

	window  int
	samples []frameSample
	next    int
	filled  int

	frameStart time.Time
	phase      string
	phaseStart time.Time
	phases     map[string]time.Duration

	presents     []time.Time
	presentNext  int
	presentCount int
}

// NewPerfCollector keeps the last window frames (60 when window < 1).
func NewPerfCollector(window int) *PerfCollector {
	if window < 1 {
		window = 60
	}
	return &PerfCollector{
		now:      time.Now,
		window:   window,
		samples:  make([]frameSample, window),
		phases:   make(map[string]time.Duration),
		presents: make([]time.Time, window+1),
	}
}

// BeginFrame starts timing a frame.
func (p *PerfCollector) BeginFrame() {
	p.frameStart = p.now()
	p.phases = make(map[string]time.Duration)
	p.phase = ""
}

// StartPhase closes the running phase and opens another. Re-entering a
// phase adds to its total for the frame.
func (p *PerfCollector) StartPhase(phase string) {
	now := p.now()
	p.closePhase(now)
	p.phase, p.phaseStart = phase, now
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.phase != "" {
		p.phases[p.phase] += now.Sub(p.phaseStart)
	}
	p.phase = ""
}

// EndFrame records the frame and the simulation sub-steps it ran. A
// dropped frame ends with zero steps.
func (p *PerfCollector) EndFrame(steps int) {
	now := p.now()
	p.closePhase(now)
	p.samples[p.next] = frameSample{work: now.Sub(p.frameStart), steps: steps, phases: p.phases}
	p.next = (p.next + 1) % p.window
	p.filled = min(p.filled+1, p.window)
}

// Presented marks a frame reaching the surface.
func (p *PerfCollector) Presented() {
	p.presents[p.presentNext] = p.now()
	p.presentNext = (p.presentNext + 1) % len(p.presents)
	p.presentCount = min(p.presentCount+1, len(p.presents))
}

// presentedFPS is the rate across the stored presentation timestamps.
func (p *PerfCollector) presentedFPS() float64 {
	if p.presentCount < 2 {
		return 0
	}
	n := len(p.presents)
	oldest := 0
	if p.presentCount == n {
		oldest = p.presentNext
	}
	newest := (p.presentNext - 1 + n) % n
	span := p.presents[newest].Sub(p.presents[oldest])
	if span <= 0 {
		return 0
	}
	return float64(p.presentCount-1) / span.Seconds()
}

// PerfStats aggregates the window.
type PerfStats struct {
	AvgFrame time.Duration
	MinFrame time.Duration
	MaxFrame time.Duration

	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64 // share of average frame work

	StepsPerSec  float64 // sub-steps per second of frame work
	PresentedFPS float64 // presented frames per wall-clock second
}

// Stats computes the window aggregates.
func (p *PerfCollector) Stats() PerfStats {
	st := PerfStats{
		PhaseAvg:     make(map[string]time.Duration),
		PhasePct:     make(map[string]float64),
		PresentedFPS: p.presentedFPS(),
	}
	if p.filled == 0 {
		return st
	}

	var work time.Duration
	steps := 0
	sums := make(map[string]time.Duration)
	for i, s := range p.samples[:p.filled] {
		work += s.work
		steps += s.steps
		if i == 0 || s.work < st.MinFrame {
			st.MinFrame = s.work
		}
		st.MaxFrame = max(st.MaxFrame, s.work)
		for phase, d := range s.phases {
			sums[phase] += d
		}
	}

	n := time.Duration(p.filled)
	st.AvgFrame = work / n
	for phase, sum := range sums {
		avg := sum / n
		st.PhaseAvg[phase] = avg
		if st.AvgFrame > 0 {
			st.PhasePct[phase] = float64(avg) / float64(st.AvgFrame) * 100
		}
	}
	if work > 0 {
		st.StepsPerSec = float64(steps) / work.Seconds()
	}
	return st
}

// LogStats logs the aggregates at Info.
func (s PerfStats) LogStats() {
	slog.Info("perf", "stats", s)
}

// LogValue implements slog.LogValuer. Phases below 0.1% are omitted.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_frame_us", s.AvgFrame.Microseconds()),
		slog.Int64("min_frame_us", s.MinFrame.Microseconds()),
		slog.Int64("max_frame_us", s.MaxFrame.Microseconds()),
		slog.Float64("steps_per_sec", s.StepsPerSec),
	}
	if s.PresentedFPS > 0 {
		attrs = append(attrs, slog.Float64("presented_fps", s.PresentedFPS))
	}
	for _, phase := range Phases {
		if pct := s.PhasePct[phase]; pct > 0.1 {
			attrs = append(attrs, slog.Float64(phase+"_pct", pct))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one perf.csv row.
type PerfStatsCSV struct {
	WindowEnd    int64   `csv:"window_end"`
	AvgFrameUS   int64   `csv:"avg_frame_us"`
	MinFrameUS   int64   `csv:"min_frame_us"`
	MaxFrameUS   int64   `csv:"max_frame_us"`
	StepsPerSec  float64 `csv:"steps_per_sec"`
	PresentedFPS float64 `csv:"presented_fps"`
	AcquirePct   float64 `csv:"acquire_pct"`
	BlitPct      float64 `csv:"blit_pct"`
	SimulatePct  float64 `csv:"simulate_pct"`
	DiffusePct   float64 `csv:"diffuse_decay_pct"`
	ClearPct     float64 `csv:"clear_pct"`
	CompositePct float64 `csv:"composite_agents_pct"`
	PresentPct   float64 `csv:"present_pct"`
	TelemetryPct float64 `csv:"telemetry_pct"`
}

// ToCSV flattens the stats for the window ending at frame windowEnd.
func (s PerfStats) ToCSV(windowEnd int64) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:    windowEnd,
		AvgFrameUS:   s.AvgFrame.Microseconds(),
		MinFrameUS:   s.MinFrame.Microseconds(),
		MaxFrameUS:   s.MaxFrame.Microseconds(),
		StepsPerSec:  s.StepsPerSec,
		PresentedFPS: s.PresentedFPS,
		AcquirePct:   s.PhasePct[PhaseAcquire],
		BlitPct:      s.PhasePct[PhaseBlit],
		SimulatePct:  s.PhasePct[PhaseSimulate],
		DiffusePct:   s.PhasePct[PhaseDiffuse],
		ClearPct:     s.PhasePct[PhaseClear],
		CompositePct: s.PhasePct[PhaseComposite],
		PresentPct:   s.PhasePct[PhasePresent],
		TelemetryPct: s.PhasePct[PhaseTelemetry],
	}
}
