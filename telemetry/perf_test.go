package telemetry

import (
	"math"
	"testing"
	"time"
)

type manualClock struct {
	t time.Time
}

func (c *manualClock) now() time.Time { return c.t }

func (c *manualClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newManualPerf(window int) (*PerfCollector, *manualClock) {
	c := &manualClock{t: time.Unix(100, 0)}
	p := NewPerfCollector(window)
	p.now = c.now
	return p, c
}

// runFrame spends work inside the simulate phase, presents, then idles.
func runFrame(p *PerfCollector, c *manualClock, steps int, work, idle time.Duration) {
	p.BeginFrame()
	p.StartPhase(PhaseSimulate)
	c.advance(work)
	p.EndFrame(steps)
	p.Presented()
	c.advance(idle)
}

func TestPerfCollectorPhaseBreakdown(t *testing.T) {
	p, c := newManualPerf(4)

	p.BeginFrame()
	p.StartPhase(PhaseSimulate)
	c.advance(time.Millisecond)
	p.StartPhase(PhaseDiffuse)
	c.advance(3 * time.Millisecond)
	p.EndFrame(1)

	st := p.Stats()
	if st.AvgFrame != 4*time.Millisecond {
		t.Errorf("AvgFrame = %v, want 4ms", st.AvgFrame)
	}
	if st.PhaseAvg[PhaseSimulate] != time.Millisecond || st.PhaseAvg[PhaseDiffuse] != 3*time.Millisecond {
		t.Errorf("PhaseAvg = %v", st.PhaseAvg)
	}
	if st.PhasePct[PhaseSimulate] != 25 || st.PhasePct[PhaseDiffuse] != 75 {
		t.Errorf("PhasePct = %v, want simulate 25 diffuse 75", st.PhasePct)
	}
}

func TestPerfCollectorStepsAndPresentedRates(t *testing.T) {
	tests := []struct {
		name      string
		steps     int
		wantSteps float64
	}{
		{"one step per frame", 1, 500},
		{"four steps per frame", 4, 2000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, c := newManualPerf(8)
			for i := 0; i < 5; i++ {
				runFrame(p, c, tt.steps, 2*time.Millisecond, 8*time.Millisecond)
			}

			st := p.Stats()
			if math.Abs(st.StepsPerSec-tt.wantSteps) > 1e-6 {
				t.Errorf("StepsPerSec = %f, want %f", st.StepsPerSec, tt.wantSteps)
			}
			if math.Abs(st.PresentedFPS-100) > 1e-6 {
				t.Errorf("PresentedFPS = %f, want 100", st.PresentedFPS)
			}
		})
	}
}

func TestPerfCollectorDroppedFrameAddsNoSteps(t *testing.T) {
	p, c := newManualPerf(4)
	runFrame(p, c, 2, time.Millisecond, 0)

	p.BeginFrame()
	p.StartPhase(PhaseAcquire)
	c.advance(time.Millisecond)
	p.EndFrame(0)

	st := p.Stats()
	if math.Abs(st.StepsPerSec-1000) > 1e-6 {
		t.Errorf("StepsPerSec = %f, want 1000 (2 steps over 2ms)", st.StepsPerSec)
	}
	if st.PresentedFPS != 0 {
		t.Errorf("PresentedFPS = %f after one present, want 0", st.PresentedFPS)
	}
}

func TestPerfCollectorRollingWindow(t *testing.T) {
	p, c := newManualPerf(2)
	for _, work := range []time.Duration{time.Millisecond, time.Millisecond, 5 * time.Millisecond, 7 * time.Millisecond} {
		runFrame(p, c, 1, work, 0)
	}

	st := p.Stats()
	if st.AvgFrame != 6*time.Millisecond {
		t.Errorf("AvgFrame = %v, want 6ms over the last two frames", st.AvgFrame)
	}
	if st.MinFrame != 5*time.Millisecond || st.MaxFrame != 7*time.Millisecond {
		t.Errorf("Min/Max = %v/%v, want 5ms/7ms", st.MinFrame, st.MaxFrame)
	}
	// The last three presents land at 2ms, 7ms and 14ms.
	if math.Abs(st.PresentedFPS-2/0.012) > 1e-6 {
		t.Errorf("PresentedFPS = %f, want %f", st.PresentedFPS, 2/0.012)
	}
}

func TestPerfCollectorEmptyStats(t *testing.T) {
	st := NewPerfCollector(10).Stats()
	if st.AvgFrame != 0 || st.StepsPerSec != 0 || st.PresentedFPS != 0 {
		t.Errorf("empty stats = %+v, want zeros", st)
	}
	if st.PhaseAvg == nil || st.PhasePct == nil {
		t.Error("expected non-nil phase maps")
	}
}

func TestPerfCollectorReenteredPhaseAccumulates(t *testing.T) {
	p, c := newManualPerf(4)

	p.BeginFrame()
	p.StartPhase(PhaseBlit)
	c.advance(time.Millisecond)
	p.StartPhase(PhaseSimulate)
	c.advance(2 * time.Millisecond)
	p.StartPhase(PhaseBlit)
	c.advance(time.Millisecond)
	p.EndFrame(3)

	st := p.Stats()
	if st.PhaseAvg[PhaseBlit] != 2*time.Millisecond {
		t.Errorf("blit phase = %v, want 2ms across both entries", st.PhaseAvg[PhaseBlit])
	}

	row := st.ToCSV(7)
	if row.WindowEnd != 7 || row.BlitPct != 50 || row.SimulatePct != 50 {
		t.Errorf("csv row = %+v", row)
	}
	if row.StepsPerSec != st.StepsPerSec || row.AvgFrameUS != 4000 {
		t.Errorf("csv row rates = %+v", row)
	}
}
