package game

import (
	"context"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/slime/config"
	"github.com/pthm-cable/slime/pipeline"
	"github.com/pthm-cable/slime/renderer"
	"github.com/pthm-cable/slime/telemetry"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(`
screen: {target_fps: 1000}
field: {width: 64, height: 48}
agents: {count: 200, species: 2}
dispatch: {workers: 2}
telemetry: {stats_window: 4, perf_window: 4}
`))
	if err != nil {
		t.Fatalf("config.Parse: %v", err)
	}
	return cfg
}

func newTestGame(t *testing.T, cfg *config.Config, opts Options) *Game {
	t.Helper()
	g, err := New(cfg, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(g.Close)
	return g
}

func TestNew(t *testing.T) {
	g := newTestGame(t, testConfig(t), Options{Seed: 1})

	if _, ok := g.Surface().(*renderer.OffscreenSurface); !ok {
		t.Errorf("default surface is %T, want *renderer.OffscreenSurface", g.Surface())
	}
	if w, h := g.Surface().Size(); w != 64 || h != 48 {
		t.Errorf("surface size = %dx%d, want 64x48", w, h)
	}

	agents := g.Agents().Snapshot(nil)
	if len(agents) != 200 {
		t.Fatalf("spawned %d agents, want 200", len(agents))
	}
	species := map[uint8]int{}
	for _, a := range agents {
		if a.Pos.X != 32 || a.Pos.Y != 24 {
			t.Fatalf("agent spawned at %+v, want field centre", a.Pos)
		}
		species[a.Species]++
	}
	if species[0] != 100 || species[1] != 100 {
		t.Errorf("species split = %v, want 100/100", species)
	}
}

func TestStep(t *testing.T) {
	g := newTestGame(t, testConfig(t), Options{Seed: 2})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := g.Step(ctx); err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
	}
	if g.Frame() != 3 {
		t.Errorf("Frame = %d, want 3", g.Frame())
	}
	if got, want := g.SimTime(), 3*0.005; got < want*0.999 || got > want*1.001 {
		t.Errorf("SimTime = %v, want %v", got, want)
	}

	m, err := g.measureField()
	if err != nil {
		t.Fatal(err)
	}
	if m.TotalMass() <= 0 {
		t.Error("agents should have deposited trail")
	}
	if m.Mass[2] != 0 {
		t.Errorf("channel 2 mass = %v with two species, want 0", m.Mass[2])
	}
}

func TestToggle(t *testing.T) {
	g := newTestGame(t, testConfig(t), Options{})
	ctx := context.Background()

	if g.AgentsOnly() {
		t.Fatal("default display mode should be the trail view")
	}
	g.Toggle()
	if !g.AgentsOnly() {
		t.Fatal("Toggle did not switch to agents-only")
	}
	if err := g.Step(ctx); err != nil {
		t.Fatalf("agents-only Step: %v", err)
	}
	g.Toggle()
	if g.AgentsOnly() {
		t.Error("second Toggle should switch back")
	}
	if err := g.Step(ctx); err != nil {
		t.Fatalf("trail Step: %v", err)
	}
}

func TestStepDroppedFrames(t *testing.T) {
	surface := renderer.NewOffscreenSurface(64, 48)
	g := newTestGame(t, testConfig(t), Options{Surface: surface})
	ctx := context.Background()

	surface.FailAcquires(2)
	if err := g.Step(ctx); err != nil {
		t.Fatalf("dropped frame should not be an error: %v", err)
	}
	if g.Dropped() != 1 || g.Frame() != 0 {
		t.Errorf("dropped=%d frame=%d, want 1 and 0", g.Dropped(), g.Frame())
	}

	surface.FailAcquires(4)
	if err := g.Step(ctx); err != nil {
		t.Fatalf("first of two drops: %v", err)
	}
	if err := g.Step(ctx); !errors.Is(err, pipeline.ErrSurfaceLost) {
		t.Errorf("error = %v, want ErrSurfaceLost", err)
	}
}

func TestRunHeadless(t *testing.T) {
	dir := t.TempDir()
	snapshot := filepath.Join(dir, "last.png")

	var flushed []telemetry.WindowStats
	g, err := New(testConfig(t), Options{
		Seed:          3,
		OutputDir:     dir,
		MaxFrames:     10,
		SnapshotPath:  snapshot,
		StatsCallback: func(s telemetry.WindowStats) { flushed = append(flushed, s) },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := g.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	g.Close()

	if g.Frame() != 10 {
		t.Errorf("ran %d frames, want 10", g.Frame())
	}
	if len(flushed) != 2 {
		t.Fatalf("flushed %d windows, want 2", len(flushed))
	}
	if flushed[1].WindowEndFrame != 8 || flushed[1].Frames != 4 || flushed[1].Agents != 200 {
		t.Errorf("second window = %+v", flushed[1])
	}

	for _, name := range []string{"config.yaml", "frames.csv", "perf.csv", "last.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	var rows []telemetry.WindowStats
	if err := gocsv.UnmarshalFile(mustOpen(t, filepath.Join(dir, "frames.csv")), &rows); err != nil {
		t.Fatalf("reading frames.csv: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("frames.csv has %d rows, want 2", len(rows))
	}

	var perf []telemetry.PerfStatsCSV
	if err := gocsv.UnmarshalFile(mustOpen(t, filepath.Join(dir, "perf.csv")), &perf); err != nil {
		t.Fatalf("reading perf.csv: %v", err)
	}
	if len(perf) != 2 {
		t.Fatalf("perf.csv has %d rows, want 2", len(perf))
	}
	if perf[1].StepsPerSec <= 0 || perf[1].PresentedFPS <= 0 {
		t.Errorf("perf rates = %f steps/s, %f fps, want both positive", perf[1].StepsPerSec, perf[1].PresentedFPS)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	g := newTestGame(t, testConfig(t), Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := g.Run(ctx); err != nil {
		t.Fatalf("Run after cancel: %v", err)
	}
	if g.Frame() != 0 {
		t.Errorf("ran %d frames after cancel, want 0", g.Frame())
	}
}

func TestRunningObservesCancel(t *testing.T) {
	live := context.Background()
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name      string
		ctx       context.Context
		quit      bool
		maxFrames int
		want      bool
	}{
		{"live", live, false, 0, true},
		{"cancelled", cancelled, false, 0, false},
		{"quit", live, true, 0, false},
		{"frame limit", live, false, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGame(t, testConfig(t), Options{MaxFrames: tt.maxFrames})
			if tt.maxFrames > 0 {
				if err := g.Step(live); err != nil {
					t.Fatalf("Step: %v", err)
				}
			}
			g.quit = tt.quit
			if got := g.running(tt.ctx); got != tt.want {
				t.Errorf("running = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTerminalEvents(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	ts, err := renderer.NewTerminalSurface(screen)
	if err != nil {
		t.Fatal(err)
	}
	defer ts.Close()
	g := newTestGame(t, testConfig(t), Options{Surface: ts})

	tests := []struct {
		name       string
		ev         tcell.Event
		agentsOnly bool
		quit       bool
	}{
		{"other key ignored", tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone), false, false},
		{"l toggles", tcell.NewEventKey(tcell.KeyRune, 'l', tcell.ModNone), true, false},
		{"L toggles back", tcell.NewEventKey(tcell.KeyRune, 'L', tcell.ModNone), false, false},
		{"escape quits", tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := g.handleTerminalEvent(ts, tt.ev); err != nil {
				t.Fatal(err)
			}
			if g.AgentsOnly() != tt.agentsOnly || g.quit != tt.quit {
				t.Errorf("agentsOnly=%v quit=%v, want %v and %v", g.AgentsOnly(), g.quit, tt.agentsOnly, tt.quit)
			}
		})
	}

	screen.SetSize(20, 6)
	if err := g.handleTerminalEvent(ts, tcell.NewEventResize(20, 6)); err != nil {
		t.Fatal(err)
	}
	if w, h := ts.Size(); w != 20 || h != 12 {
		t.Errorf("surface after resize = %dx%d, want 20x12", w, h)
	}
}

func TestRunTerminal(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	ts, err := renderer.NewTerminalSurface(screen)
	if err != nil {
		t.Fatal(err)
	}
	defer ts.Close()
	screen.SetSize(16, 8)
	if err := ts.Reconfigure(0, 0); err != nil {
		t.Fatal(err)
	}

	snapshot := filepath.Join(t.TempDir(), "field.png")
	g := newTestGame(t, testConfig(t), Options{Surface: ts, MaxFrames: 3, SnapshotPath: snapshot})
	if err := g.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if g.Frame() != 3 {
		t.Errorf("ran %d frames, want 3", g.Frame())
	}
	if mainc, _, _, _ := screen.GetContent(0, 0); mainc != '▀' {
		t.Errorf("terminal cell (0,0) = %q, want a half block", mainc)
	}

	// Non-offscreen surfaces snapshot the shaded field texture.
	img, err := png.Decode(mustOpen(t, snapshot))
	if err != nil {
		t.Fatalf("decoding snapshot: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 48 {
		t.Errorf("snapshot is %dx%d, want the 64x48 field", b.Dx(), b.Dy())
	}
}

func mustOpen(t *testing.T, path string) *os.File {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}
