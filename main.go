package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/slime/config"
	"github.com/pthm-cable/slime/game"
	"github.com/pthm-cable/slime/renderer"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without a window or terminal")
	terminal := flag.Bool("terminal", false, "Render into the terminal instead of a window")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	logFile := flag.String("log-file", "", "Write logs to this file (default stdout, or discarded in terminal mode)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	snapshot := flag.String("snapshot", "", "Write the last presented frame to this PNG on exit")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxFrames := flag.Int("frames", 0, "Stop after N frames (0 = unlimited)")
	steps := flag.Int("steps", 0, "Simulation sub-steps per frame (0 = use config)")
	agentsOnly := flag.Bool("agents-only", false, "Start in the agents-only display mode")

	flag.Parse()

	if err := run(options{
		configPath: *configPath,
		headless:   *headless,
		terminal:   *terminal,
		logStats:   *logStats,
		logFile:    *logFile,
		outputDir:  *outputDir,
		snapshot:   *snapshot,
		seed:       *seed,
		maxFrames:  *maxFrames,
		steps:      *steps,
		agentsOnly: *agentsOnly,
	}); err != nil {
		slog.Error("simulation failed", "error", err)
		if *terminal && *logFile == "" {
			fmt.Fprintln(os.Stderr, "simulation failed:", err)
		}
		os.Exit(1)
	}
}

type options struct {
	configPath string
	headless   bool
	terminal   bool
	logStats   bool
	logFile    string
	outputDir  string
	snapshot   string
	seed       int64
	maxFrames  int
	steps      int
	agentsOnly bool
}

func run(o options) error {
	closeLog, err := setupLogging(o)
	if err != nil {
		return err
	}
	defer closeLog()

	// Initialize config before anything else
	if err := config.Init(o.configPath); err != nil {
		return err
	}
	cfg := config.Cfg()
	if o.steps > 0 {
		cfg.Frame.StepsPerFrame = o.steps
	}
	if o.agentsOnly {
		cfg.Frame.AgentsOnly = true
	}

	// Set up seed
	rngSeed := o.seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := game.Options{
		Seed:         rngSeed,
		LogStats:     o.logStats,
		OutputDir:    o.outputDir,
		MaxFrames:    o.maxFrames,
		SnapshotPath: o.snapshot,
	}

	switch {
	case o.headless:
		// Pure CPU simulation, presented into an offscreen image
	case o.terminal:
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("opening terminal: %w", err)
		}
		ts, err := renderer.NewTerminalSurface(screen)
		if err != nil {
			return fmt.Errorf("initializing terminal: %w", err)
		}
		defer ts.Close()
		opts.Surface = ts
	default:
		rl.SetConfigFlags(rl.FlagWindowResizable)
		rl.InitWindow(int32(cfg.Derived.ScreenW), int32(cfg.Derived.ScreenH), "Slime")
		defer rl.CloseWindow()
		rl.SetExitKey(rl.KeyNull)
		rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

		ws := renderer.NewWindowSurface()
		defer ws.Unload()
		opts.Surface = ws
	}

	g, err := game.New(cfg, opts)
	if err != nil {
		return err
	}
	defer g.Close()

	slog.Info("seed", "value", rngSeed)
	return g.Run(ctx)
}

// setupLogging installs the default slog logger: JSON to stdout, or to
// the log file when one is given. The terminal surface owns stdout, so
// terminal mode without a log file discards logs.
func setupLogging(o options) (func(), error) {
	var w io.Writer = os.Stdout
	closer := func() {}
	switch {
	case o.logFile != "":
		f, err := os.OpenFile(o.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		w = f
		closer = func() { f.Close() }
	case o.terminal && !o.headless:
		w = io.Discard
	}

	logger := slog.New(slog.NewJSONHandler(w, nil))
	slog.SetDefault(logger)
	return closer, nil
}
