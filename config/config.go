// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Deposit position policies.
const (
	DepositBeforeMove = "before_move"
	DepositAfterMove  = "after_move"
)

// Deposit blend modes.
const (
	BlendAdditive  = "additive"
	BlendLastWrite = "last_write"
)

// Delta time modes.
const (
	DeltaFixed    = "fixed"
	DeltaMeasured = "measured"
)

// MaxSpecies is the number of field channels usable as species channels.
// The fourth channel is reserved (alpha).
const MaxSpecies = 3

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Field     FieldConfig     `yaml:"field"`
	Agents    AgentsConfig    `yaml:"agents"`
	Species   SpeciesConfig   `yaml:"species"`
	Trail     TrailConfig     `yaml:"trail"`
	Deposit   DepositConfig   `yaml:"deposit"`
	Frame     FrameConfig     `yaml:"frame"`
	Dispatch  DispatchConfig  `yaml:"dispatch"`
	Surface   SurfaceConfig   `yaml:"surface"`
	Palette   []Tint          `yaml:"palette"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings. The window size is independent of
// the field resolution.
type ScreenConfig struct {
	Width     int `yaml:"width"`  // 0 = field width
	Height    int `yaml:"height"` // 0 = field height
	TargetFPS int `yaml:"target_fps"`
}

// FieldConfig holds the simulation field resolution. Fixed for the run.
type FieldConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// AgentsConfig holds agent population parameters.
type AgentsConfig struct {
	Count   int `yaml:"count"`
	Species int `yaml:"species"` // number of species, 1..MaxSpecies
}

// SpeciesConfig holds the sensing and motion constants shared by all agents.
type SpeciesConfig struct {
	MoveSpeed          float32 `yaml:"move_speed"`
	TurnSpeed          float32 `yaml:"turn_speed"`
	SensorAngleDegrees float32 `yaml:"sensor_angle_degrees"`
	SensorOffsetDst    float32 `yaml:"sensor_offset_dst"`
	SensorSize         int     `yaml:"sensor_size"` // sensor radius in cells (0 = single cell)
}

// TrailConfig holds trail deposit and field evolution parameters.
type TrailConfig struct {
	Weight      float32 `yaml:"weight"`       // deposited per agent per sub-step
	DecayRate   float32 `yaml:"decay_rate"`   // per second, multiplicative
	DiffuseRate float32 `yaml:"diffuse_rate"` // per second, blend toward neighbour average
}

// DepositConfig selects where and how agents deposit trail.
type DepositConfig struct {
	Position string `yaml:"position"` // before_move | after_move
	Blend    string `yaml:"blend"`    // additive | last_write
}

// FrameConfig holds per-frame scheduling parameters.
type FrameConfig struct {
	StepsPerFrame int     `yaml:"steps_per_frame"`
	DeltaTime     float32 `yaml:"delta_time"`
	DeltaMode     string  `yaml:"delta_mode"`     // fixed | measured
	MaxDeltaTime  float32 `yaml:"max_delta_time"` // clamp for measured mode
	AgentsOnly    bool    `yaml:"agents_only"`    // initial display mode
}

// DispatchConfig holds workgroup sizes and the worker count.
type DispatchConfig struct {
	AgentsPerGroup    int `yaml:"agents_per_group"`
	CompositePerGroup int `yaml:"composite_per_group"`
	TileSize          int `yaml:"tile_size"`       // diffuse/blit tile edge in cells
	CellsPerGroup     int `yaml:"cells_per_group"` // clear
	Workers           int `yaml:"workers"`         // 0 = GOMAXPROCS
}

// SurfaceConfig holds presentation surface parameters.
type SurfaceConfig struct {
	MaxDroppedFrames int `yaml:"max_dropped_frames"` // consecutive drops before the surface is considered lost
}

// Tint is the RGB colour a field channel is presented with.
type Tint struct {
	R float32 `yaml:"r"`
	G float32 `yaml:"g"`
	B float32 `yaml:"b"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow int `yaml:"stats_window"` // frames between stats log lines
	PerfWindow  int `yaml:"perf_window"`  // rolling window of frames for perf averages
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	SensorAngleRad float32 // Species.SensorAngleDegrees in radians
	ScreenW        int     // effective window width
	ScreenH        int     // effective window height
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Defaults returns a fresh copy of the embedded defaults with derived values computed.
func Defaults() *Config {
	cfg, err := Parse(nil)
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	if path == "" {
		return Parse(nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse overlays data (may be nil) on the embedded defaults, then derives
// and validates.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if len(data) > 0 {
		// Unmarshal into same struct - only overwrites fields present in data
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// Validate reports every setup-fatal problem with the configuration.
func (c *Config) Validate() error {
	var errs []error
	if c.Field.Width <= 0 || c.Field.Height <= 0 {
		errs = append(errs, fmt.Errorf("field size must be positive, got %dx%d", c.Field.Width, c.Field.Height))
	}
	if c.Agents.Count < 0 {
		errs = append(errs, fmt.Errorf("agents.count must not be negative, got %d", c.Agents.Count))
	}
	if c.Agents.Species < 1 || c.Agents.Species > MaxSpecies {
		errs = append(errs, fmt.Errorf("agents.species must be in 1..%d, got %d", MaxSpecies, c.Agents.Species))
	}
	if c.Species.SensorSize < 0 {
		errs = append(errs, fmt.Errorf("species.sensor_size must not be negative, got %d", c.Species.SensorSize))
	}
	if c.Frame.StepsPerFrame < 1 {
		errs = append(errs, fmt.Errorf("frame.steps_per_frame must be at least 1, got %d", c.Frame.StepsPerFrame))
	}
	if c.Frame.DeltaTime <= 0 {
		errs = append(errs, fmt.Errorf("frame.delta_time must be positive, got %v", c.Frame.DeltaTime))
	}
	switch c.Frame.DeltaMode {
	case DeltaFixed, DeltaMeasured:
	default:
		errs = append(errs, fmt.Errorf("frame.delta_mode: unknown mode %q", c.Frame.DeltaMode))
	}
	switch c.Deposit.Position {
	case DepositBeforeMove, DepositAfterMove:
	default:
		errs = append(errs, fmt.Errorf("deposit.position: unknown policy %q", c.Deposit.Position))
	}
	switch c.Deposit.Blend {
	case BlendAdditive, BlendLastWrite:
	default:
		errs = append(errs, fmt.Errorf("deposit.blend: unknown mode %q", c.Deposit.Blend))
	}
	if c.Dispatch.AgentsPerGroup < 1 || c.Dispatch.CompositePerGroup < 1 ||
		c.Dispatch.TileSize < 1 || c.Dispatch.CellsPerGroup < 1 {
		errs = append(errs, errors.New("dispatch group sizes must be at least 1"))
	}
	if len(c.Palette) == 0 {
		errs = append(errs, errors.New("palette must have at least one entry"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.SensorAngleRad = c.Species.SensorAngleDegrees * math.Pi / 180

	// Window defaults to field size if not specified
	c.Derived.ScreenW = c.Screen.Width
	if c.Derived.ScreenW == 0 {
		c.Derived.ScreenW = c.Field.Width
	}
	c.Derived.ScreenH = c.Screen.Height
	if c.Derived.ScreenH == 0 {
		c.Derived.ScreenH = c.Field.Height
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
