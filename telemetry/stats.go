package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a window of frames.
type WindowStats struct {
	WindowStartFrame int64   `csv:"-"`
	WindowEndFrame   int64   `csv:"window_end"`
	SimTimeSec       float64 `csv:"sim_time"`

	// Scheduling during window
	Frames   int `csv:"frames"`
	Dropped  int `csv:"dropped"`
	SubSteps int `csv:"sub_steps"`
	Toggles  int `csv:"toggles"`

	// State at window end
	Agents     int  `csv:"agents"`
	AgentsOnly bool `csv:"agents_only"`

	// Field intensity at window end
	MassTotal float64 `csv:"mass_total"`
	Mass0     float64 `csv:"mass_0"`
	Mass1     float64 `csv:"mass_1"`
	Mass2     float64 `csv:"mass_2"`
	Peak      float64 `csv:"peak"`
	Coverage  float64 `csv:"coverage"`

	// Distribution of per-frame total mass over the window
	MassMean float64 `csv:"mass_mean"`
	MassStd  float64 `csv:"mass_std"`
	MassP10  float64 `csv:"mass_p10"`
	MassP50  float64 `csv:"mass_p50"`
	MassP90  float64 `csv:"mass_p90"`
}

// Percentile returns the linearly interpolated p-quantile of a sorted
// slice, p clamped to [0, 1]. Returns 0 if the slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	return stat.Quantile(min(max(p, 0), 1), stat.LinInterp, sorted, nil)
}

// ComputeMassStats calculates mean, std, and percentiles of mass samples.
func ComputeMassStats(values []float64) (mean, std, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0, 0
	}

	mean, std = stat.PopMeanStdDev(values, nil)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, std, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("window_start", s.WindowStartFrame),
		slog.Int64("window_end", s.WindowEndFrame),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("frames", s.Frames),
		slog.Int("dropped", s.Dropped),
		slog.Int("sub_steps", s.SubSteps),
		slog.Int("toggles", s.Toggles),
		slog.Int("agents", s.Agents),
		slog.Bool("agents_only", s.AgentsOnly),
		slog.Float64("mass_total", s.MassTotal),
		slog.Float64("peak", s.Peak),
		slog.Float64("coverage", s.Coverage),
		slog.Float64("mass_mean", s.MassMean),
		slog.Float64("mass_std", s.MassStd),
		slog.Float64("mass_p50", s.MassP50),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndFrame,
		"sim_time", s.SimTimeSec,
		"frames", s.Frames,
		"dropped", s.Dropped,
		"sub_steps", s.SubSteps,
		"toggles", s.Toggles,
		"agents", s.Agents,
		"agents_only", s.AgentsOnly,
		"mass_total", s.MassTotal,
		"peak", s.Peak,
		"coverage", s.Coverage,
		"mass_mean", s.MassMean,
		"mass_std", s.MassStd,
		"mass_p10", s.MassP10,
		"mass_p50", s.MassP50,
		"mass_p90", s.MassP90,
	)
}
