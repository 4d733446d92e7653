package telemetry

import (
	"math"
	"testing"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"below range clamps", []float64{1, 2, 3}, -0.5, 1.0},
		{"above range clamps", []float64{1, 2, 3}, 1.5, 3.0},
		{"p50 odd interpolates", []float64{1, 2, 3, 4, 5}, 0.5, 2.5},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.0},
		{"p30 interpolates", []float64{10, 20, 30, 40, 50}, 0.3, 15.0},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.0},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeMassStats(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	mean, std, p10, p50, p90 := ComputeMassStats(values)

	if math.Abs(mean-5.5) > 0.001 {
		t.Errorf("mean = %v, want 5.5", mean)
	}
	// Population std of 1..10
	if math.Abs(std-2.8723) > 0.001 {
		t.Errorf("std = %v, want ~2.8723", std)
	}
	if math.Abs(p10-1) > 0.001 || math.Abs(p50-5) > 0.001 || math.Abs(p90-9) > 0.001 {
		t.Errorf("percentiles = %v/%v/%v, want 1/5/9", p10, p50, p90)
	}

	// Input must not be reordered
	shuffled := []float64{3, 1, 2}
	ComputeMassStats(shuffled)
	if shuffled[0] != 3 {
		t.Error("ComputeMassStats sorted its input in place")
	}
}

func TestComputeMassStatsEmpty(t *testing.T) {
	mean, std, p10, p50, p90 := ComputeMassStats(nil)
	if mean != 0 || std != 0 || p10 != 0 || p50 != 0 || p90 != 0 {
		t.Errorf("empty stats = %v %v %v %v %v, want zeros", mean, std, p10, p50, p90)
	}
}
