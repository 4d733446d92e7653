package telemetry

import (
	"log/slog"

	"gonum.org/v1/gonum/blas/blas32"
)

// fieldChannels is the cell stride of field texel slices.
const fieldChannels = 4

// FieldMeasure summarises one field snapshot.
type FieldMeasure struct {
	Mass     [3]float64 // sum of each species channel
	Peak     float32    // largest channel-0 value
	PeakX    int
	PeakY    int
	Coverage float64 // fraction of cells with any channel-0 trail
}

// TotalMass returns the summed mass over all species channels.
func (m FieldMeasure) TotalMass() float64 {
	return m.Mass[0] + m.Mass[1] + m.Mass[2]
}

// MeasureField computes mass and peak of a w x h texel slice. Trail values
// are never negative, so the absolute sum equals the plain sum.
func MeasureField(texels []float32, w, h int) FieldMeasure {
	var m FieldMeasure
	n := w * h
	if n == 0 || len(texels) < n*fieldChannels {
		return m
	}

	for c := 0; c < len(m.Mass); c++ {
		v := blas32.Vector{N: n, Inc: fieldChannels, Data: texels[c:]}
		m.Mass[c] = float64(blas32.Asum(v))
	}

	primary := blas32.Vector{N: n, Inc: fieldChannels, Data: texels}
	if i := blas32.Iamax(primary); i >= 0 {
		m.Peak = texels[i*fieldChannels]
		m.PeakX, m.PeakY = i%w, i/w
	}

	covered := 0
	for i := 0; i < n; i++ {
		if texels[i*fieldChannels] > 0 {
			covered++
		}
	}
	m.Coverage = float64(covered) / float64(n)
	return m
}

// LogValue implements slog.LogValuer for structured logging.
func (m FieldMeasure) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("mass", m.TotalMass()),
		slog.Float64("mass_0", m.Mass[0]),
		slog.Float64("mass_1", m.Mass[1]),
		slog.Float64("mass_2", m.Mass[2]),
		slog.Float64("peak", float64(m.Peak)),
		slog.Int("peak_x", m.PeakX),
		slog.Int("peak_y", m.PeakY),
		slog.Float64("coverage", m.Coverage),
	)
}
