package telemetry

import (
	"math"
	"testing"
)

func TestMeasureField(t *testing.T) {
	const w, h = 4, 3
	texels := make([]float32, w*h*fieldChannels)
	set := func(x, y, c int, v float32) { texels[(y*w+x)*fieldChannels+c] = v }

	set(0, 0, 0, 1)
	set(2, 1, 0, 3)
	set(3, 2, 1, 0.5)
	set(1, 1, 2, 2)
	set(1, 1, 3, 1) // alpha is not mass

	m := MeasureField(texels, w, h)

	if m.Mass[0] != 4 || m.Mass[1] != 0.5 || m.Mass[2] != 2 {
		t.Errorf("Mass = %v, want [4 0.5 2]", m.Mass)
	}
	if m.TotalMass() != 6.5 {
		t.Errorf("TotalMass = %v, want 6.5", m.TotalMass())
	}
	if m.Peak != 3 || m.PeakX != 2 || m.PeakY != 1 {
		t.Errorf("peak = %v at (%d,%d), want 3 at (2,1)", m.Peak, m.PeakX, m.PeakY)
	}
	if math.Abs(m.Coverage-2.0/12.0) > 1e-9 {
		t.Errorf("Coverage = %v, want %v", m.Coverage, 2.0/12.0)
	}
}

func TestMeasureFieldEmpty(t *testing.T) {
	m := MeasureField(nil, 0, 0)
	if m.TotalMass() != 0 || m.Peak != 0 {
		t.Errorf("empty measure = %+v, want zero", m)
	}
	m = MeasureField(make([]float32, 3), 2, 2)
	if m.TotalMass() != 0 {
		t.Errorf("short slice measure = %+v, want zero", m)
	}
}
