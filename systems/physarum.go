package systems

import (
	"math"

	"github.com/pthm-cable/slime/components"
)

// Agent is the flat per-agent record stages work on. The AgentStore
// snapshots its entities into a []Agent and applies the slice back.
type Agent struct {
	Pos     components.Position
	Angle   float32
	Species uint8
}

// SpeciesParams holds the motion and sensing constants, bound once at
// stage construction.
type SpeciesParams struct {
	MoveSpeed    float32
	TurnSpeed    float32 // revolutions per second scale, sign flips steering
	SensorAngle  float32 // radians either side of the heading
	SensorOffset float32 // cells ahead of the agent
	SensorSize   int     // sensor square radius in cells
	NumSpecies   int     // channels that carry species trails
}

// FieldSampler is the read side of a field slot the kernels need.
// field.Reader satisfies it.
type FieldSampler interface {
	Width() int
	Height() int
	LoadClamped(x, y, c int) float32
}

// Sense sums the trail over a (2*size+1)^2 square centred at the sensor
// position. The agent's own channel attracts; other species' channels repel.
func Sense(f FieldSampler, a Agent, angleOffset float32, p SpeciesParams) float32 {
	sensorAngle := a.Angle + angleOffset
	sx := a.Pos.X + cos32(sensorAngle)*p.SensorOffset
	sy := a.Pos.Y + sin32(sensorAngle)*p.SensorOffset
	cx := int(floor32(sx))
	cy := int(floor32(sy))

	own := int(a.Species)
	var sum float32
	for oy := -p.SensorSize; oy <= p.SensorSize; oy++ {
		for ox := -p.SensorSize; ox <= p.SensorSize; ox++ {
			for c := 0; c < p.NumSpecies; c++ {
				v := f.LoadClamped(cx+ox, cy+oy, c)
				if c == own {
					sum += v
				} else {
					sum -= v
				}
			}
		}
	}
	return sum
}

// Steer returns the agent's new heading. rnd is a uniform value in [0, 1]
// supplying the random steering strength. When the forward sensor reads at
// least as much as both sides, ties included, the heading is unchanged.
func Steer(f FieldSampler, a Agent, p SpeciesParams, rnd, dt float32) float32 {
	forward := Sense(f, a, 0, p)
	left := Sense(f, a, p.SensorAngle, p)
	right := Sense(f, a, -p.SensorAngle, p)

	turn := p.TurnSpeed * 2 * math.Pi
	angle := a.Angle
	switch {
	case forward >= left && forward >= right:
		// keep heading
	case forward < left && forward < right:
		angle += (rnd - 0.5) * 2 * turn * dt
	case right > left:
		angle -= rnd * turn * dt
	case left > right:
		angle += rnd * turn * dt
	}
	return normalizeAngle(angle)
}

// Integrate moves pos by speed*dt along angle.
func Integrate(pos components.Position, angle, speed, dt float32) components.Position {
	return components.Position{
		X: pos.X + cos32(angle)*speed*dt,
		Y: pos.Y + sin32(angle)*speed*dt,
	}
}

// ReflectBounds clamps pos into [0,w) x [0,h). For each violated axis the
// position is moved to the nearest in-bounds cell on that axis and the
// heading's component along it is negated. The bool reports whether either
// axis was violated.
func ReflectBounds(pos components.Position, angle float32, w, h int) (components.Position, float32, bool) {
	dx, dy := cos32(angle), sin32(angle)
	hit := false

	if pos.X < 0 {
		pos.X, dx, hit = 0, -dx, true
	} else if pos.X >= float32(w) {
		pos.X, dx, hit = float32(w-1), -dx, true
	}
	if pos.Y < 0 {
		pos.Y, dy, hit = 0, -dy, true
	} else if pos.Y >= float32(h) {
		pos.Y, dy, hit = float32(h-1), -dy, true
	}

	if !hit {
		return pos, angle, false
	}
	return pos, float32(math.Atan2(float64(dy), float64(dx))), true
}

// Cell returns the row-major index of the cell containing pos, clamped into
// the field.
func Cell(pos components.Position, w, h int) int {
	x := min(max(int(floor32(pos.X)), 0), w-1)
	y := min(max(int(floor32(pos.Y)), 0), h-1)
	return y*w + x
}
