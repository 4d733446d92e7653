package systems

// DiffuseParams holds the per-sub-step diffusion and decay factors.
type DiffuseParams struct {
	Blend float32 // fraction moved toward the neighbour average, in [0,1]
	Decay float32 // multiplier applied after diffusion, in [0,1]
}

// NewDiffuseParams converts per-second rates into per-step factors.
func NewDiffuseParams(diffuseRate, decayRate, dt float32) DiffuseParams {
	return DiffuseParams{
		Blend: clamp01(diffuseRate * dt),
		Decay: max(0, 1-decayRate*dt),
	}
}

// DiffuseDecayCell computes channel c of cell (x, y) after one step.
//
// The cell exchanges Blend/8 of its difference with each of its eight
// neighbours. Out-of-bounds neighbours take no part, so interior cells move
// Blend of the way toward the mean of their neighbours and every exchange is
// symmetric: total mass is unchanged before decay. The result is then
// multiplied by Decay and floored at zero.
func DiffuseDecayCell(f FieldSampler, x, y, c int, p DiffuseParams) float32 {
	w, h := f.Width(), f.Height()
	v := f.LoadClamped(x, y, c)

	var flux float32
	for oy := -1; oy <= 1; oy++ {
		ny := y + oy
		if ny < 0 || ny >= h {
			continue
		}
		for ox := -1; ox <= 1; ox++ {
			nx := x + ox
			if (ox == 0 && oy == 0) || nx < 0 || nx >= w {
				continue
			}
			flux += f.LoadClamped(nx, ny, c) - v
		}
	}

	out := (v + p.Blend*flux/8) * p.Decay
	return max(out, 0)
}
