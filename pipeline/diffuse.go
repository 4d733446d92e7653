package pipeline

import (
	"github.com/pthm-cable/slime/config"
	"github.com/pthm-cable/slime/field"
	"github.com/pthm-cable/slime/systems"
	"github.com/pthm-cable/slime/telemetry"
)

// DiffuseDecayStage reads Trail and writes the diffused, decayed field into
// Diffused, one tile of cells per workgroup. Reading and writing different
// slots keeps every neighbour read at its pre-diffusion value.
type DiffuseDecayStage struct {
	diffuseRate float32
	decayRate   float32
	tile        int
	d           *Dispatcher

	params systems.DiffuseParams
}

// NewDiffuseDecayStage binds the trail rates from cfg.
func NewDiffuseDecayStage(cfg *config.Config, d *Dispatcher) *DiffuseDecayStage {
	s := &DiffuseDecayStage{
		diffuseRate: cfg.Trail.DiffuseRate,
		decayRate:   cfg.Trail.DecayRate,
		tile:        max(cfg.Dispatch.TileSize, 1),
		d:           d,
	}
	s.Configure(FrameParams{DeltaTime: cfg.Frame.DeltaTime})
	return s
}

func (s *DiffuseDecayStage) Name() string { return telemetry.PhaseDiffuse }

func (s *DiffuseDecayStage) Configure(p FrameParams) {
	s.params = systems.NewDiffuseParams(s.diffuseRate, s.decayRate, p.DeltaTime)
}

func (s *DiffuseDecayStage) Bind() field.Pass {
	return field.Pass{
		Label:  "diffuse_decay",
		Reads:  []field.Name{field.Trail},
		Writes: []field.Name{field.Diffused},
	}
}

func (s *DiffuseDecayStage) Dispatch(b *field.Bound) error {
	r := b.Reader(field.Trail)
	w := b.Writer(field.Diffused)
	fw, fh := r.Width(), r.Height()
	tilesX := ceilDiv(fw, s.tile)
	tilesY := ceilDiv(fh, s.tile)
	p := s.params

	s.d.Run(tilesX*tilesY, func(g0, g1 int) {
		for g := g0; g < g1; g++ {
			x0 := (g % tilesX) * s.tile
			y0 := (g / tilesX) * s.tile
			for y := y0; y < min(y0+s.tile, fh); y++ {
				for x := x0; x < min(x0+s.tile, fw); x++ {
					for c := 0; c < config.MaxSpecies; c++ {
						w.StoreChannel(x, y, c, systems.DiffuseDecayCell(r, x, y, c, p))
					}
				}
			}
		}
	})
	return nil
}
