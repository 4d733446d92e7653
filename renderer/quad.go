package renderer

import (
	"image"
	"image/color"
)

// Vertex is a clip-space position with a texture coordinate.
type Vertex struct {
	X, Y float32 // normalized device coordinates, +Y up
	U, V float32 // texture coordinates, V=0 at texture row 0
}

// Quad is an indexed pair of triangles.
type Quad struct {
	Vertices [4]Vertex
	Indices  [6]uint16
}

// FullScreenQuad covers the whole target. Texture row 0 lands at the bottom
// of the screen, so field +Y points up.
var FullScreenQuad = Quad{
	Vertices: [4]Vertex{
		{X: 1, Y: 1, U: 1, V: 1},
		{X: -1, Y: 1, U: 0, V: 1},
		{X: -1, Y: -1, U: 0, V: 0},
		{X: 1, Y: -1, U: 1, V: 0},
	},
	Indices: [6]uint16{0, 1, 2, 2, 3, 0},
}

// Filter selects how texels are reconstructed.
type Filter uint8

const (
	FilterNearest Filter = iota
)

// AddressMode selects how out-of-range texture coordinates resolve.
type AddressMode uint8

const (
	AddressRepeat AddressMode = iota
	AddressClampToEdge
)

// Sampler describes texture lookups.
type Sampler struct {
	Filter  Filter
	Address AddressMode
}

// NearestRepeat is the sampler used for presentation.
var NearestRepeat = Sampler{Filter: FilterNearest, Address: AddressRepeat}

// Sample returns the texel of tex at (u, v).
func (s Sampler) Sample(tex *image.RGBA, u, v float32) color.RGBA {
	b := tex.Bounds()
	w, h := b.Dx(), b.Dy()
	x := s.resolve(int(floor32(u*float32(w))), w)
	y := s.resolve(int(floor32(v*float32(h))), h)
	return tex.RGBAAt(b.Min.X+x, b.Min.Y+y)
}

func (s Sampler) resolve(i, n int) int {
	if s.Address == AddressClampToEdge {
		return min(max(i, 0), n-1)
	}
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// Rasterize clears dst to black and draws the quad's triangles into it,
// shading each covered pixel centre with tex through the sampler.
func Rasterize(dst *image.RGBA, q Quad, tex *image.RGBA, s Sampler) {
	clearImage(dst, color.RGBA{A: 255})

	b := dst.Bounds()
	w, h := float32(b.Dx()), float32(b.Dy())
	if w == 0 || h == 0 || tex.Bounds().Empty() {
		return
	}

	// Vertices in pixel space.
	var px [4][2]float32
	for i, v := range q.Vertices {
		px[i] = [2]float32{(v.X + 1) / 2 * w, (1 - v.Y) / 2 * h}
	}

	for t := 0; t < len(q.Indices); t += 3 {
		i0, i1, i2 := q.Indices[t], q.Indices[t+1], q.Indices[t+2]
		a, bb, c := px[i0], px[i1], px[i2]
		area := edge(a, bb, c)
		if area == 0 {
			continue
		}

		minX := max(int(floor32(min(a[0], bb[0], c[0]))), 0)
		maxX := min(int(ceil32(max(a[0], bb[0], c[0]))), b.Dx())
		minY := max(int(floor32(min(a[1], bb[1], c[1]))), 0)
		maxY := min(int(ceil32(max(a[1], bb[1], c[1]))), b.Dy())

		va, vb, vc := q.Vertices[i0], q.Vertices[i1], q.Vertices[i2]
		for y := minY; y < maxY; y++ {
			for x := minX; x < maxX; x++ {
				p := [2]float32{float32(x) + 0.5, float32(y) + 0.5}
				w0 := edge(bb, c, p) / area
				w1 := edge(c, a, p) / area
				w2 := edge(a, bb, p) / area
				if w0 < 0 || w1 < 0 || w2 < 0 {
					continue
				}
				u := w0*va.U + w1*vb.U + w2*vc.U
				v := w0*va.V + w1*vb.V + w2*vc.V
				dst.SetRGBA(b.Min.X+x, b.Min.Y+y, s.Sample(tex, u, v))
			}
		}
	}
}

// edge is twice the signed area of triangle (a, b, p).
func edge(a, b, p [2]float32) float32 {
	return (b[0]-a[0])*(p[1]-a[1]) - (b[1]-a[1])*(p[0]-a[0])
}

func clearImage(img *image.RGBA, c color.RGBA) {
	pix := img.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = c.R, c.G, c.B, c.A
	}
}
