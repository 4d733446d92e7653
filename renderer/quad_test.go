package renderer

import (
	"image"
	"image/color"
	"testing"
)

var (
	red   = color.RGBA{R: 255, A: 255}
	green = color.RGBA{G: 255, A: 255}
	blue  = color.RGBA{B: 255, A: 255}
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// columnTexture returns a 1-wide texture with one colour per row.
func columnTexture(rows ...color.RGBA) *image.RGBA {
	tex := image.NewRGBA(image.Rect(0, 0, 1, len(rows)))
	for y, c := range rows {
		tex.SetRGBA(0, y, c)
	}
	return tex
}

func TestSamplerAddressModes(t *testing.T) {
	tex := image.NewRGBA(image.Rect(0, 0, 2, 1))
	tex.SetRGBA(0, 0, red)
	tex.SetRGBA(1, 0, blue)

	tests := []struct {
		name string
		s    Sampler
		u    float32
		want color.RGBA
	}{
		{"repeat in range", NearestRepeat, 0.75, blue},
		{"repeat past one", NearestRepeat, 1.25, red},
		{"repeat negative", NearestRepeat, -0.25, blue},
		{"clamp negative", Sampler{Address: AddressClampToEdge}, -0.25, red},
		{"clamp past one", Sampler{Address: AddressClampToEdge}, 1.25, blue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.Sample(tex, tt.u, 0.5); got != tt.want {
				t.Errorf("Sample(u=%v) = %v, want %v", tt.u, got, tt.want)
			}
		})
	}
}

func TestRasterizeFullScreenQuadFlipsRows(t *testing.T) {
	tex := image.NewRGBA(image.Rect(0, 0, 2, 2))
	tex.SetRGBA(0, 0, red)   // field origin
	tex.SetRGBA(1, 0, green) // +X
	tex.SetRGBA(0, 1, blue)  // +Y
	tex.SetRGBA(1, 1, white)

	dst := image.NewRGBA(image.Rect(0, 0, 4, 4))
	Rasterize(dst, FullScreenQuad, tex, NearestRepeat)

	tests := []struct {
		x, y int
		want color.RGBA
	}{
		{0, 3, red},
		{3, 3, green},
		{0, 0, blue},
		{3, 0, white},
		{1, 2, red},
		{2, 1, white},
	}
	for _, tt := range tests {
		if got := dst.RGBAAt(tt.x, tt.y); got != tt.want {
			t.Errorf("pixel (%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestRasterizeScalesTexture(t *testing.T) {
	tex := columnTexture(red, green, blue, white)
	dst := image.NewRGBA(image.Rect(0, 0, 3, 8))
	Rasterize(dst, FullScreenQuad, tex, NearestRepeat)

	want := []color.RGBA{white, white, blue, blue, green, green, red, red}
	for y, c := range want {
		for x := 0; x < 3; x++ {
			if got := dst.RGBAAt(x, y); got != c {
				t.Errorf("pixel (%d,%d) = %v, want %v", x, y, got, c)
			}
		}
	}
}

func TestRasterizeClearsUncoveredPixels(t *testing.T) {
	half := Quad{
		Vertices: [4]Vertex{
			{X: 0, Y: 1, U: 1, V: 1},
			{X: -1, Y: 1, U: 0, V: 1},
			{X: -1, Y: -1, U: 0, V: 0},
			{X: 0, Y: -1, U: 1, V: 0},
		},
		Indices: FullScreenQuad.Indices,
	}
	dst := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for i := range dst.Pix {
		dst.Pix[i] = 200
	}
	Rasterize(dst, half, columnTexture(green), NearestRepeat)

	black := color.RGBA{A: 255}
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			want := black
			if x < 2 {
				want = green
			}
			if got := dst.RGBAAt(x, y); got != want {
				t.Errorf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}
