package filter

import (
	"image"
	"image/color"

	"github.com/gogpu/uifirst"
	"github.com/gogpu/uifirst/surface"
)

// ColorMatrix applies a 4x5 color transformation to straight-alpha
// channels in [0, 255]:
//
//	[R']   [a00 a01 a02 a03 a04]   [R]
//	[G'] = [a10 a11 a12 a13 a14] * [G]
//	[B']   [a20 a21 a22 a23 a24]   [B]
//	[A']   [a30 a31 a32 a33 a34]   [A]
//	                               [1]
type ColorMatrix struct {
	// Matrix is row-major: [0-4] is R, [5-9] G, [10-14] B, [15-19] A.
	Matrix [20]float32
}

// NewIdentity returns a color matrix that leaves pixels unchanged.
func NewIdentity() *ColorMatrix {
	return &ColorMatrix{Matrix: [20]float32{
		1, 0, 0, 0, 0,
		0, 1, 0, 0, 0,
		0, 0, 1, 0, 0,
		0, 0, 0, 1, 0,
	}}
}

// NewBrightness scales the color channels.
// factor: 0.0 = black, 1.0 = unchanged, 2.0 = twice as bright
func NewBrightness(factor float32) *ColorMatrix {
	return &ColorMatrix{Matrix: [20]float32{
		factor, 0, 0, 0, 0,
		0, factor, 0, 0, 0,
		0, 0, factor, 0, 0,
		0, 0, 0, 1, 0,
	}}
}

// NewSaturation blends between luminance and the original color.
// factor: 0.0 = grayscale, 1.0 = unchanged, 2.0 = oversaturated
func NewSaturation(factor float32) *ColorMatrix {
	// Rec. 709 luminance weights.
	const (
		lumR = 0.2126
		lumG = 0.7152
		lumB = 0.0722
	)
	inv := 1 - factor
	return &ColorMatrix{Matrix: [20]float32{
		lumR*inv + factor, lumG * inv, lumB * inv, 0, 0,
		lumR * inv, lumG*inv + factor, lumB * inv, 0, 0,
		lumR * inv, lumG * inv, lumB*inv + factor, 0, 0,
		0, 0, 0, 1, 0,
	}}
}

// NewTint mixes every pixel toward tint by tint's alpha.
func NewTint(tint color.NRGBA) *ColorMatrix {
	f := float32(tint.A) / 255
	inv := 1 - f
	return &ColorMatrix{Matrix: [20]float32{
		inv, 0, 0, 0, float32(tint.R) * f,
		0, inv, 0, 0, float32(tint.G) * f,
		0, 0, inv, 0, float32(tint.B) * f,
		0, 0, 0, 1, 0,
	}}
}

// Then returns the matrix that applies m first and next second.
func (m *ColorMatrix) Then(next *ColorMatrix) *ColorMatrix {
	a, b := &next.Matrix, &m.Matrix
	out := &ColorMatrix{}
	r := &out.Matrix
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += a[row*5+k] * b[k*5+col]
			}
			r[row*5+col] = sum
		}
		r[row*5+4] = a[row*5+0]*b[4] + a[row*5+1]*b[9] + a[row*5+2]*b[14] + a[row*5+3]*b[19] + a[row*5+4]
	}
	return out
}

// Apply implements surface.Filter.
func (m *ColorMatrix) Apply(c surface.Canvas, under surface.Image, dst uifirst.RectF) {
	draw(m, c, under, dst)
}

// Process implements Effect.
func (m *ColorMatrix) Process(src *image.RGBA) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	k := &m.Matrix
	for y := 0; y < b.Dy(); y++ {
		s := src.Pix[y*src.Stride : y*src.Stride+b.Dx()*4]
		d := dst.Pix[y*dst.Stride : y*dst.Stride+b.Dx()*4]
		for i := 0; i < len(s); i += 4 {
			a := float32(s[i+3])
			var r, g, bl float32
			if a > 0 {
				r = float32(s[i+0]) * 255 / a
				g = float32(s[i+1]) * 255 / a
				bl = float32(s[i+2]) * 255 / a
			}
			nr := k[0]*r + k[1]*g + k[2]*bl + k[3]*a + k[4]
			ng := k[5]*r + k[6]*g + k[7]*bl + k[8]*a + k[9]
			nb := k[10]*r + k[11]*g + k[12]*bl + k[13]*a + k[14]
			na := clampUint8(k[15]*r + k[16]*g + k[17]*bl + k[18]*a + k[19])

			f := float32(na) / 255
			d[i+0] = min(clampUint8(clampChannel(nr)*f), na)
			d[i+1] = min(clampUint8(clampChannel(ng)*f), na)
			d[i+2] = min(clampUint8(clampChannel(nb)*f), na)
			d[i+3] = na
		}
	}
	return dst
}

func clampChannel(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
