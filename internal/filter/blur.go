package filter

import (
	"image"
	"math"
	"sync"

	"github.com/gogpu/uifirst"
	"github.com/gogpu/uifirst/surface"
)

// Blur applies a separable Gaussian blur.
// The two passes run independently, so the cost is O(w*h*(rx+ry)) instead
// of O(w*h*rx*ry). Pixels outside the input repeat the nearest edge.
type Blur struct {
	// RadiusX is the horizontal blur radius in pixels.
	RadiusX float64

	// RadiusY is the vertical blur radius in pixels.
	RadiusY float64
}

// NewBlur creates a blur with equal radius in both directions.
func NewBlur(radius float64) *Blur {
	return &Blur{RadiusX: radius, RadiusY: radius}
}

// NewBlurXY creates a blur with different X and Y radii.
func NewBlurXY(radiusX, radiusY float64) *Blur {
	return &Blur{RadiusX: radiusX, RadiusY: radiusY}
}

// Apply implements surface.Filter.
func (f *Blur) Apply(c surface.Canvas, under surface.Image, dst uifirst.RectF) {
	draw(f, c, under, dst)
}

// ExpandRect returns r grown by the reach of the kernel.
func (f *Blur) ExpandRect(r uifirst.RectF) uifirst.RectF {
	ex := math.Ceil(f.RadiusX * 3)
	ey := math.Ceil(f.RadiusY * 3)
	return uifirst.RectF{Left: r.Left - ex, Top: r.Top - ey, Right: r.Right + ex, Bottom: r.Bottom + ey}
}

// Process implements Effect.
//  1. Horizontal pass: convolve each row into a float buffer
//  2. Vertical pass: convolve each column back into bytes
func (f *Blur) Process(src *image.RGBA) *image.RGBA {
	b := src.Bounds()
	width, height := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	if width == 0 || height == 0 {
		return dst
	}

	temp := getTempBuffer(width, height)
	defer putTempBuffer(temp)

	blurHorizontal(src, temp, width, height, CachedGaussianKernel(f.RadiusX))
	blurVertical(temp, dst, width, height, CachedGaussianKernel(f.RadiusY))
	return dst
}

// blurHorizontal convolves rows of src into temp (RGBA float32).
func blurHorizontal(src *image.RGBA, temp []float32, width, height int, kernel []float32) {
	half := len(kernel) / 2
	for y := 0; y < height; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+width*4]
		for x := 0; x < width; x++ {
			var r, g, b, a float32
			for k, weight := range kernel {
				kx := clampInt(x+k-half, 0, width-1)
				i := kx * 4
				r += float32(row[i+0]) * weight
				g += float32(row[i+1]) * weight
				b += float32(row[i+2]) * weight
				a += float32(row[i+3]) * weight
			}
			t := (y*width + x) * 4
			temp[t+0] = r
			temp[t+1] = g
			temp[t+2] = b
			temp[t+3] = a
		}
	}
}

// blurVertical convolves columns of temp into dst.
func blurVertical(temp []float32, dst *image.RGBA, width, height int, kernel []float32) {
	half := len(kernel) / 2
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var r, g, b, a float32
			for k, weight := range kernel {
				ky := clampInt(y+k-half, 0, height-1)
				t := (ky*width + x) * 4
				r += temp[t+0] * weight
				g += temp[t+1] * weight
				b += temp[t+2] * weight
				a += temp[t+3] * weight
			}
			a8 := clampUint8(a)
			i := y*dst.Stride + x*4
			// Rounding must not leave a color above its alpha.
			dst.Pix[i+0] = min(clampUint8(r), a8)
			dst.Pix[i+1] = min(clampUint8(g), a8)
			dst.Pix[i+2] = min(clampUint8(b), a8)
			dst.Pix[i+3] = a8
		}
	}
}

// floatBuffer wraps a slice for sync.Pool.
type floatBuffer struct {
	data []float32
}

var tempBufferPool = sync.Pool{
	New: func() any { return &floatBuffer{} },
}

// getTempBuffer returns a buffer of width*height*4 floats.
func getTempBuffer(width, height int) []float32 {
	size := width * height * 4
	fb := tempBufferPool.Get().(*floatBuffer)
	if cap(fb.data) < size {
		tempBufferPool.Put(fb)
		return make([]float32, size)
	}
	return fb.data[:size]
}

// putTempBuffer returns a buffer to the pool. Buffers above 64MB are
// dropped.
func putTempBuffer(buf []float32) {
	if cap(buf) <= 16*1024*1024 {
		tempBufferPool.Put(&floatBuffer{data: buf[:cap(buf)]})
	}
}

// clampInt clamps v to [lo, hi].
func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clampUint8 clamps a float32 to [0, 255] and rounds to nearest.
func clampUint8(v float32) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
