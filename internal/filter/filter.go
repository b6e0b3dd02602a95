package filter

import (
	"image"

	"github.com/gogpu/uifirst"
	"github.com/gogpu/uifirst/surface"
)

// Effect transforms a block of premultiplied pixels. The result has the
// same size as src and starts at the origin.
type Effect interface {
	Process(src *image.RGBA) *image.RGBA
}

// draw runs e over the pixels under a window and draws the result at dst.
// The canvas matrix is expected to be identity.
func draw(e Effect, c surface.Canvas, under surface.Image, dst uifirst.RectF) {
	if c == nil || under == nil {
		return
	}
	src := under.RGBA()
	if src == nil {
		uifirst.Logger().Error("filter: input has no CPU pixels", "width", under.Width(), "height", under.Height())
		return
	}
	if src.Bounds().Empty() {
		return
	}
	out := e.Process(src)
	c.DrawImage(surface.NewRasterImage(out, under.ImageInfo()), dst.Left, dst.Top, surface.SamplingNearest)
}

// Chain applies effects in order, feeding each one the previous output.
type Chain []Effect

// Process implements Effect.
func (ch Chain) Process(src *image.RGBA) *image.RGBA {
	out := src
	for _, e := range ch {
		if e != nil {
			out = e.Process(out)
		}
	}
	if out == src {
		out = surface.CopyRGBA(src, nil)
	}
	return out
}

// Apply implements surface.Filter.
func (ch Chain) Apply(c surface.Canvas, under surface.Image, dst uifirst.RectF) {
	draw(ch, c, under, dst)
}

// NewFrosted returns the usual behind-window material: a blur followed by
// a saturation boost.
func NewFrosted(radius float64, saturation float32) Chain {
	return Chain{NewBlur(radius), NewSaturation(saturation)}
}
