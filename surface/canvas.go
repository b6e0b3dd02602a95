// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/uifirst"
)

// MaxStencilValue is the largest stencil value a RasterCanvas accepts.
const MaxStencilValue int64 = 255

type canvasState struct {
	matrix uifirst.Matrix
	alpha  float64
	clip   *uifirst.Region // nil means the whole canvas
}

// RasterCanvas draws into an *image.RGBA. It is the canvas of every surface
// in this module; GPU surfaces use it as their staging canvas.
//
// RasterCanvas is not safe for concurrent use.
type RasterCanvas struct {
	dst     *image.RGBA
	surface Surface
	api     GPUAPI

	state canvasState
	stack []canvasState

	stencilVal int64
	stencil    []uint32

	cfg    Config
	behind *BehindWindowData
	flush  func() error
}

// NewRasterCanvas returns a canvas drawing into dst.
func NewRasterCanvas(dst *image.RGBA) *RasterCanvas {
	return &RasterCanvas{
		dst:        dst,
		state:      canvasState{matrix: uifirst.Identity(), alpha: 1},
		stencilVal: uifirst.InvalidStencilVal,
	}
}

// NewSurfaceCanvas returns a canvas drawing into dst on behalf of owner.
// flush, when non-nil, runs on Flush; GPU surfaces use it to upload.
func NewSurfaceCanvas(dst *image.RGBA, owner Surface, api GPUAPI, flush func() error) *RasterCanvas {
	c := NewRasterCanvas(dst)
	c.surface = owner
	c.api = api
	c.flush = flush
	return c
}

// Target returns the destination pixels.
func (c *RasterCanvas) Target() *image.RGBA { return c.dst }

func (c *RasterCanvas) Width() int       { return c.dst.Bounds().Dx() }
func (c *RasterCanvas) Height() int      { return c.dst.Bounds().Dy() }
func (c *RasterCanvas) Surface() Surface { return c.surface }
func (c *RasterCanvas) API() GPUAPI      { return c.api }

// Clear fills the clip area with col using source copy.
func (c *RasterCanvas) Clear(col color.Color) {
	src := image.NewUniform(col)
	for _, r := range c.clipRects() {
		xdraw.Draw(c.dst, r, src, image.Point{}, xdraw.Src)
	}
}

// DrawImage draws img with its top-left corner at (x, y).
func (c *RasterCanvas) DrawImage(img Image, x, y float64, s Sampling) {
	c.drawImage(img, x, y, s, nil)
}

// DrawImageWithStencil draws img where the stencil plane value lies in r.
// Without a stencil plane every pixel has value zero.
func (c *RasterCanvas) DrawImageWithStencil(img Image, x, y float64, s Sampling, r StencilRange) {
	c.drawImage(img, x, y, s, &r)
}

func (c *RasterCanvas) drawImage(img Image, x, y float64, s Sampling, stencil *StencilRange) {
	if img == nil {
		return
	}
	src := img.RGBA()
	if src == nil {
		return
	}
	m := c.state.matrix.Multiply(uifirst.Translate(x, y))

	// Integer translations without masking take the plain compositing path.
	if m.IsTranslation() && isInt(m.C) && isInt(m.F) && stencil == nil && c.state.alpha >= 1 {
		off := image.Pt(int(m.C), int(m.F))
		sb := src.Bounds()
		dr := sb.Sub(sb.Min).Add(off)
		for _, clip := range c.clipRects() {
			r := dr.Intersect(clip)
			if r.Empty() {
				continue
			}
			xdraw.Draw(c.dst, r, src, sb.Min.Add(r.Min.Sub(off)), xdraw.Over)
		}
		return
	}

	var interp xdraw.Interpolator = xdraw.NearestNeighbor
	if s == SamplingLinear {
		interp = xdraw.ApproxBiLinear
	}
	sb := src.Bounds()
	s2d := m.Multiply(uifirst.Translate(-float64(sb.Min.X), -float64(sb.Min.Y)))
	aff := f64.Aff3{s2d.A, s2d.B, s2d.C, s2d.D, s2d.E, s2d.F}
	interp.Transform(c.dst, aff, src, sb, xdraw.Over, &xdraw.Options{
		DstMask: c.mask(stencil),
	})
}

// DrawRect fills r blended over existing pixels.
func (c *RasterCanvas) DrawRect(r uifirst.RectF, col color.Color) {
	dev := c.state.matrix.MapRect(r)
	if !dev.IsFinite() || dev.IsEmpty() {
		return
	}
	dr := rectToImage(dev.RoundOut())
	src := image.NewUniform(col)
	alpha := image.NewUniform(color.Alpha16{A: uint16(c.state.alpha * 0xffff)})
	for _, clip := range c.clipRects() {
		rr := dr.Intersect(clip)
		if rr.Empty() {
			continue
		}
		xdraw.DrawMask(c.dst, rr, src, image.Point{}, alpha, image.Point{}, xdraw.Over)
	}
}

// DrawText draws text with the built-in bitmap face.
func (c *RasterCanvas) DrawText(text string, x, y float64, col color.Color) {
	dx, dy := c.state.matrix.TransformPoint(x, y)
	d := font.Drawer{
		Dst:  c.dst,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(int(dx), int(dy)),
	}
	d.DrawString(text)
}

func (c *RasterCanvas) Save() int {
	n := c.SaveCount()
	st := c.state
	if st.clip != nil {
		cp := *st.clip
		st.clip = &cp
	}
	c.stack = append(c.stack, st)
	return n
}

func (c *RasterCanvas) Restore() {
	if len(c.stack) == 0 {
		return
	}
	c.state = c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
}

func (c *RasterCanvas) SaveCount() int { return len(c.stack) + 1 }

func (c *RasterCanvas) RestoreToCount(n int) {
	for c.SaveCount() > max(n, 1) {
		c.Restore()
	}
}

func (c *RasterCanvas) Translate(dx, dy float64) {
	c.state.matrix = c.state.matrix.Multiply(uifirst.Translate(dx, dy))
}

func (c *RasterCanvas) Scale(sx, sy float64) {
	c.state.matrix = c.state.matrix.Multiply(uifirst.Scale(sx, sy))
}

func (c *RasterCanvas) ConcatMatrix(m uifirst.Matrix) {
	c.state.matrix = c.state.matrix.Multiply(m)
}

func (c *RasterCanvas) SetMatrix(m uifirst.Matrix)  { c.state.matrix = m }
func (c *RasterCanvas) TotalMatrix() uifirst.Matrix { return c.state.matrix }
func (c *RasterCanvas) MultiplyAlpha(a float64)     { c.state.alpha *= clamp01(a) }
func (c *RasterCanvas) Alpha() float64              { return c.state.alpha }
func (c *RasterCanvas) StencilVal() int64           { return c.stencilVal }
func (c *RasterCanvas) SetStencilVal(v int64)       { c.stencilVal = v }
func (c *RasterCanvas) MaxStencilVal() int64        { return MaxStencilValue }
func (c *RasterCanvas) Config() Config              { return c.cfg }
func (c *RasterCanvas) SetConfig(cfg Config)        { c.cfg = cfg }

func (c *RasterCanvas) CacheBehindWindowData() *BehindWindowData     { return c.behind }
func (c *RasterCanvas) SetCacheBehindWindowData(d *BehindWindowData) { c.behind = d }

// ClipRect intersects the clip with the device bounds of r.
func (c *RasterCanvas) ClipRect(r uifirst.RectF) {
	dev := c.state.matrix.MapRect(r)
	if !dev.IsFinite() {
		return
	}
	c.clipTo(uifirst.NewRegion(dev.RoundOut()))
}

// ClipRegion intersects the clip with rg, given in device pixels.
func (c *RasterCanvas) ClipRegion(rg uifirst.Region) {
	c.clipTo(rg)
}

func (c *RasterCanvas) clipTo(rg uifirst.Region) {
	var next uifirst.Region
	if c.state.clip == nil {
		next = rg.IntersectRect(c.bounds())
	} else {
		next = c.state.clip.Intersect(rg)
	}
	c.state.clip = &next
}

// DeviceClipBounds returns the bounds of the clip in device pixels.
func (c *RasterCanvas) DeviceClipBounds() uifirst.RectI {
	if c.state.clip == nil {
		return c.bounds()
	}
	return c.state.clip.Bounds()
}

func (c *RasterCanvas) Flush() error {
	if c.flush != nil {
		return c.flush()
	}
	return nil
}

// EnableStencilPlane allocates a per-pixel stencil plane set to zero.
func (c *RasterCanvas) EnableStencilPlane() {
	if c.stencil == nil {
		c.stencil = make([]uint32, c.Width()*c.Height())
	}
}

// FillStencil writes v into the stencil plane inside r.
func (c *RasterCanvas) FillStencil(r uifirst.RectI, v uint32) {
	c.EnableStencilPlane()
	r = r.Intersect(c.bounds())
	w := c.Width()
	for y := r.Top; y < r.Bottom(); y++ {
		row := c.stencil[y*w : (y+1)*w]
		for x := r.Left; x < r.Right(); x++ {
			row[x] = v
		}
	}
}

func (c *RasterCanvas) bounds() uifirst.RectI {
	return uifirst.RectI{Width: c.Width(), Height: c.Height()}
}

func (c *RasterCanvas) clipRects() []image.Rectangle {
	if c.state.clip == nil {
		return []image.Rectangle{c.dst.Bounds()}
	}
	rects := c.state.clip.Rects()
	out := make([]image.Rectangle, len(rects))
	for i, r := range rects {
		out[i] = rectToImage(r)
	}
	return out
}

// mask returns the destination mask combining clip, alpha and stencil, or
// nil when nothing restricts drawing.
func (c *RasterCanvas) mask(stencil *StencilRange) image.Image {
	if c.state.clip == nil && stencil == nil {
		if c.state.alpha >= 1 {
			return nil
		}
		return image.NewUniform(color.Alpha16{A: uint16(c.state.alpha * 0xffff)})
	}
	a := uint8(math.Round(c.state.alpha * 255))
	m := image.NewAlpha(c.dst.Bounds())
	w := c.Width()
	for _, r := range c.clipRects() {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				if stencil != nil {
					var v uint32
					if c.stencil != nil {
						v = c.stencil[y*w+x]
					}
					if !stencil.Contains(v) {
						continue
					}
				}
				m.Pix[m.PixOffset(x, y)] = a
			}
		}
	}
	return m
}

func rectToImage(r uifirst.RectI) image.Rectangle {
	return image.Rect(r.Left, r.Top, r.Right(), r.Bottom())
}

func isInt(v float64) bool { return v == math.Trunc(v) }

func clamp01(a float64) float64 {
	switch {
	case math.IsNaN(a) || a < 0:
		return 0
	case a > 1:
		return 1
	}
	return a
}
