// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package drawable

import (
	"image/color"

	"github.com/gogpu/uifirst"
	"github.com/gogpu/uifirst/surface"
)

// Painter replays one slot of a node's paint list.
type Painter interface {
	// Paint draws into c. bounds is the node's content rectangle in the
	// canvas's current space.
	Paint(c surface.Canvas, bounds uifirst.RectF)
}

// PainterFunc adapts a function to Painter.
type PainterFunc func(c surface.Canvas, bounds uifirst.RectF)

// Paint calls f.
func (f PainterFunc) Paint(c surface.Canvas, bounds uifirst.RectF) { f(c, bounds) }

// SolidPainter fills the whole bounds with one color.
type SolidPainter struct {
	Color color.Color
}

// Paint fills bounds.
func (p *SolidPainter) Paint(c surface.Canvas, bounds uifirst.RectF) {
	c.DrawRect(bounds, p.Color)
}

// RectPainter fills a rectangle given relative to the bounds origin.
type RectPainter struct {
	Rect  uifirst.RectF
	Color color.Color
}

// Paint fills the rectangle offset by the bounds origin.
func (p *RectPainter) Paint(c surface.Canvas, bounds uifirst.RectF) {
	c.DrawRect(p.Rect.Offset(bounds.Left, bounds.Top), p.Color)
}

// ImagePainter draws an image at the bounds origin.
type ImagePainter struct {
	Image surface.Image
}

// Paint draws the image.
func (p *ImagePainter) Paint(c surface.Canvas, bounds uifirst.RectF) {
	c.DrawImage(p.Image, bounds.Left, bounds.Top, surface.SamplingLinear)
}

// TextPainter draws a line of text with its baseline at (X, Y) from the
// bounds origin.
type TextPainter struct {
	Text  string
	X, Y  float64
	Color color.Color
}

// Paint draws the text.
func (p *TextPainter) Paint(c surface.Canvas, bounds uifirst.RectF) {
	c.DrawText(p.Text, bounds.Left+p.X, bounds.Top+p.Y, p.Color)
}

// Group paints its members in order.
type Group []Painter

// Paint paints every non-nil member.
func (g Group) Paint(c surface.Canvas, bounds uifirst.RectF) {
	for _, p := range g {
		if p != nil {
			p.Paint(c, bounds)
		}
	}
}

// Paint is the paint list of a node split into the slots the compositor
// draws separately.
type Paint struct {
	// Shadow and Background form the leash window background, drawn under
	// the cache image on the render thread.
	Shadow     Painter
	Background Painter
	// Content is baked into the cache image.
	Content    Painter
	Foreground Painter
	// Watermark is tiled over the window after the cache image.
	Watermark Painter
	// Behind is the effect applied to what lies under the window.
	Behind surface.Filter
}

// paint runs p when it is set and reports whether it ran.
func paint(p Painter, c surface.Canvas, bounds uifirst.RectF) int {
	if p == nil {
		return 0
	}
	p.Paint(c, bounds)
	return 1
}
