package uifirst

import (
	"fmt"
	"math"
)

// RectI is an integer rectangle in pixel space.
type RectI struct {
	Left, Top, Width, Height int
}

// Right returns the exclusive right edge.
func (r RectI) Right() int { return r.Left + r.Width }

// Bottom returns the exclusive bottom edge.
func (r RectI) Bottom() int { return r.Top + r.Height }

// IsEmpty reports whether r covers no pixels.
func (r RectI) IsEmpty() bool { return r.Width <= 0 || r.Height <= 0 }

// Area returns the pixel count covered by r.
func (r RectI) Area() int64 {
	if r.IsEmpty() {
		return 0
	}
	return int64(r.Width) * int64(r.Height)
}

// Intersects reports whether r and o share at least one pixel.
func (r RectI) Intersects(o RectI) bool {
	if r.IsEmpty() || o.IsEmpty() {
		return false
	}
	return r.Left < o.Right() && o.Left < r.Right() &&
		r.Top < o.Bottom() && o.Top < r.Bottom()
}

// Intersect returns the overlap of r and o, or the zero rect.
func (r RectI) Intersect(o RectI) RectI {
	if !r.Intersects(o) {
		return RectI{}
	}
	left := max(r.Left, o.Left)
	top := max(r.Top, o.Top)
	right := min(r.Right(), o.Right())
	bottom := min(r.Bottom(), o.Bottom())
	return RectI{Left: left, Top: top, Width: right - left, Height: bottom - top}
}

// JoinRect returns the bounding rectangle of r and o. Empty operands are
// ignored.
func (r RectI) JoinRect(o RectI) RectI {
	if o.IsEmpty() {
		return r
	}
	if r.IsEmpty() {
		return o
	}
	left := min(r.Left, o.Left)
	top := min(r.Top, o.Top)
	right := max(r.Right(), o.Right())
	bottom := max(r.Bottom(), o.Bottom())
	return RectI{Left: left, Top: top, Width: right - left, Height: bottom - top}
}

// IsInsideOf reports whether r lies entirely within o.
func (r RectI) IsInsideOf(o RectI) bool {
	return r.Left >= o.Left && r.Top >= o.Top &&
		r.Right() <= o.Right() && r.Bottom() <= o.Bottom()
}

// ToRectF converts r to floating point edges.
func (r RectI) ToRectF() RectF {
	return RectF{
		Left:   float64(r.Left),
		Top:    float64(r.Top),
		Right:  float64(r.Right()),
		Bottom: float64(r.Bottom()),
	}
}

func (r RectI) String() string {
	return fmt.Sprintf("[%d, %d, %d, %d]", r.Left, r.Top, r.Width, r.Height)
}

// RectF is a floating point rectangle given by its edges.
type RectF struct {
	Left, Top, Right, Bottom float64
}

// NewRectF builds a RectF from an origin and a size.
func NewRectF(x, y, w, h float64) RectF {
	return RectF{Left: x, Top: y, Right: x + w, Bottom: y + h}
}

// Width returns the horizontal extent.
func (r RectF) Width() float64 { return r.Right - r.Left }

// Height returns the vertical extent.
func (r RectF) Height() float64 { return r.Bottom - r.Top }

// IsEmpty reports whether r has no area.
func (r RectF) IsEmpty() bool { return !(r.Right > r.Left && r.Bottom > r.Top) }

// IsFinite reports whether all edges are finite.
func (r RectF) IsFinite() bool {
	for _, v := range [4]float64{r.Left, r.Top, r.Right, r.Bottom} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Offset returns r translated by (dx, dy).
func (r RectF) Offset(dx, dy float64) RectF {
	return RectF{Left: r.Left + dx, Top: r.Top + dy, Right: r.Right + dx, Bottom: r.Bottom + dy}
}

// RoundOut returns the smallest integer rectangle containing r.
func (r RectF) RoundOut() RectI {
	left := int(math.Floor(r.Left))
	top := int(math.Floor(r.Top))
	right := int(math.Ceil(r.Right))
	bottom := int(math.Ceil(r.Bottom))
	return RectI{Left: left, Top: top, Width: right - left, Height: bottom - top}
}

func (r RectF) String() string {
	return fmt.Sprintf("[%.1f, %.1f, %.1f, %.1f]", r.Left, r.Top, r.Width(), r.Height())
}
