package uifirst

import "strings"

// Region is a set of pixels stored as disjoint rectangles.
// The zero value is an empty region.
type Region struct {
	rects []RectI
}

// NewRegion returns a region covering r.
func NewRegion(r RectI) Region {
	var rg Region
	rg.UnionRect(r)
	return rg
}

// UnionRect adds r to the region. Only the parts of r not already covered
// are stored, so the rectangles stay disjoint.
func (rg *Region) UnionRect(r RectI) {
	if r.IsEmpty() {
		return
	}
	pieces := []RectI{r}
	for _, have := range rg.rects {
		var next []RectI
		for _, p := range pieces {
			next = append(next, subtract(p, have)...)
		}
		pieces = next
		if len(pieces) == 0 {
			return
		}
	}
	rg.rects = append(rg.rects, pieces...)
}

// Union adds every rectangle of o to the region.
func (rg *Region) Union(o Region) {
	for _, r := range o.rects {
		rg.UnionRect(r)
	}
}

// IsEmpty reports whether the region covers no pixels.
func (rg Region) IsEmpty() bool { return len(rg.rects) == 0 }

// Rects returns a copy of the disjoint rectangles.
func (rg Region) Rects() []RectI {
	return append([]RectI(nil), rg.rects...)
}

// Area returns the exact number of covered pixels.
func (rg Region) Area() int64 {
	var a int64
	for _, r := range rg.rects {
		a += r.Area()
	}
	return a
}

// Bounds returns the bounding rectangle of the region.
func (rg Region) Bounds() RectI {
	var b RectI
	for _, r := range rg.rects {
		b = b.JoinRect(r)
	}
	return b
}

// Contains reports whether pixel (x, y) is covered.
func (rg Region) Contains(x, y int) bool {
	for _, r := range rg.rects {
		if x >= r.Left && x < r.Right() && y >= r.Top && y < r.Bottom() {
			return true
		}
	}
	return false
}

// Equal reports whether both regions cover the same pixels.
func (rg Region) Equal(o Region) bool {
	if rg.Area() != o.Area() {
		return false
	}
	for _, r := range rg.rects {
		var covered int64
		for _, q := range o.rects {
			covered += r.Intersect(q).Area()
		}
		if covered != r.Area() {
			return false
		}
	}
	return true
}

// IntersectRect returns the part of the region inside r.
func (rg Region) IntersectRect(r RectI) Region {
	var out Region
	for _, have := range rg.rects {
		if i := have.Intersect(r); !i.IsEmpty() {
			out.rects = append(out.rects, i)
		}
	}
	return out
}

// Intersect returns the pixels covered by both regions.
func (rg Region) Intersect(o Region) Region {
	var out Region
	for _, r := range o.rects {
		// Pieces from distinct rects of o are disjoint already.
		out.rects = append(out.rects, rg.IntersectRect(r).rects...)
	}
	return out
}

// Translate returns the region shifted by (dx, dy).
func (rg Region) Translate(dx, dy int) Region {
	out := Region{rects: make([]RectI, len(rg.rects))}
	for i, r := range rg.rects {
		r.Left += dx
		r.Top += dy
		out.rects[i] = r
	}
	return out
}

func (rg Region) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, r := range rg.rects {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(r.String())
	}
	sb.WriteByte('}')
	return sb.String()
}

// subtract returns up to four rectangles covering a minus b.
func subtract(a, b RectI) []RectI {
	if !a.Intersects(b) {
		return []RectI{a}
	}
	var out []RectI
	// Band above b.
	if b.Top > a.Top {
		out = append(out, RectI{Left: a.Left, Top: a.Top, Width: a.Width, Height: b.Top - a.Top})
	}
	// Band below b.
	if b.Bottom() < a.Bottom() {
		out = append(out, RectI{Left: a.Left, Top: b.Bottom(), Width: a.Width, Height: a.Bottom() - b.Bottom()})
	}
	top := max(a.Top, b.Top)
	bottom := min(a.Bottom(), b.Bottom())
	// Left and right of b within the shared band.
	if b.Left > a.Left {
		out = append(out, RectI{Left: a.Left, Top: top, Width: b.Left - a.Left, Height: bottom - top})
	}
	if b.Right() < a.Right() {
		out = append(out, RectI{Left: b.Right(), Top: top, Width: a.Right() - b.Right(), Height: bottom - top})
	}
	return out
}
