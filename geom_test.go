package uifirst

import "testing"

func TestRectIOps(t *testing.T) {
	a := RectI{Left: 0, Top: 0, Width: 10, Height: 10}
	b := RectI{Left: 5, Top: 5, Width: 10, Height: 10}
	c := RectI{Left: 20, Top: 20, Width: 5, Height: 5}

	if !a.Intersects(b) {
		t.Error("a.Intersects(b) = false, want true")
	}
	if a.Intersects(c) {
		t.Error("a.Intersects(c) = true, want false")
	}
	if got, want := a.Intersect(b), (RectI{Left: 5, Top: 5, Width: 5, Height: 5}); got != want {
		t.Errorf("Intersect() = %v, want %v", got, want)
	}
	if got, want := a.JoinRect(c), (RectI{Left: 0, Top: 0, Width: 25, Height: 25}); got != want {
		t.Errorf("JoinRect() = %v, want %v", got, want)
	}
	if got := a.JoinRect(RectI{}); got != a {
		t.Errorf("JoinRect(empty) = %v, want %v", got, a)
	}
	if got := (RectI{}).JoinRect(c); got != c {
		t.Errorf("empty.JoinRect(c) = %v, want %v", got, c)
	}
	if !b.Intersect(a).IsInsideOf(a) {
		t.Error("intersection should lie inside a")
	}
	if c.IsInsideOf(a) {
		t.Error("c.IsInsideOf(a) = true, want false")
	}
}

func TestRoundOut(t *testing.T) {
	tests := []struct {
		in   RectF
		want RectI
	}{
		{RectF{0, 0, 10, 10}, RectI{0, 0, 10, 10}},
		{RectF{0.5, 0.5, 9.5, 9.5}, RectI{0, 0, 10, 10}},
		{RectF{-1.2, 2.9, 3.1, 4.0}, RectI{-2, 2, 6, 2}},
	}
	for _, tt := range tests {
		if got := tt.in.RoundOut(); got != tt.want {
			t.Errorf("%v.RoundOut() = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRegionUnion(t *testing.T) {
	tests := []struct {
		name     string
		rects    []RectI
		wantArea int64
	}{
		{"empty", nil, 0},
		{"disjoint", []RectI{{10, 10, 50, 50}, {100, 100, 20, 20}}, 2900},
		{"overlap", []RectI{{0, 0, 10, 10}, {5, 5, 10, 10}}, 175},
		{"contained", []RectI{{0, 0, 10, 10}, {2, 2, 3, 3}}, 100},
		{"covering", []RectI{{2, 2, 3, 3}, {0, 0, 10, 10}}, 100},
		{"duplicate", []RectI{{0, 0, 4, 4}, {0, 0, 4, 4}}, 16},
		{"empty operand", []RectI{{0, 0, 4, 4}, {1, 1, 0, 5}}, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rg Region
			for _, r := range tt.rects {
				rg.UnionRect(r)
			}
			if got := rg.Area(); got != tt.wantArea {
				t.Errorf("Area() = %d, want %d", got, tt.wantArea)
			}
			rects := rg.Rects()
			for i := range rects {
				for j := i + 1; j < len(rects); j++ {
					if rects[i].Intersects(rects[j]) {
						t.Errorf("rects %v and %v overlap", rects[i], rects[j])
					}
				}
			}
		})
	}
}

func TestRegionEqualAndContains(t *testing.T) {
	var a, b Region
	a.UnionRect(RectI{0, 0, 10, 10})
	a.UnionRect(RectI{5, 0, 10, 10})
	b.UnionRect(RectI{0, 0, 15, 10})
	if !a.Equal(b) {
		t.Errorf("%v.Equal(%v) = false, want true", a, b)
	}
	if !a.Contains(14, 9) || a.Contains(15, 0) {
		t.Error("Contains() disagrees with region bounds")
	}
	if got, want := a.Bounds(), (RectI{0, 0, 15, 10}); got != want {
		t.Errorf("Bounds() = %v, want %v", got, want)
	}
	moved := a.Translate(3, 4)
	if got, want := moved.Bounds(), (RectI{3, 4, 15, 10}); got != want {
		t.Errorf("Translate().Bounds() = %v, want %v", got, want)
	}
}
