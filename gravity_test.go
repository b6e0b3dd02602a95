package uifirst

import (
	"math"
	"testing"
)

func TestGravityMatrix(t *testing.T) {
	frame := RectF{Left: 0, Top: 0, Right: 200, Bottom: 100}
	tests := []struct {
		g              Gravity
		sx, sy, tx, ty float64
	}{
		{GravityTopLeft, 1, 1, 0, 0},
		{GravityCenter, 1, 1, 50, 25},
		{GravityBottomRight, 1, 1, 100, 50},
		{GravityResize, 2, 2, 0, 0},
		{GravityResizeAspect, 2, 2, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.g.String(), func(t *testing.T) {
			m, ok := GravityMatrix(tt.g, frame, 100, 50)
			if !ok {
				t.Fatal("GravityMatrix() ok = false")
			}
			if m.ScaleX() != tt.sx || m.ScaleY() != tt.sy || m.TransX() != tt.tx || m.TransY() != tt.ty {
				t.Errorf("matrix = %+v, want scale (%v,%v) trans (%v,%v)", m, tt.sx, tt.sy, tt.tx, tt.ty)
			}
		})
	}

	if _, ok := GravityMatrix(GravityCenter, frame, 0, 10); ok {
		t.Error("GravityMatrix() with empty content ok = true")
	}
}

func TestCacheScale(t *testing.T) {
	gravity := Matrix{A: 0.5, E: 0.25, C: 3, F: 4}
	tests := []struct {
		name                       string
		imgW, imgH, boundW, boundH float64
		sx, sy, tx, ty             float64
	}{
		{"same size", 200, 100, 200, 100, 1, 1, 0, 0},
		{"uniform 2x", 100, 50, 200, 100, 2, 2, 0, 0},
		{"inside tolerance", 100, 100, 100.5, 100, 1.005, 1, 0, 0},
		{"outside tolerance", 100, 100, 200, 100, 0.5, 0.25, 3, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sx, sy, tx, ty := CacheScale(tt.imgW, tt.imgH, tt.boundW, tt.boundH, gravity, DefaultScaleTolerance)
			for _, pair := range [][2]float64{{sx, tt.sx}, {sy, tt.sy}, {tx, tt.tx}, {ty, tt.ty}} {
				if math.Abs(pair[0]-pair[1]) > 1e-9 {
					t.Errorf("CacheScale() = (%v %v %v %v), want (%v %v %v %v)",
						sx, sy, tx, ty, tt.sx, tt.sy, tt.tx, tt.ty)
					break
				}
			}
		})
	}
}
