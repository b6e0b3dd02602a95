package uifirst

import "math"

// Matrix represents a 2D affine transformation matrix.
// It uses a 2x3 matrix in row-major order:
//
//	| a  b  c |
//	| d  e  f |
//
// This represents the transformation:
//
//	x' = a*x + b*y + c
//	y' = d*x + e*y + f
type Matrix struct {
	A, B, C float64
	D, E, F float64
}

// Identity returns the identity transformation matrix.
func Identity() Matrix {
	return Matrix{
		A: 1, B: 0, C: 0,
		D: 0, E: 1, F: 0,
	}
}

// Translate creates a translation matrix.
func Translate(x, y float64) Matrix {
	return Matrix{
		A: 1, B: 0, C: x,
		D: 0, E: 1, F: y,
	}
}

// Scale creates a scaling matrix.
func Scale(x, y float64) Matrix {
	return Matrix{
		A: x, B: 0, C: 0,
		D: 0, E: y, F: 0,
	}
}

// Multiply multiplies two matrices (m * other). The result applies other
// first, then m.
func (m Matrix) Multiply(other Matrix) Matrix {
	return Matrix{
		A: m.A*other.A + m.B*other.D,
		B: m.A*other.B + m.B*other.E,
		C: m.A*other.C + m.B*other.F + m.C,
		D: m.D*other.A + m.E*other.D,
		E: m.D*other.B + m.E*other.E,
		F: m.D*other.C + m.E*other.F + m.F,
	}
}

// TransformPoint applies the transformation to the point (x, y).
func (m Matrix) TransformPoint(x, y float64) (float64, float64) {
	return m.A*x + m.B*y + m.C, m.D*x + m.E*y + m.F
}

// MapRect maps r through m and returns the axis-aligned bounds of the result.
func (m Matrix) MapRect(r RectF) RectF {
	x0, y0 := m.TransformPoint(r.Left, r.Top)
	x1, y1 := m.TransformPoint(r.Right, r.Top)
	x2, y2 := m.TransformPoint(r.Left, r.Bottom)
	x3, y3 := m.TransformPoint(r.Right, r.Bottom)
	return RectF{
		Left:   math.Min(math.Min(x0, x1), math.Min(x2, x3)),
		Top:    math.Min(math.Min(y0, y1), math.Min(y2, y3)),
		Right:  math.Max(math.Max(x0, x1), math.Max(x2, x3)),
		Bottom: math.Max(math.Max(y0, y1), math.Max(y2, y3)),
	}
}

// Invert returns the inverse matrix. The second result is false when m is
// singular or holds non-finite values; the returned matrix is then the
// identity and must not be used.
func (m Matrix) Invert() (Matrix, bool) {
	if !m.IsFinite() {
		return Identity(), false
	}
	det := m.A*m.E - m.B*m.D
	if math.Abs(det) < 1e-10 {
		return Identity(), false
	}

	invDet := 1.0 / det
	inv := Matrix{
		A: m.E * invDet,
		B: -m.B * invDet,
		C: (m.B*m.F - m.C*m.E) * invDet,
		D: -m.D * invDet,
		E: m.A * invDet,
		F: (m.C*m.D - m.A*m.F) * invDet,
	}
	if !inv.IsFinite() {
		return Identity(), false
	}
	return inv, true
}

// IsFinite reports whether every component is a finite number.
func (m Matrix) IsFinite() bool {
	for _, v := range [6]float64{m.A, m.B, m.C, m.D, m.E, m.F} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// IsIdentity returns true if the matrix is the identity matrix.
func (m Matrix) IsIdentity() bool {
	return m.A == 1 && m.B == 0 && m.C == 0 &&
		m.D == 0 && m.E == 1 && m.F == 0
}

// IsTranslation returns true if the matrix is only a translation.
func (m Matrix) IsTranslation() bool {
	return m.A == 1 && m.B == 0 && m.D == 0 && m.E == 1
}

// ScaleX returns the horizontal scale component.
func (m Matrix) ScaleX() float64 { return m.A }

// ScaleY returns the vertical scale component.
func (m Matrix) ScaleY() float64 { return m.E }

// TransX returns the horizontal translation component.
func (m Matrix) TransX() float64 { return m.C }

// TransY returns the vertical translation component.
func (m Matrix) TransY() float64 { return m.F }
