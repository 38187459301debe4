package geom

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
	return Matrix{A: 1, E: 1}
}

// Translate creates a translation matrix.
func Translate(x, y float64) Matrix {
	return Matrix{A: 1, C: x, E: 1, F: y}
}

// Scale creates a scaling matrix.
func Scale(x, y float64) Matrix {
	return Matrix{A: x, E: y}
}

// IDiv creates the matrix that maps (0..w, 0..h) to (0..1, 0..1).
func IDiv(w, h int) Matrix {
	return Scale(1/float64(w), 1/float64(h))
}

// Rotate creates a rotation matrix (angle in radians).
func Rotate(angle float64) Matrix {
	sin, cos := math.Sincos(angle)
	return Matrix{A: cos, B: -sin, D: sin, E: cos}
}

// Multiply multiplies two matrices (m * other): other is applied first.
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

// PreConcat returns m * other: other is applied before m.
func (m Matrix) PreConcat(other Matrix) Matrix {
	return m.Multiply(other)
}

// PostConcat returns other * m: other is applied after m.
func (m Matrix) PostConcat(other Matrix) Matrix {
	return other.Multiply(m)
}

// TransformPoint applies the transformation to a point.
func (m Matrix) TransformPoint(p Point) Point {
	return Point{
		X: m.A*p.X + m.B*p.Y + m.C,
		Y: m.D*p.X + m.E*p.Y + m.F,
	}
}

// TransformVector applies the transformation to a vector (no translation).
func (m Matrix) TransformVector(p Point) Point {
	return Point{
		X: m.A*p.X + m.B*p.Y,
		Y: m.D*p.X + m.E*p.Y,
	}
}

// MapRect returns the bounds of the transformed rectangle.
func (m Matrix) MapRect(r Rect) Rect {
	c := r.Corners()
	out := Rect{Left: math.Inf(1), Top: math.Inf(1), Right: math.Inf(-1), Bottom: math.Inf(-1)}
	for _, p := range c {
		q := m.TransformPoint(p)
		out.Left = math.Min(out.Left, q.X)
		out.Top = math.Min(out.Top, q.Y)
		out.Right = math.Max(out.Right, q.X)
		out.Bottom = math.Max(out.Bottom, q.Y)
	}
	return out
}

// Invert returns the inverse matrix and false when m is singular.
func (m Matrix) Invert() (Matrix, bool) {
	det := m.A*m.E - m.B*m.D
	if math.Abs(det) < 1e-12 {
		return Identity(), false
	}

	invDet := 1.0 / det
	return Matrix{
		A: m.E * invDet,
		B: -m.B * invDet,
		C: (m.B*m.F - m.C*m.E) * invDet,
		D: -m.D * invDet,
		E: m.A * invDet,
		F: (m.C*m.D - m.A*m.F) * invDet,
	}, true
}

// IsIdentity returns true if the matrix is the identity matrix.
func (m Matrix) IsIdentity() bool {
	return m == Identity()
}

// RectStaysRect reports whether axis-aligned rectangles map to axis-aligned
// rectangles (no rotation or skew).
func (m Matrix) RectStaysRect() bool {
	return (m.B == 0 && m.D == 0 && m.A != 0 && m.E != 0) ||
		(m.A == 0 && m.E == 0 && m.B != 0 && m.D != 0)
}
