package gr

import (
	"math"

	"github.com/gogpu/gr/geom"
)

// PathElement represents a single element in a path.
type PathElement interface {
	isPathElement()
}

// MoveTo starts a new contour.
type MoveTo struct {
	Point geom.Point
}

func (MoveTo) isPathElement() {}

// LineTo adds a straight segment.
type LineTo struct {
	Point geom.Point
}

func (LineTo) isPathElement() {}

// QuadTo adds a quadratic Bezier curve.
type QuadTo struct {
	Control geom.Point
	Point   geom.Point
}

func (QuadTo) isPathElement() {}

// CubicTo adds a cubic Bezier curve.
type CubicTo struct {
	Control1 geom.Point
	Control2 geom.Point
	Point    geom.Point
}

func (CubicTo) isPathElement() {}

// Close closes the current contour.
type Close struct{}

func (Close) isPathElement() {}

// Path is a sequence of contours in local coordinates.
type Path struct {
	elements []PathElement
	start    geom.Point
	current  geom.Point
}

// NewPath creates a new empty path.
func NewPath() *Path {
	return &Path{
		elements: make([]PathElement, 0, 16),
	}
}

// MoveTo starts a new contour at (x, y).
func (p *Path) MoveTo(x, y float64) {
	pt := geom.Pt(x, y)
	p.elements = append(p.elements, MoveTo{Point: pt})
	p.start = pt
	p.current = pt
}

// LineTo adds a line to (x, y). Without a current point it acts as MoveTo.
func (p *Path) LineTo(x, y float64) {
	if len(p.elements) == 0 {
		p.MoveTo(x, y)
		return
	}
	pt := geom.Pt(x, y)
	p.elements = append(p.elements, LineTo{Point: pt})
	p.current = pt
}

// QuadraticTo adds a quadratic Bezier curve.
func (p *Path) QuadraticTo(cx, cy, x, y float64) {
	if len(p.elements) == 0 {
		p.MoveTo(cx, cy)
	}
	pt := geom.Pt(x, y)
	p.elements = append(p.elements, QuadTo{Control: geom.Pt(cx, cy), Point: pt})
	p.current = pt
}

// CubicTo adds a cubic Bezier curve.
func (p *Path) CubicTo(c1x, c1y, c2x, c2y, x, y float64) {
	if len(p.elements) == 0 {
		p.MoveTo(c1x, c1y)
	}
	pt := geom.Pt(x, y)
	p.elements = append(p.elements, CubicTo{
		Control1: geom.Pt(c1x, c1y),
		Control2: geom.Pt(c2x, c2y),
		Point:    pt,
	})
	p.current = pt
}

// Close closes the current contour by drawing a line to its start point.
func (p *Path) Close() {
	if len(p.elements) == 0 {
		return
	}
	p.elements = append(p.elements, Close{})
	p.current = p.start
}

// Clear removes all elements from the path.
func (p *Path) Clear() {
	p.elements = p.elements[:0]
	p.start = geom.Point{}
	p.current = geom.Point{}
}

// Elements returns the path elements.
func (p *Path) Elements() []PathElement {
	return p.elements
}

// IsEmpty reports whether the path has no elements.
func (p *Path) IsEmpty() bool {
	return len(p.elements) == 0
}

// Transform returns the path mapped through m.
func (p *Path) Transform(m geom.Matrix) *Path {
	result := NewPath()
	for _, elem := range p.elements {
		switch e := elem.(type) {
		case MoveTo:
			pt := m.TransformPoint(e.Point)
			result.MoveTo(pt.X, pt.Y)
		case LineTo:
			pt := m.TransformPoint(e.Point)
			result.LineTo(pt.X, pt.Y)
		case QuadTo:
			ctrl := m.TransformPoint(e.Control)
			pt := m.TransformPoint(e.Point)
			result.QuadraticTo(ctrl.X, ctrl.Y, pt.X, pt.Y)
		case CubicTo:
			c1 := m.TransformPoint(e.Control1)
			c2 := m.TransformPoint(e.Control2)
			pt := m.TransformPoint(e.Point)
			result.CubicTo(c1.X, c1.Y, c2.X, c2.Y, pt.X, pt.Y)
		case Close:
			result.Close()
		}
	}
	return result
}

// Bounds returns the bounds of every point of the path, control points
// included. The empty path has empty bounds.
func (p *Path) Bounds() geom.Rect {
	if len(p.elements) == 0 {
		return geom.Rect{}
	}
	b := geom.Rect{Left: math.Inf(1), Top: math.Inf(1), Right: math.Inf(-1), Bottom: math.Inf(-1)}
	add := func(q geom.Point) {
		b.Left = math.Min(b.Left, q.X)
		b.Top = math.Min(b.Top, q.Y)
		b.Right = math.Max(b.Right, q.X)
		b.Bottom = math.Max(b.Bottom, q.Y)
	}
	for _, elem := range p.elements {
		switch e := elem.(type) {
		case MoveTo:
			add(e.Point)
		case LineTo:
			add(e.Point)
		case QuadTo:
			add(e.Control)
			add(e.Point)
		case CubicTo:
			add(e.Control1)
			add(e.Control2)
			add(e.Point)
		}
	}
	return b
}

// Rectangle adds a closed rectangle contour.
func (p *Path) Rectangle(x, y, w, h float64) {
	p.MoveTo(x, y)
	p.LineTo(x+w, y)
	p.LineTo(x+w, y+h)
	p.LineTo(x, y+h)
	p.Close()
}

// Circle adds a circle using four cubic Bezier curves.
func (p *Path) Circle(cx, cy, r float64) {
	p.Ellipse(cx, cy, r, r)
}

// Ellipse adds an axis-aligned ellipse.
func (p *Path) Ellipse(cx, cy, rx, ry float64) {
	const k = 0.5522847498307936 // 4/3 * (sqrt(2) - 1)
	ox := rx * k
	oy := ry * k

	p.MoveTo(cx+rx, cy)
	p.CubicTo(cx+rx, cy+oy, cx+ox, cy+ry, cx, cy+ry)
	p.CubicTo(cx-ox, cy+ry, cx-rx, cy+oy, cx-rx, cy)
	p.CubicTo(cx-rx, cy-oy, cx-ox, cy-ry, cx, cy-ry)
	p.CubicTo(cx+ox, cy-ry, cx+rx, cy-oy, cx+rx, cy)
	p.Close()
}

// Clone creates a deep copy of the path.
func (p *Path) Clone() *Path {
	result := NewPath()
	result.elements = make([]PathElement, len(p.elements))
	copy(result.elements, p.elements)
	result.start = p.start
	result.current = p.current
	return result
}

// Contour is one flattened contour.
type Contour struct {
	Points []geom.Point
	Closed bool
}

// maxCurveSegments caps the subdivision of one curve.
const maxCurveSegments = 256

// Flatten approximates every curve with line segments deviating at most
// tolerance from the curve and returns the contours. Contours with a single
// point are kept so hairlines can draw them as dots.
func (p *Path) Flatten(tolerance float64) []Contour {
	if tolerance <= 0 {
		tolerance = 0.25
	}
	var out []Contour
	var cur *Contour
	var last, start geom.Point

	begin := func(pt geom.Point) {
		out = append(out, Contour{Points: []geom.Point{pt}})
		cur = &out[len(out)-1]
		start, last = pt, pt
	}

	for _, elem := range p.elements {
		switch e := elem.(type) {
		case MoveTo:
			begin(e.Point)
		case LineTo:
			if cur == nil {
				begin(last)
			}
			cur.Points = append(cur.Points, e.Point)
			last = e.Point
		case QuadTo:
			if cur == nil {
				begin(last)
			}
			dd := last.Sub(e.Control.Mul(2)).Add(e.Point).Length()
			n := segments(0.25*dd, tolerance)
			for i := 1; i <= n; i++ {
				t := float64(i) / float64(n)
				a := last.Lerp(e.Control, t)
				b := e.Control.Lerp(e.Point, t)
				cur.Points = append(cur.Points, a.Lerp(b, t))
			}
			last = e.Point
		case CubicTo:
			if cur == nil {
				begin(last)
			}
			dd := math.Max(
				last.Sub(e.Control1.Mul(2)).Add(e.Control2).Length(),
				e.Control1.Sub(e.Control2.Mul(2)).Add(e.Point).Length(),
			)
			n := segments(0.75*dd, tolerance)
			for i := 1; i <= n; i++ {
				t := float64(i) / float64(n)
				cur.Points = append(cur.Points, cubicAt(last, e.Control1, e.Control2, e.Point, t))
			}
			last = e.Point
		case Close:
			if cur != nil {
				cur.Closed = true
				cur = nil
				last = start
			}
		}
	}
	return out
}

func segments(dev, tolerance float64) int {
	n := int(math.Ceil(math.Sqrt(dev / tolerance)))
	return max(1, min(n, maxCurveSegments))
}

func cubicAt(p0, p1, p2, p3 geom.Point, t float64) geom.Point {
	mt := 1 - t
	a := mt * mt * mt
	b := 3 * mt * mt * t
	c := 3 * mt * t * t
	d := t * t * t
	return geom.Point{
		X: a*p0.X + b*p1.X + c*p2.X + d*p3.X,
		Y: a*p0.Y + b*p1.Y + c*p2.Y + d*p3.Y,
	}
}

// isConvex reports whether the flattened contours form a single convex
// polygon, the case a plain triangle fan fills correctly.
func isConvex(contours []Contour) bool {
	if len(contours) != 1 {
		return false
	}
	pts := contours[0].Points
	if n := len(pts); n > 1 && pts[0] == pts[n-1] {
		pts = pts[:n-1]
	}
	n := len(pts)
	if n < 3 {
		return false
	}
	sign := 0.0
	turns := 0.0
	for i := range n {
		a, b, c := pts[i], pts[(i+1)%n], pts[(i+2)%n]
		e1, e2 := b.Sub(a), c.Sub(b)
		cross := e1.Cross(e2)
		if math.Abs(cross) < 1e-12 {
			continue
		}
		if sign == 0 {
			sign = math.Copysign(1, cross)
		} else if math.Copysign(1, cross) != sign {
			return false
		}
		turns += math.Atan2(cross, e1.X*e2.X+e1.Y*e2.Y)
	}
	// A star polygon turns consistently but more than once.
	return sign != 0 && math.Abs(turns) < 2*math.Pi+1e-6
}
