package geom

import "math"

// Rect is an axis-aligned rectangle with float coordinates.
// Left/Top are inclusive, Right/Bottom exclusive.
type Rect struct {
	Left, Top, Right, Bottom float64
}

// RectWH returns the rectangle (0, 0, w, h).
func RectWH(w, h float64) Rect {
	return Rect{Right: w, Bottom: h}
}

// RectLTRB returns a rectangle from its edges.
func RectLTRB(l, t, r, b float64) Rect {
	return Rect{Left: l, Top: t, Right: r, Bottom: b}
}

// Width returns Right - Left.
func (r Rect) Width() float64 { return r.Right - r.Left }

// Height returns Bottom - Top.
func (r Rect) Height() float64 { return r.Bottom - r.Top }

// IsEmpty reports whether the rectangle encloses no area.
func (r Rect) IsEmpty() bool {
	return !(r.Left < r.Right && r.Top < r.Bottom)
}

// Offset returns the rectangle translated by (dx, dy).
func (r Rect) Offset(dx, dy float64) Rect {
	return Rect{Left: r.Left + dx, Top: r.Top + dy, Right: r.Right + dx, Bottom: r.Bottom + dy}
}

// Inset returns the rectangle shrunk by dx horizontally and dy vertically
// on each side. Negative values grow it.
func (r Rect) Inset(dx, dy float64) Rect {
	return Rect{Left: r.Left + dx, Top: r.Top + dy, Right: r.Right - dx, Bottom: r.Bottom - dy}
}

// Sort swaps edges so that Left <= Right and Top <= Bottom.
func (r Rect) Sort() Rect {
	if r.Left > r.Right {
		r.Left, r.Right = r.Right, r.Left
	}
	if r.Top > r.Bottom {
		r.Top, r.Bottom = r.Bottom, r.Top
	}
	return r
}

// RoundOut returns the smallest integer rectangle containing r.
func (r Rect) RoundOut() IRect {
	return IRect{
		Left:   int(math.Floor(r.Left)),
		Top:    int(math.Floor(r.Top)),
		Right:  int(math.Ceil(r.Right)),
		Bottom: int(math.Ceil(r.Bottom)),
	}
}

// Corners returns the four corners in fan order: top-left, top-right,
// bottom-right, bottom-left.
func (r Rect) Corners() [4]Point {
	return [4]Point{
		{X: r.Left, Y: r.Top},
		{X: r.Right, Y: r.Top},
		{X: r.Right, Y: r.Bottom},
		{X: r.Left, Y: r.Bottom},
	}
}

// Union returns the smallest rectangle containing both. An empty operand is
// ignored.
func (r Rect) Union(o Rect) Rect {
	if r.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return r
	}
	return Rect{
		Left:   math.Min(r.Left, o.Left),
		Top:    math.Min(r.Top, o.Top),
		Right:  math.Max(r.Right, o.Right),
		Bottom: math.Max(r.Bottom, o.Bottom),
	}
}

// IRect is an axis-aligned rectangle with integer coordinates.
type IRect struct {
	Left, Top, Right, Bottom int
}

// IRectWH returns the rectangle (0, 0, w, h).
func IRectWH(w, h int) IRect {
	return IRect{Right: w, Bottom: h}
}

// IRectXYWH returns a rectangle from its origin and size.
func IRectXYWH(x, y, w, h int) IRect {
	return IRect{Left: x, Top: y, Right: x + w, Bottom: y + h}
}

// Width returns Right - Left.
func (r IRect) Width() int { return r.Right - r.Left }

// Height returns Bottom - Top.
func (r IRect) Height() int { return r.Bottom - r.Top }

// IsEmpty reports whether the rectangle encloses no pixels.
func (r IRect) IsEmpty() bool {
	return r.Left >= r.Right || r.Top >= r.Bottom
}

// Intersect returns the intersection and whether it is non-empty.
func (r IRect) Intersect(o IRect) (IRect, bool) {
	out := IRect{
		Left:   max(r.Left, o.Left),
		Top:    max(r.Top, o.Top),
		Right:  min(r.Right, o.Right),
		Bottom: min(r.Bottom, o.Bottom),
	}
	if out.IsEmpty() {
		return IRect{}, false
	}
	return out, true
}

// Contains reports whether o lies entirely inside r.
func (r IRect) Contains(o IRect) bool {
	return o.Left >= r.Left && o.Top >= r.Top && o.Right <= r.Right && o.Bottom <= r.Bottom
}

// ContainsPoint reports whether pixel (x, y) lies inside r.
func (r IRect) ContainsPoint(x, y int) bool {
	return x >= r.Left && x < r.Right && y >= r.Top && y < r.Bottom
}

// Inset returns the rectangle shrunk by dx horizontally and dy vertically
// on each side. Negative values grow it.
func (r IRect) Inset(dx, dy int) IRect {
	return IRect{Left: r.Left + dx, Top: r.Top + dy, Right: r.Right - dx, Bottom: r.Bottom - dy}
}

// Offset returns the rectangle translated by (dx, dy).
func (r IRect) Offset(dx, dy int) IRect {
	return IRect{Left: r.Left + dx, Top: r.Top + dy, Right: r.Right + dx, Bottom: r.Bottom + dy}
}

// Rect converts to a float rectangle.
func (r IRect) Rect() Rect {
	return Rect{Left: float64(r.Left), Top: float64(r.Top), Right: float64(r.Right), Bottom: float64(r.Bottom)}
}
