// Package tiling splits a device-space rectangle into a row-major grid of
// tiles no larger than a given size.
package tiling

import "github.com/gogpu/gr/geom"

// Grid covers Bounds with CountX*CountY tiles of TileW x TileH. Tiles in the
// last row and column are clipped to Bounds.
type Grid struct {
	Bounds geom.IRect
	TileW  int
	TileH  int
	CountX int
	CountY int
}

// New returns the grid covering bounds with tiles of at most tileW x tileH.
// Non-positive tile sizes or empty bounds yield an empty grid.
func New(bounds geom.IRect, tileW, tileH int) Grid {
	g := Grid{Bounds: bounds, TileW: tileW, TileH: tileH}
	if bounds.IsEmpty() || tileW <= 0 || tileH <= 0 {
		return g
	}
	g.CountX = divRoundUp(bounds.Width(), tileW)
	g.CountY = divRoundUp(bounds.Height(), tileH)
	return g
}

func divRoundUp(n, d int) int {
	return (n + d - 1) / d
}

// Len returns the number of tiles.
func (g Grid) Len() int { return g.CountX * g.CountY }

// Tile returns tile (x, y) in device space.
func (g Grid) Tile(x, y int) geom.IRect {
	left := g.Bounds.Left + x*g.TileW
	top := g.Bounds.Top + y*g.TileH
	r := geom.IRect{Left: left, Top: top, Right: left + g.TileW, Bottom: top + g.TileH}
	if x == g.CountX-1 {
		r.Right = g.Bounds.Right
	}
	if y == g.CountY-1 {
		r.Bottom = g.Bounds.Bottom
	}
	return r
}

// At returns the coordinates of the i-th tile in row-major order.
func (g Grid) At(i int) (x, y int) {
	return i % g.CountX, i / g.CountX
}

// Each calls fn for every tile in row-major order and stops early when fn
// returns false.
func (g Grid) Each(fn func(x, y int, tile geom.IRect) bool) {
	for y := 0; y < g.CountY; y++ {
		for x := 0; x < g.CountX; x++ {
			if !fn(x, y, g.Tile(x, y)) {
				return
			}
		}
	}
}
