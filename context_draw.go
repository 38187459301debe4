package gr

import (
	"math"

	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/geom"
	"github.com/gogpu/gr/internal/logging"
	"github.com/gogpu/gr/recording"
)

// Clear fills rect of the current render target (all of it when rect is
// nil) with color, ignoring the clip and the blend.
func (c *Context) Clear(rect *geom.IRect, color device.Color) {
	t := c.prepareToDraw(recording.Buffered)
	if t == nil {
		return
	}
	t.Clear(c.rt, rect, color)
}

// DrawPaint fills the whole render target, inside the clip, with paint.
func (c *Context) DrawPaint(paint *Paint) {
	if c.rt == nil {
		return
	}
	inv, ok := c.view.Invert()
	if !ok {
		logging.L().Debug("gr: drawPaint with singular matrix")
		return
	}
	r := inv.MapRect(geom.RectWH(float64(c.rt.Width()), float64(c.rt.Height())))
	p := *paint
	p.AntiAlias = false
	c.DrawRect(&p, r, -1, nil)
}

// DrawRect draws rect with paint. A negative strokeWidth fills, zero draws
// a hairline, and a positive width strokes. matrix, when non-nil, applies to
// rect (and to the paint's texture coordinates) before the view matrix.
func (c *Context) DrawRect(paint *Paint, rect geom.Rect, strokeWidth float64, matrix *geom.Matrix) {
	t := c.prepareToDraw(recording.Buffered)
	if t == nil {
		return
	}
	rect = rect.Sort()
	st := c.drawState(paint)
	combined := c.view
	if matrix != nil {
		combined = combined.PreConcat(*matrix)
	}

	if c.applyAAToRect(paint, &st, combined, strokeWidth) {
		inv, _ := combined.Invert()
		devRect := combined.MapRect(rect)
		st.PreConcatStageMatrices(paint.StageMask(), inv)
		st.ViewMatrix = geom.Identity()
		if strokeWidth > 0 {
			devStroke := geom.Pt(strokeWidth*math.Hypot(combined.A, combined.D), strokeWidth*math.Hypot(combined.B, combined.E))
			c.strokeAARect(t, &st, devRect, devStroke)
		} else {
			c.fillAARect(t, &st, devRect)
		}
		return
	}

	if matrix != nil {
		st.ViewMatrix = combined
		st.PreConcatStageMatrices(paint.StageMask(), *matrix)
	}

	switch {
	case strokeWidth == 0:
		pts := device.RectFan(rect)
		t.Draw(&st, &device.Geometry{
			Primitive: device.LineStrip,
			Positions: append(pts, pts[0]),
		})
	case strokeWidth > 0 && rect.Width() > strokeWidth && rect.Height() > strokeWidth:
		t.Draw(&st, &device.Geometry{
			Primitive: device.TriangleStrip,
			Positions: strokeRectStrip(rect, strokeWidth/2),
		})
	default:
		if strokeWidth > 0 {
			rect = rect.Inset(-strokeWidth/2, -strokeWidth/2)
		}
		t.Draw(&st, &device.Geometry{
			Primitive: device.TriangleFan,
			Positions: device.RectFan(rect),
		})
	}
}

// applyAAToRect reports whether a rect draw takes the coverage geometry
// path: the paint asks for AA, the device has per-vertex coverage, the rect
// stays axis aligned and the blend can absorb coverage.
func (c *Context) applyAAToRect(paint *Paint, st *device.DrawState, m geom.Matrix, strokeWidth float64) bool {
	if !paint.AntiAlias || strokeWidth == 0 || !c.caps.SupportsPerVertexCoverage {
		return false
	}
	if st.RenderTarget.IsMultisampled() {
		return false
	}
	if !paint.Blend.CanTweakAlphaForCoverage() && !st.CanDisableBlend() {
		return false
	}
	if !m.RectStaysRect() {
		return false
	}
	_, ok := m.Invert()
	return ok
}

// strokeRectStrip returns the ten-vertex strip of a stroked rect with half
// width rad.
func strokeRectStrip(r geom.Rect, rad float64) []geom.Point {
	o := r.Inset(-rad, -rad)
	i := r.Inset(rad, rad)
	return []geom.Point{
		{X: o.Left, Y: o.Top}, {X: i.Left, Y: i.Top},
		{X: o.Right, Y: o.Top}, {X: i.Right, Y: i.Top},
		{X: o.Right, Y: o.Bottom}, {X: i.Right, Y: i.Bottom},
		{X: o.Left, Y: o.Bottom}, {X: i.Left, Y: i.Bottom},
		{X: o.Left, Y: o.Top}, {X: i.Left, Y: i.Top},
	}
}

// aaFillRectIndices triangulates two nested quads (outer ring at vertices
// 0-3, inner quad at 4-7): eight ring triangles and the inner quad.
func aaFillRectIndices() []uint16 {
	idx := ringIndices(0, 4)
	return append(idx, 4, 5, 6, 4, 6, 7)
}

// aaStrokeRectIndices triangulates four nested quads (vertices 0-15) as
// three rings.
func aaStrokeRectIndices() []uint16 {
	var idx []uint16
	for ring := uint16(0); ring < 3; ring++ {
		idx = append(idx, ringIndices(ring*4, ring*4+4)...)
	}
	return idx
}

// ringIndices returns the triangles between quad a and quad b.
func ringIndices(a, b uint16) []uint16 {
	idx := make([]uint16, 0, 24)
	for i := uint16(0); i < 4; i++ {
		j := (i + 1) % 4
		idx = append(idx, a+i, a+j, b+j, a+i, b+j, b+i)
	}
	return idx
}

// quad returns the corners of r in fan order.
func quad(r geom.Rect) []geom.Point {
	return device.RectFan(r)
}

// fillAARect draws devRect with a half-pixel coverage ramp on each edge.
// st has an identity view matrix.
func (c *Context) fillAARect(t device.Target, st *device.DrawState, devRect geom.Rect) {
	outer := devRect.Inset(-0.5, -0.5)
	inner := devRect.Inset(0.5, 0.5)
	cov := float32(1)
	if inner.Width() < 0 {
		cx := (devRect.Left + devRect.Right) / 2
		inner.Left, inner.Right = cx, cx
		cov *= float32(devRect.Width())
	}
	if inner.Height() < 0 {
		cy := (devRect.Top + devRect.Bottom) / 2
		inner.Top, inner.Bottom = cy, cy
		cov *= float32(devRect.Height())
	}
	pos := append(quad(outer), quad(inner)...)
	t.Draw(st, &device.Geometry{
		Primitive: device.Triangles,
		Positions: pos,
		Coverage:  []float32{0, 0, 0, 0, cov, cov, cov, cov},
		Indices:   c.aaFillIndices,
	})
}

// strokeAARect strokes devRect with device-space widths devStroke and a
// coverage ramp on both sides of the stroke.
func (c *Context) strokeAARect(t device.Target, st *device.DrawState, devRect geom.Rect, devStroke geom.Point) {
	rx, ry := devStroke.X/2, devStroke.Y/2
	if devRect.Width() <= 2*rx+1 || devRect.Height() <= 2*ry+1 {
		c.fillAARect(t, st, devRect.Inset(-rx, -ry))
		return
	}
	var pos []geom.Point
	pos = append(pos, quad(devRect.Inset(-rx-0.5, -ry-0.5))...)
	pos = append(pos, quad(devRect.Inset(-rx+0.5, -ry+0.5))...)
	pos = append(pos, quad(devRect.Inset(rx-0.5, ry-0.5))...)
	pos = append(pos, quad(devRect.Inset(rx+0.5, ry+0.5))...)
	t.Draw(st, &device.Geometry{
		Primitive: device.Triangles,
		Positions: pos,
		Coverage:  []float32{0, 0, 0, 0, 1, 1, 1, 1, 1, 1, 1, 1, 0, 0, 0, 0},
		Indices:   c.aaStrokeIndices,
	})
}

// DrawRectToRect draws dst filled with paint. Paint stage 0 samples at
// texture coordinates mapped from src (through srcMatrix, when non-nil)
// instead of at the local position; dstMatrix, when non-nil, applies to dst
// before the view matrix.
func (c *Context) DrawRectToRect(paint *Paint, dst, src geom.Rect, dstMatrix, srcMatrix *geom.Matrix) {
	if !paint.Stages[0].Enabled() {
		c.DrawRect(paint, dst, -1, dstMatrix)
		return
	}
	t := c.prepareToDraw(recording.Buffered)
	if t == nil {
		return
	}
	st := c.drawState(paint)
	if dstMatrix != nil {
		st.ViewMatrix = st.ViewMatrix.PreConcat(*dstMatrix)
		st.PreConcatStageMatrices(paint.StageMask()&^1, *dstMatrix)
	}
	st.Stages[0].UsePosition = false

	tex := device.RectFan(src.Sort())
	if srcMatrix != nil {
		for i, p := range tex {
			tex[i] = srcMatrix.TransformPoint(p)
		}
	}
	g := &device.Geometry{
		Primitive: device.TriangleFan,
		Positions: device.RectFan(dst.Sort()),
	}
	g.TexCoords[0] = tex
	t.Draw(&st, g)
}

// DrawVertices draws caller-supplied geometry with paint. texCoords, when
// non-nil, feed every enabled paint stage; colors, when non-nil, replace
// the paint color per vertex.
func (c *Context) DrawVertices(paint *Paint, prim device.Primitive, positions, texCoords []geom.Point, colors []device.Color, indices []uint16) {
	t := c.prepareToDraw(recording.Unbuffered)
	if t == nil || len(positions) == 0 {
		return
	}
	st := c.drawState(paint)
	g := &device.Geometry{
		Primitive: prim,
		Positions: positions,
		Colors:    colors,
		Indices:   indices,
	}
	if texCoords != nil {
		for i := range paint.Stages {
			if paint.Stages[i].Enabled() {
				g.TexCoords[i] = texCoords
			}
		}
	}
	t.Draw(&st, g)
}

// DrawPath draws path with paint and fill. translate, when non-nil, offsets
// the path in local space.
//
// Antialiased paths the selected path renderer cannot antialias go through
// the offscreen antialiasing pipeline; when that is unavailable they are
// drawn aliased.
func (c *Context) DrawPath(paint *Paint, path *Path, fill FillType, translate *geom.Point) {
	if path.IsEmpty() {
		if fill.IsInverse() {
			c.DrawPaint(paint)
		}
		return
	}
	t := c.prepareToDraw(recording.Unbuffered)
	if t == nil {
		return
	}
	st := c.drawState(paint)
	if translate != nil {
		m := geom.Translate(translate.X, translate.Y)
		st.ViewMatrix = st.ViewMatrix.PreConcat(m)
		st.PreConcatStageMatrices(paint.StageMask(), m)
	}

	pr := c.paths.Find(&st, path, fill, paint.AntiAlias)
	if pr == nil {
		logging.L().Warn("gr: no path renderer", "fill", fill)
		return
	}

	if paint.AntiAlias && !pr.SupportsAA(&st, path, fill) && c.doOffscreenAA(&st, paint, fill == FillHairline) {
		bound, ok := c.pathDeviceBound(&st, path, fill)
		if !ok {
			if fill.IsInverse() {
				c.fillOutside(t, &st, paint, geom.IRect{})
			}
			return
		}
		var rec offscreenRecord
		if c.prepareForOffscreenAA(pr.RequiresStencilPass(path, fill), bound, &rec) {
			for i := range rec.grid.Len() {
				tile := rec.grid.Tile(rec.grid.At(i))
				rec.tile = i
				p1 := c.setupOffscreenAAPass1(t, &st, tile, &rec)
				pr.DrawPath(t, &p1, path, fill)
				c.doOffscreenAAPass2(t, &st, paint, tile, &rec)
			}
			c.cleanupOffscreenAA(&rec)
			if fill.IsInverse() {
				c.fillOutside(t, &st, paint, bound)
			}
			return
		}
		logging.L().Debug("gr: offscreen AA unavailable, drawing aliased", "bound", bound)
	}

	if pr.RequiresStencilPass(path, fill) && !c.attachStencil(st.RenderTarget) {
		return
	}
	pr.DrawPath(t, &st, path, fill)
}

// pathDeviceBound returns the device-space bounds of path clipped to the
// render target and the clip. ok is false when nothing is visible.
func (c *Context) pathDeviceBound(st *device.DrawState, path *Path, fill FillType) (geom.IRect, bool) {
	clip := c.clipBounds(st)
	dev := st.ViewMatrix.MapRect(path.Bounds()).Inset(-1, -1).RoundOut()
	if fill == FillHairline {
		dev = dev.Inset(-1, -1)
	}
	return clip.Intersect(dev)
}

// clipBounds returns the render target bounds intersected with the clip.
func (c *Context) clipBounds(st *device.DrawState) geom.IRect {
	r := geom.IRectWH(st.RenderTarget.Width(), st.RenderTarget.Height())
	if st.Clip.Enabled {
		r, _ = r.Intersect(st.Clip.Rect)
	}
	return r
}

// fillOutside fills the part of the clip outside bound with paint, for
// inverse fills whose inside went through offscreen antialiasing.
func (c *Context) fillOutside(t device.Target, st *device.DrawState, paint *Paint, bound geom.IRect) {
	clip := c.clipBounds(st)
	inv, ok := st.ViewMatrix.Invert()
	if !ok {
		return
	}
	ds := *st
	ds.ViewMatrix = geom.Identity()
	ds.PreConcatStageMatrices(paint.StageMask(), inv)

	var rects []geom.IRect
	if bound.IsEmpty() {
		rects = append(rects, clip)
	} else {
		rects = append(rects,
			geom.IRect{Left: clip.Left, Top: clip.Top, Right: clip.Right, Bottom: bound.Top},
			geom.IRect{Left: clip.Left, Top: bound.Bottom, Right: clip.Right, Bottom: clip.Bottom},
			geom.IRect{Left: clip.Left, Top: bound.Top, Right: bound.Left, Bottom: bound.Bottom},
			geom.IRect{Left: bound.Right, Top: bound.Top, Right: clip.Right, Bottom: bound.Bottom},
		)
	}
	for _, r := range rects {
		if r.IsEmpty() {
			continue
		}
		t.Draw(&ds, &device.Geometry{Primitive: device.TriangleFan, Positions: device.RectFan(r.Rect())})
	}
}
