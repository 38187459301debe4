package gr

import (
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/geom"
	"github.com/gogpu/gr/internal/logging"
)

// PathRenderer turns paths into device draws.
type PathRenderer interface {
	// CanDrawPath reports whether the renderer can draw path with fill.
	CanDrawPath(path *Path, fill FillType, antiAlias bool) bool

	// SupportsAA reports whether the renderer antialiases path itself when
	// drawn with st.
	SupportsAA(st *device.DrawState, path *Path, fill FillType) bool

	// RequiresStencilPass reports whether drawing path needs a stencil
	// buffer on the target.
	RequiresStencilPass(path *Path, fill FillType) bool

	// DrawPath draws path to t with st.
	DrawPath(t device.Target, st *device.DrawState, path *Path, fill FillType)
}

// PathRendererChain picks the first renderer able to draw a path.
type PathRendererChain struct {
	renderers []PathRenderer
}

// NewPathRendererChain returns a chain trying custom renderers first, then
// the built-in ones usable with caps.
func NewPathRendererChain(caps device.Caps, custom ...PathRenderer) *PathRendererChain {
	ch := &PathRendererChain{}
	ch.renderers = append(ch.renderers, custom...)
	if caps.SupportsPerVertexCoverage {
		ch.renderers = append(ch.renderers, &AAHairlinePathRenderer{})
	}
	ch.renderers = append(ch.renderers, &DefaultPathRenderer{})
	return ch
}

// Renderers returns the chain in lookup order.
func (ch *PathRendererChain) Renderers() []PathRenderer { return ch.renderers }

// Find returns the renderer for path. With aa set, a renderer that
// antialiases the path itself is preferred.
func (ch *PathRendererChain) Find(st *device.DrawState, path *Path, fill FillType, aa bool) PathRenderer {
	if aa {
		for _, pr := range ch.renderers {
			if pr.CanDrawPath(path, fill, aa) && pr.SupportsAA(st, path, fill) {
				return pr
			}
		}
	}
	for _, pr := range ch.renderers {
		if pr.CanDrawPath(path, fill, aa) {
			return pr
		}
	}
	return nil
}

// flattenTolerance is the maximum device-space deviation of flattened
// curves.
const flattenTolerance = 0.25

// matrixScale returns the larger axis scale of m.
func matrixScale(m geom.Matrix) float64 {
	sx := math.Hypot(m.A, m.D)
	sy := math.Hypot(m.B, m.E)
	s := math.Max(sx, sy)
	if s <= 0 || math.IsNaN(s) || math.IsInf(s, 0) {
		return 1
	}
	return s
}

// DefaultPathRenderer draws any path without antialiasing: convex fills as
// a fan, other fills with stencil-and-cover, hairlines as lines.
type DefaultPathRenderer struct{}

// CanDrawPath implements PathRenderer.
func (*DefaultPathRenderer) CanDrawPath(*Path, FillType, bool) bool { return true }

// SupportsAA implements PathRenderer.
func (*DefaultPathRenderer) SupportsAA(*device.DrawState, *Path, FillType) bool { return false }

// RequiresStencilPass implements PathRenderer.
func (*DefaultPathRenderer) RequiresStencilPass(path *Path, fill FillType) bool {
	if fill == FillHairline {
		return false
	}
	return fill.IsInverse() || !isConvex(path.Flatten(flattenTolerance))
}

// DrawPath implements PathRenderer.
func (dr *DefaultPathRenderer) DrawPath(t device.Target, st *device.DrawState, path *Path, fill FillType) {
	contours := path.Flatten(flattenTolerance / matrixScale(st.ViewMatrix))
	if len(contours) == 0 {
		return
	}

	if fill == FillHairline {
		g := &device.Geometry{Primitive: device.Lines}
		for _, ct := range contours {
			n := len(ct.Points)
			for i := 0; i+1 < n; i++ {
				g.Positions = append(g.Positions, ct.Points[i], ct.Points[i+1])
			}
			if ct.Closed && n > 2 {
				g.Positions = append(g.Positions, ct.Points[n-1], ct.Points[0])
			}
		}
		if len(g.Positions) > 0 {
			t.Draw(st, g)
		}
		return
	}

	if !fill.IsInverse() && isConvex(contours) {
		t.Draw(st, &device.Geometry{Primitive: device.TriangleFan, Positions: contours[0].Points})
		return
	}

	if st.RenderTarget.StencilBuffer() == nil {
		logging.L().Warn("gr: stencil-and-cover without stencil buffer", "fill", fill)
		return
	}
	dr.stencilPass(t, st, contours, fill)
	dr.coverPass(t, st, path, fill)
}

// stencilPass accumulates the winding number (or parity) of every pixel
// in the stencil buffer.
func (*DefaultPathRenderer) stencilPass(t device.Target, st *device.DrawState, contours []Contour, fill FillType) {
	ss := *st
	ss.ColorWriteDisabled = true
	ss.Stencil = device.StencilSettings{
		Enabled:   true,
		Compare:   gputypes.CompareFunctionAlways,
		ReadMask:  0xff,
		WriteMask: 0xff,
		FailOp:    gputypes.StencilOperationKeep,
	}
	if fill.NonInverse() == FillEvenOdd {
		ss.Stencil.PassOp = gputypes.StencilOperationInvert
		ss.Stencil.WriteMask = 1
	} else {
		ss.Stencil.PassOp = gputypes.StencilOperationIncrementWrap
		ss.Stencil.BackPassOp = gputypes.StencilOperationDecrementWrap
	}

	g := &device.Geometry{Primitive: device.Triangles}
	for _, ct := range contours {
		pts := ct.Points
		for i := 1; i+1 < len(pts); i++ {
			g.Positions = append(g.Positions, pts[0], pts[i], pts[i+1])
		}
	}
	if len(g.Positions) > 0 {
		t.Draw(&ss, g)
	}
}

// coverPass paints pixels with a nonzero stencil value (zero for inverse
// fills) and clears the stencil behind it.
func (*DefaultPathRenderer) coverPass(t device.Target, st *device.DrawState, path *Path, fill FillType) {
	cs := *st
	cs.Stencil = device.StencilSettings{
		Enabled:   true,
		Compare:   gputypes.CompareFunctionNotEqual,
		ReadMask:  0xff,
		WriteMask: 0xff,
		PassOp:    gputypes.StencilOperationZero,
		FailOp:    gputypes.StencilOperationZero,
	}
	if fill.NonInverse() == FillEvenOdd {
		cs.Stencil.ReadMask = 1
	}

	if !fill.IsInverse() {
		t.Draw(&cs, &device.Geometry{Primitive: device.TriangleFan, Positions: device.RectFan(path.Bounds())})
		return
	}

	inv, ok := st.ViewMatrix.Invert()
	if !ok {
		return
	}
	cs.Stencil.Compare = gputypes.CompareFunctionEqual
	cs.ViewMatrix = geom.Identity()
	cs.PreConcatStageMatrices(cs.StageMask(), inv)
	rt := geom.IRectWH(st.RenderTarget.Width(), st.RenderTarget.Height())
	t.Draw(&cs, &device.Geometry{Primitive: device.TriangleFan, Positions: device.RectFan(rt.Rect())})
}

// maxHairlineVertices bounds one hairline batch so 16-bit indices suffice.
const maxHairlineVertices = math.MaxUint16

// AAHairlinePathRenderer draws antialiased hairlines as device-space quads
// whose per-vertex coverage ramps from zero at the edges to one on the
// line.
type AAHairlinePathRenderer struct{}

// CanDrawPath implements PathRenderer.
func (*AAHairlinePathRenderer) CanDrawPath(_ *Path, fill FillType, antiAlias bool) bool {
	return antiAlias && fill == FillHairline
}

// SupportsAA implements PathRenderer.
func (*AAHairlinePathRenderer) SupportsAA(st *device.DrawState, _ *Path, _ FillType) bool {
	if st.RenderTarget == nil || st.RenderTarget.IsMultisampled() {
		return false
	}
	return st.Blend.CanTweakAlphaForCoverage() || st.CanDisableBlend()
}

// RequiresStencilPass implements PathRenderer.
func (*AAHairlinePathRenderer) RequiresStencilPass(*Path, FillType) bool { return false }

// DrawPath implements PathRenderer.
func (*AAHairlinePathRenderer) DrawPath(t device.Target, st *device.DrawState, path *Path, _ FillType) {
	inv, ok := st.ViewMatrix.Invert()
	if !ok {
		return
	}
	ds := *st
	ds.ViewMatrix = geom.Identity()
	ds.PreConcatStageMatrices(ds.StageMask(), inv)

	g := &device.Geometry{Primitive: device.Triangles}
	flush := func() {
		if len(g.Positions) > 0 {
			t.Draw(&ds, g)
		}
		g = &device.Geometry{Primitive: device.Triangles}
	}

	for _, ct := range path.Flatten(flattenTolerance / matrixScale(st.ViewMatrix)) {
		pts := make([]geom.Point, len(ct.Points))
		for i, p := range ct.Points {
			pts[i] = st.ViewMatrix.TransformPoint(p)
		}
		if ct.Closed && len(pts) > 2 {
			pts = append(pts, pts[0])
		}
		for i := 0; i+1 < len(pts); i++ {
			if len(g.Positions)+6 > maxHairlineVertices {
				flush()
			}
			appendHairlineQuad(g, pts[i], pts[i+1])
		}
	}
	flush()
}

// appendHairlineQuad adds the six vertices and four triangles covering the
// one-pixel-wide segment a-b.
func appendHairlineQuad(g *device.Geometry, a, b geom.Point) {
	d := b.Sub(a)
	if d.Length() == 0 {
		d = geom.Pt(1, 0)
	} else {
		d = d.Normalize()
	}
	a = a.Sub(d.Mul(0.5))
	b = b.Add(d.Mul(0.5))
	n := d.Perp()

	base := uint16(len(g.Positions))
	g.Positions = append(g.Positions, a.Add(n), a, a.Sub(n), b.Add(n), b, b.Sub(n))
	g.Coverage = append(g.Coverage, 0, 1, 0, 0, 1, 0)
	for _, i := range [...]uint16{0, 3, 4, 0, 4, 1, 1, 4, 5, 1, 5, 2} {
		g.Indices = append(g.Indices, base+i)
	}
}
