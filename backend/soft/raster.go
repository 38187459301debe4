package soft

import (
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/geom"
	"github.com/gogpu/gr/internal/logging"
)

// Sample positions inside a pixel, by sample count.
var (
	samples1 = []geom.Point{{X: 0.5, Y: 0.5}}
	samples2 = []geom.Point{{X: 0.75, Y: 0.75}, {X: 0.25, Y: 0.25}}
	samples4 = []geom.Point{{X: 0.375, Y: 0.125}, {X: 0.875, Y: 0.375}, {X: 0.125, Y: 0.625}, {X: 0.625, Y: 0.875}}
)

func samplePattern(n int) []geom.Point {
	switch {
	case n >= 4:
		return samples4
	case n == 2:
		return samples2
	default:
		return samples1
	}
}

// Clear fills rect of rt with c, bypassing clip, blend and stencil.
func (d *Device) Clear(rt device.RenderTarget, rect *geom.IRect, c device.Color) {
	r := d.target(rt)
	if r == nil {
		return
	}
	d.bind(r)
	d.stats.Clears++

	area := geom.IRectWH(r.surf.w, r.surf.h)
	if rect != nil {
		var ok bool
		if area, ok = area.Intersect(*rect); !ok {
			return
		}
	}
	for y := area.Top; y < area.Bottom; y++ {
		for x := area.Left; x < area.Right; x++ {
			r.surf.set(x, y, c)
			if r.ms != nil {
				samples := r.samplesAt(x, y)
				for i := range samples {
					samples[i] = c
				}
			}
		}
	}
}

// Draw rasterizes g into state.RenderTarget.
func (d *Device) Draw(state *device.DrawState, g *device.Geometry) {
	r := d.target(state.RenderTarget)
	if r == nil {
		return
	}
	d.bind(r)
	d.stats.Draws++
	d.stats.Vertices += g.VertexCount()

	rs := &rasterizer{st: state, g: g, rt: r, samples: samplePattern(r.samples)}
	if state.Stencil.Enabled {
		sb, ok := r.stencil.(*stencilBuffer)
		if !ok || !sb.valid {
			logging.L().Warn("soft: stencil draw without stencil buffer")
			return
		}
		rs.sb = sb
	}

	rs.clip = geom.IRectWH(r.surf.w, r.surf.h)
	if state.Clip.Enabled {
		var ok bool
		if rs.clip, ok = rs.clip.Intersect(state.Clip.Rect); !ok {
			return
		}
	}

	rs.pos = make([]geom.Point, len(g.Positions))
	for i, p := range g.Positions {
		rs.pos[i] = state.ViewMatrix.TransformPoint(p)
	}

	switch g.Primitive {
	case device.Triangles, device.TriangleStrip, device.TriangleFan:
		for _, t := range g.Triangles() {
			rs.triangle(t)
		}
	case device.Lines, device.LineStrip:
		for _, s := range g.Segments() {
			rs.line(s[0], s[1])
		}
	case device.Points:
		for i := 0; i < g.VertexCount(); i++ {
			v := i
			if len(g.Indices) > 0 {
				v = int(g.Indices[i])
			}
			rs.point(v)
		}
	}
}

// rasterizer holds the per-draw state.
type rasterizer struct {
	st      *device.DrawState
	g       *device.Geometry
	rt      *renderTarget
	sb      *stencilBuffer
	pos     []geom.Point
	clip    geom.IRect
	samples []geom.Point
}

// edgeIncludes is the tie-break for samples exactly on an edge. Two
// triangles sharing an edge traverse it in opposite directions, so exactly
// one of them owns the samples on it.
func edgeIncludes(e geom.Point) bool {
	return e.Y > 0 || (e.Y == 0 && e.X < 0)
}

func (rs *rasterizer) triangle(v [3]int) {
	p0, p1, p2 := rs.pos[v[0]], rs.pos[v[1]], rs.pos[v[2]]
	area := p1.Sub(p0).Cross(p2.Sub(p0))
	if area == 0 || math.IsNaN(area) {
		return
	}
	// Positive area is clockwise on a y-down target.
	back := area > 0
	if area < 0 {
		v[1], v[2] = v[2], v[1]
		p1, p2 = p2, p1
		area = -area
	}
	e0, e1, e2 := p2.Sub(p1), p0.Sub(p2), p1.Sub(p0)
	in0, in1, in2 := edgeIncludes(e0), edgeIncludes(e1), edgeIncludes(e2)

	minX := math.Floor(math.Min(p0.X, math.Min(p1.X, p2.X)))
	minY := math.Floor(math.Min(p0.Y, math.Min(p1.Y, p2.Y)))
	maxX := math.Ceil(math.Max(p0.X, math.Max(p1.X, p2.X)))
	maxY := math.Ceil(math.Max(p0.Y, math.Max(p1.Y, p2.Y)))
	x0 := max(int(minX), rs.clip.Left)
	y0 := max(int(minY), rs.clip.Top)
	x1 := min(int(maxX), rs.clip.Right)
	y1 := min(int(maxY), rs.clip.Bottom)

	inside := func(pt geom.Point) bool {
		w0 := e0.Cross(pt.Sub(p1))
		w1 := e1.Cross(pt.Sub(p2))
		w2 := e2.Cross(pt.Sub(p0))
		return (w0 > 0 || (w0 == 0 && in0)) &&
			(w1 > 0 || (w1 == 0 && in1)) &&
			(w2 > 0 || (w2 == 0 && in2))
	}

	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			covered := 0
			var mask uint32
			for i, s := range rs.samples {
				if inside(geom.Pt(float64(x)+s.X, float64(y)+s.Y)) {
					covered++
					mask |= 1 << i
				}
			}
			if covered == 0 {
				continue
			}
			c := geom.Pt(float64(x)+0.5, float64(y)+0.5)
			w := [3]float64{
				e0.Cross(c.Sub(p1)) / area,
				e1.Cross(c.Sub(p2)) / area,
				e2.Cross(c.Sub(p0)) / area,
			}
			rs.shade(x, y, v, w, mask, float32(covered)/float32(len(rs.samples)), back)
		}
	}
}

func (rs *rasterizer) line(a, b int) {
	p0, p1 := rs.pos[a], rs.pos[b]
	d := p1.Sub(p0)
	n := int(math.Ceil(math.Max(math.Abs(d.X), math.Abs(d.Y))))
	if n == 0 {
		n = 1
	}
	for i := 0; i < n; i++ {
		t := (float64(i) + 0.5) / float64(n)
		p := p0.Lerp(p1, t)
		x, y := int(math.Floor(p.X)), int(math.Floor(p.Y))
		if !rs.clip.ContainsPoint(x, y) {
			continue
		}
		rs.shade(x, y, [3]int{a, b, b}, [3]float64{1 - t, t, 0}, rs.allSamples(), 1, false)
	}
}

func (rs *rasterizer) point(v int) {
	p := rs.pos[v]
	x, y := int(math.Floor(p.X)), int(math.Floor(p.Y))
	if !rs.clip.ContainsPoint(x, y) {
		return
	}
	rs.shade(x, y, [3]int{v, v, v}, [3]float64{1, 0, 0}, rs.allSamples(), 1, false)
}

func (rs *rasterizer) allSamples() uint32 { return 1<<len(rs.samples) - 1 }

// shade runs the stencil test, computes the fragment color and blends it
// into the target. Multisampled targets blend into each sample in mask and
// resolve the pixel; others scale the color by coverage.
func (rs *rasterizer) shade(x, y int, v [3]int, w [3]float64, mask uint32, coverage float32, back bool) {
	if rs.sb != nil {
		if x >= rs.sb.w || y >= rs.sb.h {
			return
		}
		if !rs.stencil(x, y, back) {
			return
		}
	}
	if rs.st.ColorWriteDisabled {
		return
	}

	g := rs.g
	c := rs.st.Color
	if len(g.Colors) > 0 {
		c = lerpColor(g.Colors, v, w)
	}
	var local geom.Point
	localDone := false
	for i := range rs.st.Stages {
		stage := &rs.st.Stages[i]
		if !stage.Enabled() {
			continue
		}
		var coord geom.Point
		if !stage.UsePosition && len(g.TexCoords[i]) > 0 {
			coord = lerpPoint(g.TexCoords[i], v, w)
		} else {
			if !localDone {
				local = lerpPoint(g.Positions, v, w)
				localDone = true
			}
			coord = local
		}
		c = c.Modulate(sampleStage(stage, stage.Sampler.Matrix.TransformPoint(coord)))
	}
	if len(g.Coverage) > 0 {
		cov := float32(w[0])*g.Coverage[v[0]] + float32(w[1])*g.Coverage[v[1]] + float32(w[2])*g.Coverage[v[2]]
		c = c.Scale(cov)
	}
	if rs.rt.ms != nil {
		samples := rs.rt.samplesAt(x, y)
		for i := range samples {
			if mask&(1<<i) != 0 {
				samples[i] = blend(rs.st.Blend, c, samples[i])
			}
		}
		rs.rt.resolve(x, y)
		return
	}
	if coverage < 1 {
		c = c.Scale(coverage)
	}

	dst := rs.rt.surf.get(x, y)
	rs.rt.surf.set(x, y, blend(rs.st.Blend, c, dst))
}

// stencil tests and updates the stencil value at (x, y).
func (rs *rasterizer) stencil(x, y int, back bool) bool {
	s := &rs.st.Stencil
	i := y*rs.sb.w + x
	old := rs.sb.data[i]
	pass := compare(s.Compare, s.Ref&s.ReadMask, old&s.ReadMask)
	op := s.FailOp
	if pass {
		op = s.PassOp
		if back && s.BackPassOp != gputypes.StencilOperationUndefined {
			op = s.BackPassOp
		}
	}
	nv := stencilOp(op, old, s.Ref)
	rs.sb.data[i] = old&^s.WriteMask | nv&s.WriteMask
	return pass
}

func compare(f gputypes.CompareFunction, ref, val uint8) bool {
	switch f {
	case gputypes.CompareFunctionNever:
		return false
	case gputypes.CompareFunctionLess:
		return ref < val
	case gputypes.CompareFunctionEqual:
		return ref == val
	case gputypes.CompareFunctionLessEqual:
		return ref <= val
	case gputypes.CompareFunctionGreater:
		return ref > val
	case gputypes.CompareFunctionNotEqual:
		return ref != val
	case gputypes.CompareFunctionGreaterEqual:
		return ref >= val
	default:
		return true
	}
}

func stencilOp(op gputypes.StencilOperation, old, ref uint8) uint8 {
	switch op {
	case gputypes.StencilOperationZero:
		return 0
	case gputypes.StencilOperationReplace:
		return ref
	case gputypes.StencilOperationInvert:
		return ^old
	case gputypes.StencilOperationIncrementClamp:
		if old == math.MaxUint8 {
			return old
		}
		return old + 1
	case gputypes.StencilOperationDecrementClamp:
		if old == 0 {
			return 0
		}
		return old - 1
	case gputypes.StencilOperationIncrementWrap:
		return old + 1
	case gputypes.StencilOperationDecrementWrap:
		return old - 1
	default:
		return old
	}
}

func lerpPoint(p []geom.Point, v [3]int, w [3]float64) geom.Point {
	return geom.Point{
		X: p[v[0]].X*w[0] + p[v[1]].X*w[1] + p[v[2]].X*w[2],
		Y: p[v[0]].Y*w[0] + p[v[1]].Y*w[1] + p[v[2]].Y*w[2],
	}
}

func lerpColor(c []device.Color, v [3]int, w [3]float64) device.Color {
	w0, w1, w2 := float32(w[0]), float32(w[1]), float32(w[2])
	a, b, d := c[v[0]], c[v[1]], c[v[2]]
	return device.Color{
		R: a.R*w0 + b.R*w1 + d.R*w2,
		G: a.G*w0 + b.G*w1 + d.G*w2,
		B: a.B*w0 + b.B*w1 + d.B*w2,
		A: a.A*w0 + b.A*w1 + d.A*w2,
	}
}
