package gr

import (
	"testing"

	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/geom"
)

func TestDrawRectVariants(t *testing.T) {
	tests := []struct {
		name      string
		aa        bool
		stroke    float64
		prim      device.Primitive
		verts     int
		indices   int
		wantBound geom.IRect
	}{
		{"fill", false, -1, device.TriangleFan, 4, 0, geom.IRect{Left: 4, Top: 4, Right: 20, Bottom: 12}},
		{"hairline", false, 0, device.LineStrip, 5, 0, geom.IRect{Left: 4, Top: 4, Right: 20, Bottom: 12}},
		{"stroke", false, 2, device.TriangleStrip, 10, 0, geom.IRect{Left: 3, Top: 3, Right: 21, Bottom: 13}},
		{"thick stroke", false, 10, device.TriangleFan, 4, 0, geom.IRect{Left: -1, Top: -1, Right: 25, Bottom: 17}},
		{"aa fill", true, -1, device.Triangles, 8, 30, geom.IRect{Left: 3, Top: 3, Right: 21, Bottom: 13}},
		{"aa stroke", true, 2, device.Triangles, 16, 72, geom.IRect{Left: 2, Top: 2, Right: 22, Bottom: 14}},
		{"aa hairline", true, 0, device.LineStrip, 5, 0, geom.IRect{Left: 4, Top: 4, Right: 20, Bottom: 12}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, dev, rt := newTestContext(t, 64, 64)
			p := NewPaint()
			p.AntiAlias = tt.aa
			c.DrawRect(&p, geom.RectLTRB(4, 4, 20, 12), tt.stroke, nil)
			c.Flush(0)

			draws := dev.draws(rt)
			if len(draws) != 1 {
				t.Fatalf("draws = %d", len(draws))
			}
			g := draws[0].geom
			if g.Primitive != tt.prim || len(g.Positions) != tt.verts || len(g.Indices) != tt.indices {
				t.Errorf("geometry = %v, %d verts, %d indices", g.Primitive, len(g.Positions), len(g.Indices))
			}
			if b := opBounds(draws[0]); b != tt.wantBound {
				t.Errorf("bounds = %v, want %v", b, tt.wantBound)
			}
		})
	}
}

func TestAAFillRectCoverage(t *testing.T) {
	c, dev, rt := newTestContext(t, 64, 64)
	c.SetMatrix(geom.Scale(2, 2))
	p := aaPaint()
	c.DrawRect(&p, geom.RectLTRB(1, 1, 5, 5), -1, nil)
	c.Flush(0)

	op := dev.draws(rt)[0]
	if !op.state.ViewMatrix.IsIdentity() {
		t.Error("AA rects are drawn in device space")
	}
	if op.geom.Positions[0] != geom.Pt(1.5, 1.5) || op.geom.Positions[4] != geom.Pt(2.5, 2.5) {
		t.Errorf("outer/inner corners = %v / %v", op.geom.Positions[0], op.geom.Positions[4])
	}
	want := []float32{0, 0, 0, 0, 1, 1, 1, 1}
	for i, v := range want {
		if op.geom.Coverage[i] != v {
			t.Fatalf("coverage = %v, want %v", op.geom.Coverage, want)
		}
	}
}

func TestAAFillThinRectScalesCoverage(t *testing.T) {
	c, dev, rt := newTestContext(t, 64, 64)
	p := aaPaint()
	c.DrawRect(&p, geom.RectLTRB(4, 4, 4.5, 10), -1, nil)
	c.Flush(0)

	g := dev.draws(rt)[0].geom
	if g.Coverage[4] != 0.5 {
		t.Errorf("inner coverage = %v, want 0.5", g.Coverage[4])
	}
	if g.Positions[4].X != g.Positions[5].X {
		t.Error("inner quad should collapse to the center line")
	}
}

func TestAARectSkippedForRotation(t *testing.T) {
	c, dev, rt := newTestContext(t, 64, 64)
	c.SetMatrix(geom.Translate(32, 32).PreConcat(geom.Rotate(0.3)))
	p := aaPaint()
	c.DrawRect(&p, geom.RectWH(10, 10), -1, nil)
	c.Flush(0)
	if g := dev.draws(rt)[0].geom; g.Coverage != nil {
		t.Error("rotated rect should not use coverage geometry")
	}
}

func TestDrawPaintCoversTarget(t *testing.T) {
	c, dev, rt := newTestContext(t, 40, 30)
	c.SetMatrix(geom.Scale(2, 2))
	p := aaPaint()
	c.DrawPaint(&p)
	c.Flush(0)

	op := dev.draws(rt)[0]
	dst := op.state.ViewMatrix.MapRect(geom.Rect{
		Left: op.geom.Positions[0].X, Top: op.geom.Positions[0].Y,
		Right: op.geom.Positions[2].X, Bottom: op.geom.Positions[2].Y,
	})
	if dst.RoundOut() != geom.IRectWH(40, 30) {
		t.Errorf("DrawPaint covers %v", dst)
	}
	if op.geom.Coverage != nil {
		t.Error("DrawPaint is never antialiased")
	}
}

func TestDrawRectToRectTexCoords(t *testing.T) {
	c, dev, rt := newTestContext(t, 64, 64)
	tok := c.CreateAndLockTexture(1, nil, rgbaDesc(8, 8), nil, 0)
	p := texturedPaint(c.Texture(tok), geom.RectWH(8, 8), device.FilterBilinear)
	m := geom.Scale(0.5, 0.5)
	c.DrawRectToRect(&p, geom.RectLTRB(10, 10, 20, 20), geom.RectWH(8, 8), nil, &m)
	c.Flush(0)

	op := dev.draws(rt)[0]
	tc := op.geom.TexCoords[0]
	if len(tc) != 4 || tc[2] != geom.Pt(4, 4) {
		t.Errorf("tex coords = %v", tc)
	}
	if op.state.Stages[0].UsePosition {
		t.Error("stage 0 should read explicit coordinates")
	}
	uv := op.state.Stages[0].Sampler.Matrix.TransformPoint(tc[2])
	if uv != geom.Pt(0.5, 0.5) {
		t.Errorf("sampled uv = %v", uv)
	}
}

func TestDrawVerticesIsUnbuffered(t *testing.T) {
	c, dev, rt := newTestContext(t, 64, 64)
	p := NewPaint()
	colors := []device.Color{device.White, device.Black, device.White}
	c.DrawVertices(&p, device.Triangles, []geom.Point{{X: 0}, {X: 4}, {Y: 4}}, nil, colors, nil)

	draws := dev.draws(rt)
	if len(draws) != 1 {
		t.Fatalf("vertices should reach the device without a flush, draws = %d", len(draws))
	}
	if len(draws[0].geom.Colors) != 3 {
		t.Error("per-vertex colors lost")
	}
}

func TestDrawPathTranslate(t *testing.T) {
	c, dev, rt := newTestContext(t, 64, 64)
	p := NewPaint()
	off := geom.Pt(5, 7)
	c.DrawPath(&p, rectPath(0, 0, 4, 4), FillWinding, &off)

	op := dev.draws(rt)[0]
	if got := op.state.ViewMatrix.TransformPoint(geom.Pt(0, 0)); got != off {
		t.Errorf("translated origin = %v, want %v", got, off)
	}
}

func TestEmptyInversePathFillsTarget(t *testing.T) {
	c, dev, rt := newTestContext(t, 16, 16)
	p := NewPaint()
	c.DrawPath(&p, NewPath(), FillInverseWinding, nil)
	c.DrawPath(&p, NewPath(), FillWinding, nil)
	c.Flush(0)
	if n := len(dev.draws(rt)); n != 1 {
		t.Errorf("draws = %d, want one full-target fill", n)
	}
}

func TestClearHonorsRect(t *testing.T) {
	c, dev, rt := newTestContext(t, 16, 16)
	r := geom.IRectXYWH(2, 2, 4, 4)
	c.Clear(&r, device.Black)
	c.Flush(0)
	if len(dev.ops) != 1 || dev.ops[0].kind != "clear" || dev.ops[0].rt != rt || *dev.ops[0].rect != r {
		t.Errorf("ops = %+v", dev.ops)
	}
}

func TestDrawWithoutTargetIsNoop(t *testing.T) {
	c, dev, _ := newTestContext(t, 16, 16)
	c.SetRenderTarget(nil)
	p := NewPaint()
	c.DrawRect(&p, geom.RectWH(4, 4), -1, nil)
	c.DrawPath(&p, concavePath(), FillWinding, nil)
	c.DrawPaint(&p)
	c.Flush(0)
	if len(dev.ops) != 0 {
		t.Error("draws without a render target must be dropped")
	}
}

func TestPathDeviceBoundHairlineMargin(t *testing.T) {
	c, _, rt := newTestContext(t, 64, 64)
	st := device.NewDrawState(rt)
	p := NewPath()
	p.Rectangle(10, 10, 10, 10)

	fill, ok := c.pathDeviceBound(&st, p, FillWinding)
	if !ok || fill != (geom.IRect{Left: 9, Top: 9, Right: 21, Bottom: 21}) {
		t.Errorf("fill bound = %v, %v", fill, ok)
	}
	hair, ok := c.pathDeviceBound(&st, p, FillHairline)
	if !ok || hair != (geom.IRect{Left: 8, Top: 8, Right: 22, Bottom: 22}) {
		t.Errorf("hairline bound = %v, %v", hair, ok)
	}
}
