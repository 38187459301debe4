package gr

import (
	"errors"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/geom"
)

var errFakeOOM = errors.New("fake: out of memory")

// fakeOp is one recorded device call.
type fakeOp struct {
	kind  string // "clear" or "draw"
	rt    device.RenderTarget
	rect  *geom.IRect
	state device.DrawState
	geom  *device.Geometry
}

// fakeDevice records draws and clears without rasterizing anything.
type fakeDevice struct {
	caps device.Caps
	fail func(device.TextureDesc) bool

	ops      []fakeOp
	live     int
	textures []*fakeTexture
	stencils []*fakeStencil
	submits  int
	forced   int
	stats    device.Stats
	bound    device.RenderTarget
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{caps: device.Caps{
		MaxTextureSize:            4096,
		MaxRenderTargetSize:       4096,
		NPOTTextureTileSupport:    true,
		Supports4x4Downsample:     true,
		SupportsPerVertexCoverage: true,
		StencilBits:               8,
	}}
}

func (d *fakeDevice) Caps() device.Caps { return d.caps }

func (d *fakeDevice) CreateTexture(desc device.TextureDesc, _ []byte, _ int) (device.Texture, error) {
	if desc.Width <= 0 || desc.Height <= 0 || desc.Width > d.caps.MaxTextureSize || desc.Height > d.caps.MaxTextureSize {
		return nil, device.ErrInvalidSize
	}
	if d.fail != nil && d.fail(desc) {
		return nil, errFakeOOM
	}
	t := newFakeTexture(d, desc)
	d.textures = append(d.textures, t)
	d.live++
	d.stats.TextureCreates++
	return t, nil
}

func (d *fakeDevice) CreateStencilBuffer(w, h, samples int) (device.StencilBuffer, error) {
	s := &fakeStencil{fakeResource: fakeResource{dev: d, size: int64(w * h)}, w: w, h: h, samples: samples}
	d.stencils = append(d.stencils, s)
	d.live++
	d.stats.StencilBufferCreates++
	return s, nil
}

func (d *fakeDevice) Clear(rt device.RenderTarget, rect *geom.IRect, _ device.Color) {
	d.ops = append(d.ops, fakeOp{kind: "clear", rt: rt, rect: rect})
	d.stats.Clears++
}

func (d *fakeDevice) Draw(st *device.DrawState, g *device.Geometry) {
	d.ops = append(d.ops, fakeOp{kind: "draw", rt: st.RenderTarget, state: *st, geom: g.Clone()})
	d.stats.Draws++
}

func (d *fakeDevice) SetRenderTarget(rt device.RenderTarget) {
	d.bound = rt
	d.stats.RenderTargetBinds++
}
func (d *fakeDevice) ForceRenderTarget()                  { d.forced++ }
func (d *fakeDevice) ReadPixels(_ device.RenderTarget, _ geom.IRect, _ gputypes.TextureFormat, dst []byte, _ int) bool {
	d.stats.Reads++
	return len(dst) > 0
}
func (d *fakeDevice) Submit()             { d.submits++; d.stats.Submits++ }
func (d *fakeDevice) ResetState()         {}
func (d *fakeDevice) Stats() device.Stats { return d.stats }
func (d *fakeDevice) ResetStats()         { d.stats = device.Stats{} }

// draws returns the recorded draws into rt.
func (d *fakeDevice) draws(rt device.RenderTarget) []fakeOp {
	var out []fakeOp
	for _, op := range d.ops {
		if op.kind == "draw" && op.rt == rt {
			out = append(out, op)
		}
	}
	return out
}

// fakeResource records how it was disposed of.
type fakeResource struct {
	dev       *fakeDevice
	size      int64
	released  int
	abandoned int
}

func (r *fakeResource) SizeBytes() int64 { return r.size }
func (r *fakeResource) IsValid() bool    { return r.released == 0 && r.abandoned == 0 }

func (r *fakeResource) Release() {
	if r.IsValid() && r.dev != nil {
		r.dev.live--
	}
	r.released++
}

func (r *fakeResource) Abandon() {
	if r.IsValid() && r.dev != nil {
		r.dev.live--
	}
	r.abandoned++
}

type fakeTexture struct {
	fakeResource
	desc device.TextureDesc
	rt   *fakeRenderTarget
}

func newFakeTexture(dev *fakeDevice, desc device.TextureDesc) *fakeTexture {
	t := &fakeTexture{fakeResource: fakeResource{dev: dev, size: desc.SizeBytes()}, desc: desc}
	if desc.IsRenderTarget() {
		t.rt = &fakeRenderTarget{w: desc.Width, h: desc.Height, samples: desc.Samples(), tex: t}
	}
	return t
}

func (t *fakeTexture) Desc() device.TextureDesc       { return t.desc }
func (t *fakeTexture) Width() int                     { return t.desc.Width }
func (t *fakeTexture) Height() int                    { return t.desc.Height }
func (t *fakeTexture) Format() gputypes.TextureFormat { return t.desc.Format }

func (t *fakeTexture) AsRenderTarget() device.RenderTarget {
	if t.rt == nil {
		return nil
	}
	return t.rt
}

type fakeRenderTarget struct {
	w, h, samples int
	tex           *fakeTexture
	stencil       device.StencilBuffer
}

func newFakeRenderTarget(w, h int) *fakeRenderTarget {
	return &fakeRenderTarget{w: w, h: h, samples: 1}
}

func (r *fakeRenderTarget) Width() int                     { return r.w }
func (r *fakeRenderTarget) Height() int                    { return r.h }
func (r *fakeRenderTarget) Format() gputypes.TextureFormat { return gputypes.TextureFormatRGBA8Unorm }
func (r *fakeRenderTarget) SampleCount() int               { return r.samples }
func (r *fakeRenderTarget) IsMultisampled() bool           { return r.samples > 1 }

func (r *fakeRenderTarget) AsTexture() device.Texture {
	if r.tex == nil {
		return nil
	}
	return r.tex
}

func (r *fakeRenderTarget) StencilBuffer() device.StencilBuffer      { return r.stencil }
func (r *fakeRenderTarget) SetStencilBuffer(sb device.StencilBuffer) { r.stencil = sb }

type fakeStencil struct {
	fakeResource
	w, h, samples int
}

func (s *fakeStencil) Width() int       { return s.w }
func (s *fakeStencil) Height() int      { return s.h }
func (s *fakeStencil) SampleCount() int { return s.samples }
func (s *fakeStencil) Bits() int        { return 8 }

// newTestContext returns a context over a fake device drawing to a w x h
// target.
func newTestContext(tb interface{ Fatalf(string, ...any) }, w, h int, opts ...Option) (*Context, *fakeDevice, *fakeRenderTarget) {
	dev := newFakeDevice()
	c, err := New(dev, opts...)
	if err != nil {
		tb.Fatalf("New: %v", err)
	}
	rt := newFakeRenderTarget(w, h)
	c.SetRenderTarget(rt)
	return c, dev, rt
}
