package wgpu

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/geom"
)

// createNoopDevice creates a noop device and queue for testing.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		openDev.Device.Destroy()
		instance.Destroy()
	})
	return openDev.Device, openDev.Queue
}

func newTestDevice(t *testing.T) *Device {
	t.Helper()
	hd, q := createNoopDevice(t)
	d, err := NewFromHAL(hd, q, gputypes.DefaultLimits())
	if err != nil {
		t.Fatalf("NewFromHAL failed: %v", err)
	}
	t.Cleanup(d.Close)
	return d
}

func newTarget(t *testing.T, d *Device, w, h int) device.RenderTarget {
	t.Helper()
	tex, err := d.CreateTexture(device.TextureDesc{
		Flags: device.TextureRenderTarget, Width: w, Height: h, Format: gputypes.TextureFormatRGBA8Unorm,
	}, nil, 0)
	if err != nil {
		t.Fatalf("CreateTexture failed: %v", err)
	}
	return tex.AsRenderTarget()
}

func rectGeometry(r geom.Rect) *device.Geometry {
	return &device.Geometry{Primitive: device.TriangleFan, Positions: device.RectFan(r)}
}

func TestCapsFromLimits(t *testing.T) {
	d := newTestDevice(t)
	want := int(gputypes.DefaultLimits().MaxTextureDimension2D)
	caps := d.Caps()
	if caps.MaxTextureSize != want || caps.MaxRenderTargetSize != want {
		t.Errorf("max sizes = %d/%d, want %d", caps.MaxTextureSize, caps.MaxRenderTargetSize, want)
	}
	if !caps.SupportsFullsceneAA || !caps.Supports4x4Downsample || caps.StencilBits != 8 {
		t.Errorf("unexpected caps %+v", caps)
	}
}

func TestCreateTextureValidation(t *testing.T) {
	d := newTestDevice(t)
	tests := []struct {
		name string
		desc device.TextureDesc
		data []byte
		want error
	}{
		{"empty", device.TextureDesc{Width: 0, Height: 4, Format: gputypes.TextureFormatRGBA8Unorm}, nil, device.ErrInvalidSize},
		{"too wide", device.TextureDesc{Width: d.Caps().MaxTextureSize + 1, Height: 4, Format: gputypes.TextureFormatRGBA8Unorm}, nil, device.ErrInvalidSize},
		{"depth format", device.TextureDesc{Width: 4, Height: 4, Format: gputypes.TextureFormatDepth24PlusStencil8}, nil, device.ErrUnsupportedFormat},
		{"msaa sampled", device.TextureDesc{Width: 4, Height: 4, Format: gputypes.TextureFormatRGBA8Unorm, SampleCount: 4}, nil, device.ErrUnsupportedFormat},
		{"ok", device.TextureDesc{Width: 4, Height: 4, Format: gputypes.TextureFormatR8Unorm}, make([]byte, 16), nil},
		{"ok msaa rt", device.TextureDesc{Flags: device.TextureRenderTarget, Width: 4, Height: 4, Format: gputypes.TextureFormatBGRA8Unorm, SampleCount: 4}, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tex, err := d.CreateTexture(tt.desc, tt.data, 0)
			if tt.want != nil {
				if !errors.Is(err, tt.want) {
					t.Fatalf("err = %v, want %v", err, tt.want)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tex.Width() != 4 || !tex.IsValid() {
				t.Errorf("bad texture %v", tex.Desc())
			}
			tex.Release()
			if tex.IsValid() {
				t.Error("texture still valid after Release")
			}
		})
	}
}

func TestShortUploadFails(t *testing.T) {
	d := newTestDevice(t)
	_, err := d.CreateTexture(device.TextureDesc{Width: 4, Height: 4, Format: gputypes.TextureFormatRGBA8Unorm}, make([]byte, 10), 0)
	if err == nil {
		t.Fatal("expected error for short pixel data")
	}
}

func TestDrawRecordsAndSubmits(t *testing.T) {
	d := newTestDevice(t)
	rt := newTarget(t, d, 16, 16)

	st := device.NewDrawState(rt)
	d.Draw(&st, rectGeometry(geom.RectWH(8, 8)))

	s := d.Stats()
	if s.Draws != 1 || s.Vertices != 4 || s.RenderTargetBinds != 1 {
		t.Errorf("stats after draw = %v", s)
	}
	if d.frame.encoder == nil || len(d.frame.buffers) != 3 || len(d.frame.groups) != 1 {
		t.Fatalf("frame not recorded: %d buffers, %d groups", len(d.frame.buffers), len(d.frame.groups))
	}

	d.Submit()
	if d.frame.encoder != nil || len(d.frame.buffers) != 0 {
		t.Error("frame not reset after Submit")
	}
	if got := d.Stats().Submits; got != 1 {
		t.Errorf("Submits = %d, want 1", got)
	}
}

func TestPipelineCacheKeys(t *testing.T) {
	d := newTestDevice(t)
	rt := newTarget(t, d, 16, 16)
	sb, err := d.CreateStencilBuffer(16, 16, 1)
	if err != nil {
		t.Fatal(err)
	}
	rt.SetStencilBuffer(sb)
	g := rectGeometry(geom.RectWH(4, 4))

	st := device.NewDrawState(rt)
	d.Draw(&st, g)
	d.Draw(&st, g)
	if n := len(d.pl.cache); n != 1 {
		t.Fatalf("pipelines after identical draws = %d, want 1", n)
	}

	st.Blend = device.BlendSrc
	d.Draw(&st, g)
	if n := len(d.pl.cache); n != 2 {
		t.Fatalf("pipelines after blend change = %d, want 2", n)
	}

	st.Stencil = device.StencilSettings{
		Enabled: true, Compare: gputypes.CompareFunctionEqual, Ref: 1,
		ReadMask: 0xff, WriteMask: 0xff, PassOp: gputypes.StencilOperationKeep,
	}
	d.Draw(&st, g)
	st.Stencil.Ref = 7
	d.Draw(&st, g)
	if n := len(d.pl.cache); n != 3 {
		t.Fatalf("pipelines after stencil draws = %d, want 3 (ref is dynamic)", n)
	}
}

func TestStencilDrawWithoutBufferSkipped(t *testing.T) {
	d := newTestDevice(t)
	rt := newTarget(t, d, 8, 8)
	st := device.NewDrawState(rt)
	st.Stencil = device.StencilSettings{Enabled: true, Compare: gputypes.CompareFunctionAlways}
	d.Draw(&st, rectGeometry(geom.RectWH(8, 8)))
	if d.Stats().Draws != 0 {
		t.Error("stencil draw without a stencil buffer was recorded")
	}
}

func TestSampleOwnTargetRejected(t *testing.T) {
	d := newTestDevice(t)
	rt := newTarget(t, d, 8, 8)
	st := device.NewDrawState(rt)
	st.Stages[0] = device.Stage{Texture: rt.AsTexture(), Sampler: device.ClampNoFilter()}
	d.Draw(&st, rectGeometry(geom.RectWH(8, 8)))
	if d.Stats().Draws != 0 {
		t.Error("feedback draw was recorded")
	}
}

func TestClearCounts(t *testing.T) {
	d := newTestDevice(t)
	rt := newTarget(t, d, 8, 8)
	d.Clear(rt, nil, device.Transparent)
	r := geom.IRectXYWH(2, 2, 4, 4)
	d.Clear(rt, &r, device.White)
	s := d.Stats()
	if s.Clears != 2 || s.Draws != 0 || s.RenderTargetBinds != 0 {
		t.Errorf("stats after clears = %v", s)
	}
}

func TestReadPixels(t *testing.T) {
	d := newTestDevice(t)
	rt := newTarget(t, d, 8, 8)
	dst := make([]byte, 4*4*4)
	for i := range dst {
		dst[i] = 0xaa
	}
	if !d.ReadPixels(rt, geom.IRectXYWH(2, 2, 4, 4), gputypes.TextureFormatRGBA8Unorm, dst, 0) {
		t.Fatal("ReadPixels failed")
	}
	for i, b := range dst {
		if b != 0 {
			t.Fatalf("dst[%d] = %#x, want 0 from noop readback", i, b)
		}
	}
	if d.Stats().Reads != 1 {
		t.Errorf("Reads = %d, want 1", d.Stats().Reads)
	}

	if d.ReadPixels(rt, geom.IRectXYWH(6, 6, 4, 4), gputypes.TextureFormatRGBA8Unorm, dst, 0) {
		t.Error("out of bounds read succeeded")
	}
	if d.ReadPixels(d.WrapView(nil, 8, 8, gputypes.TextureFormatBGRA8Unorm), geom.IRectWH(1, 1), gputypes.TextureFormatRGBA8Unorm, dst, 0) {
		t.Error("read from wrapped view succeeded")
	}
}

func TestConvertRow(t *testing.T) {
	src := []byte{10, 20, 30, 40}
	tests := []struct {
		name     string
		srcFmt   gputypes.TextureFormat
		dstFmt   gputypes.TextureFormat
		src, out []byte
	}{
		{"rgba to bgra", gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatBGRA8Unorm, src, []byte{30, 20, 10, 40}},
		{"bgra to rgba", gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatRGBA8Unorm, src, []byte{30, 20, 10, 40}},
		{"rgba to alpha", gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatR8Unorm, src, []byte{40}},
		{"alpha to rgba", gputypes.TextureFormatR8Unorm, gputypes.TextureFormatRGBA8Unorm, []byte{99}, []byte{0, 0, 0, 99}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := make([]byte, len(tt.out))
			convertRow(dst, tt.dstFmt, tt.src, tt.srcFmt, 1)
			for i := range dst {
				if dst[i] != tt.out[i] {
					t.Fatalf("got %v, want %v", dst, tt.out)
				}
			}
		})
	}
}

func TestUniformLayout(t *testing.T) {
	d := newTestDevice(t)
	rt := newTarget(t, d, 32, 16)
	tex, err := d.CreateTexture(device.TextureDesc{Width: 4, Height: 4, Format: gputypes.TextureFormatR8Unorm}, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	st := device.NewDrawState(rt)
	st.ViewMatrix = geom.Translate(3, 5)
	st.Stages[device.OffscreenStage] = device.Stage{
		Texture:     tex,
		Sampler:     device.SamplerState{Filter: device.FilterDownsample4x4, Matrix: geom.Scale(0.5, 0.25)},
		UsePosition: true,
	}
	g := &device.Geometry{Positions: make([]geom.Point, 3), Coverage: []float32{1, 1, 1}}

	buf := uniforms(&st, rt.(*renderTarget), g)
	if len(buf) != uniformSize {
		t.Fatalf("uniform size = %d, want %d", len(buf), uniformSize)
	}
	f := func(i int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:])) }

	if f(2) != 3 || f(6) != 5 {
		t.Errorf("view translation = (%v, %v), want (3, 5)", f(2), f(6))
	}
	if f(8) != 32 || f(9) != 16 {
		t.Errorf("viewport = (%v, %v)", f(8), f(9))
	}
	if f(16) != 0 || f(17) != 1 {
		t.Errorf("flags = (%v, %v), want coverage only", f(16), f(17))
	}
	// stage_row0[2] starts at vec4 5+2.
	if f(7*4) != 0.5 || f((5+3+2)*4+1) != 0.25 {
		t.Errorf("stage matrix = %v / %v", f(7*4), f((5+3+2)*4+1))
	}
	mode := (5 + 6 + 2) * 4
	if f(mode) != 1 || f(mode+1) != 1 || f(mode+2) != 2 || f(mode+3) != 1 {
		t.Errorf("stage mode = %v %v %v %v", f(mode), f(mode+1), f(mode+2), f(mode+3))
	}
	if f((5+6)*4) != 0 {
		t.Error("disabled stage 0 marked enabled")
	}
}

func TestAssembleExpandsFans(t *testing.T) {
	d := newTestDevice(t)
	topo, verts, idx := d.assemble(rectGeometry(geom.RectWH(1, 1)))
	if topo != gputypes.PrimitiveTopologyTriangleList {
		t.Errorf("topology = %v", topo)
	}
	if len(verts) != 4*vertexStride {
		t.Errorf("vertex bytes = %d", len(verts))
	}
	want := []uint32{0, 1, 2, 0, 2, 3}
	if len(idx) != len(want) {
		t.Fatalf("indices = %v, want %v", idx, want)
	}
	for i := range want {
		if idx[i] != want[i] {
			t.Fatalf("indices = %v, want %v", idx, want)
		}
	}
	// Absent coverage defaults to 1.
	if c := math.Float32frombits(binary.LittleEndian.Uint32(verts[48:])); c != 1 {
		t.Errorf("default coverage = %v", c)
	}
}

func TestStencilOpMapping(t *testing.T) {
	tests := []struct {
		in   gputypes.StencilOperation
		want hal.StencilOperation
	}{
		{gputypes.StencilOperationUndefined, hal.StencilOperationKeep},
		{gputypes.StencilOperationKeep, hal.StencilOperationKeep},
		{gputypes.StencilOperationZero, hal.StencilOperationZero},
		{gputypes.StencilOperationReplace, hal.StencilOperationReplace},
		{gputypes.StencilOperationInvert, hal.StencilOperationInvert},
		{gputypes.StencilOperationIncrementWrap, hal.StencilOperationIncrementWrap},
		{gputypes.StencilOperationDecrementWrap, hal.StencilOperationDecrementWrap},
	}
	for _, tt := range tests {
		if got := stencilOp(tt.in); got != tt.want {
			t.Errorf("stencilOp(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}

	ds := depthStencilState(device.StencilSettings{
		Enabled: true, Compare: gputypes.CompareFunctionAlways,
		PassOp: gputypes.StencilOperationIncrementWrap, BackPassOp: gputypes.StencilOperationDecrementWrap,
	})
	if ds.StencilFront.PassOp != hal.StencilOperationIncrementWrap || ds.StencilBack.PassOp != hal.StencilOperationDecrementWrap {
		t.Errorf("winding ops = %v / %v", ds.StencilFront.PassOp, ds.StencilBack.PassOp)
	}
}

func TestBlendState(t *testing.T) {
	if blendState(device.BlendSrc) != nil {
		t.Error("src copy should disable blending")
	}
	if blendState(device.Blend{}) != nil {
		t.Error("undefined factors should mean src copy")
	}
	b := blendState(device.BlendSrcOver)
	if b == nil || b.Color.DstFactor != gputypes.BlendFactorOneMinusSrcAlpha || b.Alpha.SrcFactor != gputypes.BlendFactorOne {
		t.Errorf("src over = %+v", b)
	}
}

func TestReleaseSubmitsPendingWork(t *testing.T) {
	d := newTestDevice(t)
	rt := newTarget(t, d, 8, 8)
	st := device.NewDrawState(rt)
	d.Draw(&st, rectGeometry(geom.RectWH(8, 8)))
	rt.AsTexture().Release()
	if d.frame.encoder != nil {
		t.Error("releasing a texture used by the frame did not flush it")
	}
	if d.bound != nil {
		t.Error("released target still bound")
	}
}

type plainProvider struct{}

func (plainProvider) Device() gpucontext.Device             { return nil }
func (plainProvider) Queue() gpucontext.Queue               { return nil }
func (plainProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatUndefined }
func (plainProvider) Adapter() gpucontext.Adapter           { return nil }
func (plainProvider) AdapterInfo() gpucontext.AdapterInfo   { return gpucontext.AdapterInfo{Name: "test"} }

type halProvider struct {
	plainProvider
	dev   hal.Device
	queue hal.Queue
}

func (p halProvider) HalDevice() any { return p.dev }
func (p halProvider) HalQueue() any  { return p.queue }

func TestNewFromProvider(t *testing.T) {
	if _, err := NewFromProvider(plainProvider{}); !errors.Is(err, ErrNotHAL) {
		t.Fatalf("plain provider: err = %v, want ErrNotHAL", err)
	}

	hd, q := createNoopDevice(t)
	d, err := NewFromProvider(halProvider{dev: hd, queue: q})
	if err != nil {
		t.Fatalf("NewFromProvider failed: %v", err)
	}
	defer d.Close()
	if d.Info().Name != "test" {
		t.Errorf("info name = %q", d.Info().Name)
	}
}
