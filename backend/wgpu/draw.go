package wgpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/geom"
	"github.com/gogpu/gr/internal/logging"
)

// frame is the work recorded since the last Submit.
type frame struct {
	encoder hal.CommandEncoder
	buffers []hal.Buffer
	groups  []hal.BindGroup

	// used holds every texture sampled or rendered in this frame.
	used map[*texture]struct{}

	// usage tracks the last usage of textures that were both rendered and
	// sampled, so passes can insert transitions.
	usage map[*texture]gputypes.TextureUsage
}

func (d *Device) encoder() (hal.CommandEncoder, error) {
	if d.frame.encoder != nil {
		return d.frame.encoder, nil
	}
	enc, err := d.dev.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "gr_frame"})
	if err != nil {
		return nil, err
	}
	if err := enc.BeginEncoding("gr_frame"); err != nil {
		return nil, err
	}
	d.frame.encoder = enc
	d.frame.used = make(map[*texture]struct{})
	d.frame.usage = make(map[*texture]gputypes.TextureUsage)
	return enc, nil
}

func (d *Device) transition(enc hal.CommandEncoder, t *texture, to gputypes.TextureUsage) {
	from, ok := d.frame.usage[t]
	d.frame.usage[t] = to
	if !ok || from == to {
		return
	}
	enc.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.tex,
		Usage:   hal.TextureUsageTransition{OldUsage: from, NewUsage: to},
	}})
}

// target resolves rt to a live render target of this device.
func (d *Device) target(rt device.RenderTarget) *renderTarget {
	r, ok := rt.(*renderTarget)
	if !ok || r == nil || r.view == nil || r.dev != d {
		logging.L().Warn("wgpu: draw to invalid render target", "rt", fmt.Sprintf("%T", rt))
		return nil
	}
	return r
}

// Draw records one render pass drawing g with st.
func (d *Device) Draw(st *device.DrawState, g *device.Geometry) {
	rt := d.target(st.RenderTarget)
	if rt == nil || len(g.Positions) == 0 {
		return
	}
	d.bind(rt)

	var sb *stencilBuffer
	if st.Stencil.Enabled {
		s, ok := rt.stencil.(*stencilBuffer)
		if !ok || s == nil || !s.valid {
			logging.L().Warn("wgpu: stencil draw without stencil buffer", "rt", fmt.Sprintf("%dx%d", rt.w, rt.h))
			return
		}
		sb = s
	}

	scissor := geom.IRectWH(rt.w, rt.h)
	if st.Clip.Enabled {
		var ok bool
		if scissor, ok = scissor.Intersect(st.Clip.Rect); !ok {
			return
		}
	}

	topology, verts, indices := d.assemble(g)
	if len(indices) == 0 && topology != gputypes.PrimitiveTopologyPointList {
		return
	}

	if err := d.recordDraw(st, g, rt, sb, scissor, topology, verts, indices); err != nil {
		logging.L().Error("wgpu: draw failed", "error", err)
		return
	}
	d.stats.Draws++
	d.stats.Vertices += g.VertexCount()
}

// assemble interleaves the vertex attributes and expands strips and fans
// into lists.
func (d *Device) assemble(g *device.Geometry) (gputypes.PrimitiveTopology, []byte, []uint32) {
	n := len(g.Positions)
	verts := make([]byte, n*vertexStride)
	put := func(off int, v float32) {
		binary.LittleEndian.PutUint32(verts[off:], math.Float32bits(v))
	}
	for i, p := range g.Positions {
		o := i * vertexStride
		put(o, float32(p.X))
		put(o+4, float32(p.Y))
		for s := 0; s < device.NumStages; s++ {
			if tc := g.TexCoords[s]; i < len(tc) {
				put(o+8+s*8, float32(tc[i].X))
				put(o+12+s*8, float32(tc[i].Y))
			}
		}
		if i < len(g.Colors) {
			c := g.Colors[i]
			put(o+32, c.R)
			put(o+36, c.G)
			put(o+40, c.B)
			put(o+44, c.A)
		}
		cov := float32(1)
		if i < len(g.Coverage) {
			cov = g.Coverage[i]
		}
		put(o+48, cov)
	}

	switch g.Primitive {
	case device.Lines, device.LineStrip:
		segs := g.Segments()
		idx := make([]uint32, 0, len(segs)*2)
		for _, s := range segs {
			idx = append(idx, uint32(s[0]), uint32(s[1]))
		}
		return gputypes.PrimitiveTopologyLineList, verts, idx
	case device.Points:
		return gputypes.PrimitiveTopologyPointList, verts, nil
	default:
		tris := g.Triangles()
		idx := make([]uint32, 0, len(tris)*3)
		for _, t := range tris {
			idx = append(idx, uint32(t[0]), uint32(t[1]), uint32(t[2]))
		}
		return gputypes.PrimitiveTopologyTriangleList, verts, idx
	}
}

// uniforms packs the draw uniform block.
func uniforms(st *device.DrawState, rt *renderTarget, g *device.Geometry) []byte {
	buf := make([]byte, uniformSize)
	off := 0
	vec4 := func(x, y, z, w float32) {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(x))
		binary.LittleEndian.PutUint32(buf[off+4:], math.Float32bits(y))
		binary.LittleEndian.PutUint32(buf[off+8:], math.Float32bits(z))
		binary.LittleEndian.PutUint32(buf[off+12:], math.Float32bits(w))
		off += 16
	}
	b2f := func(b bool) float32 {
		if b {
			return 1
		}
		return 0
	}

	m := st.ViewMatrix
	vec4(float32(m.A), float32(m.B), float32(m.C), 0)
	vec4(float32(m.D), float32(m.E), float32(m.F), 0)
	vec4(float32(rt.w), float32(rt.h), 0, 0)
	vec4(st.Color.R, st.Color.G, st.Color.B, st.Color.A)
	vec4(b2f(len(g.Colors) > 0), b2f(len(g.Coverage) > 0), 0, 0)
	for i := range st.Stages {
		sm := st.Stages[i].Sampler.Matrix
		vec4(float32(sm.A), float32(sm.B), float32(sm.C), 0)
	}
	for i := range st.Stages {
		sm := st.Stages[i].Sampler.Matrix
		vec4(float32(sm.D), float32(sm.E), float32(sm.F), 0)
	}
	for i, s := range st.Stages {
		if !s.Enabled() {
			vec4(0, 0, 0, 0)
			continue
		}
		usePos := s.UsePosition || len(g.TexCoords[i]) == 0
		vec4(1, b2f(usePos), float32(s.Sampler.Filter), b2f(device.IsAlphaOnly(s.Texture.Format())))
	}
	return buf
}

func (d *Device) transientBuffer(label string, usage gputypes.BufferUsage, data []byte) (hal.Buffer, error) {
	size := uint64(len(data)+3) &^ 3
	buf, err := d.dev.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: usage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s buffer: %w", label, err)
	}
	d.frame.buffers = append(d.frame.buffers, buf)
	if len(data)%4 != 0 {
		data = append(data, make([]byte, int(size)-len(data))...)
	}
	if err := d.queue.WriteBuffer(buf, 0, data); err != nil {
		return nil, fmt.Errorf("write %s buffer: %w", label, err)
	}
	return buf, nil
}

func (d *Device) recordDraw(st *device.DrawState, g *device.Geometry, rt *renderTarget, sb *stencilBuffer, scissor geom.IRect,
	topology gputypes.PrimitiveTopology, verts []byte, indices []uint32) error {
	enc, err := d.encoder()
	if err != nil {
		return err
	}

	entries := make([]gputypes.BindGroupEntry, 0, 1+2*device.NumStages)
	ub, err := d.transientBuffer("gr_uniforms", gputypes.BufferUsageUniform, uniforms(st, rt, g))
	if err != nil {
		return err
	}
	entries = append(entries, gputypes.BindGroupEntry{
		Binding:  0,
		Resource: gputypes.BufferBinding{Buffer: ub.NativeHandle(), Offset: 0, Size: uniformSize},
	})
	for i, s := range st.Stages {
		view := d.pl.whiteView
		if s.Enabled() {
			t, ok := s.Texture.(*texture)
			if !ok || !t.valid {
				return fmt.Errorf("stage %d: invalid texture %T", i, s.Texture)
			}
			if rt.tex == t {
				return fmt.Errorf("stage %d samples its own render target", i)
			}
			d.frame.used[t] = struct{}{}
			d.transition(enc, t, gputypes.TextureUsageTextureBinding)
			view = t.view
		}
		entries = append(entries, gputypes.BindGroupEntry{
			Binding:  uint32(1 + i),
			Resource: gputypes.TextureViewBinding{TextureView: view.NativeHandle()},
		})
	}
	for i, s := range st.Stages {
		sampler := device.ClampNoFilter()
		if s.Enabled() {
			sampler = s.Sampler
		}
		sm, err := d.pl.sampler(sampler)
		if err != nil {
			return err
		}
		entries = append(entries, gputypes.BindGroupEntry{
			Binding:  uint32(1 + device.NumStages + i),
			Resource: gputypes.SamplerBinding{Sampler: sm.NativeHandle()},
		})
	}
	group, err := d.dev.CreateBindGroup(&hal.BindGroupDescriptor{Label: "gr_draw_group", Layout: d.pl.bindLayout, Entries: entries})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}
	d.frame.groups = append(d.frame.groups, group)

	vb, err := d.transientBuffer("gr_vertices", gputypes.BufferUsageVertex, verts)
	if err != nil {
		return err
	}
	var ib hal.Buffer
	if len(indices) > 0 {
		raw := make([]byte, len(indices)*4)
		for i, v := range indices {
			binary.LittleEndian.PutUint32(raw[i*4:], v)
		}
		if ib, err = d.transientBuffer("gr_indices", gputypes.BufferUsageIndex, raw); err != nil {
			return err
		}
	}

	key := pipelineKey{
		format:     rt.format,
		samples:    rt.samples,
		topology:   topology,
		blend:      st.Blend,
		noColor:    st.ColorWriteDisabled,
		hasStencil: sb != nil,
	}
	if sb != nil {
		key.stencil = st.Stencil
		key.stencil.Ref = 0
	}
	pipe, err := d.pl.pipeline(key)
	if err != nil {
		return err
	}

	pass := d.beginPass(enc, rt, sb, nil)
	pass.SetPipeline(pipe)
	pass.SetBindGroup(0, group, nil)
	pass.SetBlendConstant(&gputypes.Color{R: 1, G: 1, B: 1, A: 1})
	pass.SetVertexBuffer(0, vb, 0)
	pass.SetScissorRect(uint32(scissor.Left), uint32(scissor.Top), uint32(scissor.Width()), uint32(scissor.Height()))
	if sb != nil {
		pass.SetStencilReference(uint32(st.Stencil.Ref))
	}
	if ib != nil {
		pass.SetIndexBuffer(ib, gputypes.IndexFormatUint32, 0)
		pass.DrawIndexed(uint32(len(indices)), 1, 0, 0, 0)
	} else {
		pass.Draw(uint32(len(verts)/vertexStride), 1, 0, 0)
	}
	pass.End()
	return nil
}

// beginPass starts a render pass into rt. A nil clear loads the current
// contents, except for attachments that were never written, which are
// cleared to transparent.
func (d *Device) beginPass(enc hal.CommandEncoder, rt *renderTarget, sb *stencilBuffer, clear *device.Color) hal.RenderPassEncoder {
	view, resolve := rt.attachment()
	color := hal.RenderPassColorAttachment{
		View:          view,
		ResolveTarget: resolve,
		LoadOp:        gputypes.LoadOpLoad,
		StoreOp:       gputypes.StoreOpStore,
	}
	if clear != nil || !rt.cleared {
		color.LoadOp = gputypes.LoadOpClear
		if clear != nil {
			color.ClearValue = gputypes.Color{R: float64(clear.R), G: float64(clear.G), B: float64(clear.B), A: float64(clear.A)}
		}
	}
	rt.cleared = true
	if rt.tex != nil {
		d.frame.used[rt.tex] = struct{}{}
		d.transition(enc, rt.tex, gputypes.TextureUsageRenderAttachment)
	}

	desc := &hal.RenderPassDescriptor{
		Label:            "gr_draw_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{color},
	}
	if sb != nil {
		ds := &hal.RenderPassDepthStencilAttachment{
			View:            sb.view,
			DepthLoadOp:     gputypes.LoadOpClear,
			DepthStoreOp:    gputypes.StoreOpDiscard,
			DepthClearValue: 1,
			StencilLoadOp:   gputypes.LoadOpLoad,
			StencilStoreOp:  gputypes.StoreOpStore,
		}
		if !sb.cleared {
			ds.StencilLoadOp = gputypes.LoadOpClear
			sb.cleared = true
		}
		desc.DepthStencilAttachment = ds
	}
	return enc.BeginRenderPass(desc)
}

// Clear fills rect of rt with color. Whole-target clears use the pass load
// operation; partial ones draw a scissored quad that replaces the
// destination.
func (d *Device) Clear(rt device.RenderTarget, rect *geom.IRect, color device.Color) {
	r := d.target(rt)
	if r == nil {
		return
	}
	bounds := geom.IRectWH(r.w, r.h)
	if rect != nil && !rect.Contains(bounds) {
		clipped, ok := bounds.Intersect(*rect)
		if !ok {
			return
		}
		st := device.NewDrawState(rt)
		st.Color = color
		st.Blend = device.BlendSrc
		st.Clip = device.Clip{Enabled: true, Rect: clipped}
		g := &device.Geometry{Primitive: device.TriangleFan, Positions: device.RectFan(clipped.Rect())}
		draws, verts, binds := d.stats.Draws, d.stats.Vertices, d.stats.RenderTargetBinds
		bound := d.bound
		d.Draw(&st, g)
		d.stats.Draws, d.stats.Vertices, d.stats.RenderTargetBinds = draws, verts, binds
		d.bound = bound
		d.stats.Clears++
		return
	}

	enc, err := d.encoder()
	if err != nil {
		logging.L().Error("wgpu: clear failed", "error", err)
		return
	}
	pass := d.beginPass(enc, r, nil, &color)
	pass.End()
	d.stats.Clears++
}

// Submit ends the frame's command encoder, submits it and waits for the
// GPU to finish so transient buffers can be freed.
func (d *Device) Submit() {
	d.stats.Submits++
	d.submit()
}

func (d *Device) submit() {
	enc := d.frame.encoder
	if enc == nil {
		return
	}
	d.frame.encoder = nil
	cb, err := enc.EndEncoding()
	if err != nil {
		logging.L().Error("wgpu: end encoding", "error", err)
		enc.DiscardEncoding()
	} else {
		if _, err := d.queue.Submit([]hal.CommandBuffer{cb}); err != nil {
			logging.L().Error("wgpu: submit", "error", err)
		}
		if err := d.dev.WaitIdle(); err != nil {
			logging.L().Error("wgpu: wait idle", "error", err)
		}
		d.dev.FreeCommandBuffer(cb)
	}
	enc.Destroy()
	for _, g := range d.frame.groups {
		d.dev.DestroyBindGroup(g)
	}
	for _, b := range d.frame.buffers {
		d.dev.DestroyBuffer(b)
	}
	d.frame = frame{}
}

// submitIfReferenced flushes the frame when it uses t.
func (d *Device) submitIfReferenced(t *texture) {
	if _, ok := d.frame.used[t]; ok {
		d.submit()
	}
}
