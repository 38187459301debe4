package wgpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/internal/logging"
)

//go:embed shaders/draw.wgsl
var drawShaderSource string

// uniformSize is the byte size of the draw uniform block:
// 5 vec4 (view rows, viewport, color, flags) + 3 arrays of 3 vec4.
const uniformSize = 5*16 + 3*3*16

// vertexStride is the interleaved vertex size: position, three texture
// coordinates, color (vec4) and coverage, all float32.
const vertexStride = (2 + 3*2 + 4 + 1) * 4

// pipelineKey is the subset of draw state baked into a render pipeline.
// The stencil reference is dynamic and not part of the key.
type pipelineKey struct {
	format     gputypes.TextureFormat
	samples    int
	topology   gputypes.PrimitiveTopology
	blend      device.Blend
	noColor    bool
	hasStencil bool
	stencil    device.StencilSettings
}

type samplerKey struct {
	wrapX, wrapY gputypes.AddressMode
	linear       bool
}

// pipelines caches shader, layouts, samplers and render pipelines.
type pipelines struct {
	dev        hal.Device
	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout

	// white is bound to disabled stages so every bind group is complete.
	white     hal.Texture
	whiteView hal.TextureView

	samplers map[samplerKey]hal.Sampler
	cache    map[pipelineKey]hal.RenderPipeline
}

func newPipelines(d *Device) (*pipelines, error) {
	p := &pipelines{
		dev:      d.dev,
		samplers: make(map[samplerKey]hal.Sampler),
		cache:    make(map[pipelineKey]hal.RenderPipeline),
	}

	src := hal.ShaderSource{WGSL: drawShaderSource}
	if d.spirv {
		code, err := compileSPIRV(drawShaderSource)
		if err != nil {
			return nil, err
		}
		src = hal.ShaderSource{SPIRV: code}
	}
	shader, err := d.dev.CreateShaderModule(&hal.ShaderModuleDescriptor{Label: "gr_draw_shader", Source: src})
	if err != nil {
		return nil, fmt.Errorf("wgpu: compile draw shader: %w", err)
	}
	p.shader = shader

	entries := []gputypes.BindGroupLayoutEntry{{
		Binding:    0,
		Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
		Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
	}}
	for i := 0; i < device.NumStages; i++ {
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    uint32(1 + i),
			Visibility: gputypes.ShaderStageFragment,
			Texture: &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeFloat,
				ViewDimension: gputypes.TextureViewDimension2D,
			},
		})
	}
	for i := 0; i < device.NumStages; i++ {
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    uint32(1 + device.NumStages + i),
			Visibility: gputypes.ShaderStageFragment,
			Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
		})
	}
	p.bindLayout, err = d.dev.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{Label: "gr_draw_layout", Entries: entries})
	if err != nil {
		p.destroy()
		return nil, fmt.Errorf("wgpu: create bind group layout: %w", err)
	}
	p.pipeLayout, err = d.dev.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "gr_draw_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.bindLayout},
	})
	if err != nil {
		p.destroy()
		return nil, fmt.Errorf("wgpu: create pipeline layout: %w", err)
	}

	p.white, err = d.dev.CreateTexture(&hal.TextureDescriptor{
		Label:         "gr_white",
		Size:          hal.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		p.destroy()
		return nil, fmt.Errorf("wgpu: create white texture: %w", err)
	}
	p.whiteView, err = d.dev.CreateTextureView(p.white, &hal.TextureViewDescriptor{Label: "gr_white_view"})
	if err != nil {
		p.destroy()
		return nil, fmt.Errorf("wgpu: create white view: %w", err)
	}
	err = d.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: p.white},
		[]byte{0xff, 0xff, 0xff, 0xff},
		&hal.ImageDataLayout{BytesPerRow: 4, RowsPerImage: 1},
		&hal.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1},
	)
	if err != nil {
		p.destroy()
		return nil, fmt.Errorf("wgpu: upload white texture: %w", err)
	}
	return p, nil
}

// compileSPIRV compiles WGSL to little-endian SPIR-V words.
func compileSPIRV(source string) ([]uint32, error) {
	b, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("wgpu: compile shader: %w", err)
	}
	code := make([]uint32, len(b)/4)
	for i := range code {
		code[i] = uint32(b[i*4]) | uint32(b[i*4+1])<<8 | uint32(b[i*4+2])<<16 | uint32(b[i*4+3])<<24
	}
	return code, nil
}

func (p *pipelines) sampler(s device.SamplerState) (hal.Sampler, error) {
	key := samplerKey{wrapX: s.WrapX, wrapY: s.WrapY, linear: s.Filter != device.FilterNearest}
	if sm, ok := p.samplers[key]; ok {
		return sm, nil
	}
	filter := gputypes.FilterModeNearest
	if key.linear {
		filter = gputypes.FilterModeLinear
	}
	sm, err := p.dev.CreateSampler(&hal.SamplerDescriptor{
		Label:        "gr_sampler",
		AddressModeU: addressMode(s.WrapX),
		AddressModeV: addressMode(s.WrapY),
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    filter,
		MinFilter:    filter,
		MipmapFilter: gputypes.FilterModeNearest,
		LodMaxClamp:  32,
		Anisotropy:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create sampler: %w", err)
	}
	p.samplers[key] = sm
	return sm, nil
}

func addressMode(m gputypes.AddressMode) gputypes.AddressMode {
	if m == gputypes.AddressModeUndefined {
		return gputypes.AddressModeClampToEdge
	}
	return m
}

func (p *pipelines) pipeline(key pipelineKey) (hal.RenderPipeline, error) {
	if rp, ok := p.cache[key]; ok {
		return rp, nil
	}

	writeMask := gputypes.ColorWriteMaskAll
	if key.noColor {
		writeMask = gputypes.ColorWriteMaskNone
	}
	target := gputypes.ColorTargetState{
		Format:    key.format,
		Blend:     blendState(key.blend),
		WriteMask: writeMask,
	}

	desc := &hal.RenderPipelineDescriptor{
		Label:  fmt.Sprintf("gr_draw_%s_x%d", key.format, key.samples),
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.shader,
			EntryPoint: "vs_main",
			Buffers:    vertexLayout(),
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  key.topology,
			FrontFace: gputypes.FrontFaceCCW,
			CullMode:  gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: uint32(key.samples),
			Mask:  0xFFFFFFFF,
		},
		Fragment: &hal.FragmentState{
			Module:     p.shader,
			EntryPoint: "fs_main",
			Targets:    []gputypes.ColorTargetState{target},
		},
	}
	if key.hasStencil {
		desc.DepthStencil = depthStencilState(key.stencil)
	}

	rp, err := p.dev.CreateRenderPipeline(desc)
	if err != nil {
		return nil, fmt.Errorf("wgpu: create pipeline %s: %w", desc.Label, err)
	}
	logging.L().Debug("wgpu: pipeline created", "label", desc.Label, "cached", len(p.cache)+1)
	p.cache[key] = rp
	return rp, nil
}

func vertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{{
		ArrayStride: vertexStride,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
			{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
			{Format: gputypes.VertexFormatFloat32x2, Offset: 16, ShaderLocation: 2},
			{Format: gputypes.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 3},
			{Format: gputypes.VertexFormatFloat32x4, Offset: 32, ShaderLocation: 4},
			{Format: gputypes.VertexFormatFloat32, Offset: 48, ShaderLocation: 5},
		},
	}}
}

func blendState(b device.Blend) *gputypes.BlendState {
	src, dst := b.Src, b.Dst
	if src == gputypes.BlendFactorUndefined {
		src = gputypes.BlendFactorOne
	}
	if dst == gputypes.BlendFactorUndefined {
		dst = gputypes.BlendFactorZero
	}
	if src == gputypes.BlendFactorOne && dst == gputypes.BlendFactorZero {
		return nil
	}
	c := gputypes.BlendComponent{SrcFactor: src, DstFactor: dst, Operation: gputypes.BlendOperationAdd}
	return &gputypes.BlendState{Color: c, Alpha: c}
}

// depthStencilState converts stencil settings. Counter-clockwise triangles
// in device space (y down) are front faces; BackPassOp applies to the
// others.
func depthStencilState(s device.StencilSettings) *hal.DepthStencilState {
	front := hal.StencilFaceState{
		Compare:     compareFunc(s),
		FailOp:      stencilOp(s.FailOp),
		DepthFailOp: hal.StencilOperationKeep,
		PassOp:      stencilOp(s.PassOp),
	}
	back := front
	if s.BackPassOp != gputypes.StencilOperationUndefined {
		back.PassOp = stencilOp(s.BackPassOp)
	}
	return &hal.DepthStencilState{
		Format:            gputypes.TextureFormatDepth24PlusStencil8,
		DepthWriteEnabled: false,
		DepthCompare:      gputypes.CompareFunctionAlways,
		StencilFront:      front,
		StencilBack:       back,
		StencilReadMask:   uint32(s.ReadMask),
		StencilWriteMask:  uint32(s.WriteMask),
	}
}

func compareFunc(s device.StencilSettings) gputypes.CompareFunction {
	if !s.Enabled || s.Compare == gputypes.CompareFunctionUndefined {
		return gputypes.CompareFunctionAlways
	}
	return s.Compare
}

// stencilOp maps the 1-based gputypes operation onto the HAL's 0-based one.
func stencilOp(op gputypes.StencilOperation) hal.StencilOperation {
	switch op {
	case gputypes.StencilOperationZero:
		return hal.StencilOperationZero
	case gputypes.StencilOperationReplace:
		return hal.StencilOperationReplace
	case gputypes.StencilOperationInvert:
		return hal.StencilOperationInvert
	case gputypes.StencilOperationIncrementClamp:
		return hal.StencilOperationIncrementClamp
	case gputypes.StencilOperationDecrementClamp:
		return hal.StencilOperationDecrementClamp
	case gputypes.StencilOperationIncrementWrap:
		return hal.StencilOperationIncrementWrap
	case gputypes.StencilOperationDecrementWrap:
		return hal.StencilOperationDecrementWrap
	default:
		return hal.StencilOperationKeep
	}
}

func (p *pipelines) destroy() {
	for _, rp := range p.cache {
		p.dev.DestroyRenderPipeline(rp)
	}
	for _, sm := range p.samplers {
		p.dev.DestroySampler(sm)
	}
	if p.whiteView != nil {
		p.dev.DestroyTextureView(p.whiteView)
	}
	if p.white != nil {
		p.dev.DestroyTexture(p.white)
	}
	if p.pipeLayout != nil {
		p.dev.DestroyPipelineLayout(p.pipeLayout)
	}
	if p.bindLayout != nil {
		p.dev.DestroyBindGroupLayout(p.bindLayout)
	}
	if p.shader != nil {
		p.dev.DestroyShaderModule(p.shader)
	}
	p.cache = nil
	p.samplers = nil
}
