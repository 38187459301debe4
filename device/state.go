package device

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/gr/geom"
)

// Stage indices. Paint stages carry the paint's textures; the offscreen
// stage is reserved for the coverage texture of offscreen antialiasing.
const (
	PaintStages    = 2
	OffscreenStage = PaintStages
	NumStages      = PaintStages + 1
)

// Filter selects how a stage samples its texture.
type Filter uint8

const (
	FilterNearest Filter = iota
	FilterBilinear

	// FilterDownsample4x4 averages the 4x4 texel block around the sample
	// point. Only valid when Caps.Supports4x4Downsample is set.
	FilterDownsample4x4
)

// String implements fmt.Stringer.
func (f Filter) String() string {
	switch f {
	case FilterNearest:
		return "Nearest"
	case FilterBilinear:
		return "Bilinear"
	case FilterDownsample4x4:
		return "Downsample4x4"
	default:
		return "Unknown"
	}
}

// SamplerState describes how a stage samples its texture. Matrix maps the
// stage's input coordinate (local position or explicit texture coordinate)
// to normalized texture space.
type SamplerState struct {
	WrapX  gputypes.AddressMode
	WrapY  gputypes.AddressMode
	Filter Filter
	Matrix geom.Matrix
}

// ClampNoFilter returns a clamped, nearest-filtered sampler with an identity
// matrix.
func ClampNoFilter() SamplerState {
	return SamplerState{
		WrapX:  gputypes.AddressModeClampToEdge,
		WrapY:  gputypes.AddressModeClampToEdge,
		Filter: FilterNearest,
		Matrix: geom.Identity(),
	}
}

// IsTiled reports whether either axis repeats or mirrors.
func (s SamplerState) IsTiled() bool {
	return isTiling(s.WrapX) || isTiling(s.WrapY)
}

func isTiling(m gputypes.AddressMode) bool {
	return m == gputypes.AddressModeRepeat || m == gputypes.AddressModeMirrorRepeat
}

// Stage binds a texture with its sampler. A stage with a nil texture is
// disabled.
type Stage struct {
	Texture Texture
	Sampler SamplerState

	// UsePosition makes the stage read the pre-view-matrix vertex position
	// instead of the geometry's texture coordinates for this stage.
	UsePosition bool
}

// Enabled reports whether the stage samples anything.
func (s Stage) Enabled() bool { return s.Texture != nil }

// Blend is a pair of blend coefficients applied as src*Src + dst*Dst.
type Blend struct {
	Src gputypes.BlendFactor
	Dst gputypes.BlendFactor
}

// Common blend modes.
var (
	BlendSrcOver = Blend{Src: gputypes.BlendFactorOne, Dst: gputypes.BlendFactorOneMinusSrcAlpha}
	BlendSrc     = Blend{Src: gputypes.BlendFactorOne, Dst: gputypes.BlendFactorZero}
)

// CanTweakAlphaForCoverage reports whether coverage can be folded into the
// source alpha without changing the result: true when the destination
// coefficient is One, OneMinusSrcAlpha or OneMinusSrc.
func (b Blend) CanTweakAlphaForCoverage() bool {
	switch b.Dst {
	case gputypes.BlendFactorOne, gputypes.BlendFactorOneMinusSrcAlpha, gputypes.BlendFactorOneMinusSrc:
		return true
	default:
		return false
	}
}

// StencilSettings configures the stencil test and update for one draw.
// The zero value disables stencil.
type StencilSettings struct {
	Enabled   bool
	Compare   gputypes.CompareFunction
	Ref       uint8
	ReadMask  uint8
	WriteMask uint8
	PassOp    gputypes.StencilOperation
	FailOp    gputypes.StencilOperation

	// BackPassOp, when set, is used for clockwise triangles so a single
	// pass can implement winding fills (increment front, decrement back).
	BackPassOp gputypes.StencilOperation
}

// Clip is a scissor rectangle in device space.
type Clip struct {
	Enabled bool
	Rect    geom.IRect
}

// DrawState is the full pipeline state of one draw.
type DrawState struct {
	RenderTarget RenderTarget
	ViewMatrix   geom.Matrix
	Color        Color
	Stages       [NumStages]Stage
	Blend        Blend
	Clip         Clip
	Stencil      StencilSettings

	// ColorWriteDisabled suppresses color output (stencil-only passes).
	ColorWriteDisabled bool
}

// NewDrawState returns a state that draws opaque white with src-over
// blending and an identity view matrix.
func NewDrawState(rt RenderTarget) DrawState {
	return DrawState{
		RenderTarget: rt,
		ViewMatrix:   geom.Identity(),
		Color:        White,
		Blend:        BlendSrcOver,
	}
}

// StageMask returns a bit per enabled stage.
func (s *DrawState) StageMask() uint32 {
	var mask uint32
	for i, st := range s.Stages {
		if st.Enabled() {
			mask |= 1 << i
		}
	}
	return mask
}

// CanDisableBlend reports whether the draw would produce the same result
// with blending turned off: the blend must be src-copy, or src-over with a
// provably opaque source.
func (s *DrawState) CanDisableBlend() bool {
	if s.Blend == BlendSrc {
		return true
	}
	if s.Blend != BlendSrcOver || !s.Color.IsOpaque() {
		return false
	}
	for _, st := range s.Stages {
		if st.Enabled() {
			return false
		}
	}
	return true
}

// PreConcatStageMatrices pre-concatenates m onto the sampler matrix of every
// stage whose bit is set in mask.
func (s *DrawState) PreConcatStageMatrices(mask uint32, m geom.Matrix) {
	for i := range s.Stages {
		if mask&(1<<i) != 0 {
			s.Stages[i].Sampler.Matrix = s.Stages[i].Sampler.Matrix.PreConcat(m)
		}
	}
}
