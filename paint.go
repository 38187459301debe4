package gr

import (
	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/geom"
)

// FillType specifies how to determine which areas are inside a path.
type FillType int

const (
	// FillWinding uses the non-zero winding rule.
	FillWinding FillType = iota
	// FillEvenOdd uses the even-odd rule.
	FillEvenOdd
	// FillInverseWinding fills everything outside the winding fill.
	FillInverseWinding
	// FillInverseEvenOdd fills everything outside the even-odd fill.
	FillInverseEvenOdd
	// FillHairline strokes the path with one-pixel-wide lines.
	FillHairline
)

var fillNames = [...]string{
	FillWinding:        "Winding",
	FillEvenOdd:        "EvenOdd",
	FillInverseWinding: "InverseWinding",
	FillInverseEvenOdd: "InverseEvenOdd",
	FillHairline:       "Hairline",
}

// String implements fmt.Stringer.
func (f FillType) String() string {
	if f >= 0 && int(f) < len(fillNames) {
		return fillNames[f]
	}
	return "Unknown"
}

// IsInverse reports whether the fill covers the outside of the path.
func (f FillType) IsInverse() bool {
	return f == FillInverseWinding || f == FillInverseEvenOdd
}

// NonInverse returns the fill type without the inverse bit.
func (f FillType) NonInverse() FillType {
	switch f {
	case FillInverseWinding:
		return FillWinding
	case FillInverseEvenOdd:
		return FillEvenOdd
	default:
		return f
	}
}

// Paint represents the styling information for drawing.
type Paint struct {
	// Color modulates the stage outputs. Premultiplied.
	Color device.Color

	// Blend combines the draw with the render target.
	Blend device.Blend

	// AntiAlias requests antialiased edges.
	AntiAlias bool

	// Stages sample textures. Disabled stages have a nil texture. A stage
	// without explicit texture coordinates samples at the local position
	// through its sampler matrix.
	Stages [device.PaintStages]device.Stage
}

// NewPaint returns an opaque white, src-over paint without textures.
func NewPaint() Paint {
	return Paint{
		Color: device.White,
		Blend: device.BlendSrcOver,
	}
}

// SetTexture binds tex with sampler to stage i.
func (p *Paint) SetTexture(i int, tex device.Texture, sampler device.SamplerState) {
	p.Stages[i] = device.Stage{Texture: tex, Sampler: sampler}
}

// ClearTextures disables every stage.
func (p *Paint) ClearTextures() {
	p.Stages = [device.PaintStages]device.Stage{}
}

// StageMask returns a bit per enabled stage.
func (p *Paint) StageMask() uint32 {
	var mask uint32
	for i, st := range p.Stages {
		if st.Enabled() {
			mask |= 1 << i
		}
	}
	return mask
}

// apply copies the paint into st.
func (p *Paint) apply(st *device.DrawState) {
	st.Color = p.Color
	st.Blend = p.Blend
	for i := range p.Stages {
		st.Stages[i] = p.Stages[i]
	}
	st.Stages[device.OffscreenStage] = device.Stage{}
}

// texturedPaint returns a paint sampling tex across the unit square: the
// stage matrix maps local rect r onto (0..1, 0..1).
func texturedPaint(tex device.Texture, r geom.Rect, filter device.Filter) Paint {
	p := NewPaint()
	s := device.ClampNoFilter()
	s.Filter = filter
	s.Matrix = geom.Scale(1/r.Width(), 1/r.Height()).Multiply(geom.Translate(-r.Left, -r.Top))
	p.SetTexture(0, tex, s)
	return p
}
