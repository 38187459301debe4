package soft

import (
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/geom"
)

// sampleStage samples the stage texture at normalized coordinate uv.
func sampleStage(stage *device.Stage, uv geom.Point) device.Color {
	t, ok := stage.Texture.(*texture)
	if !ok || !t.valid {
		return device.Transparent
	}
	s := &stage.Sampler
	x := uv.X * float64(t.surf.w)
	y := uv.Y * float64(t.surf.h)

	switch s.Filter {
	case device.FilterBilinear:
		x -= 0.5
		y -= 0.5
		fx, fy := math.Floor(x), math.Floor(y)
		tx, ty := float32(x-fx), float32(y-fy)
		ix, iy := int(fx), int(fy)
		c00 := texel(t, s, ix, iy)
		c10 := texel(t, s, ix+1, iy)
		c01 := texel(t, s, ix, iy+1)
		c11 := texel(t, s, ix+1, iy+1)
		return mix(mix(c00, c10, tx), mix(c01, c11, tx), ty)

	case device.FilterDownsample4x4:
		ix := int(math.Floor(x - 1.5))
		iy := int(math.Floor(y - 1.5))
		var sum device.Color
		for dy := 0; dy < 4; dy++ {
			for dx := 0; dx < 4; dx++ {
				c := texel(t, s, ix+dx, iy+dy)
				sum.R += c.R
				sum.G += c.G
				sum.B += c.B
				sum.A += c.A
			}
		}
		return sum.Scale(1.0 / 16)

	default:
		return texel(t, s, int(math.Floor(x)), int(math.Floor(y)))
	}
}

func texel(t *texture, s *device.SamplerState, x, y int) device.Color {
	return t.surf.get(wrap(x, t.surf.w, s.WrapX), wrap(y, t.surf.h, s.WrapY))
}

func wrap(i, n int, mode gputypes.AddressMode) int {
	switch mode {
	case gputypes.AddressModeRepeat:
		return ((i % n) + n) % n
	case gputypes.AddressModeMirrorRepeat:
		period := 2 * n
		m := ((i % period) + period) % period
		if m >= n {
			m = period - 1 - m
		}
		return m
	default:
		return min(max(i, 0), n-1)
	}
}

func mix(a, b device.Color, t float32) device.Color {
	return device.Color{
		R: a.R + (b.R-a.R)*t,
		G: a.G + (b.G-a.G)*t,
		B: a.B + (b.B-a.B)*t,
		A: a.A + (b.A-a.A)*t,
	}
}

// blend computes src*b.Src + dst*b.Dst.
func blend(b device.Blend, src, dst device.Color) device.Color {
	fs := factor(b.Src, gputypes.BlendFactorOne, src, dst)
	fd := factor(b.Dst, gputypes.BlendFactorZero, src, dst)
	return device.Color{
		R: src.R*fs.R + dst.R*fd.R,
		G: src.G*fs.G + dst.G*fd.G,
		B: src.B*fs.B + dst.B*fd.B,
		A: src.A*fs.A + dst.A*fd.A,
	}
}

func splat(v float32) device.Color { return device.Color{R: v, G: v, B: v, A: v} }

func factor(f, undefined gputypes.BlendFactor, src, dst device.Color) device.Color {
	if f == gputypes.BlendFactorUndefined {
		f = undefined
	}
	switch f {
	case gputypes.BlendFactorZero:
		return device.Transparent
	case gputypes.BlendFactorSrc:
		return src
	case gputypes.BlendFactorOneMinusSrc:
		return device.Color{R: 1 - src.R, G: 1 - src.G, B: 1 - src.B, A: 1 - src.A}
	case gputypes.BlendFactorSrcAlpha:
		return splat(src.A)
	case gputypes.BlendFactorOneMinusSrcAlpha:
		return splat(1 - src.A)
	case gputypes.BlendFactorDst:
		return dst
	case gputypes.BlendFactorOneMinusDst:
		return device.Color{R: 1 - dst.R, G: 1 - dst.G, B: 1 - dst.B, A: 1 - dst.A}
	case gputypes.BlendFactorDstAlpha:
		return splat(dst.A)
	case gputypes.BlendFactorOneMinusDstAlpha:
		return splat(1 - dst.A)
	case gputypes.BlendFactorSrcAlphaSaturated:
		s := min(src.A, 1-dst.A)
		return device.Color{R: s, G: s, B: s, A: 1}
	default:
		return device.White
	}
}
