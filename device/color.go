package device

// Color is a premultiplied RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float32
}

// Common colors.
var (
	Transparent = Color{}
	White       = Color{R: 1, G: 1, B: 1, A: 1}
	Black       = Color{A: 1}
)

// RGBA8 builds a premultiplied color from unpremultiplied 8-bit components.
func RGBA8(r, g, b, a uint8) Color {
	fa := float32(a) / 255
	return Color{
		R: float32(r) / 255 * fa,
		G: float32(g) / 255 * fa,
		B: float32(b) / 255 * fa,
		A: fa,
	}
}

// Modulate multiplies two colors component-wise.
func (c Color) Modulate(o Color) Color {
	return Color{R: c.R * o.R, G: c.G * o.G, B: c.B * o.B, A: c.A * o.A}
}

// Scale multiplies every component by s (coverage application).
func (c Color) Scale(s float32) Color {
	return Color{R: c.R * s, G: c.G * s, B: c.B * s, A: c.A * s}
}

// IsOpaque reports whether alpha is 1.
func (c Color) IsOpaque() bool {
	return c.A >= 1
}

// Bytes quantizes the color to premultiplied RGBA8.
func (c Color) Bytes() [4]uint8 {
	return [4]uint8{quantize(c.R), quantize(c.G), quantize(c.B), quantize(c.A)}
}

func quantize(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v*255 + 0.5)
	}
}
