package device

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// TextureFlags describe what a texture can be used for beyond sampling.
type TextureFlags uint8

const (
	// TextureRenderTarget creates a texture that can also be drawn into.
	TextureRenderTarget TextureFlags = 1 << iota

	// TextureNoStencil marks a render target that will never need a
	// stencil buffer attached.
	TextureNoStencil
)

// String returns a compact description like "RT|NoStencil".
func (f TextureFlags) String() string {
	switch f {
	case 0:
		return "None"
	case TextureRenderTarget:
		return "RT"
	case TextureNoStencil:
		return "NoStencil"
	case TextureRenderTarget | TextureNoStencil:
		return "RT|NoStencil"
	default:
		return fmt.Sprintf("TextureFlags(%d)", uint8(f))
	}
}

// TextureDesc describes a texture to create.
type TextureDesc struct {
	Flags  TextureFlags
	Width  int
	Height int
	Format gputypes.TextureFormat

	// SampleCount is the MSAA sample count of a render target.
	// 0 and 1 both mean single sampled.
	SampleCount int
}

// IsRenderTarget reports whether the descriptor asks for a render target.
func (d TextureDesc) IsRenderTarget() bool {
	return d.Flags&TextureRenderTarget != 0
}

// Samples returns the normalized sample count (at least 1).
func (d TextureDesc) Samples() int {
	if d.SampleCount < 1 {
		return 1
	}
	return d.SampleCount
}

// SizeBytes estimates the device memory held by a texture with this
// descriptor. Multisampled render targets pay for every sample plus the
// resolve texture.
func (d TextureDesc) SizeBytes() int64 {
	size := int64(d.Width) * int64(d.Height) * int64(BytesPerPixel(d.Format))
	if s := d.Samples(); s > 1 && d.IsRenderTarget() {
		size += size * int64(s)
	}
	return size
}

// String implements fmt.Stringer.
func (d TextureDesc) String() string {
	return fmt.Sprintf("%dx%d %s %s samples=%d", d.Width, d.Height, d.Format, d.Flags, d.Samples())
}

// BytesPerPixel returns the storage size of one pixel, or 0 for formats the
// core does not handle.
func BytesPerPixel(f gputypes.TextureFormat) int {
	switch f {
	case gputypes.TextureFormatR8Unorm, gputypes.TextureFormatStencil8:
		return 1
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatBGRA8Unorm,
		gputypes.TextureFormatDepth24PlusStencil8:
		return 4
	default:
		return 0
	}
}

// IsColorFormat reports whether f is a color format pixels can be read or
// written in.
func IsColorFormat(f gputypes.TextureFormat) bool {
	switch f {
	case gputypes.TextureFormatR8Unorm, gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatBGRA8Unorm:
		return true
	default:
		return false
	}
}

// IsAlphaOnly reports whether f stores coverage only.
func IsAlphaOnly(f gputypes.TextureFormat) bool {
	return f == gputypes.TextureFormatR8Unorm
}

// IsPow2 reports whether n is a positive power of two.
func IsPow2(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// NextPow2 returns the smallest power of two >= n (1 for n <= 1).
func NextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
