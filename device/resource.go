package device

import "github.com/gogpu/gputypes"

// Resource is a device-resident allocation owned by a resource cache.
//
// Release frees the device allocation through the device. Abandon drops the
// object without touching the device, for use after the device was lost.
// Both are idempotent.
type Resource interface {
	SizeBytes() int64
	Release()
	Abandon()
	IsValid() bool
}

// Texture is a sampled image, optionally usable as a render target.
type Texture interface {
	Resource
	Desc() TextureDesc
	Width() int
	Height() int
	Format() gputypes.TextureFormat

	// AsRenderTarget returns the render target view of the texture, or nil
	// when the texture was not created with TextureRenderTarget.
	AsRenderTarget() RenderTarget
}

// RenderTarget is a surface draws are rasterized into. Texture-backed
// targets return their texture from AsTexture; wrapped platform surfaces
// return nil.
type RenderTarget interface {
	Width() int
	Height() int
	Format() gputypes.TextureFormat
	SampleCount() int
	IsMultisampled() bool
	AsTexture() Texture

	StencilBuffer() StencilBuffer
	SetStencilBuffer(sb StencilBuffer)
}

// StencilBuffer is a stencil attachment shared by render targets of the same
// size and sample count.
type StencilBuffer interface {
	Resource
	Width() int
	Height() int
	SampleCount() int
	Bits() int
}
