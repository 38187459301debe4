package gr

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/gr/cache"
	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/geom"
	"github.com/gogpu/gr/internal/logging"
	"github.com/gogpu/gr/recording"
)

// ReadRenderTargetPixels copies the width x height rectangle at (left, top)
// of rt into dst, converted to format, rowBytes per row (0 for tightly
// packed). A nil rt reads the current render target. Pending draws are
// flushed first. It returns false when the rectangle or format is not
// supported.
func (c *Context) ReadRenderTargetPixels(rt device.RenderTarget, left, top, width, height int, format gputypes.TextureFormat, dst []byte, rowBytes int) bool {
	if c.destroyed {
		return false
	}
	if rt == nil {
		rt = c.rt
	}
	if rt == nil || width <= 0 || height <= 0 {
		return false
	}
	c.Flush(0)
	return c.dev.ReadPixels(rt, geom.IRectXYWH(left, top, width, height), format, dst, rowBytes)
}

// ReadTexturePixels copies a rectangle of tex into dst like
// ReadRenderTargetPixels. Textures that cannot be rendered to are first
// drawn into a scratch render target.
func (c *Context) ReadTexturePixels(tex device.Texture, left, top, width, height int, format gputypes.TextureFormat, dst []byte, rowBytes int) bool {
	if c.destroyed || tex == nil || width <= 0 || height <= 0 {
		return false
	}
	if rt := tex.AsRenderTarget(); rt != nil {
		return c.ReadRenderTargetPixels(rt, left, top, width, height, format, dst, rowBytes)
	}
	if _, ok := geom.IRectWH(tex.Width(), tex.Height()).Intersect(geom.IRectXYWH(left, top, width, height)); !ok {
		return false
	}

	desc := device.TextureDesc{
		Flags:  device.TextureRenderTarget | device.TextureNoStencil,
		Width:  width,
		Height: height,
		Format: gputypes.TextureFormatRGBA8Unorm,
	}
	tmp := NewAutoScratchTexture(c, desc, cache.MatchApprox)
	defer tmp.Release()
	scratch := tmp.Texture()
	if scratch == nil || scratch.AsRenderTarget() == nil {
		logging.L().Debug("gr: read texture: no scratch target", "desc", desc)
		return false
	}
	rt := scratch.AsRenderTarget()

	t := c.sched.Prepare(recording.Unbuffered)
	c.bindTarget(rt)
	st := device.NewDrawState(rt)
	st.Blend = device.BlendSrc
	sampler := device.ClampNoFilter()
	sampler.Matrix = geom.IDiv(tex.Width(), tex.Height()).PreConcat(geom.Translate(float64(left), float64(top)))
	st.Stages[0] = device.Stage{Texture: tex, Sampler: sampler, UsePosition: true}
	t.Draw(&st, &device.Geometry{
		Primitive: device.TriangleFan,
		Positions: device.RectFan(geom.RectWH(float64(width), float64(height))),
	})
	c.restoreTarget()

	return c.dev.ReadPixels(rt, geom.IRectWH(width, height), format, dst, rowBytes)
}

// WritePixels copies src, width x height pixels of format with rowBytes per
// row, into the current render target at (left, top). Blending, the view
// matrix and the clip do not apply.
func (c *Context) WritePixels(left, top, width, height int, format gputypes.TextureFormat, src []byte, rowBytes int) bool {
	if width <= 0 || height <= 0 || !device.IsColorFormat(format) {
		return false
	}
	t := c.prepareToDraw(recording.Unbuffered)
	if t == nil {
		return false
	}
	tok := c.CreateUncachedTexture(device.TextureDesc{Width: width, Height: height, Format: format}, src, rowBytes)
	tex := c.Texture(tok)
	if tex == nil {
		return false
	}
	defer c.UnlockTexture(tok)

	st := device.NewDrawState(c.rt)
	st.Blend = device.BlendSrc
	sampler := device.ClampNoFilter()
	sampler.Matrix = geom.IDiv(width, height).PreConcat(geom.Translate(-float64(left), -float64(top)))
	st.Stages[0] = device.Stage{Texture: tex, Sampler: sampler, UsePosition: true}
	t.Draw(&st, &device.Geometry{
		Primitive: device.TriangleFan,
		Positions: device.RectFan(geom.IRectXYWH(left, top, width, height).Rect()),
	})
	return true
}
