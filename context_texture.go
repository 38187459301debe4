package gr

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/gogpu/gr/cache"
	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/geom"
	"github.com/gogpu/gr/internal/logging"
	"github.com/gogpu/gr/recording"
)

// textureVariant returns the key variant of a width x height texture
// sampled with sampler. Devices without NPOT tiling sample repeated or
// mirrored non-power-of-two textures from a stretched power-of-two copy.
func (c *Context) textureVariant(width, height int, sampler *device.SamplerState) uint32 {
	if sampler == nil || c.caps.NPOTTextureTileSupport || !sampler.IsTiled() {
		return 0
	}
	if device.IsPow2(width) && device.IsPow2(height) {
		return 0
	}
	return cache.VariantStretched
}

// FindAndLockTexture looks up the client texture key of the given size
// usable with sampler (nil means clamped sampling). It returns the empty
// token on a miss; it never allocates.
func (c *Context) FindAndLockTexture(key uint64, width, height int, sampler *device.SamplerState) cache.Token {
	k := cache.TextureKey(key, width, height, c.textureVariant(width, height, sampler))
	return c.cache.FindAndLock(k, cache.LockExclusive)
}

// CreateAndLockTexture creates a texture from data (rowBytes per row, 0 for
// tightly packed), caches it under the client key and returns it locked.
// When sampler needs a stretched copy, the unstretched texture is cached as
// well and the power-of-two copy is returned. The empty token is returned
// when the device cannot create the texture.
func (c *Context) CreateAndLockTexture(key uint64, sampler *device.SamplerState, desc device.TextureDesc, data []byte, rowBytes int) cache.Token {
	variant := c.textureVariant(desc.Width, desc.Height, sampler)
	if variant&cache.VariantStretched == 0 {
		k := cache.TextureKey(key, desc.Width, desc.Height, 0)
		return c.cache.CreateAndLock(k, func() (device.Resource, error) {
			tex, err := c.dev.CreateTexture(desc, data, rowBytes)
			if err != nil {
				logging.L().Warn("gr: texture create failed", "desc", desc, "err", err)
				return nil, err
			}
			return tex, nil
		})
	}

	clamp := c.FindAndLockTexture(key, desc.Width, desc.Height, nil)
	if clamp.IsEmpty() {
		clamp = c.CreateAndLockTexture(key, nil, desc, data, rowBytes)
	}
	src := c.Texture(clamp)
	if src == nil {
		return cache.Token{}
	}
	defer c.cache.Unlock(clamp)

	stretched := desc
	stretched.Width = device.NextPow2(desc.Width)
	stretched.Height = device.NextPow2(desc.Height)
	filter := device.FilterBilinear
	if sampler.Filter == device.FilterNearest {
		filter = device.FilterNearest
	}

	k := cache.TextureKey(key, desc.Width, desc.Height, variant)
	return c.cache.CreateAndLock(k, func() (device.Resource, error) {
		if tex := c.stretchOnDevice(src, stretched, filter); tex != nil {
			return tex, nil
		}
		return c.stretchOnCPU(stretched, filter, desc, data, rowBytes)
	})
}

// stretchOnDevice renders src into a new render target of desc's size.
func (c *Context) stretchOnDevice(src device.Texture, desc device.TextureDesc, filter device.Filter) device.Texture {
	rtDesc := desc
	rtDesc.Flags |= device.TextureRenderTarget | device.TextureNoStencil
	tex, err := c.dev.CreateTexture(rtDesc, nil, 0)
	if err != nil {
		logging.L().Debug("gr: stretch target create failed", "desc", rtDesc, "err", err)
		return nil
	}
	rt := tex.AsRenderTarget()
	if rt == nil {
		tex.Release()
		return nil
	}

	st := device.NewDrawState(rt)
	st.Blend = device.BlendSrc
	sampler := device.ClampNoFilter()
	sampler.Filter = filter
	sampler.Matrix = geom.IDiv(desc.Width, desc.Height)
	st.Stages[0] = device.Stage{Texture: src, Sampler: sampler}

	t := c.sched.Prepare(recording.Unbuffered)
	c.bindTarget(rt)
	t.Draw(&st, &device.Geometry{
		Primitive: device.TriangleFan,
		Positions: device.RectFan(geom.RectWH(float64(desc.Width), float64(desc.Height))),
	})
	c.restoreTarget()
	return tex
}

// stretchOnCPU scales client pixels to desc's size with x/image/draw.
func (c *Context) stretchOnCPU(desc device.TextureDesc, filter device.Filter, srcDesc device.TextureDesc, data []byte, rowBytes int) (device.Resource, error) {
	if data == nil || device.BytesPerPixel(srcDesc.Format) != 4 {
		return nil, device.ErrUnsupportedFormat
	}
	if rowBytes == 0 {
		rowBytes = srcDesc.Width * 4
	}
	src := &image.RGBA{Pix: data, Stride: rowBytes, Rect: image.Rect(0, 0, srcDesc.Width, srcDesc.Height)}
	dst := image.NewRGBA(image.Rect(0, 0, desc.Width, desc.Height))
	var scaler draw.Scaler = draw.NearestNeighbor
	if filter != device.FilterNearest {
		scaler = draw.ApproxBiLinear
	}
	scaler.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	tex, err := c.dev.CreateTexture(desc, dst.Pix, dst.Stride)
	if err != nil {
		logging.L().Warn("gr: stretched texture create failed", "desc", desc, "err", err)
		return nil, err
	}
	return tex, nil
}

// LockScratchTexture returns a locked content-free texture matching desc
// under mode. Scratch textures never alias: a texture is handed out again
// only after UnlockTexture.
func (c *Context) LockScratchTexture(desc device.TextureDesc, mode cache.MatchMode) cache.Token {
	return c.scratch.Lock(desc, mode)
}

func (c *Context) createScratch(desc device.TextureDesc) (device.Texture, error) {
	return c.dev.CreateTexture(desc, nil, 0)
}

// UnlockTexture gives back a token from any of the texture lock calls.
func (c *Context) UnlockTexture(tok cache.Token) {
	c.cache.Unlock(tok)
}

// Texture returns the texture behind tok, or nil for empty and stale
// tokens.
func (c *Context) Texture(tok cache.Token) device.Texture {
	tex, _ := c.cache.Resource(tok).(device.Texture)
	return tex
}

// CreateUncachedTexture creates a texture outside the budget. The texture
// is released when its token is unlocked and is never returned by a
// lookup. The empty token is returned when the device cannot create it.
func (c *Context) CreateUncachedTexture(desc device.TextureDesc, data []byte, rowBytes int) cache.Token {
	tex, err := c.dev.CreateTexture(desc, data, rowBytes)
	if err != nil {
		logging.L().Warn("gr: uncached texture create failed", "desc", desc, "err", err)
		return cache.Token{}
	}
	return c.cache.AddUnbudgeted(cache.ScratchKey(desc), tex)
}

// TextureCacheLimits returns the texture cache budget.
func (c *Context) TextureCacheLimits() (maxCount int, maxBytes int64) {
	b := c.cache.Budget()
	return b.MaxCount, b.MaxBytes
}

// SetTextureCacheLimits changes the texture cache budget and purges
// unlocked textures down to it.
func (c *Context) SetTextureCacheLimits(maxCount int, maxBytes int64) {
	c.opts.budget = cache.Budget{MaxCount: maxCount, MaxBytes: maxBytes}
	c.cache.SetBudget(c.opts.budget)
}

// MaxTextureSize returns the device texture edge limit.
func (c *Context) MaxTextureSize() int { return c.caps.MaxTextureSize }

// MaxRenderTargetSize returns the device render target edge limit.
func (c *Context) MaxRenderTargetSize() int { return c.caps.MaxRenderTargetSize }

// AddAndLockStencilBuffer caches sb and returns it locked with one
// attachment.
func (c *Context) AddAndLockStencilBuffer(sb device.StencilBuffer) cache.Token {
	return c.stencils.AddAndLock(sb)
}

// FindStencilBuffer returns a cached stencil buffer of the given size and
// sample count with one more attachment, or nil on a miss.
func (c *Context) FindStencilBuffer(width, height, samples int) (device.StencilBuffer, cache.Token) {
	return c.stencils.Find(width, height, samples)
}

// UnlockStencilBuffer drops one attachment of tok.
func (c *Context) UnlockStencilBuffer(tok cache.Token) {
	c.stencils.Unlock(tok)
}

// attachStencil makes sure rt has a stencil buffer, sharing a cached one of
// the same size when possible.
func (c *Context) attachStencil(rt device.RenderTarget) bool {
	if sb := rt.StencilBuffer(); sb != nil && sb.IsValid() {
		return true
	}
	c.detachStencil(rt)

	sb, tok := c.stencils.Find(rt.Width(), rt.Height(), rt.SampleCount())
	if sb == nil {
		created, err := c.dev.CreateStencilBuffer(rt.Width(), rt.Height(), rt.SampleCount())
		if err != nil {
			logging.L().Warn("gr: stencil buffer create failed",
				"width", rt.Width(), "height", rt.Height(), "err", err)
			return false
		}
		sb, tok = created, c.stencils.AddAndLock(created)
	}
	rt.SetStencilBuffer(sb)
	c.attached[rt] = tok
	if rt == c.state.RenderTarget {
		c.state.Stencil = sb
	}
	return true
}

// detachStencil drops rt's stencil attachment.
func (c *Context) detachStencil(rt device.RenderTarget) {
	tok, ok := c.attached[rt]
	if !ok {
		return
	}
	delete(c.attached, rt)
	rt.SetStencilBuffer(nil)
	c.stencils.Unlock(tok)
}
