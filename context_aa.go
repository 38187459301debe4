package gr

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/gr/cache"
	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/geom"
	"github.com/gogpu/gr/internal/logging"
	"github.com/gogpu/gr/internal/tiling"
)

// downsampleMode is how an offscreen coverage tile is reduced to device
// resolution.
type downsampleMode uint8

const (
	// downsampleFSAA resolves a multisampled target at scale 1.
	downsampleFSAA downsampleMode = iota

	// downsample4x4 reduces a 4x supersampled target with the device's
	// 4x4 box filter in one pass.
	downsample4x4

	// downsample4x4TwoPass reduces a 4x supersampled target with two 2x2
	// bilinear passes through a half-size second target.
	downsample4x4TwoPass
)

// String implements fmt.Stringer.
func (m downsampleMode) String() string {
	switch m {
	case downsampleFSAA:
		return "FSAA"
	case downsample4x4:
		return "4x4"
	case downsample4x4TwoPass:
		return "4x4TwoPass"
	default:
		return "Unknown"
	}
}

const (
	fsaaSamples      = 4
	supersampleScale = 4
)

// offscreenRecord holds what the offscreen pipeline acquired for one draw.
type offscreenRecord struct {
	tokens   [2]cache.Token
	textures [2]device.Texture
	targets  [2]device.RenderTarget

	mode  downsampleMode
	scale int
	grid  tiling.Grid
	tile  int
	bound geom.IRect
}

// doOffscreenAA reports whether an antialiased draw with st should go
// through the offscreen pipeline.
func (c *Context) doOffscreenAA(st *device.DrawState, paint *Paint, hairline bool) bool {
	if !c.opts.offscreenAA || !paint.AntiAlias {
		return false
	}
	if hairline && !(c.opts.preferMSAA && c.caps.SupportsFullsceneAA) {
		return false
	}
	if st.RenderTarget.IsMultisampled() {
		return false
	}
	return st.Blend.CanTweakAlphaForCoverage() || st.CanDisableBlend()
}

// maxOffscreenSize returns the largest tile edge for a supersample scale.
func (c *Context) maxOffscreenSize(scale int) int {
	return min(c.opts.maxOffscreenAASize, c.caps.MaxRenderTargetSize/scale)
}

// prepareForOffscreenAA acquires the scratch targets covering bound and
// lays out the tile grid. On failure everything acquired is released and
// false is returned.
func (c *Context) prepareForOffscreenAA(requireStencil bool, bound geom.IRect, rec *offscreenRecord) bool {
	rec.bound = bound
	switch {
	case c.opts.preferMSAA && c.caps.SupportsFullsceneAA:
		rec.mode, rec.scale = downsampleFSAA, 1
	case c.caps.Supports4x4Downsample:
		rec.mode, rec.scale = downsample4x4, supersampleScale
	default:
		rec.mode, rec.scale = downsample4x4TwoPass, supersampleScale
	}

	maxSize := c.maxOffscreenSize(rec.scale)
	if maxSize <= 0 {
		return false
	}

	desc := device.TextureDesc{
		Flags:  device.TextureRenderTarget,
		Width:  min(bound.Width(), maxSize) * rec.scale,
		Height: min(bound.Height(), maxSize) * rec.scale,
		Format: gputypes.TextureFormatRGBA8Unorm,
	}
	if !requireStencil {
		desc.Flags |= device.TextureNoStencil
	}
	if rec.mode == downsampleFSAA {
		desc.SampleCount = fsaaSamples
	}
	if !c.acquireOffscreen(0, desc, rec) {
		c.cleanupOffscreenAA(rec)
		return false
	}
	if requireStencil && !c.attachStencil(rec.targets[0]) {
		c.cleanupOffscreenAA(rec)
		return false
	}

	tileW := min(rec.textures[0].Width()/rec.scale, maxSize)
	tileH := min(rec.textures[0].Height()/rec.scale, maxSize)

	if rec.mode == downsample4x4TwoPass {
		half := device.TextureDesc{
			Flags:  device.TextureRenderTarget | device.TextureNoStencil,
			Width:  tileW * rec.scale / 2,
			Height: tileH * rec.scale / 2,
			Format: gputypes.TextureFormatRGBA8Unorm,
		}
		if !c.acquireOffscreen(1, half, rec) {
			c.cleanupOffscreenAA(rec)
			return false
		}
		tileW = min(tileW, rec.textures[1].Width()*2/rec.scale)
		tileH = min(tileH, rec.textures[1].Height()*2/rec.scale)
	}

	rec.grid = tiling.New(bound, tileW, tileH)
	logging.L().Debug("gr: offscreen AA",
		"mode", rec.mode, "bound", bound,
		"tileW", tileW, "tileH", tileH, "tiles", rec.grid.Len())
	if rec.grid.Len() == 0 {
		c.cleanupOffscreenAA(rec)
		return false
	}
	return true
}

func (c *Context) acquireOffscreen(i int, desc device.TextureDesc, rec *offscreenRecord) bool {
	tok := c.scratch.Lock(desc, cache.MatchApprox)
	if tok.IsEmpty() {
		logging.L().Debug("gr: offscreen target unavailable", "desc", desc)
		return false
	}
	rec.tokens[i] = tok
	tex := c.scratch.Texture(tok)
	var rt device.RenderTarget
	if tex != nil {
		rt = tex.AsRenderTarget()
	}
	if rt == nil {
		return false
	}
	rec.textures[i] = tex
	rec.targets[i] = rt
	return true
}

// bindTarget records rt as the device's bound target.
func (c *Context) bindTarget(rt device.RenderTarget) {
	if c.state.RenderTarget == rt {
		return
	}
	c.dev.SetRenderTarget(rt)
	c.state = DeviceState{RenderTarget: rt, Dirty: rt != c.rt, Stencil: rt.StencilBuffer()}
}

// setupOffscreenAAPass1 clears the scratch target and returns the state
// that draws tile's coverage into it in white.
func (c *Context) setupOffscreenAAPass1(t device.Target, st *device.DrawState, tile geom.IRect, rec *offscreenRecord) device.DrawState {
	rt := rec.targets[0]
	c.bindTarget(rt)

	s := float64(rec.scale)
	p1 := device.NewDrawState(rt)
	p1.ViewMatrix = geom.Scale(s, s).
		PreConcat(geom.Translate(-float64(tile.Left), -float64(tile.Top))).
		PreConcat(st.ViewMatrix)

	area := geom.IRectWH(tile.Width()*rec.scale, tile.Height()*rec.scale)
	p1.Clip = device.Clip{Enabled: true, Rect: area}
	t.Clear(rt, &area, device.Transparent)
	return p1
}

// doOffscreenAAPass2 reduces the tile's coverage and composites paint
// through it into the real target.
func (c *Context) doOffscreenAAPass2(t device.Target, st *device.DrawState, paint *Paint, tile geom.IRect, rec *offscreenRecord) {
	src := rec.textures[0]
	scale := rec.scale
	filter := device.FilterNearest

	switch rec.mode {
	case downsample4x4:
		filter = device.FilterDownsample4x4
	case downsample4x4TwoPass:
		c.bindTarget(rec.targets[1])
		rs := device.NewDrawState(rec.targets[1])
		rs.Blend = device.BlendSrc
		sampler := device.ClampNoFilter()
		sampler.Filter = device.FilterBilinear
		sampler.Matrix = geom.IDiv(src.Width(), src.Height()).PreConcat(geom.Scale(2, 2))
		rs.Stages[0] = device.Stage{Texture: src, Sampler: sampler, UsePosition: true}
		half := geom.IRectWH(tile.Width()*scale/2, tile.Height()*scale/2)
		t.Draw(&rs, &device.Geometry{Primitive: device.TriangleFan, Positions: device.RectFan(half.Rect())})

		src = rec.textures[1]
		scale /= 2
		filter = device.FilterBilinear
	}

	inv, ok := st.ViewMatrix.Invert()
	if !ok {
		return
	}
	final := *st
	final.ViewMatrix = geom.Identity()
	final.PreConcatStageMatrices(paint.StageMask(), inv)

	s := float64(scale)
	sampler := device.ClampNoFilter()
	sampler.Filter = filter
	sampler.Matrix = geom.Scale(s/float64(src.Width()), s/float64(src.Height())).
		PreConcat(geom.Translate(-float64(tile.Left), -float64(tile.Top)))
	final.Stages[device.OffscreenStage] = device.Stage{Texture: src, Sampler: sampler, UsePosition: true}

	c.bindTarget(st.RenderTarget)
	t.Draw(&final, &device.Geometry{Primitive: device.TriangleFan, Positions: device.RectFan(tile.Rect())})
}

// cleanupOffscreenAA rebinds the context's target and unlocks the scratch
// targets.
func (c *Context) cleanupOffscreenAA(rec *offscreenRecord) {
	c.restoreTarget()
	for i, tok := range rec.tokens {
		if !tok.IsEmpty() {
			c.scratch.Unlock(tok)
		}
		rec.tokens[i] = cache.Token{}
		rec.textures[i] = nil
		rec.targets[i] = nil
	}
}
