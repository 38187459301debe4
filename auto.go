package gr

import (
	"github.com/gogpu/gr/cache"
	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/geom"
)

// AutoRenderTarget makes rt the current render target and returns a func
// restoring the previous one. A nil rt leaves the target unchanged.
//
//	defer ctx.AutoRenderTarget(rt)()
func (c *Context) AutoRenderTarget(rt device.RenderTarget) (restore func()) {
	prev := c.rt
	if rt != nil {
		c.SetRenderTarget(rt)
	}
	return func() { c.SetRenderTarget(prev) }
}

// AutoMatrix replaces the view matrix with m and returns a func restoring
// the previous one.
//
//	defer ctx.AutoMatrix(geom.Identity())()
func (c *Context) AutoMatrix(m geom.Matrix) (restore func()) {
	prev := c.view
	c.view = m
	return func() { c.view = prev }
}

// AutoScratchTexture holds a scratch texture lock until Release.
type AutoScratchTexture struct {
	c   *Context
	tok cache.Token
}

// NewAutoScratchTexture locks a scratch texture matching desc under mode.
// Texture returns nil when none could be created.
func NewAutoScratchTexture(c *Context, desc device.TextureDesc, mode cache.MatchMode) *AutoScratchTexture {
	return &AutoScratchTexture{c: c, tok: c.LockScratchTexture(desc, mode)}
}

// Texture returns the locked texture, or nil after Release.
func (a *AutoScratchTexture) Texture() device.Texture {
	if a.tok.IsEmpty() {
		return nil
	}
	return a.c.Texture(a.tok)
}

// Token returns the held lock.
func (a *AutoScratchTexture) Token() cache.Token { return a.tok }

// Release unlocks the texture. Calling it again is a no-op.
func (a *AutoScratchTexture) Release() {
	if a.tok.IsEmpty() {
		return
	}
	a.c.UnlockTexture(a.tok)
	a.tok = cache.Token{}
}
