package gr

import (
	"errors"
	"io"

	"github.com/google/uuid"

	"github.com/gogpu/gr/cache"
	"github.com/gogpu/gr/config"
	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/geom"
	"github.com/gogpu/gr/internal/logging"
	"github.com/gogpu/gr/recording"
)

// Sentinel errors returned by Context constructors.
var (
	// ErrNilDevice is returned by New without a device.
	ErrNilDevice = errors.New("gr: nil device")

	// ErrInvalidBudget is returned for negative cache limits.
	ErrInvalidBudget = errors.New("gr: invalid texture cache limits")
)

// FlushFlags modify Context.Flush.
type FlushFlags = recording.FlushFlags

// Flush flags.
const (
	FlushForceCurrentRenderTarget = recording.FlushForceCurrentRenderTarget
	FlushDiscard                  = recording.FlushDiscard
)

// DeviceState is the device state last sent by the context.
type DeviceState struct {
	// RenderTarget is the target bound in the device.
	RenderTarget device.RenderTarget

	// Dirty is set while the context's current target differs from the
	// one bound in the device.
	Dirty bool

	// Stencil is the stencil attachment of RenderTarget when it was bound.
	Stencil device.StencilBuffer
}

// ResourceOwner is implemented by helpers that keep cache locks across
// draws, such as glyph atlases. The context calls them before it frees or
// abandons device resources.
type ResourceOwner interface {
	// FreeGpuResources unlocks every resource the owner holds.
	FreeGpuResources()

	// AbandonGpuResources forgets every resource without device calls.
	AbandonGpuResources()
}

// Context is the drawing context in front of a device: it owns the texture
// cache, the deferred draw buffer and the offscreen antialiasing pipeline.
//
// Context is not safe for concurrent use.
type Context struct {
	id   uuid.UUID
	dev  device.Device
	caps device.Caps
	opts options

	cache    *cache.ResourceCache
	scratch  *cache.ScratchMatcher
	stencils *cache.StencilCache
	attached map[device.RenderTarget]cache.Token
	sched    *recording.Scheduler
	paths    *PathRendererChain
	owners   []ResourceOwner

	state DeviceState
	rt    device.RenderTarget
	view  geom.Matrix
	clip  device.Clip

	aaFillIndices   []uint16
	aaStrokeIndices []uint16

	lost      int
	flushBase int
	destroyed bool
}

var _ io.Closer = (*Context)(nil)

// New creates a context drawing to dev.
func New(dev device.Device, opts ...Option) (*Context, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.budget.MaxCount < 0 || o.budget.MaxBytes < 0 {
		return nil, ErrInvalidBudget
	}

	c := &Context{
		id:              uuid.New(),
		dev:             dev,
		caps:            dev.Caps(),
		opts:            o,
		attached:        make(map[device.RenderTarget]cache.Token),
		sched:           recording.NewScheduler(dev),
		view:            geom.Identity(),
		aaFillIndices:   aaFillRectIndices(),
		aaStrokeIndices: aaStrokeRectIndices(),
	}
	c.cache = cache.New(o.budget)
	c.cache.SetEvictHook(c.onEvict)
	c.scratch = cache.NewScratchMatcher(c.cache, c.createScratch)
	c.scratch.MaxSize = c.caps.MaxTextureSize
	c.stencils = cache.NewStencilCache(c.cache)
	c.paths = NewPathRendererChain(c.caps, o.pathRenderers...)

	logging.L().Info("gr: context created",
		"id", c.id,
		"maxTexture", c.caps.MaxTextureSize,
		"fsaa", c.caps.SupportsFullsceneAA,
		"budget", o.budget)
	return c, nil
}

// ID identifies the context in logs.
func (c *Context) ID() uuid.UUID { return c.id }

// Device returns the device the context draws to.
func (c *Context) Device() device.Device { return c.dev }

// Caps returns the device capabilities.
func (c *Context) Caps() device.Caps { return c.caps }

// PathRenderers returns the path renderer chain.
func (c *Context) PathRenderers() *PathRendererChain { return c.paths }

// Register adds an owner notified before resources are freed or abandoned.
func (c *Context) Register(owner ResourceOwner) {
	c.owners = append(c.owners, owner)
}

// Unregister removes an owner added with Register.
func (c *Context) Unregister(owner ResourceOwner) {
	for i, o := range c.owners {
		if o == owner {
			c.owners = append(c.owners[:i], c.owners[i+1:]...)
			return
		}
	}
}

// ResetContext tells the context that an outside party changed the 3D API
// state behind its back. The next draws re-send all state.
func (c *Context) ResetContext() {
	c.dev.ResetState()
	c.state = DeviceState{Dirty: c.rt != nil}
}

// ContextLost abandons every device resource after the device went away:
// cached textures and stencil buffers are dropped without device calls,
// pending draws are discarded and every token becomes stale. The context
// stays usable with a replacement device state.
func (c *Context) ContextLost() {
	c.lost++
	logging.L().Info("gr: context lost", "id", c.id, "resources", c.cache.Len(), "times", c.lost)
	c.abandon()
}

// ContextDestroyed abandons every device resource like ContextLost and
// makes the context inert: later draws are ignored.
func (c *Context) ContextDestroyed() {
	logging.L().Info("gr: context destroyed", "id", c.id)
	c.abandon()
	c.destroyed = true
}

// Lost returns how many times the context was lost.
func (c *Context) Lost() int { return c.lost }

func (c *Context) abandon() {
	for _, o := range c.owners {
		o.AbandonGpuResources()
	}
	c.sched.Reset()
	c.cache.FreeAll()
	c.stencils.Reset()
	clear(c.attached)
	c.rt = nil
	c.state = DeviceState{}
}

// FreeGpuResources flushes pending draws, makes resource owners unlock what
// they hold, and releases every unlocked cached resource.
func (c *Context) FreeGpuResources() {
	if c.destroyed {
		return
	}
	c.Flush(0)
	for _, o := range c.owners {
		o.FreeGpuResources()
	}
	c.cache.PurgeUnlocked()
}

// Close flushes pending draws and releases every device resource the
// context holds, locked or not. The device itself is not closed.
func (c *Context) Close() error {
	if c.destroyed {
		return nil
	}
	c.Flush(0)
	for _, o := range c.owners {
		o.FreeGpuResources()
	}
	c.cache.ReleaseAll()
	c.stencils.Reset()
	clear(c.attached)
	c.rt = nil
	c.state = DeviceState{}
	c.destroyed = true
	return nil
}

// ApplyConfig applies the cache and antialiasing sections of cfg to a live
// context. A smaller budget purges immediately.
func (c *Context) ApplyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	WithConfig(cfg)(&c.opts)
	c.cache.SetBudget(c.opts.budget)
	logging.L().Debug("gr: config applied", "budget", c.opts.budget, "offscreenAA", c.opts.offscreenAA)
}

// SetRenderTarget sets the target later draws go to. nil draws nothing.
func (c *Context) SetRenderTarget(rt device.RenderTarget) {
	c.rt = rt
	c.state.Dirty = rt != c.state.RenderTarget
}

// RenderTarget returns the current render target.
func (c *Context) RenderTarget() device.RenderTarget { return c.rt }

// DeviceState returns the device state last sent by the context.
func (c *Context) DeviceState() DeviceState { return c.state }

// Matrix returns the view matrix.
func (c *Context) Matrix() geom.Matrix { return c.view }

// SetMatrix replaces the view matrix.
func (c *Context) SetMatrix(m geom.Matrix) { c.view = m }

// ConcatMatrix pre-concatenates m onto the view matrix: m applies to
// geometry before the current view.
func (c *Context) ConcatMatrix(m geom.Matrix) { c.view = c.view.PreConcat(m) }

// Clip returns the device-space clip rectangle and whether clipping is on.
func (c *Context) Clip() (geom.IRect, bool) { return c.clip.Rect, c.clip.Enabled }

// SetClip restricts draws to the device-space rectangle r.
func (c *Context) SetClip(r geom.IRect) {
	c.clip = device.Clip{Enabled: true, Rect: r}
}

// SetClipRect restricts draws to the device bounds of local rectangle r
// under the current view matrix.
func (c *Context) SetClipRect(r geom.Rect) {
	c.SetClip(c.view.MapRect(r).RoundOut())
}

// ClearClip removes the clip.
func (c *Context) ClearClip() { c.clip = device.Clip{} }

// syncDeviceState binds the current target in the device when it changed.
func (c *Context) syncDeviceState() {
	if !c.state.Dirty && c.state.RenderTarget == c.rt {
		return
	}
	c.dev.SetRenderTarget(c.rt)
	c.state.RenderTarget = c.rt
	c.state.Dirty = false
	c.state.Stencil = nil
	if c.rt != nil {
		c.state.Stencil = c.rt.StencilBuffer()
	}
}

// restoreTarget rebinds the context's target after draws into an internal
// target.
func (c *Context) restoreTarget() {
	if c.rt != nil && c.state.RenderTarget != c.rt {
		c.state.Dirty = true
		c.syncDeviceState()
	}
}

// prepareToDraw announces a draw of category cat and returns its target,
// or nil when nothing can be drawn.
func (c *Context) prepareToDraw(cat recording.Category) device.Target {
	if c.destroyed || c.rt == nil {
		return nil
	}
	t := c.sched.Prepare(cat)
	if cat == recording.Unbuffered {
		c.syncDeviceState()
	}
	return t
}

// drawState returns the state of a draw with paint under the context's
// target, view matrix and clip.
func (c *Context) drawState(paint *Paint) device.DrawState {
	st := device.NewDrawState(c.rt)
	st.ViewMatrix = c.view
	st.Clip = c.clip
	paint.apply(&st)
	return st
}

// TextTarget returns the target and draw state text draws with paint must
// use. ok is false when nothing can be drawn.
func (c *Context) TextTarget(paint *Paint) (t device.Target, st device.DrawState, ok bool) {
	t = c.prepareToDraw(recording.Text)
	if t == nil {
		return nil, device.DrawState{}, false
	}
	return t, c.drawState(paint), true
}

// FlushText plays back buffered text draws, if text was the last draw
// category.
func (c *Context) FlushText() {
	if c.sched.Last() == recording.Text && c.sched.Pending() > 0 {
		c.sched.Flush(0)
	}
}

// Flush sends pending buffered draws to the device and submits them.
// FlushDiscard drops them instead; FlushForceCurrentRenderTarget also binds
// the current render target even if no draw needed it.
func (c *Context) Flush(flags FlushFlags) {
	if c.destroyed {
		return
	}
	if flags&FlushForceCurrentRenderTarget != 0 {
		c.state.Dirty = true
		c.syncDeviceState()
	}
	c.sched.Flush(flags)
}

// onEvict runs before the cache releases a resource. Draws referencing it
// are played back first, and render-target textures give up their stencil
// attachment.
func (c *Context) onEvict(_ cache.Key, res device.Resource) {
	tex, ok := res.(device.Texture)
	if !ok {
		return
	}
	if c.sched.Pending() > 0 {
		c.sched.Flush(0)
	}
	rt := tex.AsRenderTarget()
	if rt == nil {
		return
	}
	c.detachStencil(rt)
	if c.rt == rt {
		c.rt = nil
	}
	if c.state.RenderTarget == rt {
		c.state = DeviceState{Dirty: c.rt != nil}
	}
}
