package text

import (
	"errors"
	"math"

	"github.com/gogpu/gr"
	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/geom"
	"github.com/gogpu/gr/internal/logging"
)

// maxQuadsPerDraw keeps glyph quad indices within 16 bits.
const maxQuadsPerDraw = math.MaxUint16 / 4

// Option configures a text Context.
type Option func(*options)

type options struct {
	atlasSize int
	shaper    *Shaper
}

// WithAtlasSize sets the glyph atlas side in texels.
func WithAtlasSize(n int) Option {
	return func(o *options) {
		o.atlasSize = n
	}
}

// WithShaper replaces the default shaper, for example to force a paragraph
// direction.
func WithShaper(s *Shaper) Option {
	return func(o *options) {
		o.shaper = s
	}
}

// Context draws text through a gr.Context. Glyph quads are recorded in the
// Text draw category and sample the glyph atlas through the context's
// offscreen stage, leaving both paint stages to the caller.
//
// Context is not safe for concurrent use.
type Context struct {
	gr     *gr.Context
	atlas  *GlyphAtlas
	shaper *Shaper

	entries []atlasEntry
	geom    device.Geometry
}

// NewContext returns a text context drawing through c. The glyph atlas is
// registered with c until Close.
func NewContext(c *gr.Context, opts ...Option) (*Context, error) {
	if c == nil {
		return nil, ErrNilContext
	}
	o := options{atlasSize: DefaultAtlasSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.shaper == nil {
		o.shaper = NewShaper()
	}
	tc := &Context{
		gr:     c,
		atlas:  NewGlyphAtlas(c, o.atlasSize),
		shaper: o.shaper,
	}
	c.Register(tc.atlas)
	return tc, nil
}

// Atlas returns the glyph atlas.
func (c *Context) Atlas() *GlyphAtlas { return c.atlas }

// Shaper returns the shaper.
func (c *Context) Shaper() *Shaper { return c.shaper }

// MeasureString returns the advance width of s.
func (c *Context) MeasureString(s string, face Face) float64 {
	return c.shaper.Advance(s, face)
}

// DrawString draws s with its baseline starting at (x, y) in local
// coordinates. Glyphs are modulated by the paint's color and stages.
func (c *Context) DrawString(paint *gr.Paint, s string, face Face, x, y float64) {
	glyphs := c.shaper.Shape(s, face)
	if len(glyphs) == 0 {
		return
	}
	if !c.prepareGlyphs(glyphs, face) {
		return
	}
	tex := c.atlas.texture()
	if tex == nil {
		return
	}
	t, st, ok := c.gr.TextTarget(paint)
	if !ok {
		return
	}
	sampler := device.ClampNoFilter()
	sampler.Matrix = geom.IDiv(tex.Width(), tex.Height())
	st.Stages[device.OffscreenStage] = device.Stage{Texture: tex, Sampler: sampler}

	g := &c.geom
	reset := func() {
		g.Primitive = device.Triangles
		g.Positions = g.Positions[:0]
		g.TexCoords[device.OffscreenStage] = g.TexCoords[device.OffscreenStage][:0]
		g.Indices = g.Indices[:0]
	}
	reset()
	quads := 0
	for i, gl := range glyphs {
		e := c.entries[i]
		if e.w == 0 {
			continue
		}
		if quads == maxQuadsPerDraw {
			t.Draw(&st, g)
			reset()
			quads = 0
		}
		left, top := x+gl.X+float64(e.left), y+gl.Y+float64(e.top)
		dst := geom.RectLTRB(left, top, left+float64(e.w), top+float64(e.h)).Corners()
		src := geom.IRectXYWH(e.x, e.y, e.w, e.h).Rect().Corners()
		base := uint16(len(g.Positions))
		g.Positions = append(g.Positions, dst[:]...)
		g.TexCoords[device.OffscreenStage] = append(g.TexCoords[device.OffscreenStage], src[:]...)
		g.Indices = append(g.Indices, base, base+1, base+2, base, base+2, base+3)
		quads++
	}
	if quads > 0 {
		t.Draw(&st, g)
	}
}

// prepareGlyphs makes sure every glyph is in the atlas, resetting it once
// if it fills up. It reports false when the string needs more than an empty
// atlas holds.
func (c *Context) prepareGlyphs(glyphs []Glyph, face Face) bool {
	if c.lookupAll(glyphs, face) == nil {
		return true
	}
	c.atlas.reset()
	if err := c.lookupAll(glyphs, face); err != nil {
		logging.L().Warn("text: string dropped", "glyphs", len(glyphs), "err", err)
		return false
	}
	return true
}

func (c *Context) lookupAll(glyphs []Glyph, face Face) error {
	c.entries = c.entries[:0]
	for _, gl := range glyphs {
		e, err := c.atlas.glyph(face, gl.ID)
		switch {
		case errors.Is(err, errAtlasFull):
			return err
		case err != nil:
			// Bitmap-only and oversized glyphs are skipped.
			logging.L().Debug("text: glyph skipped", "id", gl.ID, "err", err)
			e = atlasEntry{}
		}
		c.entries = append(c.entries, e)
	}
	return nil
}

// Close unregisters the atlas and releases its texture.
func (c *Context) Close() error {
	c.gr.Unregister(c.atlas)
	c.atlas.FreeGpuResources()
	return nil
}
