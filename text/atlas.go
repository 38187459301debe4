package text

import (
	"errors"
	"image"
	"image/draw"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gr"
	"github.com/gogpu/gr/cache"
	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/internal/logging"
)

// DefaultAtlasSize is the side of the glyph atlas texture.
const DefaultAtlasSize = 512

// glyphPadding keeps bilinear taps of neighbouring glyphs apart.
const glyphPadding = 1

var errAtlasFull = errors.New("text: atlas full")

type glyphKey struct {
	font uint32
	id   uint16
	size int32 // 26.6
}

// atlasEntry locates a glyph mask. Empty glyphs have w == 0.
type atlasEntry struct {
	x, y, w, h int
	left, top  int
}

// AtlasStats counts atlas activity.
type AtlasStats struct {
	Glyphs  int
	Hits    int
	Misses  int
	Resets  int
	Uploads int
}

// GlyphAtlas packs glyph masks into one R8 texture. The CPU copy is
// authoritative; the texture is recreated from it whenever glyphs were
// added since the last upload.
//
// GlyphAtlas keeps its texture locked in the context's cache and
// implements gr.ResourceOwner.
type GlyphAtlas struct {
	gr      *gr.Context
	size    int
	img     *image.Alpha
	packer  *shelfPacker
	entries map[glyphKey]atlasEntry
	raster  rasterizer

	tok   cache.Token
	dirty bool
	stats AtlasStats
}

var _ gr.ResourceOwner = (*GlyphAtlas)(nil)

// NewGlyphAtlas returns an atlas of size x size texels, clamped to the
// device's maximum texture size.
func NewGlyphAtlas(c *gr.Context, size int) *GlyphAtlas {
	if size <= 0 {
		size = DefaultAtlasSize
	}
	size = min(size, c.MaxTextureSize())
	return &GlyphAtlas{
		gr:      c,
		size:    size,
		img:     image.NewAlpha(image.Rect(0, 0, size, size)),
		packer:  newShelfPacker(size, size, glyphPadding),
		entries: make(map[glyphKey]atlasEntry),
	}
}

// Size returns the atlas side in texels.
func (a *GlyphAtlas) Size() int { return a.size }

// Stats returns the atlas counters.
func (a *GlyphAtlas) Stats() AtlasStats {
	s := a.stats
	s.Glyphs = len(a.entries)
	return s
}

// Utilization returns the fraction of the atlas covered by glyphs.
func (a *GlyphAtlas) Utilization() float64 { return a.packer.utilization() }

// glyph returns the entry of glyph id of face, rasterizing and packing it
// on a miss. errAtlasFull means the atlas must be reset first.
func (a *GlyphAtlas) glyph(face Face, id uint16) (atlasEntry, error) {
	key := glyphKey{font: face.Font.ID(), id: id, size: int32(floatToFixed(face.Size))}
	if e, ok := a.entries[key]; ok {
		a.stats.Hits++
		return e, nil
	}
	a.stats.Misses++

	m, err := a.raster.glyph(face.Font, id, face.Size)
	if err != nil {
		return atlasEntry{}, err
	}
	if m.img == nil {
		a.entries[key] = atlasEntry{}
		return atlasEntry{}, nil
	}
	w, h := m.img.Rect.Dx(), m.img.Rect.Dy()
	x, y, ok := a.packer.allocate(w, h)
	if !ok {
		if w+glyphPadding > a.size || h+glyphPadding > a.size {
			return atlasEntry{}, ErrGlyphTooLarge
		}
		return atlasEntry{}, errAtlasFull
	}
	draw.Draw(a.img, m.img.Rect.Add(image.Pt(x, y)), m.img, image.Point{}, draw.Src)
	e := atlasEntry{x: x, y: y, w: w, h: h, left: m.left, top: m.top}
	a.entries[key] = e
	a.dirty = true
	return e, nil
}

// reset forgets every glyph. Text draws still referencing the texture are
// flushed first.
func (a *GlyphAtlas) reset() {
	a.gr.FlushText()
	clear(a.entries)
	clear(a.img.Pix)
	a.packer.reset()
	a.dirty = true
	a.stats.Resets++
	logging.L().Debug("text: glyph atlas reset", "size", a.size)
}

// texture returns the atlas texture, uploading the CPU copy if it changed.
func (a *GlyphAtlas) texture() device.Texture {
	if !a.dirty && !a.tok.IsEmpty() {
		if tex := a.gr.Texture(a.tok); tex != nil {
			return tex
		}
	}
	a.gr.FlushText()
	a.release()
	desc := device.TextureDesc{Width: a.size, Height: a.size, Format: gputypes.TextureFormatR8Unorm}
	a.tok = a.gr.CreateUncachedTexture(desc, a.img.Pix, a.img.Stride)
	if a.tok.IsEmpty() {
		return nil
	}
	a.dirty = false
	a.stats.Uploads++
	return a.gr.Texture(a.tok)
}

func (a *GlyphAtlas) release() {
	if !a.tok.IsEmpty() {
		a.gr.UnlockTexture(a.tok)
		a.tok = cache.Token{}
	}
}

// FreeGpuResources implements gr.ResourceOwner. Glyphs stay packed and are
// uploaded again on the next draw.
func (a *GlyphAtlas) FreeGpuResources() {
	a.release()
	a.dirty = true
}

// AbandonGpuResources implements gr.ResourceOwner.
func (a *GlyphAtlas) AbandonGpuResources() {
	a.tok = cache.Token{}
	a.dirty = true
}
