package text

import (
	"bytes"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-text/typesetting/font"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

var nextFontID atomic.Uint32

// Font is a parsed TrueType or OpenType font. A Font is immutable and safe
// for concurrent use; per-call state lives in the shaper and rasterizer.
type Font struct {
	id     uint32
	name   string
	sfnt   *sfnt.Font
	shaped *font.Font
}

// NewFont parses font data.
func NewFont(data []byte) (*Font, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFontData
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("text: parse font: %w", err)
	}
	face, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("text: parse font for shaping: %w", err)
	}
	name, _ := f.Name(nil, sfnt.NameIDFamily)
	return &Font{
		id:     nextFontID.Add(1),
		name:   name,
		sfnt:   f,
		shaped: face.Font,
	}, nil
}

var defaultFont = sync.OnceValues(func() (*Font, error) {
	return NewFont(goregular.TTF)
})

// DefaultFont returns Go Regular, parsed once.
func DefaultFont() (*Font, error) { return defaultFont() }

// MustDefaultFont is like DefaultFont but panics on error.
func MustDefaultFont() *Font {
	f, err := DefaultFont()
	if err != nil {
		panic(err)
	}
	return f
}

// ID returns a process-unique identifier for the font.
func (f *Font) ID() uint32 { return f.id }

// Name returns the font family name, or "" if the font has none.
func (f *Font) Name() string { return f.name }

// NumGlyphs returns the number of glyphs in the font.
func (f *Font) NumGlyphs() int { return f.sfnt.NumGlyphs() }

// Face returns the font at size pixels per em.
func (f *Font) Face(size float64) Face { return Face{Font: f, Size: size} }

// Face is a font at a given size.
type Face struct {
	Font *Font
	Size float64
}

// Metrics are the vertical metrics of a face, in pixels. Descent is
// positive below the baseline.
type Metrics struct {
	Ascent  float64
	Descent float64
	LineGap float64
}

// LineHeight returns the distance between consecutive baselines.
func (m Metrics) LineHeight() float64 { return m.Ascent + m.Descent + m.LineGap }

// Metrics returns the face's vertical metrics.
func (f Face) Metrics() Metrics {
	var buf sfnt.Buffer
	m, err := f.Font.sfnt.Metrics(&buf, f.ppem(), xfont.HintingNone)
	if err != nil {
		return Metrics{}
	}
	return Metrics{
		Ascent:  fixedToFloat(m.Ascent),
		Descent: fixedToFloat(m.Descent),
		LineGap: fixedToFloat(m.Height - m.Ascent - m.Descent),
	}
}

// GlyphIndex returns the glyph for r, or 0 if the font has none.
func (f Face) GlyphIndex(r rune) uint16 {
	var buf sfnt.Buffer
	idx, err := f.Font.sfnt.GlyphIndex(&buf, r)
	if err != nil {
		return 0
	}
	return uint16(idx)
}

func (f Face) ppem() fixed.Int26_6 { return floatToFixed(f.Size) }

// floatToFixed converts a float64 font size to fixed.Int26_6.
func floatToFixed(size float64) fixed.Int26_6 {
	return fixed.Int26_6(size * 64)
}

// fixedToFloat converts a fixed.Int26_6 value to float64.
func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64.0
}
