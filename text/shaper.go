package text

import (
	"slices"
	"sync"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/text/unicode/bidi"
)

// Direction is the base direction of a paragraph.
type Direction uint8

const (
	// DirectionAuto takes the direction of the first strong character.
	DirectionAuto Direction = iota
	DirectionLTR
	DirectionRTL
)

// Glyph is a positioned glyph of a shaped string. X and Y are relative to
// the pen origin, Y down.
type Glyph struct {
	ID      uint16
	Cluster int
	X, Y    float64
	Advance float64
}

// Run is a sequence of runes shaped with one direction and script.
type Run struct {
	Start, End int // rune offsets
	RTL        bool
	Script     language.Script
}

// Shaper converts strings into positioned glyphs with HarfBuzz.
//
// Shaper is safe for concurrent use. HarfbuzzShaper instances are pooled
// since they keep per-call buffers.
type Shaper struct {
	Direction Direction
	Language  language.Language

	pool sync.Pool
}

// NewShaper returns a shaper with automatic paragraph direction.
func NewShaper() *Shaper {
	return &Shaper{
		Language: language.NewLanguage("en"),
		pool: sync.Pool{
			New: func() any { return &shaping.HarfbuzzShaper{} },
		},
	}
}

// Runs splits text into directional runs in visual order.
func (s *Shaper) Runs(text string) []Run {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	rtl := s.isRTL(runes)
	var opts []bidi.Option
	if rtl {
		opts = append(opts, bidi.DefaultDirection(bidi.RightToLeft))
	}

	var p bidi.Paragraph
	if _, err := p.SetString(text, opts...); err != nil {
		return []Run{s.wholeRun(runes, rtl)}
	}
	ordering, err := p.Order()
	if err != nil || ordering.NumRuns() == 0 {
		return []Run{s.wholeRun(runes, rtl)}
	}

	runs := make([]Run, 0, ordering.NumRuns())
	for i := 0; i < ordering.NumRuns(); i++ {
		r := ordering.Run(i)
		// Pos is inclusive.
		start, end := r.Pos()
		end = min(end+1, len(runes))
		if start >= end {
			continue
		}
		runs = append(runs, Run{
			Start:  start,
			End:    end,
			RTL:    r.Direction() == bidi.RightToLeft,
			Script: detectScript(runes[start:end]),
		})
	}
	if len(runs) == 0 {
		return []Run{s.wholeRun(runes, rtl)}
	}
	// Ordering lists runs logically. Runs alternate between two levels, so
	// an RTL paragraph displays them reversed and an LTR one as is.
	if rtl {
		slices.Reverse(runs)
	}
	return runs
}

// isRTL reports the paragraph direction: the configured one, or that of
// the first strong character.
func (s *Shaper) isRTL(runes []rune) bool {
	switch s.Direction {
	case DirectionLTR:
		return false
	case DirectionRTL:
		return true
	}
	for _, r := range runes {
		props, _ := bidi.LookupRune(r)
		switch props.Class() {
		case bidi.L:
			return false
		case bidi.R, bidi.AL:
			return true
		}
	}
	return false
}

func (s *Shaper) wholeRun(runes []rune, rtl bool) Run {
	return Run{End: len(runes), RTL: rtl, Script: detectScript(runes)}
}

// Shape returns the glyphs of text in visual order, positioned along a
// horizontal baseline starting at x = 0. Cluster values are rune offsets
// into text.
func (s *Shaper) Shape(text string, face Face) []Glyph {
	if text == "" || face.Font == nil || face.Size <= 0 {
		return nil
	}
	runes := []rune(text)
	gtFace := font.NewFace(face.Font.shaped)

	hb := s.pool.Get().(*shaping.HarfbuzzShaper)
	defer s.pool.Put(hb)

	var out []Glyph
	var pen float64
	for _, run := range s.Runs(text) {
		dir := di.DirectionLTR
		if run.RTL {
			dir = di.DirectionRTL
		}
		output := hb.Shape(shaping.Input{
			Text:      runes,
			RunStart:  run.Start,
			RunEnd:    run.End,
			Direction: dir,
			Face:      gtFace,
			Size:      floatToFixed(face.Size),
			Script:    run.Script,
			Language:  s.Language,
		})
		out, pen = appendGlyphs(out, output.Glyphs, pen)
	}
	return out
}

// Advance returns the horizontal advance of the shaped text.
func (s *Shaper) Advance(text string, face Face) float64 {
	var w float64
	for _, g := range s.Shape(text, face) {
		w += g.Advance
	}
	return w
}

// appendGlyphs converts go-text glyphs starting at pen x and returns the
// pen after the last glyph. HarfBuzz emits Y up.
func appendGlyphs(dst []Glyph, glyphs []shaping.Glyph, x float64) ([]Glyph, float64) {
	for _, g := range glyphs {
		adv := fixedToFloat(g.Advance)
		dst = append(dst, Glyph{
			ID:      uint16(g.GlyphID), //nolint:gosec // sfnt glyph indices are 16 bit
			Cluster: g.TextIndex(),
			X:       x + fixedToFloat(g.XOffset),
			Y:       -fixedToFloat(g.YOffset),
			Advance: adv,
		})
		x += adv
	}
	return dst, x
}

// detectScript returns the script of the first non-space rune.
func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		if sc := language.LookupScript(r); sc != language.Common && sc != language.Inherited {
			return sc
		}
	}
	return language.Latin
}
