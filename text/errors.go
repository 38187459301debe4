package text

import "errors"

// Sentinel errors for text package.
var (
	// ErrEmptyFontData is returned when font data is empty.
	ErrEmptyFontData = errors.New("text: empty font data")

	// ErrNilContext is returned by NewContext without a gr.Context.
	ErrNilContext = errors.New("text: nil context")

	// ErrGlyphTooLarge is returned when a glyph mask does not fit in an
	// empty atlas.
	ErrGlyphTooLarge = errors.New("text: glyph larger than atlas")
)
