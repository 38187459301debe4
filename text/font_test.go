package text

import (
	"errors"
	"testing"
)

func TestNewFontErrors(t *testing.T) {
	if _, err := NewFont(nil); !errors.Is(err, ErrEmptyFontData) {
		t.Errorf("NewFont(nil) = %v, want ErrEmptyFontData", err)
	}
	if _, err := NewFont([]byte("not a font")); err == nil {
		t.Error("NewFont(garbage) should fail")
	}
}

func TestDefaultFont(t *testing.T) {
	f := MustDefaultFont()
	g, err := DefaultFont()
	if err != nil || g != f {
		t.Fatal("DefaultFont should parse once")
	}
	if f.Name() != "Go" {
		t.Errorf("Name = %q", f.Name())
	}
	if f.NumGlyphs() == 0 {
		t.Error("no glyphs")
	}

	other, err := NewFont(goRegular())
	if err != nil {
		t.Fatal(err)
	}
	if other.ID() == f.ID() {
		t.Error("font IDs must be unique")
	}
}

func TestFaceMetrics(t *testing.T) {
	face := MustDefaultFont().Face(20)
	m := face.Metrics()
	if m.Ascent <= 0 || m.Descent <= 0 {
		t.Fatalf("metrics = %+v", m)
	}
	if m.Ascent > 20 || m.LineHeight() < m.Ascent+m.Descent {
		t.Errorf("metrics out of range: %+v", m)
	}
	big := MustDefaultFont().Face(40).Metrics()
	if big.Ascent <= m.Ascent {
		t.Error("metrics should scale with size")
	}
}

func TestGlyphIndex(t *testing.T) {
	face := MustDefaultFont().Face(12)
	if face.GlyphIndex('A') == 0 {
		t.Error("'A' should map to a glyph")
	}
	if face.GlyphIndex('A') == face.GlyphIndex('B') {
		t.Error("distinct runes share a glyph")
	}
}
