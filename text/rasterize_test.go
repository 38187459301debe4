package text

import "testing"

func TestRasterizeGlyph(t *testing.T) {
	face := MustDefaultFont().Face(24)
	var r rasterizer

	m, err := r.glyph(face.Font, face.GlyphIndex('O'), face.Size)
	if err != nil {
		t.Fatal(err)
	}
	if m.img == nil {
		t.Fatal("'O' rasterized to nothing")
	}
	b := m.img.Bounds()
	if b.Dx() < 10 || b.Dy() < 10 || b.Dy() > 24 {
		t.Errorf("mask size = %v", b.Size())
	}
	if m.top >= 0 || m.top+b.Dy() > 1 {
		t.Errorf("mask should sit on the baseline, top = %d height = %d", m.top, b.Dy())
	}
	// The counter of the O stays empty, the stroke is solid.
	cx, cy := b.Dx()/2, b.Dy()/2
	if a := m.img.AlphaAt(cx, cy).A; a != 0 {
		t.Errorf("center alpha = %d", a)
	}
	if a := m.img.AlphaAt(cx, 1).A; a < 128 {
		t.Errorf("top stroke alpha = %d", a)
	}
}

func TestRasterizeEmptyGlyph(t *testing.T) {
	face := MustDefaultFont().Face(24)
	var r rasterizer
	m, err := r.glyph(face.Font, face.GlyphIndex(' '), face.Size)
	if err != nil {
		t.Fatal(err)
	}
	if m.img != nil {
		t.Errorf("space rasterized to %v", m.img.Bounds())
	}
}

func TestRasterizeBadGlyph(t *testing.T) {
	f := MustDefaultFont()
	var r rasterizer
	if _, err := r.glyph(f, uint16(f.NumGlyphs()+10), 12); err == nil {
		t.Error("out-of-range glyph should fail")
	}
}
