package text

import (
	"errors"
	"image"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gr"
	"github.com/gogpu/gr/backend/soft"
	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/geom"
)

func newSoftContext(t *testing.T, w, h int, opts ...Option) (*Context, *gr.Context, *soft.Device, device.RenderTarget) {
	t.Helper()
	dev := soft.New()
	c, err := gr.New(dev)
	if err != nil {
		t.Fatal(err)
	}
	tex, err := dev.CreateTexture(device.TextureDesc{
		Flags:  device.TextureRenderTarget,
		Width:  w,
		Height: h,
		Format: gputypes.TextureFormatRGBA8Unorm,
	}, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	rt := tex.AsRenderTarget()
	c.SetRenderTarget(rt)
	tc, err := NewContext(c, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return tc, c, dev, rt
}

// inked returns the bounds of the non-transparent pixels of img.
func inked(img *image.RGBA) (image.Rectangle, int) {
	var r image.Rectangle
	n := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.RGBAAt(x, y).A == 0 {
				continue
			}
			n++
			r = r.Union(image.Rect(x, y, x+1, y+1))
		}
	}
	return r, n
}

func TestNewContextNil(t *testing.T) {
	if _, err := NewContext(nil); !errors.Is(err, ErrNilContext) {
		t.Errorf("NewContext(nil) = %v", err)
	}
}

func TestDrawStringInksAboveBaseline(t *testing.T) {
	tc, c, dev, rt := newSoftContext(t, 128, 48)
	face := MustDefaultFont().Face(20)
	p := gr.NewPaint()
	p.Color = device.Black
	tc.DrawString(&p, "Hi", face, 10, 30)
	c.Flush(0)

	box, n := inked(dev.Snapshot(rt))
	if n == 0 {
		t.Fatal("nothing drawn")
	}
	if box.Min.X < 10 || box.Max.Y > 31 || box.Min.Y < 30-int(face.Metrics().Ascent)-1 {
		t.Errorf("ink bounds %v outside the line box", box)
	}
	if w := tc.MeasureString("Hi", face); box.Max.X > 10+int(w)+1 {
		t.Errorf("ink ends at %d past advance %v", box.Max.X, w)
	}
}

func TestDrawStringRespectsViewMatrix(t *testing.T) {
	tc, c, dev, rt := newSoftContext(t, 128, 128)
	c.SetMatrix(geom.Translate(0, 60))
	p := gr.NewPaint()
	tc.DrawString(&p, "x", MustDefaultFont().Face(16), 4, 12)
	c.Flush(0)

	box, _ := inked(dev.Snapshot(rt))
	if box.Min.Y < 60 {
		t.Errorf("ink at %v ignores the translation", box)
	}
}

func TestTextDrawsAreBatched(t *testing.T) {
	tc, c, dev, _ := newSoftContext(t, 256, 64)
	face := MustDefaultFont().Face(14)
	p := gr.NewPaint()
	tc.DrawString(&p, "ab", face, 0, 20)
	tc.DrawString(&p, "ba", face, 0, 40)
	if d := dev.Stats().Draws; d != 0 {
		t.Fatalf("text reached the device before a flush: %d draws", d)
	}
	c.Flush(0)
	if got := dev.Stats().Draws; got != 1 {
		t.Errorf("device draws = %d, want one merged text draw", got)
	}
	if up := tc.Atlas().Stats().Uploads; up != 1 {
		t.Errorf("uploads = %d", up)
	}
}

func TestNewGlyphsFlushPendingText(t *testing.T) {
	tc, _, dev, _ := newSoftContext(t, 256, 64)
	face := MustDefaultFont().Face(14)
	p := gr.NewPaint()
	tc.DrawString(&p, "one", face, 0, 20)
	tc.DrawString(&p, "two", face, 0, 40)
	if d := dev.Stats().Draws; d != 1 {
		t.Errorf("draws = %d, the first string must be played back before the atlas changes", d)
	}
	if up := tc.Atlas().Stats().Uploads; up != 2 {
		t.Errorf("uploads = %d", up)
	}
}

func TestAtlasHitsOnRepeat(t *testing.T) {
	tc, c, _, _ := newSoftContext(t, 64, 64)
	face := MustDefaultFont().Face(12)
	p := gr.NewPaint()
	tc.DrawString(&p, "aaa", face, 0, 20)
	tc.DrawString(&p, "aaa", face, 0, 40)
	c.Flush(0)

	s := tc.Atlas().Stats()
	if s.Glyphs != 1 || s.Misses != 1 || s.Hits != 5 {
		t.Errorf("stats = %+v", s)
	}
	if s.Uploads != 1 {
		t.Errorf("uploads = %d, unchanged atlas must not be re-uploaded", s.Uploads)
	}
}

func TestAtlasResetWhenFull(t *testing.T) {
	// A 24x24 atlas holds a single 20px capital.
	tc, c, dev, rt := newSoftContext(t, 64, 64, WithAtlasSize(24))
	face := MustDefaultFont().Face(20)
	p := gr.NewPaint()
	tc.DrawString(&p, "M", face, 4, 22)
	tc.DrawString(&p, "N", face, 4, 50)
	c.Flush(0)

	if r := tc.Atlas().Stats().Resets; r != 1 {
		t.Fatalf("resets = %d, want 1", r)
	}
	box, _ := inked(dev.Snapshot(rt))
	if box.Min.Y > 22 || box.Max.Y < 40 {
		t.Errorf("both lines should be drawn, ink = %v", box)
	}
}

func TestOversizedGlyphIsSkipped(t *testing.T) {
	tc, c, dev, rt := newSoftContext(t, 128, 128, WithAtlasSize(16))
	p := gr.NewPaint()
	tc.DrawString(&p, "M", MustDefaultFont().Face(64), 0, 100)
	c.Flush(0)
	if _, n := inked(dev.Snapshot(rt)); n != 0 {
		t.Errorf("%d pixels drawn from a glyph that does not fit", n)
	}
	if r := tc.Atlas().Stats().Resets; r != 0 {
		t.Errorf("resets = %d, an oversized glyph never fits", r)
	}
}

func TestAtlasFollowsContextLifecycle(t *testing.T) {
	tc, c, dev, rt := newSoftContext(t, 64, 64)
	face := MustDefaultFont().Face(12)
	p := gr.NewPaint()
	tc.DrawString(&p, "gr", face, 0, 20)
	c.Flush(0)
	if n := c.Stats().Cache.UnbudgetedCount; n != 1 {
		t.Fatalf("atlas texture should stay held outside the budget, unbudgeted = %d", n)
	}
	if n := c.Stats().Cache.Count; n != 0 {
		t.Errorf("atlas counted against the budget, count = %d", n)
	}

	live := dev.Live()
	c.FreeGpuResources()
	if dev.Live() != live-1 {
		t.Errorf("live textures = %d, want %d", dev.Live(), live-1)
	}
	tc.DrawString(&p, "gr", face, 0, 40)
	if tc.Atlas().Stats().Uploads != 2 {
		t.Error("atlas should be uploaded again after FreeGpuResources")
	}

	c.ContextLost()
	if !tc.Atlas().tok.IsEmpty() {
		t.Error("lost context should leave the atlas without a texture")
	}
	c.SetRenderTarget(rt)
	tc.DrawString(&p, "gr", face, 0, 60)
	if tc.Atlas().Stats().Uploads != 3 {
		t.Error("atlas should be uploaded again after ContextLost")
	}

	if err := tc.Close(); err != nil {
		t.Fatal(err)
	}
	if n := c.Stats().Cache.UnbudgetedCount; n != 0 {
		t.Errorf("unbudgeted after Close = %d", n)
	}
}
