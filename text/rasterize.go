package text

import (
	"fmt"
	"image"
	"math"

	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// mask is a rasterized glyph. (Left, Top) is the offset of the image's
// top-left pixel from the glyph origin, Y down. Empty glyphs, such as
// spaces, have a nil image.
type mask struct {
	img       *image.Alpha
	left, top int
}

// rasterizer turns glyph outlines into coverage masks. It is not safe for
// concurrent use.
type rasterizer struct {
	buf sfnt.Buffer
	z   vector.Rasterizer
}

// glyph rasterizes glyph id of f at size ppem.
func (r *rasterizer) glyph(f *Font, id uint16, size float64) (mask, error) {
	segs, err := f.sfnt.LoadGlyph(&r.buf, sfnt.GlyphIndex(id), floatToFixed(size), nil)
	if err != nil {
		return mask{}, fmt.Errorf("text: load glyph %d: %w", id, err)
	}
	if len(segs) == 0 {
		return mask{}, nil
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, s := range segs {
		for _, p := range s.Args[:segmentPoints(s.Op)] {
			x, y := fixedToFloat(p.X), fixedToFloat(p.Y)
			minX, maxX = math.Min(minX, x), math.Max(maxX, x)
			minY, maxY = math.Min(minY, y), math.Max(maxY, y)
		}
	}
	left, top := int(math.Floor(minX)), int(math.Floor(minY))
	w, h := int(math.Ceil(maxX))-left, int(math.Ceil(maxY))-top
	if w <= 0 || h <= 0 {
		return mask{}, nil
	}

	r.z.Reset(w, h)
	pt := func(p fixed.Point26_6) (float32, float32) {
		return float32(fixedToFloat(p.X) - float64(left)), float32(fixedToFloat(p.Y) - float64(top))
	}
	for _, s := range segs {
		switch s.Op {
		case sfnt.SegmentOpMoveTo:
			// MoveTo does not close the previous contour.
			r.z.ClosePath()
			x, y := pt(s.Args[0])
			r.z.MoveTo(x, y)
		case sfnt.SegmentOpLineTo:
			x, y := pt(s.Args[0])
			r.z.LineTo(x, y)
		case sfnt.SegmentOpQuadTo:
			bx, by := pt(s.Args[0])
			cx, cy := pt(s.Args[1])
			r.z.QuadTo(bx, by, cx, cy)
		case sfnt.SegmentOpCubeTo:
			bx, by := pt(s.Args[0])
			cx, cy := pt(s.Args[1])
			dx, dy := pt(s.Args[2])
			r.z.CubeTo(bx, by, cx, cy, dx, dy)
		}
	}
	r.z.ClosePath()

	dst := image.NewAlpha(image.Rect(0, 0, w, h))
	r.z.Draw(dst, dst.Bounds(), image.Opaque, image.Point{})
	return mask{img: dst, left: left, top: top}, nil
}

func segmentPoints(op sfnt.SegmentOp) int {
	switch op {
	case sfnt.SegmentOpQuadTo:
		return 2
	case sfnt.SegmentOpCubeTo:
		return 3
	default:
		return 1
	}
}
