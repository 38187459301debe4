package soft

import (
	"image"

	"github.com/gogpu/gputypes"
	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/geom"
)

// ReadPixels copies rect of rt into dst in format.
func (d *Device) ReadPixels(rt device.RenderTarget, rect geom.IRect, format gputypes.TextureFormat, dst []byte, rowBytes int) bool {
	r, ok := rt.(*renderTarget)
	if !ok || r.surf == nil || !device.IsColorFormat(format) || rect.IsEmpty() {
		return false
	}
	if !geom.IRectWH(r.surf.w, r.surf.h).Contains(rect) {
		return false
	}
	bpp := device.BytesPerPixel(format)
	w, h := rect.Width(), rect.Height()
	if rowBytes == 0 {
		rowBytes = w * bpp
	}
	if rowBytes < w*bpp || len(dst) < rowBytes*(h-1)+w*bpp {
		return false
	}
	d.stats.Reads++

	s := r.surf
	for y := 0; y < h; y++ {
		row := dst[y*rowBytes:]
		for x := 0; x < w; x++ {
			i := s.offset(rect.Left+x, rect.Top+y)
			var px [4]uint8
			if s.bpp == 1 {
				px[3] = s.pix[i]
			} else {
				copy(px[:], s.pix[i:i+4])
			}
			o := x * bpp
			switch format {
			case gputypes.TextureFormatR8Unorm:
				row[o] = px[3]
			case gputypes.TextureFormatBGRA8Unorm:
				row[o], row[o+1], row[o+2], row[o+3] = px[2], px[1], px[0], px[3]
			default:
				copy(row[o:o+4], px[:])
			}
		}
	}
	return true
}

// Snapshot copies rt into a new premultiplied RGBA image. Alpha-only
// targets come back as premultiplied white.
func (d *Device) Snapshot(rt device.RenderTarget) *image.RGBA {
	r, ok := rt.(*renderTarget)
	if !ok || r.surf == nil {
		return nil
	}
	s := r.surf
	bounds := image.Rect(0, 0, s.w, s.h)
	var src image.Image
	if s.bpp == 1 {
		src = &image.Alpha{Pix: s.pix, Stride: s.stride, Rect: bounds}
	} else {
		src = &image.RGBA{Pix: s.pix, Stride: s.stride, Rect: bounds}
	}
	out := image.NewRGBA(bounds)
	xdraw.Copy(out, image.Point{}, src, bounds, xdraw.Src, nil)
	return out
}
