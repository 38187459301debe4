package wgpu

import (
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/geom"
	"github.com/gogpu/gr/internal/logging"
)

// copyRowAlignment is the WebGPU bytesPerRow alignment for texture to
// buffer copies.
const copyRowAlignment = 256

// ReadPixels copies rect of rt into dst in format. It submits pending work
// and blocks until the copy completes. Wrapped views cannot be read.
// Alpha-only targets hold coverage in their single channel and read back as
// alpha.
func (d *Device) ReadPixels(rt device.RenderTarget, rect geom.IRect, format gputypes.TextureFormat, dst []byte, rowBytes int) bool {
	r, ok := rt.(*renderTarget)
	if !ok || r.tex == nil || !r.tex.valid || !device.IsColorFormat(format) || rect.IsEmpty() {
		return false
	}
	if !geom.IRectWH(r.w, r.h).Contains(rect) {
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

	srcBpp := device.BytesPerPixel(r.format)
	stride := (w*srcBpp + copyRowAlignment - 1) &^ (copyRowAlignment - 1)
	size := uint64(stride * h)
	staging, err := d.dev.CreateBuffer(&hal.BufferDescriptor{
		Label: "gr_readback",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		logging.L().Error("wgpu: readback buffer", "error", err)
		return false
	}
	defer d.dev.DestroyBuffer(staging)

	enc, err := d.encoder()
	if err != nil {
		logging.L().Error("wgpu: readback encoder", "error", err)
		return false
	}
	d.transition(enc, r.tex, gputypes.TextureUsageCopySrc)
	enc.CopyTextureToBuffer(r.tex.tex, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{BytesPerRow: uint32(stride), RowsPerImage: uint32(h)},
		TextureBase: hal.ImageCopyTexture{
			Texture: r.tex.tex,
			Origin:  hal.Origin3D{X: uint32(rect.Left), Y: uint32(rect.Top)},
		},
		Size: hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
	}})
	d.submit()

	mapping, err := d.dev.MapBuffer(staging, 0, size)
	if err != nil {
		logging.L().Error("wgpu: map readback buffer", "error", err)
		return false
	}
	src := unsafe.Slice((*byte)(mapping.Ptr), int(size))
	for y := 0; y < h; y++ {
		convertRow(dst[y*rowBytes:], format, src[y*stride:], r.format, w)
	}
	if err := d.dev.UnmapBuffer(staging); err != nil {
		logging.L().Warn("wgpu: unmap readback buffer", "error", err)
	}
	d.stats.Reads++
	return true
}

// convertRow converts w pixels from the source layout into dst format.
func convertRow(dst []byte, dstFormat gputypes.TextureFormat, src []byte, srcFormat gputypes.TextureFormat, w int) {
	srcBpp := device.BytesPerPixel(srcFormat)
	dstBpp := device.BytesPerPixel(dstFormat)
	for x := 0; x < w; x++ {
		var px [4]uint8 // RGBA
		s := src[x*srcBpp:]
		switch srcFormat {
		case gputypes.TextureFormatR8Unorm:
			px[3] = s[0]
		case gputypes.TextureFormatBGRA8Unorm:
			px = [4]uint8{s[2], s[1], s[0], s[3]}
		default:
			px = [4]uint8{s[0], s[1], s[2], s[3]}
		}
		o := dst[x*dstBpp:]
		switch dstFormat {
		case gputypes.TextureFormatR8Unorm:
			o[0] = px[3]
		case gputypes.TextureFormatBGRA8Unorm:
			o[0], o[1], o[2], o[3] = px[2], px[1], px[0], px[3]
		default:
			copy(o[:4], px[:])
		}
	}
}
