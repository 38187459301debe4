package soft

import (
	"image"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gr/device"
)

// surface is a block of pixels in the internal layout: 4 bytes RGBA per
// pixel, or 1 byte per pixel for alpha-only formats.
type surface struct {
	pix    []uint8
	stride int
	w, h   int
	bpp    int
}

func newSurface(w, h, bpp int) *surface {
	return &surface{pix: make([]uint8, w*h*bpp), stride: w * bpp, w: w, h: h, bpp: bpp}
}

func (s *surface) offset(x, y int) int { return y*s.stride + x*s.bpp }

// get returns the premultiplied color at (x, y).
func (s *surface) get(x, y int) device.Color {
	i := s.offset(x, y)
	if s.bpp == 1 {
		a := float32(s.pix[i]) / 255
		return device.Color{R: a, G: a, B: a, A: a}
	}
	p := s.pix[i : i+4 : i+4]
	return device.Color{
		R: float32(p[0]) / 255,
		G: float32(p[1]) / 255,
		B: float32(p[2]) / 255,
		A: float32(p[3]) / 255,
	}
}

func (s *surface) set(x, y int, c device.Color) {
	i := s.offset(x, y)
	b := c.Bytes()
	if s.bpp == 1 {
		s.pix[i] = b[3]
		return
	}
	copy(s.pix[i:i+4], b[:])
}

// texture is a sampled image, optionally with a render target view.
type texture struct {
	dev   *Device
	desc  device.TextureDesc
	surf  *surface
	rt    *renderTarget
	valid bool
}

func (t *texture) SizeBytes() int64               { return t.desc.SizeBytes() }
func (t *texture) IsValid() bool                  { return t.valid }
func (t *texture) Desc() device.TextureDesc       { return t.desc }
func (t *texture) Width() int                     { return t.desc.Width }
func (t *texture) Height() int                    { return t.desc.Height }
func (t *texture) Format() gputypes.TextureFormat { return t.desc.Format }

func (t *texture) AsRenderTarget() device.RenderTarget {
	if t.rt == nil {
		return nil
	}
	return t.rt
}

// Release frees the pixels and counts the release on the device.
func (t *texture) Release() {
	if !t.valid {
		return
	}
	t.drop()
	t.dev.live--
	t.dev.released++
}

// Abandon drops the pixels without device bookkeeping beyond the live count.
func (t *texture) Abandon() {
	if !t.valid {
		return
	}
	t.drop()
	t.dev.live--
	t.dev.abandoned++
}

func (t *texture) drop() {
	t.valid = false
	t.surf = nil
	if t.rt != nil {
		t.rt.surf = nil
		t.rt.ms = nil
		t.rt.stencil = nil
		if t.dev.bound == t.rt {
			t.dev.bound = nil
		}
	}
}

// renderTarget is a drawable surface. Texture-backed targets share the
// texture's pixels; wrapped images have tex == nil.
type renderTarget struct {
	tex     *texture
	surf    *surface
	format  gputypes.TextureFormat
	samples int
	stencil device.StencilBuffer

	// ms holds per-sample colors of multisampled targets, ns per pixel.
	// surf always holds the resolved average.
	ms []device.Color
	ns int
}

// initSamples seeds the sample store of a multisampled target from its
// pixels.
func (r *renderTarget) initSamples() {
	if r.samples <= 1 || r.surf == nil {
		return
	}
	r.ns = len(samplePattern(r.samples))
	r.ms = make([]device.Color, r.surf.w*r.surf.h*r.ns)
	for y := range r.surf.h {
		for x := range r.surf.w {
			c := r.surf.get(x, y)
			i := (y*r.surf.w + x) * r.ns
			for s := range r.ns {
				r.ms[i+s] = c
			}
		}
	}
}

// samplesAt returns the samples of pixel (x, y).
func (r *renderTarget) samplesAt(x, y int) []device.Color {
	i := (y*r.surf.w + x) * r.ns
	return r.ms[i : i+r.ns : i+r.ns]
}

// resolve writes the average of the samples of (x, y) to the pixel.
func (r *renderTarget) resolve(x, y int) {
	var sum device.Color
	for _, c := range r.samplesAt(x, y) {
		sum.R += c.R
		sum.G += c.G
		sum.B += c.B
		sum.A += c.A
	}
	r.surf.set(x, y, sum.Scale(1/float32(r.ns)))
}

func (r *renderTarget) Width() int                     { return r.surfW() }
func (r *renderTarget) Height() int                    { return r.surfH() }
func (r *renderTarget) Format() gputypes.TextureFormat { return r.format }
func (r *renderTarget) SampleCount() int               { return r.samples }
func (r *renderTarget) IsMultisampled() bool           { return r.samples > 1 }

func (r *renderTarget) AsTexture() device.Texture {
	if r.tex == nil {
		return nil
	}
	return r.tex
}

func (r *renderTarget) StencilBuffer() device.StencilBuffer      { return r.stencil }
func (r *renderTarget) SetStencilBuffer(sb device.StencilBuffer) { r.stencil = sb }

func (r *renderTarget) surfW() int {
	if r.surf == nil {
		return 0
	}
	return r.surf.w
}

func (r *renderTarget) surfH() int {
	if r.surf == nil {
		return 0
	}
	return r.surf.h
}

// WrapImage returns a render target that draws directly into img. The
// target has no texture view, like a platform window surface.
func (d *Device) WrapImage(img *image.RGBA) device.RenderTarget {
	b := img.Bounds()
	return &renderTarget{
		surf: &surface{
			pix:    img.Pix[img.PixOffset(b.Min.X, b.Min.Y):],
			stride: img.Stride,
			w:      b.Dx(),
			h:      b.Dy(),
			bpp:    4,
		},
		format:  gputypes.TextureFormatRGBA8Unorm,
		samples: 1,
	}
}

// stencilBuffer stores one 8-bit stencil value per pixel.
type stencilBuffer struct {
	dev     *Device
	w, h    int
	samples int
	data    []uint8
	valid   bool
}

func (s *stencilBuffer) SizeBytes() int64 { return int64(s.w) * int64(s.h) * int64(s.samples) }
func (s *stencilBuffer) IsValid() bool    { return s.valid }
func (s *stencilBuffer) Width() int       { return s.w }
func (s *stencilBuffer) Height() int      { return s.h }
func (s *stencilBuffer) SampleCount() int { return s.samples }
func (s *stencilBuffer) Bits() int        { return 8 }

func (s *stencilBuffer) Release() {
	if !s.valid {
		return
	}
	s.valid = false
	s.data = nil
	s.dev.live--
	s.dev.released++
}

func (s *stencilBuffer) Abandon() {
	if !s.valid {
		return
	}
	s.valid = false
	s.data = nil
	s.dev.live--
	s.dev.abandoned++
}
