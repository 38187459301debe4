package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gr/device"
)

// texture owns a HAL texture and its default view. Render target textures
// carry a renderTarget; multisampled ones draw into a separate MSAA texture
// that resolves into this one at the end of every pass.
type texture struct {
	dev   *Device
	desc  device.TextureDesc
	tex   hal.Texture
	view  hal.TextureView
	rt    *renderTarget
	valid bool

	// sampledAfterRender is set once the texture was a render attachment
	// and must be transitioned before sampling.
	sampledAfterRender bool
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

// Release flushes pending work that may reference the texture and destroys
// the HAL objects.
func (t *texture) Release() {
	if !t.valid {
		return
	}
	t.dev.submitIfReferenced(t)
	t.valid = false
	if t.rt != nil {
		t.rt.destroy()
	}
	t.dev.dev.DestroyTextureView(t.view)
	t.dev.dev.DestroyTexture(t.tex)
	t.view, t.tex = nil, nil
}

// Abandon forgets the HAL objects without destroying them. Used after the
// underlying device was lost.
func (t *texture) Abandon() {
	if !t.valid {
		return
	}
	t.valid = false
	if t.rt != nil {
		t.rt.forget()
	}
	t.view, t.tex = nil, nil
}

// renderTarget is an attachment. For texture-backed targets tex is set; for
// wrapped views (swapchain images) it is nil.
type renderTarget struct {
	dev     *Device
	tex     *texture
	view    hal.TextureView
	w, h    int
	format  gputypes.TextureFormat
	samples int

	msaa     hal.Texture
	msaaView hal.TextureView

	// cleared reports whether the attachment holds defined contents;
	// the first pass into a fresh MSAA attachment clears it.
	cleared bool

	stencil device.StencilBuffer
}

func (r *renderTarget) Width() int                     { return r.w }
func (r *renderTarget) Height() int                    { return r.h }
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

// attachment returns the view draws render into and the resolve view, if
// any.
func (r *renderTarget) attachment() (view, resolve hal.TextureView) {
	if r.msaaView != nil {
		return r.msaaView, r.view
	}
	return r.view, nil
}

func (r *renderTarget) destroy() {
	if r.msaaView != nil {
		r.dev.dev.DestroyTextureView(r.msaaView)
		r.dev.dev.DestroyTexture(r.msaa)
	}
	r.forget()
}

func (r *renderTarget) forget() {
	r.msaa, r.msaaView, r.view = nil, nil, nil
	r.w, r.h = 0, 0
	r.stencil = nil
	if r.dev.bound == r {
		r.dev.bound = nil
	}
}

// WrapView returns a render target for a view owned by the caller, such as
// the current swapchain image. The view must stay valid until the next
// Submit.
func (d *Device) WrapView(view hal.TextureView, width, height int, format gputypes.TextureFormat) device.RenderTarget {
	return &renderTarget{dev: d, view: view, w: width, h: height, format: format, samples: 1, cleared: true}
}

// stencilBuffer is a Depth24PlusStencil8 attachment; only the stencil
// aspect is used.
type stencilBuffer struct {
	dev     *Device
	tex     hal.Texture
	view    hal.TextureView
	w, h    int
	samples int
	valid   bool

	// cleared is set after the first pass that used the buffer.
	cleared bool
}

func (s *stencilBuffer) SizeBytes() int64 { return int64(s.w) * int64(s.h) * int64(s.samples) * 4 }
func (s *stencilBuffer) IsValid() bool    { return s.valid }
func (s *stencilBuffer) Width() int       { return s.w }
func (s *stencilBuffer) Height() int      { return s.h }
func (s *stencilBuffer) SampleCount() int { return s.samples }
func (s *stencilBuffer) Bits() int        { return 8 }

func (s *stencilBuffer) Release() {
	if !s.valid {
		return
	}
	s.dev.submit()
	s.valid = false
	s.dev.dev.DestroyTextureView(s.view)
	s.dev.dev.DestroyTexture(s.tex)
	s.view, s.tex = nil, nil
}

func (s *stencilBuffer) Abandon() {
	s.valid = false
	s.view, s.tex = nil, nil
}

// CreateTexture allocates a texture, uploading data when given. Render
// targets with SampleCount > 1 get an additional multisampled attachment.
func (d *Device) CreateTexture(desc device.TextureDesc, data []byte, rowBytes int) (device.Texture, error) {
	if desc.Width <= 0 || desc.Height <= 0 || desc.Width > d.caps.MaxTextureSize || desc.Height > d.caps.MaxTextureSize {
		return nil, fmt.Errorf("wgpu: create %s: %w", desc, device.ErrInvalidSize)
	}
	if !device.IsColorFormat(desc.Format) {
		return nil, fmt.Errorf("wgpu: create %s: %w", desc, device.ErrUnsupportedFormat)
	}
	if desc.Samples() > 1 && !desc.IsRenderTarget() {
		return nil, fmt.Errorf("wgpu: create %s: %w", desc, device.ErrUnsupportedFormat)
	}

	usage := gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst | gputypes.TextureUsageCopySrc
	if desc.IsRenderTarget() {
		usage |= gputypes.TextureUsageRenderAttachment
	}
	label := d.label("tex")
	ht, err := d.dev.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: uint32(desc.Width), Height: uint32(desc.Height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        desc.Format,
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create %s: %w", desc, err)
	}
	view, err := d.dev.CreateTextureView(ht, &hal.TextureViewDescriptor{Label: label + "-view"})
	if err != nil {
		d.dev.DestroyTexture(ht)
		return nil, fmt.Errorf("wgpu: create %s view: %w", desc, err)
	}
	t := &texture{dev: d, desc: desc, tex: ht, view: view, valid: true}

	if data != nil {
		if err := d.upload(t, data, rowBytes); err != nil {
			t.Release()
			return nil, fmt.Errorf("wgpu: create %s: %w", desc, err)
		}
	}

	if desc.IsRenderTarget() {
		rt := &renderTarget{dev: d, tex: t, view: view, w: desc.Width, h: desc.Height, format: desc.Format, samples: desc.Samples(), cleared: data != nil}
		if rt.samples > 1 {
			rt.msaa, err = d.dev.CreateTexture(&hal.TextureDescriptor{
				Label:         label + "-msaa",
				Size:          hal.Extent3D{Width: uint32(desc.Width), Height: uint32(desc.Height), DepthOrArrayLayers: 1},
				MipLevelCount: 1,
				SampleCount:   uint32(rt.samples),
				Dimension:     gputypes.TextureDimension2D,
				Format:        desc.Format,
				Usage:         gputypes.TextureUsageRenderAttachment,
			})
			if err == nil {
				rt.msaaView, err = d.dev.CreateTextureView(rt.msaa, &hal.TextureViewDescriptor{Label: label + "-msaa-view"})
				if err != nil {
					d.dev.DestroyTexture(rt.msaa)
					rt.msaa = nil
				}
			}
			if err != nil {
				t.Release()
				return nil, fmt.Errorf("wgpu: create %s msaa: %w", desc, err)
			}
			rt.cleared = false
		}
		t.rt = rt
	}
	d.stats.TextureCreates++
	return t, nil
}

// upload writes tightly packed rows of data into t through the queue.
func (d *Device) upload(t *texture, data []byte, rowBytes int) error {
	bpp := device.BytesPerPixel(t.desc.Format)
	w, h := t.desc.Width, t.desc.Height
	if rowBytes == 0 {
		rowBytes = w * bpp
	}
	if rowBytes < w*bpp || len(data) < rowBytes*(h-1)+w*bpp {
		return fmt.Errorf("short pixel data (%d bytes)", len(data))
	}
	packed := data
	if rowBytes != w*bpp {
		packed = make([]byte, w*h*bpp)
		for y := 0; y < h; y++ {
			copy(packed[y*w*bpp:(y+1)*w*bpp], data[y*rowBytes:])
		}
	}
	return d.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: t.tex},
		packed[:w*h*bpp],
		&hal.ImageDataLayout{BytesPerRow: uint32(w * bpp), RowsPerImage: uint32(h)},
		&hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
	)
}

// CreateStencilBuffer allocates a depth-stencil attachment.
func (d *Device) CreateStencilBuffer(width, height, samples int) (device.StencilBuffer, error) {
	if width <= 0 || height <= 0 || width > d.caps.MaxRenderTargetSize || height > d.caps.MaxRenderTargetSize {
		return nil, fmt.Errorf("wgpu: stencil %dx%d: %w", width, height, device.ErrInvalidSize)
	}
	if samples < 1 {
		samples = 1
	}
	label := d.label("stencil")
	ht, err := d.dev.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   uint32(samples),
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatDepth24PlusStencil8,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: stencil %dx%d: %w", width, height, err)
	}
	view, err := d.dev.CreateTextureView(ht, &hal.TextureViewDescriptor{Label: label + "-view"})
	if err != nil {
		d.dev.DestroyTexture(ht)
		return nil, fmt.Errorf("wgpu: stencil %dx%d view: %w", width, height, err)
	}
	d.stats.StencilBufferCreates++
	return &stencilBuffer{dev: d, tex: ht, view: view, w: width, h: height, samples: samples, valid: true}, nil
}
