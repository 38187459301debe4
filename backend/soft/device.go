package soft

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/internal/logging"
)

// DefaultMaxTextureSize matches the WebGPU default 2D texture limit.
const DefaultMaxTextureSize = 8192

// ErrInjected is returned by CreateTexture when a failure hook rejects the
// request.
var ErrInjected = errors.New("soft: injected failure")

// Option configures a Device.
type Option func(*Device)

// WithMaxTextureSize sets both the texture and the render target limit.
func WithMaxTextureSize(n int) Option {
	return func(d *Device) {
		d.caps.MaxTextureSize = n
		d.caps.MaxRenderTargetSize = n
	}
}

// WithFullsceneAA enables multisampled render targets.
func WithFullsceneAA(on bool) Option {
	return func(d *Device) { d.caps.SupportsFullsceneAA = on }
}

// With4x4Downsample toggles support for device.FilterDownsample4x4.
func With4x4Downsample(on bool) Option {
	return func(d *Device) { d.caps.Supports4x4Downsample = on }
}

// WithNPOTTiling toggles repeat/mirror support for non-power-of-two
// textures.
func WithNPOTTiling(on bool) Option {
	return func(d *Device) { d.caps.NPOTTextureTileSupport = on }
}

// WithCreateHook installs fn in front of every CreateTexture call. A non-nil
// error from fn fails the creation. Tests use it to simulate allocation
// failures.
func WithCreateHook(fn func(device.TextureDesc) error) Option {
	return func(d *Device) { d.createHook = fn }
}

// Device is the software device. It is not safe for concurrent use.
type Device struct {
	caps       device.Caps
	createHook func(device.TextureDesc) error

	pending device.RenderTarget
	bound   *renderTarget

	stats device.Stats

	live      int
	released  int
	abandoned int
}

var _ device.Device = (*Device)(nil)

// New creates a software device.
func New(opts ...Option) *Device {
	d := &Device{
		caps: device.Caps{
			MaxTextureSize:            DefaultMaxTextureSize,
			MaxRenderTargetSize:       DefaultMaxTextureSize,
			NPOTTextureTileSupport:    true,
			Supports4x4Downsample:     true,
			SupportsPerVertexCoverage: true,
			StencilBits:               8,
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Caps returns the device capabilities.
func (d *Device) Caps() device.Caps { return d.caps }

// CreateTexture allocates a texture and uploads data when given.
func (d *Device) CreateTexture(desc device.TextureDesc, data []byte, rowBytes int) (device.Texture, error) {
	if desc.Width <= 0 || desc.Height <= 0 || desc.Width > d.caps.MaxTextureSize || desc.Height > d.caps.MaxTextureSize {
		return nil, fmt.Errorf("soft: create %s: %w", desc, device.ErrInvalidSize)
	}
	if desc.IsRenderTarget() && (desc.Width > d.caps.MaxRenderTargetSize || desc.Height > d.caps.MaxRenderTargetSize) {
		return nil, fmt.Errorf("soft: create %s: %w", desc, device.ErrInvalidSize)
	}
	if !device.IsColorFormat(desc.Format) {
		return nil, fmt.Errorf("soft: create %s: %w", desc, device.ErrUnsupportedFormat)
	}
	if desc.Samples() > 1 && (!desc.IsRenderTarget() || !d.caps.SupportsFullsceneAA) {
		return nil, fmt.Errorf("soft: create %s: %w", desc, device.ErrUnsupportedFormat)
	}
	if d.createHook != nil {
		if err := d.createHook(desc); err != nil {
			return nil, fmt.Errorf("soft: create %s: %w", desc, err)
		}
	}

	bpp := 4
	if device.IsAlphaOnly(desc.Format) {
		bpp = 1
	}
	t := &texture{dev: d, desc: desc, surf: newSurface(desc.Width, desc.Height, bpp), valid: true}
	if data != nil {
		if !upload(t.surf, desc.Format, data, rowBytes) {
			return nil, fmt.Errorf("soft: create %s: short pixel data (%d bytes)", desc, len(data))
		}
	}
	if desc.IsRenderTarget() {
		t.rt = &renderTarget{tex: t, surf: t.surf, format: desc.Format, samples: desc.Samples()}
		t.rt.initSamples()
	}
	d.stats.TextureCreates++
	d.live++
	return t, nil
}

// CreateStencilBuffer allocates a cleared 8-bit stencil buffer.
func (d *Device) CreateStencilBuffer(width, height, samples int) (device.StencilBuffer, error) {
	if width <= 0 || height <= 0 || width > d.caps.MaxRenderTargetSize || height > d.caps.MaxRenderTargetSize {
		return nil, fmt.Errorf("soft: stencil %dx%d: %w", width, height, device.ErrInvalidSize)
	}
	if samples < 1 {
		samples = 1
	}
	d.stats.StencilBufferCreates++
	d.live++
	return &stencilBuffer{dev: d, w: width, h: height, samples: samples, data: make([]uint8, width*height), valid: true}, nil
}

// SetRenderTarget records rt; it is bound by the next draw or
// ForceRenderTarget.
func (d *Device) SetRenderTarget(rt device.RenderTarget) { d.pending = rt }

// ForceRenderTarget binds the pending render target now.
func (d *Device) ForceRenderTarget() {
	if rt, ok := d.pending.(*renderTarget); ok {
		d.bind(rt)
	}
}

func (d *Device) bind(rt *renderTarget) {
	if d.bound != rt {
		d.bound = rt
		d.stats.RenderTargetBinds++
	}
}

// Submit is a no-op beyond counting; drawing is synchronous.
func (d *Device) Submit() { d.stats.Submits++ }

// ResetState forgets the bound render target.
func (d *Device) ResetState() { d.bound = nil }

// Stats returns activity counters.
func (d *Device) Stats() device.Stats { return d.stats }

// ResetStats zeroes the activity counters.
func (d *Device) ResetStats() { d.stats = device.Stats{} }

// Live returns the number of textures and stencil buffers that were neither
// released nor abandoned.
func (d *Device) Live() int { return d.live }

// Released returns how many resources were freed through Release.
func (d *Device) Released() int { return d.released }

// Abandoned returns how many resources were dropped through Abandon.
func (d *Device) Abandoned() int { return d.abandoned }

// target resolves rt to a software render target with pixels.
func (d *Device) target(rt device.RenderTarget) *renderTarget {
	r, ok := rt.(*renderTarget)
	if !ok || r == nil || r.surf == nil {
		logging.L().Warn("soft: draw to invalid render target", "rt", fmt.Sprintf("%T", rt))
		return nil
	}
	return r
}

// upload copies data in format into the internal layout of s.
func upload(s *surface, format gputypes.TextureFormat, data []byte, rowBytes int) bool {
	srcBpp := device.BytesPerPixel(format)
	if rowBytes == 0 {
		rowBytes = s.w * srcBpp
	}
	if rowBytes < s.w*srcBpp || len(data) < rowBytes*(s.h-1)+s.w*srcBpp {
		return false
	}
	for y := 0; y < s.h; y++ {
		src := data[y*rowBytes : y*rowBytes+s.w*srcBpp]
		dst := s.pix[y*s.stride : y*s.stride+s.w*s.bpp]
		switch format {
		case gputypes.TextureFormatBGRA8Unorm:
			for x := 0; x < len(src); x += 4 {
				dst[x], dst[x+1], dst[x+2], dst[x+3] = src[x+2], src[x+1], src[x], src[x+3]
			}
		default:
			copy(dst, src)
		}
	}
	return true
}
