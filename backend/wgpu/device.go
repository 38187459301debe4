package wgpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/google/uuid"

	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/internal/logging"
)

// Errors returned by the constructors.
var (
	// ErrNoAdapter is returned when no GPU adapter could be found.
	ErrNoAdapter = errors.New("wgpu: no GPU adapter")

	// ErrNotHAL is returned by NewFromProvider for providers that do not
	// expose wgpu HAL objects.
	ErrNotHAL = errors.New("wgpu: provider does not expose HAL device")
)

// GPUInfo contains information about the selected GPU.
type GPUInfo struct {
	// Name is the GPU name (e.g., "NVIDIA GeForce RTX 3080").
	Name string
	// Vendor is the GPU vendor.
	Vendor string
	// DeviceType is the type of GPU (discrete, integrated, etc.).
	DeviceType gputypes.DeviceType
	// Backend is the graphics API in use (Vulkan, Metal, DX12).
	Backend gputypes.Backend
	// Driver is the driver version string.
	Driver string
}

// String returns a human-readable description of the GPU.
func (g GPUInfo) String() string {
	return fmt.Sprintf("%s (%s, %s)", g.Name, g.DeviceType, g.Backend)
}

func gpuInfo(info gputypes.AdapterInfo) GPUInfo {
	return GPUInfo{
		Name:       info.Name,
		Vendor:     info.Vendor,
		DeviceType: info.DeviceType,
		Backend:    info.Backend,
		Driver:     info.Driver,
	}
}

// Option configures a Device.
type Option func(*config)

type config struct {
	backend gputypes.Backend
	spirv   bool
	limits  gputypes.Limits
}

// WithBackend forces a HAL backend instead of the best available one.
func WithBackend(b gputypes.Backend) Option {
	return func(c *config) { c.backend = b }
}

// WithSPIRV compiles the shader to SPIR-V with naga before handing it to
// the HAL instead of passing WGSL source.
func WithSPIRV(on bool) Option {
	return func(c *config) { c.spirv = on }
}

// WithLimits overrides the limits requested when opening the device.
func WithLimits(l gputypes.Limits) Option {
	return func(c *config) { c.limits = l }
}

// Device is a device.Device backed by a wgpu HAL device. It is not safe
// for concurrent use.
type Device struct {
	id     uuid.UUID
	dev    hal.Device
	queue  hal.Queue
	info   GPUInfo
	caps   device.Caps
	spirv  bool
	owned  bool
	inst   hal.Instance
	closed bool

	pl *pipelines

	pending device.RenderTarget
	bound   *renderTarget

	frame frame
	stats device.Stats
}

var _ device.Device = (*Device)(nil)

// Open selects a HAL backend and adapter, opens a device and returns it.
// Discrete and integrated GPUs are preferred over software adapters.
func Open(opts ...Option) (*Device, error) {
	cfg := config{limits: gputypes.DefaultLimits()}
	for _, opt := range opts {
		opt(&cfg)
	}

	var (
		backend hal.Backend
		err     error
	)
	if cfg.backend != gputypes.BackendEmpty {
		backend, err = lookupBackend(cfg.backend)
	} else {
		backend, err = hal.SelectBestBackend()
	}
	if err != nil {
		return nil, fmt.Errorf("wgpu: select backend: %w", err)
	}

	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), cfg.limits)
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("wgpu: open device: %w", err)
	}

	d, err := newDevice(openDev.Device, openDev.Queue, selected.Capabilities.Limits, cfg)
	if err != nil {
		openDev.Device.Destroy()
		instance.Destroy()
		return nil, err
	}
	d.info = gpuInfo(selected.Info)
	d.owned = true
	d.inst = instance
	logging.L().Info("wgpu: device opened", "gpu", d.info.String(), "id", d.id)
	return d, nil
}

func lookupBackend(b gputypes.Backend) (hal.Backend, error) {
	if backend, ok := hal.GetBackend(b); ok {
		return backend, nil
	}
	return hal.CreateBackend(b)
}

// NewFromHAL wraps a device and queue owned by the caller. Close does not
// destroy them.
func NewFromHAL(dev hal.Device, queue hal.Queue, limits gputypes.Limits, opts ...Option) (*Device, error) {
	cfg := config{limits: limits}
	for _, opt := range opts {
		opt(&cfg)
	}
	return newDevice(dev, queue, limits, cfg)
}

// NewFromProvider shares the GPU device of a host application. The provider
// must expose HalDevice() and HalQueue() returning wgpu HAL objects, as the
// gogpu application framework does.
func NewFromProvider(provider gpucontext.DeviceProvider, opts ...Option) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNotHAL
	}
	dev, ok := hp.HalDevice().(hal.Device)
	if !ok || dev == nil {
		return nil, fmt.Errorf("%w: HalDevice is %T", ErrNotHAL, hp.HalDevice())
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is %T", ErrNotHAL, hp.HalQueue())
	}
	d, err := NewFromHAL(dev, queue, gputypes.DefaultLimits(), opts...)
	if err != nil {
		return nil, err
	}
	info := provider.AdapterInfo()
	d.info = GPUInfo{Name: info.Name, Vendor: info.Type.String()}
	return d, nil
}

func newDevice(dev hal.Device, queue hal.Queue, limits gputypes.Limits, cfg config) (*Device, error) {
	maxSize := int(limits.MaxTextureDimension2D)
	if maxSize == 0 {
		maxSize = int(gputypes.DefaultLimits().MaxTextureDimension2D)
	}
	d := &Device{
		id:    uuid.New(),
		dev:   dev,
		queue: queue,
		spirv: cfg.spirv,
		caps: device.Caps{
			MaxTextureSize:            maxSize,
			MaxRenderTargetSize:       maxSize,
			NPOTTextureTileSupport:    true,
			SupportsFullsceneAA:       true,
			Supports4x4Downsample:     true,
			SupportsPerVertexCoverage: true,
			StencilBits:               8,
		},
	}
	pl, err := newPipelines(d)
	if err != nil {
		return nil, err
	}
	d.pl = pl
	return d, nil
}

// ID identifies the device in logs and resource labels.
func (d *Device) ID() uuid.UUID { return d.id }

// Info describes the GPU.
func (d *Device) Info() GPUInfo { return d.info }

// Caps returns the device capabilities.
func (d *Device) Caps() device.Caps { return d.caps }

// SetRenderTarget records rt for the next draw.
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

// ResetState forgets cached binding state.
func (d *Device) ResetState() { d.bound = nil }

// Stats returns activity counters.
func (d *Device) Stats() device.Stats { return d.stats }

// ResetStats zeroes the activity counters.
func (d *Device) ResetStats() { d.stats = device.Stats{} }

// Close submits outstanding work and destroys every object the device
// created. Textures handed out earlier must be released before Close.
func (d *Device) Close() {
	if d.closed {
		return
	}
	d.submit()
	d.pl.destroy()
	d.closed = true
	if d.owned {
		d.dev.Destroy()
		if d.inst != nil {
			d.inst.Destroy()
		}
	}
}

func (d *Device) label(kind string) string {
	return fmt.Sprintf("gr-%s-%s", kind, uuid.NewString()[:8])
}
