package backend

import (
	"errors"

	"github.com/gogpu/gr/device"
)

// Backend names.
const (
	// BackendWGPU is the GPU device on top of the wgpu HAL.
	BackendWGPU = "wgpu"

	// BackendSoft is the CPU reference device.
	BackendSoft = "soft"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not
	// registered or every registered backend failed to open.
	ErrBackendNotAvailable = errors.New("backend: not available")
)

// Factory opens a device. Factories are called once per request; each call
// returns a new device owned by the caller.
type Factory func() (device.Device, error)

// Closer is implemented by devices that hold resources beyond their
// textures, such as an opened GPU adapter.
type Closer interface {
	Close()
}

// Close closes dev when it implements Closer.
func Close(dev device.Device) {
	if c, ok := dev.(Closer); ok {
		c.Close()
	}
}
