package wgpu

import (
	"github.com/gogpu/gr/backend"
	"github.com/gogpu/gr/device"
)

func init() {
	backend.Register(backend.BackendWGPU, func() (device.Device, error) {
		d, err := Open()
		if err != nil {
			return nil, err
		}
		return d, nil
	})
}
