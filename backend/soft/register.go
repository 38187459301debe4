package soft

import (
	"github.com/gogpu/gr/backend"
	"github.com/gogpu/gr/device"
)

func init() {
	backend.Register(backend.BackendSoft, func() (device.Device, error) {
		return New(), nil
	})
}
