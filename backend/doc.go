// Package backend is the registry of device implementations.
//
// Device packages register a factory from init(), so importing them for
// side effects makes them selectable:
//
//	import (
//		_ "github.com/gogpu/gr/backend/soft"
//		_ "github.com/gogpu/gr/backend/wgpu"
//	)
//
// # Backend Selection
//
// Use Default() to open the best available device (wgpu, falling back to
// the software device), or Open() to request a specific backend by name:
//
//	dev, name, err := backend.Default()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer backend.Close(dev)
//
//	ctx, err := gr.New(dev)
//
// Available backends:
//   - "wgpu": GPU device on the wgpu HAL (Vulkan, Metal, DX12, GLES)
//   - "soft": CPU reference device, always available
package backend
