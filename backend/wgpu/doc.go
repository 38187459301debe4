// Package wgpu implements device.Device on top of the gogpu/wgpu HAL.
//
// Every draw becomes one render pass in a per-frame command encoder; Submit
// ends the encoder, submits it and waits for the GPU before freeing the
// frame's transient buffers and bind groups. All draws share one WGSL uber
// shader; pipelines are cached by target format, sample count, blend,
// stencil settings and topology.
//
// The device either opens its own adapter (Open) or shares one owned by the
// host application (NewFromHAL, NewFromProvider). To get real GPUs, import
// the HAL backends for side effects:
//
//	import _ "github.com/gogpu/wgpu/hal/allbackends"
package wgpu
