// Package soft is a software implementation of device.Device.
//
// It rasterizes triangles, lines and points on the CPU with the texture
// sampling, blending, stencil and scissor semantics the core relies on. It is
// a reference and test device, not a renderer: there is no curve support and
// no attempt at speed.
//
// Pixels are stored premultiplied. RGBA8 and BGRA8 textures share an RGBA
// layout in memory and are swizzled on upload and read back; R8 textures
// hold coverage only and sample as (a, a, a, a).
package soft
