// Package device defines the 3D device abstraction consumed by the gr core.
//
// A Device creates textures and stencil buffers, binds render targets,
// executes draws described by a DrawState and a Geometry, and reads pixels
// back. The core never talks to a graphics API directly; concrete devices
// live under backend/ (a software reference device and a wgpu HAL device).
//
// Formats, blend coefficients, wrap modes and stencil operations reuse the
// WebGPU vocabulary from github.com/gogpu/gputypes so the HAL backend maps
// them one to one.
package device
