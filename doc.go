// Package gr is the GPU resource cache and deferred draw core that sits
// between a 2D drawing API and a 3D device.
//
// # Overview
//
// A Context owns three things on top of a device.Device:
//   - a budgeted, lockable texture and stencil buffer cache (package cache)
//   - a deferred draw buffer that coalesces draws and flushes only when
//     ordering requires it (package recording)
//   - an offscreen antialiasing pipeline that renders coverage into
//     supersampled scratch targets and composites it into the real target
//
// # Quick Start
//
//	import (
//		"github.com/gogpu/gr"
//		"github.com/gogpu/gr/backend/soft"
//	)
//
//	dev := soft.New()
//	ctx, err := gr.New(dev)
//	if err != nil {
//		return err
//	}
//	defer ctx.Close()
//
//	ctx.SetRenderTarget(rt)
//	p := gr.NewPaint()
//	p.AntiAlias = true
//	path := gr.NewPath()
//	path.Circle(128, 128, 100)
//	ctx.DrawPath(&p, path, gr.FillWinding, nil)
//	ctx.Flush(0)
//
// # Textures
//
// Client textures are cached under a 64-bit key. FindAndLockTexture and
// CreateAndLockTexture return a cache.Token that keeps the texture alive
// until UnlockTexture. Scratch textures (LockScratchTexture) are
// content-free and never handed to two holders at once.
//
// Unlocked textures are evicted oldest first as soon as the cache exceeds
// its budget (SetTextureCacheLimits).
//
// # Draw categories
//
// Rect fills and clears are buffered; paths, vertices and pixel writes go
// straight to the device; text is buffered separately. A draw of a
// different category than the previous one flushes the buffer first, so
// the device always sees draws in the order they were issued.
//
// Package text draws shaped strings from a glyph atlas through the text
// category.
//
// # Coordinate System
//
// Origin at the top-left of the render target, X right, Y down. The view
// matrix maps local coordinates to device pixels.
//
// # Concurrency
//
// Context is not safe for concurrent use. SetLogger may be called at any
// time.
package gr

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0-alpha.1"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0

	// VersionPrerelease is the prerelease identifier
	VersionPrerelease = "alpha.1"
)
