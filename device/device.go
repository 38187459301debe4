package device

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gr/geom"
)

// Sentinel errors shared by device implementations.
var (
	// ErrUnsupportedFormat is returned for formats a device cannot create.
	ErrUnsupportedFormat = errors.New("device: unsupported texture format")

	// ErrInvalidSize is returned for empty or oversized textures.
	ErrInvalidSize = errors.New("device: invalid texture size")

	// ErrOutOfMemory is returned when the device refuses an allocation.
	ErrOutOfMemory = errors.New("device: out of memory")

	// ErrDeviceLost is returned by every call after the device went away.
	ErrDeviceLost = errors.New("device: device lost")
)

// Caps describes device limits and optional features.
type Caps struct {
	MaxTextureSize      int
	MaxRenderTargetSize int

	// NPOTTextureTileSupport is false on devices that cannot repeat or
	// mirror non-power-of-two textures.
	NPOTTextureTileSupport bool

	// SupportsFullsceneAA reports multisampled render target support.
	SupportsFullsceneAA bool

	// Supports4x4Downsample reports FilterDownsample4x4 support.
	Supports4x4Downsample bool

	// SupportsPerVertexCoverage reports that Geometry.Coverage is honored.
	SupportsPerVertexCoverage bool

	StencilBits int
}

// Stats counts device activity since the last ResetStats.
type Stats struct {
	TextureCreates       int
	StencilBufferCreates int
	RenderTargetBinds    int
	Draws                int
	Vertices             int
	Clears               int
	Submits              int
	Reads                int
}

// String implements fmt.Stringer.
func (s Stats) String() string {
	return fmt.Sprintf("textures=%d stencils=%d rtBinds=%d draws=%d verts=%d clears=%d submits=%d reads=%d",
		s.TextureCreates, s.StencilBufferCreates, s.RenderTargetBinds, s.Draws, s.Vertices, s.Clears, s.Submits, s.Reads)
}

// Target receives draw commands. Both a Device and a deferred draw buffer
// implement it.
type Target interface {
	// Clear fills rect (the whole target when nil) of rt with color,
	// ignoring clip, blend and stencil.
	Clear(rt RenderTarget, rect *geom.IRect, color Color)

	// Draw rasterizes g with state.
	Draw(state *DrawState, g *Geometry)
}

// Device is the 3D device abstraction.
//
// State binding is lazy: SetRenderTarget records the target and the device
// binds it with the next draw. ForceRenderTarget binds it immediately.
type Device interface {
	Target

	Caps() Caps

	// CreateTexture creates a texture, optionally initialized from data
	// laid out with rowBytes bytes per row (0 means tightly packed).
	CreateTexture(desc TextureDesc, data []byte, rowBytes int) (Texture, error)

	// CreateStencilBuffer creates a stencil attachment.
	CreateStencilBuffer(width, height, samples int) (StencilBuffer, error)

	SetRenderTarget(rt RenderTarget)
	ForceRenderTarget()

	// ReadPixels copies rect of rt into dst converted to format. It returns
	// false for unsupported formats or out-of-range rectangles.
	ReadPixels(rt RenderTarget, rect geom.IRect, format gputypes.TextureFormat, dst []byte, rowBytes int) bool

	// Submit hands all recorded device work to the GPU.
	Submit()

	// ResetState forgets any cached 3D API state, for use after an outside
	// party touched the API.
	ResetState()

	Stats() Stats
	ResetStats()
}
