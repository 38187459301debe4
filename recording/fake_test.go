package recording

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/geom"
)

// logDevice records every call it receives as a string.
type logDevice struct {
	calls []string
}

func (d *logDevice) log(format string, args ...any) {
	d.calls = append(d.calls, fmt.Sprintf(format, args...))
}

func (d *logDevice) Clear(_ device.RenderTarget, rect *geom.IRect, _ device.Color) {
	if rect == nil {
		d.log("clear")
		return
	}
	d.log("clear %d,%d", rect.Left, rect.Top)
}

// Draw logs the x coordinate of the first vertex, which tests use as a tag.
func (d *logDevice) Draw(_ *device.DrawState, g *device.Geometry) {
	d.log("draw %g n=%d", g.Positions[0].X, len(g.Positions))
}

func (d *logDevice) Caps() device.Caps { return device.Caps{MaxTextureSize: 4096, MaxRenderTargetSize: 4096} }
func (d *logDevice) CreateTexture(device.TextureDesc, []byte, int) (device.Texture, error) {
	return nil, device.ErrUnsupportedFormat
}
func (d *logDevice) CreateStencilBuffer(int, int, int) (device.StencilBuffer, error) {
	return nil, device.ErrUnsupportedFormat
}
func (d *logDevice) SetRenderTarget(device.RenderTarget) {}
func (d *logDevice) ForceRenderTarget()                  { d.log("force-rt") }
func (d *logDevice) ReadPixels(device.RenderTarget, geom.IRect, gputypes.TextureFormat, []byte, int) bool {
	return false
}
func (d *logDevice) Submit()                   { d.log("submit") }
func (d *logDevice) ResetState()               {}
func (d *logDevice) Stats() device.Stats       { return device.Stats{} }
func (d *logDevice) ResetStats()               {}

// tri returns a one-triangle geometry tagged by its first x coordinate.
func tri(tag float64) *device.Geometry {
	return &device.Geometry{
		Primitive: device.Triangles,
		Positions: []geom.Point{{X: tag}, {X: tag + 1}, {X: tag, Y: 1}},
	}
}
