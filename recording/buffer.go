package recording

import (
	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/geom"
)

// Buffer is an in-order draw buffer. It records commands and replays them
// to a target in exactly the order they were issued. Consecutive triangle
// draws with identical state are merged into one draw.
//
// Buffer implements device.Target. It is not safe for concurrent use.
type Buffer struct {
	cmds   []Command
	pool   *GeometryPool
	merged int
}

var _ device.Target = (*Buffer)(nil)

// NewBuffer creates an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{
		cmds: make([]Command, 0, 64),
		pool: NewGeometryPool(),
	}
}

// Clear records a clear of rect (the whole target when nil).
func (b *Buffer) Clear(rt device.RenderTarget, rect *geom.IRect, color device.Color) {
	cmd := ClearCommand{RenderTarget: rt, Color: color, WholeTarget: rect == nil}
	if rect != nil {
		cmd.Rect = *rect
	}
	b.cmds = append(b.cmds, cmd)
}

// Draw records a draw. The state and the geometry are copied.
func (b *Buffer) Draw(state *device.DrawState, g *device.Geometry) {
	if g.VertexCount() == 0 {
		return
	}
	if n := len(b.cmds); n > 0 {
		if last, ok := b.cmds[n-1].(DrawCommand); ok && last.State == *state {
			if b.pool.Merge(last.Geometry, g) {
				b.merged++
				return
			}
		}
	}
	b.cmds = append(b.cmds, DrawCommand{State: *state, Geometry: b.pool.Add(g)})
}

// Len returns the number of recorded commands.
func (b *Buffer) Len() int { return len(b.cmds) }

// Merged returns how many draws were folded into a previous one since the
// last Reset.
func (b *Buffer) Merged() int { return b.merged }

// Commands returns the recorded commands. The slice is valid until Reset.
func (b *Buffer) Commands() []Command { return b.cmds }

// Geometry returns the pooled geometry of a draw command.
func (b *Buffer) Geometry(ref GeomRef) *device.Geometry { return b.pool.Get(ref) }

// Playback replays every command to dst in issue order. The buffer keeps
// its contents; call Reset afterwards.
func (b *Buffer) Playback(dst device.Target) {
	for _, cmd := range b.cmds {
		switch c := cmd.(type) {
		case ClearCommand:
			if c.WholeTarget {
				dst.Clear(c.RenderTarget, nil, c.Color)
			} else {
				r := c.Rect
				dst.Clear(c.RenderTarget, &r, c.Color)
			}
		case DrawCommand:
			st := c.State
			dst.Draw(&st, b.pool.Get(c.Geometry))
		}
	}
}

// Reset drops every recorded command.
func (b *Buffer) Reset() {
	clear(b.cmds)
	b.cmds = b.cmds[:0]
	b.pool.Reset()
	b.merged = 0
}
