package recording

import (
	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/geom"
)

// CommandType identifies the type of a command.
type CommandType uint8

const (
	CmdClear CommandType = iota // Clear a render target rectangle
	CmdDraw                     // Draw geometry with a state
)

// commandTypeNames maps CommandType values to their string representation.
var commandTypeNames = [...]string{
	CmdClear: "Clear",
	CmdDraw:  "Draw",
}

// String returns the name of the command type.
func (t CommandType) String() string {
	if int(t) < len(commandTypeNames) {
		return commandTypeNames[t]
	}
	return "Unknown"
}

// Command is a deferred device command.
type Command interface {
	Type() CommandType
}

// GeomRef is a reference to geometry stored in a GeometryPool.
type GeomRef uint32

// InvalidRef is the reference value of "no geometry".
const InvalidRef GeomRef = ^GeomRef(0)

// IsValid returns true if the reference is not InvalidRef.
func (r GeomRef) IsValid() bool { return r != InvalidRef }

// ClearCommand clears a rectangle of a render target.
type ClearCommand struct {
	RenderTarget device.RenderTarget
	Rect         geom.IRect
	WholeTarget  bool
	Color        device.Color
}

// Type implements Command.
func (ClearCommand) Type() CommandType { return CmdClear }

// DrawCommand draws pooled geometry with a snapshot of the draw state.
type DrawCommand struct {
	State    device.DrawState
	Geometry GeomRef
}

// Type implements Command.
func (DrawCommand) Type() CommandType { return CmdDraw }
