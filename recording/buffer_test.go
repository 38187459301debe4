package recording

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/geom"
)

func TestBufferCopiesGeometry(t *testing.T) {
	b := NewBuffer()
	st := device.NewDrawState(nil)
	g := tri(5)
	b.Draw(&st, g)
	g.Positions[0].X = 99

	dev := &logDevice{}
	b.Playback(dev)
	assert.Equal(t, []string{"draw 5 n=3"}, dev.calls)
}

func TestBufferMergesIdenticalState(t *testing.T) {
	b := NewBuffer()
	st := device.NewDrawState(nil)
	quad := &device.Geometry{
		Primitive: device.Triangles,
		Positions: []geom.Point{{X: 0}, {X: 1}, {X: 1, Y: 1}, {Y: 1}},
		Indices:   []uint16{0, 1, 2, 0, 2, 3},
	}
	b.Draw(&st, quad)
	b.Draw(&st, quad)
	require.Equal(t, 1, b.Len())
	assert.Equal(t, 1, b.Merged())

	cmd := b.Commands()[0].(DrawCommand)
	g := b.Geometry(cmd.Geometry)
	assert.Len(t, g.Positions, 8)
	assert.Equal(t, []uint16{0, 1, 2, 0, 2, 3, 4, 5, 6, 4, 6, 7}, g.Indices)
}

func TestBufferDoesNotMergeAcrossClearOrFan(t *testing.T) {
	b := NewBuffer()
	st := device.NewDrawState(nil)
	b.Draw(&st, tri(1))
	b.Clear(nil, nil, device.Transparent)
	b.Draw(&st, tri(2))
	fan := &device.Geometry{Primitive: device.TriangleFan, Positions: tri(3).Positions}
	b.Draw(&st, fan)
	assert.Equal(t, 4, b.Len())

	dev := &logDevice{}
	b.Playback(dev)
	assert.Equal(t, []string{"draw 1 n=3", "clear", "draw 2 n=3", "draw 3 n=3"}, dev.calls)
}

func TestBufferClearRect(t *testing.T) {
	b := NewBuffer()
	r := geom.IRectXYWH(4, 5, 2, 2)
	b.Clear(nil, &r, device.White)
	r.Left = 100

	dev := &logDevice{}
	b.Playback(dev)
	assert.Equal(t, []string{"clear 4,5"}, dev.calls)
	assert.Equal(t, CmdClear, b.Commands()[0].Type())
}

func TestBufferReset(t *testing.T) {
	b := NewBuffer()
	st := device.NewDrawState(nil)
	b.Draw(&st, tri(1))
	b.Reset()
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 0, b.pool.Len())

	dev := &logDevice{}
	b.Playback(dev)
	assert.Empty(t, dev.calls)
}
