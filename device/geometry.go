package device

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/gr/geom"
)

// Primitive is the topology of a Geometry.
type Primitive uint8

const (
	Triangles Primitive = iota
	TriangleStrip
	TriangleFan
	Lines
	LineStrip
	Points
)

var primitiveNames = [...]string{
	Triangles:     "Triangles",
	TriangleStrip: "TriangleStrip",
	TriangleFan:   "TriangleFan",
	Lines:         "Lines",
	LineStrip:     "LineStrip",
	Points:        "Points",
}

// String implements fmt.Stringer.
func (p Primitive) String() string {
	if int(p) < len(primitiveNames) {
		return primitiveNames[p]
	}
	return "Unknown"
}

// Topology maps the primitive onto a WebGPU topology. Triangle fans have no
// WebGPU equivalent; callers expand them with FanToTriangles first.
func (p Primitive) Topology() (gputypes.PrimitiveTopology, bool) {
	switch p {
	case Triangles:
		return gputypes.PrimitiveTopologyTriangleList, true
	case TriangleStrip:
		return gputypes.PrimitiveTopologyTriangleStrip, true
	case Lines:
		return gputypes.PrimitiveTopologyLineList, true
	case LineStrip:
		return gputypes.PrimitiveTopologyLineStrip, true
	case Points:
		return gputypes.PrimitiveTopologyPointList, true
	default:
		return 0, false
	}
}

// Geometry is the vertex data of one draw. Positions are in local space and
// go through DrawState.ViewMatrix. Optional per-vertex arrays, when present,
// have the same length as Positions.
type Geometry struct {
	Primitive Primitive
	Positions []geom.Point

	// TexCoords holds explicit coordinates per stage. Stages with
	// UsePosition set, or without coordinates here, read Positions.
	TexCoords [NumStages][]geom.Point

	Colors   []Color
	Coverage []float32
	Indices  []uint16
}

// VertexCount returns the number of vertices referenced by the draw.
func (g *Geometry) VertexCount() int {
	if len(g.Indices) > 0 {
		return len(g.Indices)
	}
	return len(g.Positions)
}

// Clone deep-copies every slice so the caller can reuse its buffers.
func (g *Geometry) Clone() *Geometry {
	out := &Geometry{Primitive: g.Primitive}
	out.Positions = append([]geom.Point(nil), g.Positions...)
	for i, tc := range g.TexCoords {
		if tc != nil {
			out.TexCoords[i] = append([]geom.Point(nil), tc...)
		}
	}
	if g.Colors != nil {
		out.Colors = append([]Color(nil), g.Colors...)
	}
	if g.Coverage != nil {
		out.Coverage = append([]float32(nil), g.Coverage...)
	}
	if g.Indices != nil {
		out.Indices = append([]uint16(nil), g.Indices...)
	}
	return out
}

// Triangles returns the vertex index triples of a triangle primitive,
// resolving indices, strips and fans. Non-triangle primitives return nil.
func (g *Geometry) Triangles() [][3]int {
	n := g.VertexCount()
	at := func(i int) int {
		if len(g.Indices) > 0 {
			return int(g.Indices[i])
		}
		return i
	}
	var tris [][3]int
	switch g.Primitive {
	case Triangles:
		for i := 0; i+2 < n; i += 3 {
			tris = append(tris, [3]int{at(i), at(i + 1), at(i + 2)})
		}
	case TriangleStrip:
		for i := 0; i+2 < n; i++ {
			if i%2 == 0 {
				tris = append(tris, [3]int{at(i), at(i + 1), at(i + 2)})
			} else {
				tris = append(tris, [3]int{at(i + 1), at(i), at(i + 2)})
			}
		}
	case TriangleFan:
		for i := 1; i+1 < n; i++ {
			tris = append(tris, [3]int{at(0), at(i), at(i + 1)})
		}
	}
	return tris
}

// Segments returns the vertex index pairs of a line primitive.
func (g *Geometry) Segments() [][2]int {
	n := g.VertexCount()
	at := func(i int) int {
		if len(g.Indices) > 0 {
			return int(g.Indices[i])
		}
		return i
	}
	var segs [][2]int
	switch g.Primitive {
	case Lines:
		for i := 0; i+1 < n; i += 2 {
			segs = append(segs, [2]int{at(i), at(i + 1)})
		}
	case LineStrip:
		for i := 0; i+1 < n; i++ {
			segs = append(segs, [2]int{at(i), at(i + 1)})
		}
	}
	return segs
}

// RectFan returns the four-vertex fan covering r.
func RectFan(r geom.Rect) []geom.Point {
	c := r.Corners()
	return c[:]
}
