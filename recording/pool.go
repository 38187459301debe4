package recording

import (
	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/geom"
)

// GeometryPool stores the vertex data of deferred draws in shared arenas.
// Added geometry is copied, so callers may reuse their slices immediately.
//
// GeometryPool is not safe for concurrent use.
type GeometryPool struct {
	points   []geom.Point
	colors   []device.Color
	coverage []float32
	indices  []uint16
	geoms    []device.Geometry
}

// NewGeometryPool creates an empty pool with pre-allocated capacity.
func NewGeometryPool() *GeometryPool {
	return &GeometryPool{
		points:  make([]geom.Point, 0, 1024),
		indices: make([]uint16, 0, 1024),
		geoms:   make([]device.Geometry, 0, 64),
	}
}

// Add copies g into the pool and returns its reference.
func (p *GeometryPool) Add(g *device.Geometry) GeomRef {
	out := device.Geometry{Primitive: g.Primitive}
	out.Positions = p.copyPoints(g.Positions)
	for i, tc := range g.TexCoords {
		if tc != nil {
			out.TexCoords[i] = p.copyPoints(tc)
		}
	}
	if g.Colors != nil {
		start := len(p.colors)
		p.colors = append(p.colors, g.Colors...)
		out.Colors = p.colors[start:len(p.colors):len(p.colors)]
	}
	if g.Coverage != nil {
		start := len(p.coverage)
		p.coverage = append(p.coverage, g.Coverage...)
		out.Coverage = p.coverage[start:len(p.coverage):len(p.coverage)]
	}
	if g.Indices != nil {
		start := len(p.indices)
		p.indices = append(p.indices, g.Indices...)
		out.Indices = p.indices[start:len(p.indices):len(p.indices)]
	}
	p.geoms = append(p.geoms, out)
	// #nosec G115 -- pool size is bounded by available memory, well under uint32 max
	return GeomRef(uint32(len(p.geoms) - 1))
}

func (p *GeometryPool) copyPoints(src []geom.Point) []geom.Point {
	start := len(p.points)
	p.points = append(p.points, src...)
	return p.points[start:len(p.points):len(p.points)]
}

// Get returns the geometry for ref, or nil if the reference is invalid.
func (p *GeometryPool) Get(ref GeomRef) *device.Geometry {
	if !ref.IsValid() || int(ref) >= len(p.geoms) {
		return nil
	}
	return &p.geoms[ref]
}

// Merge appends g to the geometry behind ref, which must be an indexed or
// non-indexed triangle list with the same per-vertex attributes. It returns
// false, leaving the pool untouched, when the two cannot be merged.
func (p *GeometryPool) Merge(ref GeomRef, g *device.Geometry) bool {
	dst := p.Get(ref)
	if dst == nil || !mergeable(dst, g) {
		return false
	}
	base := len(dst.Positions)
	if base+len(g.Positions) > 1<<16 {
		return false
	}

	merged := device.Geometry{Primitive: device.Triangles}
	merged.Positions = append(append([]geom.Point(nil), dst.Positions...), g.Positions...)
	for i := range dst.TexCoords {
		if dst.TexCoords[i] != nil {
			merged.TexCoords[i] = append(append([]geom.Point(nil), dst.TexCoords[i]...), g.TexCoords[i]...)
		}
	}
	if dst.Colors != nil {
		merged.Colors = append(append([]device.Color(nil), dst.Colors...), g.Colors...)
	}
	if dst.Coverage != nil {
		merged.Coverage = append(append([]float32(nil), dst.Coverage...), g.Coverage...)
	}
	if dst.Indices != nil {
		merged.Indices = append([]uint16(nil), dst.Indices...)
		for _, idx := range g.Indices {
			// #nosec G115 -- base+idx checked against 1<<16 above
			merged.Indices = append(merged.Indices, uint16(base)+idx)
		}
	}
	*dst = merged
	return true
}

func mergeable(a, b *device.Geometry) bool {
	if a.Primitive != device.Triangles || b.Primitive != device.Triangles {
		return false
	}
	if (a.Indices == nil) != (b.Indices == nil) ||
		(a.Colors == nil) != (b.Colors == nil) ||
		(a.Coverage == nil) != (b.Coverage == nil) {
		return false
	}
	for i := range a.TexCoords {
		if (a.TexCoords[i] == nil) != (b.TexCoords[i] == nil) {
			return false
		}
	}
	return true
}

// Len returns the number of geometries in the pool.
func (p *GeometryPool) Len() int { return len(p.geoms) }

// VertexCount returns the number of pooled positions.
func (p *GeometryPool) VertexCount() int {
	n := 0
	for i := range p.geoms {
		n += len(p.geoms[i].Positions)
	}
	return n
}

// Reset empties the pool, keeping its capacity.
func (p *GeometryPool) Reset() {
	p.points = p.points[:0]
	p.colors = p.colors[:0]
	p.coverage = p.coverage[:0]
	p.indices = p.indices[:0]
	clear(p.geoms)
	p.geoms = p.geoms[:0]
}
