package mesh

import (
	"slices"

	"github.com/chazu/brushcsg/pkg/geom"
)

// Mesh is the boundary of one brush, or of several merged brushes, in a
// local frame.
type Mesh struct {
	Planes   []geom.Plane
	Polygons []Polygon
	Edges    []HalfEdge
	Vertices []geom.Vector3
	Bounds   geom.AABB
}

// Clone returns a deep copy of m. The copy shares no slices with m.
func (m *Mesh) Clone() *Mesh {
	return &Mesh{
		Planes:   slices.Clone(m.Planes),
		Polygons: slices.Clone(m.Polygons),
		Edges:    slices.Clone(m.Edges),
		Vertices: slices.Clone(m.Vertices),
		Bounds:   m.Bounds,
	}
}

// PolygonIndices returns the index of every polygon in the mesh, in order.
func (m *Mesh) PolygonIndices() []PolygonIndex {
	out := make([]PolygonIndex, len(m.Polygons))
	for i := range out {
		out[i] = PolygonIndex(i)
	}
	return out
}

// Cycle returns the edges of polygon p in boundary order, starting at its
// First edge. It fails when the cycle runs out of range, does not close
// within the number of edges in the mesh, or has fewer than three edges.
func (m *Mesh) Cycle(p PolygonIndex) ([]EdgeIndex, error) {
	if p < 0 || int(p) >= len(m.Polygons) {
		return nil, topologyErrorf(p, "polygon index out of range")
	}
	first := m.Polygons[p].First
	if first == NoEdge {
		return nil, nil
	}
	var cycle []EdgeIndex
	e := first
	for {
		if e < 0 || int(e) >= len(m.Edges) {
			return nil, topologyErrorf(p, "edge %d out of range", e)
		}
		cycle = append(cycle, e)
		if len(cycle) > len(m.Edges) {
			return nil, topologyErrorf(p, "edge cycle does not close")
		}
		e = m.Edges[e].Next
		if e == first {
			break
		}
	}
	if len(cycle) < 3 {
		return nil, topologyErrorf(p, "cycle has %d edges", len(cycle))
	}
	return cycle, nil
}

// PolygonVertices returns the positions around polygon p in boundary
// order.
func (m *Mesh) PolygonVertices(p PolygonIndex) ([]geom.Vector3, error) {
	cycle, err := m.Cycle(p)
	if err != nil {
		return nil, err
	}
	out := make([]geom.Vector3, len(cycle))
	for i, e := range cycle {
		out[i] = m.Vertices[m.Edges[e].Vertex]
	}
	return out, nil
}

// VisibleCount returns the number of non-empty visible polygons.
func (m *Mesh) VisibleCount() int {
	n := 0
	for i := range m.Polygons {
		if !m.Polygons[i].IsEmpty() && m.Polygons[i].Visible {
			n++
		}
	}
	return n
}

// updatePolygon walks the cycle starting at the polygon's First edge,
// assigning every edge to p and recomputing the polygon bounds.
func (m *Mesh) updatePolygon(p PolygonIndex) {
	poly := &m.Polygons[p]
	poly.Bounds = geom.EmptyAABB()
	e := poly.First
	for {
		m.Edges[e].Polygon = p
		poly.Bounds.Add(m.Vertices[m.Edges[e].Vertex])
		e = m.Edges[e].Next
		if e == poly.First {
			return
		}
	}
}
