package mesh

import (
	"slices"

	"github.com/chazu/brushcsg/pkg/geom"
)

// corner is a vertex of the polyhedron together with every plane passing
// through it and the half-edges that end at it.
type corner struct {
	vertex VertexIndex
	planes []PlaneIndex
	edges  []cornerEdge
}

// cornerEdge is a half-edge ending at a corner, tagged with the two planes
// whose intersection line it lies on.
type cornerEdge struct {
	edge   EdgeIndex
	planes [2]PlaneIndex
}

// FromPlanes builds the boundary of the convex region bounded by planes.
//
// Every triple of planes is intersected; points outside any plane are
// dropped, and a point shared by more than three planes is only kept for the
// lowest triple that produces it. Two corners sharing two planes are joined
// by a pair of twin half-edges, which are then chained into counter-clockwise
// cycles around each face. The result has one polygon per input plane, in
// input order; planes that do not touch the region get an empty polygon.
//
// Parallel or degenerate plane triples are skipped. The planes are copied.
func FromPlanes(planes []geom.Plane) *Mesh {
	m := &Mesh{
		Planes:   slices.Clone(planes),
		Polygons: make([]Polygon, len(planes)),
		Bounds:   geom.EmptyAABB(),
	}
	for i := range m.Polygons {
		m.Polygons[i] = Polygon{
			First:    NoEdge,
			Plane:    PlaneIndex(i),
			Visible:  true,
			Category: Aligned,
			Bounds:   geom.EmptyAABB(),
		}
	}

	corners := m.findCorners()
	m.connectCorners(corners)

	for i := len(corners) - 1; i >= 0; i-- {
		c := corners[i]
		// A corner with two edges or less is a plane grazing the region
		// along a single edge.
		if len(c.edges) <= 2 {
			continue
		}
		vertex := m.Vertices[c.vertex]
		for j := 0; j < len(c.edges)-1; j++ {
			for k := j + 1; k < len(c.edges); k++ {
				m.linkAtCorner(vertex, c.edges[j], c.edges[k])
			}
		}
		m.Bounds.Add(vertex)
	}
	return m
}

func (m *Mesh) findCorners() []*corner {
	planes := m.Planes
	n := len(planes)
	var corners []*corner
	for i := 0; i < n-2; i++ {
		for j := i + 1; j < n-1; j++ {
			for k := j + 1; k < n; k++ {
				v := geom.Intersect3(planes[i], planes[j], planes[k])
				if !v.IsValid() {
					continue
				}
				on, ok := planesThrough(planes, v, i, j, k)
				if !ok {
					continue
				}
				corners = append(corners, &corner{vertex: VertexIndex(len(m.Vertices)), planes: on})
				m.Vertices = append(m.Vertices, v)
			}
		}
	}
	return corners
}

// planesThrough returns every plane passing through v, found as the
// intersection of planes i, j and k. It reports false when v lies outside
// some plane, or when a lower triple already produced v.
func planesThrough(planes []geom.Plane, v geom.Vector3, i, j, k int) ([]PlaneIndex, bool) {
	on := []PlaneIndex{PlaneIndex(i), PlaneIndex(j), PlaneIndex(k)}
	for l, p := range planes {
		if l == i || l == j || l == k {
			continue
		}
		switch p.OnSide(v) {
		case geom.Outside:
			return nil, false
		case geom.Intersects:
			if l < k {
				return nil, false
			}
			on = append(on, PlaneIndex(l))
		}
	}
	return on, true
}

func (m *Mesh) connectCorners(corners []*corner) {
	for i, a := range corners {
		for _, b := range corners[i+1:] {
			var shared [2]PlaneIndex
			found := 0
			for _, p := range a.planes {
				if !slices.Contains(b.planes, p) {
					continue
				}
				// A plane parallel to the first shared one is a coincident
				// duplicate, not a second face through the edge.
				if found == 1 && m.parallel(shared[0], p) {
					continue
				}
				shared[found] = p
				found++
				if found == 2 {
					break
				}
			}
			if found < 2 {
				continue
			}

			ea := EdgeIndex(len(m.Edges))
			eb := ea + 1
			m.Edges = append(m.Edges,
				HalfEdge{Vertex: a.vertex, Polygon: NoPolygon, Twin: eb, Next: NoEdge},
				HalfEdge{Vertex: b.vertex, Polygon: NoPolygon, Twin: ea, Next: NoEdge},
			)
			a.edges = append(a.edges, cornerEdge{edge: ea, planes: shared})
			b.edges = append(b.edges, cornerEdge{edge: eb, planes: shared})
		}
	}
}

func (m *Mesh) parallel(a, b PlaneIndex) bool {
	return m.Planes[a].Normal().Cross(m.Planes[b].Normal()).Length() < geom.NormalEpsilon
}

// linkAtCorner chains two edges meeting at a corner when they border a
// common face. The orientation test picks which of them enters the corner
// so the face is wound counter-clockwise around its outward normal.
func (m *Mesh) linkAtCorner(vertex geom.Vector3, e1, e2 cornerEdge) {
	s1, s2, ok := sharedSlot(e1.planes, e2.planes)
	if !ok {
		return
	}
	shared := e1.planes[s1]
	sharedNormal := m.Planes[shared].Normal()
	other1 := m.Planes[e1.planes[1-s1]].Normal()
	other2 := m.Planes[e2.planes[1-s2]].Normal()

	var ingoing, outgoing EdgeIndex
	if sharedNormal.Cross(other1).Dot(other2) < 0 {
		ingoing = e2.edge
		outgoing = m.Edges[e1.edge].Twin
	} else {
		ingoing = e1.edge
		outgoing = m.Edges[e2.edge].Twin
	}

	polygon := PolygonIndex(shared)
	m.Edges[ingoing].Next = outgoing
	m.Edges[ingoing].Polygon = polygon
	m.Edges[outgoing].Polygon = polygon

	m.Polygons[polygon].First = outgoing
	m.Polygons[polygon].Bounds.Add(vertex)
}

func sharedSlot(a, b [2]PlaneIndex) (int, int, bool) {
	for i := range a {
		for j := range b {
			if a[i] == b[j] {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}
