package mesh

import (
	"fmt"

	"github.com/chazu/brushcsg/pkg/geom"
)

// SplitResult is the outcome of clipping one polygon by one plane.
type SplitResult uint8

const (
	CompletelyInside SplitResult = iota
	CompletelyOutside
	Split
	PlaneAligned
	PlaneOppositeAligned
)

func (r SplitResult) String() string {
	switch r {
	case CompletelyInside:
		return "completely-inside"
	case CompletelyOutside:
		return "completely-outside"
	case Split:
		return "split"
	case PlaneAligned:
		return "plane-aligned"
	case PlaneOppositeAligned:
		return "plane-opposite-aligned"
	default:
		return fmt.Sprintf("SplitResult(%d)", uint8(r))
	}
}

// SplitEdge inserts vertex v into edge e and its twin. The twin's polygon
// receives the vertex as well, so both faces stay consistent. It returns the
// new half-edge that continues e from v to e's old target.
//
//	before:   *<========e========*      after:   *<==new==v<===e====*
//	          *--------twin----->*               *--twin->v--nt---->*
func (m *Mesh) SplitEdge(e EdgeIndex, v geom.Vector3) EdgeIndex {
	twin := m.Edges[e].Twin
	newEdge := EdgeIndex(len(m.Edges))
	newTwin := newEdge + 1
	vertex := VertexIndex(len(m.Vertices))

	this := m.Edges[e]
	other := m.Edges[twin]

	m.Edges = append(m.Edges,
		HalfEdge{Vertex: this.Vertex, Polygon: this.Polygon, Twin: twin, Next: this.Next},
		HalfEdge{Vertex: other.Vertex, Polygon: other.Polygon, Twin: e, Next: other.Next},
	)
	m.Vertices = append(m.Vertices, v)

	m.Edges[e].Vertex = vertex
	m.Edges[e].Next = newEdge
	m.Edges[e].Twin = newTwin

	m.Edges[twin].Vertex = vertex
	m.Edges[twin].Next = newTwin
	m.Edges[twin].Twin = newEdge
	return newEdge
}

// SplitPolygon clips polygon p by cut.
//
// When p straddles the plane it is cut in two along the plane: the part
// inside stays at index p and the part outside is appended and returned.
// Vertices within geom.DistanceEpsilon of the plane count as on it, so a
// polygon that only touches the plane is never split into slivers. A
// polygon lying on the plane is reported as aligned or opposite-aligned by
// comparing normals.
//
// A broken edge cycle, or a cut that would leave the polygon with other than
// exactly one entry and one exit, yields a *TopologyError.
func (m *Mesh) SplitPolygon(cut geom.Plane, p PolygonIndex) (SplitResult, PolygonIndex, error) {
	cycle, err := m.Cycle(p)
	if err != nil {
		return 0, NoPolygon, err
	}
	if cycle == nil {
		return 0, NoPolygon, topologyErrorf(p, "split of empty polygon")
	}

	pos := make([]geom.Vector3, len(cycle))
	dist := make([]float64, len(cycle))
	sides := make([]geom.Side, len(cycle))
	var inside, outside int
	for i, e := range cycle {
		pos[i] = m.Vertices[m.Edges[e].Vertex]
		dist[i] = cut.Distance(pos[i])
		sides[i] = geom.Classify(dist[i])
		switch sides[i] {
		case geom.Inside:
			inside++
		case geom.Outside:
			outside++
		}
	}

	switch {
	case inside == 0 && outside == 0:
		if m.Planes[m.Polygons[p].Plane].Normal().Dot(cut.Normal()) > 0 {
			return PlaneAligned, NoPolygon, nil
		}
		return PlaneOppositeAligned, NoPolygon, nil
	case outside == 0:
		return CompletelyInside, NoPolygon, nil
	case inside == 0:
		return CompletelyOutside, NoPolygon, nil
	}

	// Put a vertex on the plane wherever an edge crosses it directly.
	// Edge cycle[i] runs from the target of cycle[i-1] to its own target.
	n := len(cycle)
	inserted := false
	for i, e := range cycle {
		prev := (i + n - 1) % n
		if sides[prev] == geom.Intersects || sides[i] == geom.Intersects || sides[prev] == sides[i] {
			continue
		}
		m.SplitEdge(e, geom.SegmentIntersection(pos[prev], pos[i], dist[prev], dist[i]))
		inserted = true
	}
	if inserted {
		if cycle, err = m.Cycle(p); err != nil {
			return 0, NoPolygon, err
		}
		sides = sides[:0]
		for _, e := range cycle {
			sides = append(sides, cut.OnSide(m.Vertices[m.Edges[e].Vertex]))
		}
	}

	enter, exit, err := m.findCrossings(p, cycle, sides)
	if err != nil {
		return 0, NoPolygon, err
	}

	// The chord runs exit→enter on the inside fragment and enter→exit on
	// the outside fragment.
	//
	//	enter  =====>*----->      outside | inside
	//	             |
	//	       <-----*<=====  exit
	outsidePoly := PolygonIndex(len(m.Polygons))
	outsideEdge := EdgeIndex(len(m.Edges))
	insideEdge := outsideEdge + 1

	m.Edges = append(m.Edges,
		HalfEdge{Vertex: m.Edges[exit].Vertex, Polygon: outsidePoly, Twin: insideEdge, Next: m.Edges[exit].Next},
		HalfEdge{Vertex: m.Edges[enter].Vertex, Polygon: p, Twin: outsideEdge, Next: m.Edges[enter].Next},
	)
	m.Edges[exit].Next = insideEdge
	m.Edges[enter].Next = outsideEdge

	src := m.Polygons[p]
	m.Polygons = append(m.Polygons, Polygon{
		First:    outsideEdge,
		Plane:    src.Plane,
		Visible:  src.Visible,
		Category: src.Category,
	})
	m.Polygons[p].First = insideEdge

	m.updatePolygon(outsidePoly)
	m.updatePolygon(p)
	return Split, outsidePoly, nil
}

// findCrossings locates the edge ending where the boundary leaves the inside
// half-space (exit) and the edge ending where it comes back (enter). Each
// crossing is a run of on-plane vertices with inside on one end and outside
// on the other; the crossing edge ends at the last vertex of the run for an
// exit and at the first for an enter, so on-plane edges stay with the inside
// fragment.
func (m *Mesh) findCrossings(p PolygonIndex, cycle []EdgeIndex, sides []geom.Side) (enter, exit EdgeIndex, err error) {
	n := len(cycle)
	// Start just after an off-plane vertex so no run wraps around.
	start := -1
	for i, s := range sides {
		if s != geom.Intersects {
			start = i
			break
		}
	}

	var enters, exits []EdgeIndex
	last := sides[start]
	for step := 1; step <= n; step++ {
		i := (start + step) % n
		if sides[i] != geom.Intersects {
			last = sides[i]
			continue
		}
		runStart := i
		for sides[(i+1)%n] == geom.Intersects {
			i = (i + 1) % n
			step++
		}
		after := sides[(i+1)%n]
		switch {
		case last == geom.Inside && after == geom.Outside:
			exits = append(exits, cycle[i])
		case last == geom.Outside && after == geom.Inside:
			enters = append(enters, cycle[runStart])
		}
	}

	if len(enters) != 1 || len(exits) != 1 {
		return NoEdge, NoEdge, topologyErrorf(p, "found %d entering and %d exiting edges", len(enters), len(exits))
	}
	return enters[0], exits[0], nil
}
