// Package mesh implements the arena-indexed half-edge boundary mesh used by
// the CSG processor: building a convex polyhedron from its planes, clipping
// polygons by planes, merging meshes and triangulating the result.
//
// Every reference between elements is an index into one of the mesh's flat
// slices. A mesh owns its slices exclusively; Clone before mutating a mesh
// that is shared through a cache.
package mesh

import (
	"fmt"

	"github.com/chazu/brushcsg/pkg/geom"
)

// Index types into the four mesh arenas.
type (
	EdgeIndex    int32
	PolygonIndex int32
	VertexIndex  int32
	PlaneIndex   int32
)

const (
	// NoEdge marks a polygon without geometry and an edge that is not linked
	// into any polygon cycle.
	NoEdge EdgeIndex = -1
	// NoPolygon marks an edge that belongs to no polygon, and the outside
	// fragment of a split that did not happen.
	NoPolygon PolygonIndex = -1
)

// HalfEdge is one direction of an undirected edge. Vertex is the vertex the
// edge points to; the edge starts at the Vertex of the previous edge in the
// polygon's cycle.
type HalfEdge struct {
	Vertex  VertexIndex
	Polygon PolygonIndex
	Twin    EdgeIndex
	Next    EdgeIndex
}

// Category records where a polygon ended up relative to the combined solid.
type Category uint8

const (
	Inside Category = iota
	Aligned
	ReverseAligned
	Outside
)

func (c Category) String() string {
	switch c {
	case Inside:
		return "inside"
	case Aligned:
		return "aligned"
	case ReverseAligned:
		return "reverse-aligned"
	case Outside:
		return "outside"
	default:
		return fmt.Sprintf("Category(%d)", uint8(c))
	}
}

// Polygon is a planar face bounded by a cycle of half-edges starting at
// First. A polygon whose First is NoEdge has no geometry.
type Polygon struct {
	First    EdgeIndex
	Plane    PlaneIndex
	Visible  bool
	Category Category
	Bounds   geom.AABB
}

// IsEmpty reports whether the polygon has no boundary.
func (p *Polygon) IsEmpty() bool {
	return p.First == NoEdge
}
