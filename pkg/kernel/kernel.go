// Package kernel defines the abstract geometry kernel interface.
// Implementations (brush, sdfx) provide solid modeling and boolean
// operations behind this interface, so scene code and tests can run the
// same construction against the plane-brush CSG core and against a
// signed distance field reference.
package kernel

import "github.com/chazu/brushcsg/pkg/geom"

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns an axis-aligned box containing the solid. It may
	// be larger than the solid for subtractions and intersections.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Primitives
	Brush(name string, planes []geom.Plane) Solid
	Box(x, y, z float64) Solid
	Prism(height, radius float64, segments int) Solid

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}

// Membership is implemented by kernels that can answer point queries.
type Membership interface {
	// Contains reports whether p lies strictly inside s.
	Contains(s Solid, p geom.Vector3) bool
}
