// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library. Brushes become the
// intersection of their half-spaces as a distance field, which makes this
// kernel an independent reference for the brush CSG kernel: both build
// the same solids from the same planes.
package sdfx

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/brushcsg/pkg/geom"
	"github.com/chazu/brushcsg/pkg/kernel"
	"github.com/chazu/brushcsg/pkg/mesh"
)

// Compile-time interface checks.
var (
	_ kernel.Kernel     = (*SdfxKernel)(nil)
	_ kernel.Membership = (*SdfxKernel)(nil)
	_ sdf.SDF3          = (*planeSet)(nil)
)

// defaultMeshCells controls marching cubes tessellation resolution.
const defaultMeshCells = 200

// sdfxSolid wraps an sdf.SDF3 to implement kernel.Solid.
type sdfxSolid struct {
	s sdf.SDF3
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxSolid) BoundingBox() (min, max [3]float64) {
	bb := s.s.BoundingBox()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// planeSet is the distance field of a convex brush: the largest signed
// distance to any of its planes. It is exact inside the brush and a lower
// bound outside, which is all marching cubes and point queries need.
type planeSet struct {
	normals   []v3.Vec
	distances []float64
	bb        sdf.Box3
}

func newPlaneSet(planes []geom.Plane) *planeSet {
	s := &planeSet{}
	for _, p := range planes {
		n := p.Normal()
		l := n.Length()
		if l == 0 || !p.IsValid() {
			continue
		}
		s.normals = append(s.normals, v3.Vec{X: n.X / l, Y: n.Y / l, Z: n.Z / l})
		s.distances = append(s.distances, p.D/l)
	}

	m := mesh.FromPlanes(planes)
	if len(m.Vertices) == 0 {
		return s
	}
	lo := v3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	hi := v3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, v := range m.Vertices {
		lo = v3.Vec{X: math.Min(lo.X, v.X), Y: math.Min(lo.Y, v.Y), Z: math.Min(lo.Z, v.Z)}
		hi = v3.Vec{X: math.Max(hi.X, v.X), Y: math.Max(hi.Y, v.Y), Z: math.Max(hi.Z, v.Z)}
	}
	s.bb = sdf.Box3{Min: lo, Max: hi}
	return s
}

// Evaluate returns the signed distance from p to the brush surface.
func (s *planeSet) Evaluate(p v3.Vec) float64 {
	d := math.Inf(-1)
	for i, n := range s.normals {
		d = math.Max(d, n.X*p.X+n.Y*p.Y+n.Z*p.Z-s.distances[i])
	}
	return d
}

// BoundingBox returns the box around the brush's corners.
func (s *planeSet) BoundingBox() sdf.Box3 {
	return s.bb
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct {
	cells int
}

// Option configures an SdfxKernel.
type Option func(*SdfxKernel)

// WithMeshCells sets the marching cubes resolution along the longest axis.
func WithMeshCells(n int) Option {
	return func(k *SdfxKernel) { k.cells = n }
}

// New returns a new SdfxKernel.
func New(opts ...Option) *SdfxKernel {
	k := &SdfxKernel{cells: defaultMeshCells}
	for _, opt := range opts {
		opt(k)
	}
	if k.cells < 1 {
		k.cells = defaultMeshCells
	}
	return k
}

// unwrap extracts the underlying sdf.SDF3 from a kernel.Solid.
func unwrap(s kernel.Solid) sdf.SDF3 {
	return s.(*sdfxSolid).s
}

// wrap creates a kernel.Solid from an sdf.SDF3.
func wrap(s sdf.SDF3) kernel.Solid {
	return &sdfxSolid{s: s}
}

// Brush creates the convex solid bounded by planes. The name is not kept.
func (k *SdfxKernel) Brush(_ string, planes []geom.Plane) kernel.Solid {
	return wrap(newPlaneSet(planes))
}

// Box creates a box with the given dimensions. The resulting solid has its
// minimum corner at the origin (0,0,0), like kernel.BoxPlanes.
// sdf.Box3D centers the box at the origin, so we translate by half-dimensions.
func (k *SdfxKernel) Box(x, y, z float64) kernel.Solid {
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Box3D: %v", err))
	}
	m := sdf.Translate3d(v3.Vec{X: x / 2, Y: y / 2, Z: z / 2})
	return wrap(sdf.Transform3D(s, m))
}

// Prism creates the same faceted prism as kernel.PrismPlanes rather than
// a smooth cylinder, so both kernels agree on every point.
func (k *SdfxKernel) Prism(height, radius float64, segments int) kernel.Solid {
	return wrap(newPlaneSet(kernel.PrismPlanes(height, radius, segments)))
}

// Union returns the union of two solids.
func (k *SdfxKernel) Union(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Union3D(unwrap(a), unwrap(b)))
}

// Difference returns the difference a - b.
func (k *SdfxKernel) Difference(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Difference3D(unwrap(a), unwrap(b)))
}

// Intersection returns the intersection of two solids.
func (k *SdfxKernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Intersect3D(unwrap(a), unwrap(b)))
}

// Translate moves a solid by (x, y, z).
func (k *SdfxKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	m := sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z})
	return wrap(sdf.Transform3D(unwrap(s), m))
}

// Contains reports whether p lies strictly inside s.
func (k *SdfxKernel) Contains(s kernel.Solid, p geom.Vector3) bool {
	return unwrap(s).Evaluate(toVec(p)) < 0
}

// ToMesh converts a solid to a triangle mesh using marching cubes.
func (k *SdfxKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	sdf3 := unwrap(s)

	renderer := render.NewMarchingCubesUniform(k.cells)
	triangles := render.ToTriangles(sdf3, renderer)

	numVerts := len(triangles) * 3
	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		n := tri.Normal()
		nx, ny, nz := float32(n.X), float32(n.Y), float32(n.Z)

		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}, nil
}

func toVec(p geom.Vector3) v3.Vec {
	return v3.Vec{X: p.X, Y: p.Y, Z: p.Z}
}
