// Package brush implements the kernel.Kernel interface on top of the
// plane-brush CSG core. Solids are immutable CSG trees; every operation
// builds a new tree from copies of its inputs.
package brush

import (
	"context"
	"math"

	"github.com/chazu/brushcsg/pkg/csg"
	"github.com/chazu/brushcsg/pkg/geom"
	"github.com/chazu/brushcsg/pkg/kernel"
	"github.com/chazu/brushcsg/pkg/mesh"
	"github.com/chazu/brushcsg/pkg/tessellate"
)

// Compile-time interface check.
var _ kernel.Kernel = (*Kernel)(nil)

type solid struct {
	node *csg.Node
}

// BoundingBox returns the box around every brush corner in the tree, which
// covers the solid whatever the operations are.
func (s *solid) BoundingBox() (min, max [3]float64) {
	for i := range 3 {
		min[i], max[i] = math.Inf(1), math.Inf(-1)
	}
	root := s.node.Clone()
	root.UpdateTranslations()
	for _, b := range root.Brushes() {
		for _, v := range mesh.FromPlanes(b.Planes).Vertices {
			v = v.Add(b.Translation)
			for i, c := range [3]float64{v.X, v.Y, v.Z} {
				min[i] = math.Min(min[i], c)
				max[i] = math.Max(max[i], c)
			}
		}
	}
	return min, max
}

// Kernel implements kernel.Kernel with a csg.Processor.
type Kernel struct {
	proc *csg.Processor
}

// New returns a kernel that processes solids with p. A nil p selects a
// processor with default options.
func New(p *csg.Processor) *Kernel {
	if p == nil {
		p = csg.NewProcessor()
	}
	return &Kernel{proc: p}
}

// Node returns a copy of the CSG tree behind s.
func Node(s kernel.Solid) *csg.Node {
	return unwrap(s).Clone()
}

func unwrap(s kernel.Solid) *csg.Node {
	return s.(*solid).node
}

func wrap(n *csg.Node) kernel.Solid {
	return &solid{node: n}
}

// Brush creates the convex solid bounded by planes.
func (k *Kernel) Brush(name string, planes []geom.Plane) kernel.Solid {
	return wrap(csg.NewBrush(name, append([]geom.Plane(nil), planes...)...))
}

// Box creates a box with its minimum corner at the origin.
func (k *Kernel) Box(x, y, z float64) kernel.Solid {
	return k.Brush("box", kernel.BoxPlanes(x, y, z))
}

// Prism creates a regular prism along Z centered on the origin.
func (k *Kernel) Prism(height, radius float64, segments int) kernel.Solid {
	return k.Brush("prism", kernel.PrismPlanes(height, radius, segments))
}

// Union returns the union of two solids.
func (k *Kernel) Union(a, b kernel.Solid) kernel.Solid {
	return wrap(csg.NewAddition("", Node(a), Node(b)))
}

// Difference returns the difference a - b.
func (k *Kernel) Difference(a, b kernel.Solid) kernel.Solid {
	return wrap(csg.NewSubtraction("", Node(a), Node(b)))
}

// Intersection returns the intersection of two solids.
func (k *Kernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return wrap(csg.NewCommon("", Node(a), Node(b)))
}

// Translate moves a solid by (x, y, z).
func (k *Kernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	n := Node(s)
	n.LocalTranslation = n.LocalTranslation.Add(geom.Vector3{X: x, Y: y, Z: z})
	return wrap(n)
}

// ToMesh processes the solid and merges the visible surface of every brush
// into one mesh.
func (k *Kernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	return k.ToMeshContext(context.Background(), s)
}

// ToMeshContext is ToMesh with a context for cancellation.
func (k *Kernel) ToMeshContext(ctx context.Context, s kernel.Solid) (*kernel.Mesh, error) {
	root := Node(s)
	meshes, err := tessellate.Tessellate(ctx, root, k.proc)
	if err != nil {
		return nil, err
	}
	return kernel.Merge(root.Name, meshes...), nil
}
