// Package tessellate turns CSG trees into triangle meshes. Tessellate
// processes a tree with the brush CSG core and produces one mesh per
// brush; Build replays a tree on any geometry kernel.
package tessellate

import (
	"context"
	"fmt"

	"github.com/chazu/brushcsg/pkg/csg"
	"github.com/chazu/brushcsg/pkg/geom"
	"github.com/chazu/brushcsg/pkg/kernel"
	"github.com/chazu/brushcsg/pkg/mesh"
)

// Tessellate processes every brush under root and returns one triangle
// mesh per brush that still has visible surface, in world space and in the
// tree's left-to-right brush order. Brushes entirely hidden by the rest of
// the tree produce no mesh.
func Tessellate(ctx context.Context, root *csg.Node, p *csg.Processor) ([]*kernel.Mesh, error) {
	if root == nil {
		return nil, nil
	}
	processed, err := p.ProcessBrushes(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("tessellate: %w", err)
	}

	var meshes []*kernel.Mesh
	for i, b := range root.Brushes() {
		m, err := brushMesh(processed[b], b.Translation)
		if err != nil {
			return nil, fmt.Errorf("tessellate: brush %s: %w", b, err)
		}
		if m.IsEmpty() {
			continue
		}
		// Set the part name: prefer the node's Name, fall back to its position.
		if b.Name != "" {
			m.PartName = b.Name
		} else {
			m.PartName = fmt.Sprintf("brush-%d", i)
		}
		meshes = append(meshes, m)
	}
	return meshes, nil
}

// brushMesh triangulates the visible polygons of m and moves them by offset.
// Vertices are not shared between triangles so each keeps its face normal.
func brushMesh(m *mesh.Mesh, offset geom.Vector3) (*kernel.Mesh, error) {
	tris, err := m.Triangulate()
	if err != nil {
		return nil, err
	}
	out := &kernel.Mesh{
		Vertices: make([]float32, 0, len(tris)*9),
		Normals:  make([]float32, 0, len(tris)*9),
		Indices:  make([]uint32, 0, len(tris)*3),
	}
	for i, t := range tris {
		for j, v := range t.V {
			v = v.Add(offset)
			out.Vertices = append(out.Vertices, float32(v.X), float32(v.Y), float32(v.Z))
			out.Normals = append(out.Normals, float32(t.Normal.X), float32(t.Normal.Y), float32(t.Normal.Z))
			out.Indices = append(out.Indices, uint32(3*i+j))
		}
	}
	return out, nil
}

// transformStack accumulates translations during tree traversal.
type transformStack struct {
	translations []geom.Vector3
}

func (ts *transformStack) push(v geom.Vector3) {
	ts.translations = append(ts.translations, v)
}

func (ts *transformStack) pop() {
	if len(ts.translations) > 0 {
		ts.translations = ts.translations[:len(ts.translations)-1]
	}
}

// accumulated returns the sum of all translations on the stack.
func (ts *transformStack) accumulated() geom.Vector3 {
	var sum geom.Vector3
	for _, t := range ts.translations {
		sum = sum.Add(t)
	}
	return sum
}

// Build replays the tree under root on k and returns the resulting solid.
// Build is read-only and never mutates the tree; it uses each node's
// LocalTranslation, so it does not need the tree to be processed first.
func Build(k kernel.Kernel, root *csg.Node) (kernel.Solid, error) {
	if root == nil {
		return nil, fmt.Errorf("tessellate: nil root")
	}
	return walkNode(k, root, &transformStack{})
}

// walkNode recursively builds the solid of n and its children.
func walkNode(k kernel.Kernel, n *csg.Node, ts *transformStack) (kernel.Solid, error) {
	if n == nil {
		return nil, fmt.Errorf("tessellate: missing child")
	}
	ts.push(n.LocalTranslation)
	defer ts.pop()

	if n.IsBrush() {
		solid := k.Brush(n.Name, n.Planes)
		if t := ts.accumulated(); !t.IsZero() {
			solid = k.Translate(solid, t.X, t.Y, t.Z)
		}
		return solid, nil
	}

	left, err := walkNode(k, n.Left, ts)
	if err != nil {
		return nil, err
	}
	right, err := walkNode(k, n.Right, ts)
	if err != nil {
		return nil, err
	}
	switch n.Kind {
	case csg.Addition:
		return k.Union(left, right), nil
	case csg.Common:
		return k.Intersection(left, right), nil
	case csg.Subtraction:
		return k.Difference(left, right), nil
	default:
		return nil, fmt.Errorf("tessellate: unknown node kind: %v", n.Kind)
	}
}
