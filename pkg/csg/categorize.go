package csg

import (
	"fmt"

	"github.com/chazu/brushcsg/pkg/geom"
	"github.com/chazu/brushcsg/pkg/mesh"
)

// boundsTable holds the node bounds one processing run works with. Nodes
// missing from the table fall back to their Bounds field.
type boundsTable map[*Node]geom.AABB

func (t boundsTable) of(n *Node) geom.AABB {
	if b, ok := t[n]; ok {
		return b
	}
	return n.Bounds
}

// Categorize sorts polygons of m, the working mesh of processed, by where
// they lie relative to the solid described by the tree at node. Polygons
// crossing a brush surface are split and the pieces sorted individually.
//
// Every destination in out must be non-nil; destinations may share a
// bucket. The translations and bounds of node's tree must be up to date.
func Categorize(processed *Node, m *mesh.Mesh, node *Node, polygons []mesh.PolygonIndex, out mesh.Buckets) error {
	c := categorizer{processed: processed, mesh: m}
	return c.categorize(node, polygons, out)
}

type categorizer struct {
	processed *Node
	mesh      *mesh.Mesh
	bounds    boundsTable
}

func (c *categorizer) categorize(node *Node, polygons []mesh.PolygonIndex, out mesh.Buckets) error {
	if len(polygons) == 0 {
		return nil
	}
	// Deep in the tree every outcome often lands in the same place.
	if out.Inside == out.Aligned && out.Inside == out.ReverseAligned && out.Inside == out.Outside {
		out.Inside.Add(polygons...)
		return nil
	}

	box := c.polygonBounds(polygons)
	for {
		if node == c.processed {
			c.terminal(polygons, out)
			return nil
		}

		switch node.Kind {
		case Brush:
			return c.mesh.Intersect(mesh.BrushCut{
				Planes:      node.Planes,
				Bounds:      c.bounds.of(node),
				Translation: node.Translation.Sub(c.processed.Translation),
			}, polygons, out)

		case Addition:
			// A || B
			leftOut := c.disjoint(box, node.Left)
			rightOut := c.disjoint(box, node.Right)
			switch {
			case leftOut && rightOut:
				out.Outside.Add(polygons...)
				return nil
			case leftOut:
				node = node.Right
				continue
			case rightOut:
				node = node.Left
				continue
			}
			return c.logicalOr(node, polygons, out, false, false)

		case Common:
			// !(!A || !B)
			if c.disjoint(box, node.Left) || c.disjoint(box, node.Right) {
				out.Outside.Add(polygons...)
				return nil
			}
			return c.logicalOr(node, polygons, inverted(out), true, true)

		case Subtraction:
			// !(!A || B)
			if c.disjoint(box, node.Left) {
				out.Outside.Add(polygons...)
				return nil
			}
			if c.disjoint(box, node.Right) {
				node = node.Left
				continue
			}
			return c.logicalOr(node, polygons, inverted(out), true, false)

		default:
			return fmt.Errorf("csg: unknown node kind %s", node.Kind)
		}
	}
}

// terminal handles polygons reaching their own node: they were already
// categorized when this node's mesh was built, so they keep that category
// and become visible until a later brush sharing their surface hides them.
func (c *categorizer) terminal(polygons []mesh.PolygonIndex, out mesh.Buckets) {
	for _, p := range polygons {
		poly := &c.mesh.Polygons[p]
		switch poly.Category {
		case mesh.Inside:
			out.Inside.Add(p)
		case mesh.Aligned:
			out.Aligned.Add(p)
		case mesh.ReverseAligned:
			out.ReverseAligned.Add(p)
		case mesh.Outside:
			out.Outside.Add(p)
		}
		poly.Visible = true
	}
}

// logicalOr categorizes polygons against the left child, then sends every
// polygon that is not inside the left child through the right child. The
// results combine as
//
//	left \ right | inside  aligned  reverse  outside
//	inside       | I       I        I        I
//	aligned      | I       A        I        A
//	reverse      | I       I        R        R
//	outside      | I       A        R        O
//
// Inverting a side swaps its inside and outside destinations, which turns
// the same table into intersection and subtraction.
func (c *categorizer) logicalOr(node *Node, polygons []mesh.PolygonIndex, out mesh.Buckets, inverseLeft, inverseRight bool) error {
	var leftAligned, leftReverse, leftOutside mesh.Bucket

	left := mesh.Buckets{Inside: out.Inside, Aligned: &leftAligned, ReverseAligned: &leftReverse, Outside: &leftOutside}
	if inverseLeft {
		left = mesh.Buckets{Inside: &leftOutside, Aligned: &leftReverse, ReverseAligned: &leftAligned, Outside: out.Inside}
	}
	if err := c.categorize(node.Left, polygons, left); err != nil {
		return err
	}

	var fromAligned, fromReverse, fromOutside mesh.Buckets
	if inverseRight {
		fromAligned = mesh.Buckets{Inside: out.Aligned, Aligned: out.Inside, ReverseAligned: out.Aligned, Outside: out.Inside}
		fromReverse = mesh.Buckets{Inside: out.ReverseAligned, Aligned: out.ReverseAligned, ReverseAligned: out.Inside, Outside: out.Inside}
		fromOutside = inverted(out)
	} else {
		fromAligned = mesh.Buckets{Inside: out.Inside, Aligned: out.Aligned, ReverseAligned: out.Inside, Outside: out.Aligned}
		fromReverse = mesh.Buckets{Inside: out.Inside, Aligned: out.Inside, ReverseAligned: out.ReverseAligned, Outside: out.ReverseAligned}
		fromOutside = out
	}

	if len(leftAligned) > 0 {
		if out.Inside == out.Aligned {
			out.Inside.Add(leftAligned...)
		} else if err := c.categorize(node.Right, leftAligned, fromAligned); err != nil {
			return err
		}
	}
	if len(leftReverse) > 0 {
		if out.Inside == out.ReverseAligned {
			out.Inside.Add(leftReverse...)
		} else if err := c.categorize(node.Right, leftReverse, fromReverse); err != nil {
			return err
		}
	}
	if len(leftOutside) > 0 {
		if err := c.categorize(node.Right, leftOutside, fromOutside); err != nil {
			return err
		}
	}
	return nil
}

// inverted swaps the inside/outside and aligned/reverse destinations.
func inverted(b mesh.Buckets) mesh.Buckets {
	return mesh.Buckets{Inside: b.Outside, Aligned: b.ReverseAligned, ReverseAligned: b.Aligned, Outside: b.Inside}
}

// disjoint reports whether box, in the processed node's frame, cannot touch
// child. Integer bounds over-approximate, so this never prunes geometry that
// could interact.
func (c *categorizer) disjoint(box geom.AABB, child *Node) bool {
	return geom.Disjoint(box, c.processed.Translation.Sub(child.Translation), c.bounds.of(child))
}

func (c *categorizer) polygonBounds(polygons []mesh.PolygonIndex) geom.AABB {
	b := geom.EmptyAABB()
	for _, p := range polygons {
		b.Union(c.mesh.Polygons[p].Bounds)
	}
	return b
}
