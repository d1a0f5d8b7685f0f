// Package csg evaluates constructive solid geometry trees of convex brushes.
//
// A tree is built from *Node values: brushes at the leaves and Addition,
// Common and Subtraction operations above them. A Processor turns a tree
// into one boundary mesh per node, with every polygon tagged as visible or
// hidden and with its category relative to the combined solid.
package csg

import (
	"fmt"

	"github.com/chazu/brushcsg/pkg/geom"
)

// Kind is the type of a CSG node.
type Kind uint8

const (
	Brush       Kind = iota // convex leaf bounded by planes
	Addition                // union of both children
	Common                  // intersection of both children
	Subtraction             // left child minus right child
)

func (k Kind) String() string {
	switch k {
	case Brush:
		return "brush"
	case Addition:
		return "addition"
	case Common:
		return "common"
	case Subtraction:
		return "subtraction"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Node is a node of a CSG tree. Nodes are compared by identity: the same
// *Node across runs is the key for its cached base mesh, so callers must
// invalidate the cache when they change a brush's planes.
//
// The processor never modifies Planes. It writes Translation and Bounds.
type Node struct {
	Name   string
	Kind   Kind
	Planes []geom.Plane // brushes only

	Left, Right *Node // operations only

	// LocalTranslation places the node relative to its parent.
	LocalTranslation geom.Vector3
	// Translation is the accumulated world translation, maintained by
	// UpdateTranslations.
	Translation geom.Vector3
	// Bounds covers the node's geometry in its own frame.
	Bounds geom.AABB
}

// NewBrush returns a brush bounded by planes. The planes are used as given;
// their normals point out of the solid.
func NewBrush(name string, planes ...geom.Plane) *Node {
	return &Node{Name: name, Kind: Brush, Planes: planes, Bounds: geom.EmptyAABB()}
}

// NewAddition returns the union of left and right.
func NewAddition(name string, left, right *Node) *Node {
	return newOperation(name, Addition, left, right)
}

// NewCommon returns the intersection of left and right.
func NewCommon(name string, left, right *Node) *Node {
	return newOperation(name, Common, left, right)
}

// NewSubtraction returns left with right carved out of it.
func NewSubtraction(name string, left, right *Node) *Node {
	return newOperation(name, Subtraction, left, right)
}

func newOperation(name string, kind Kind, left, right *Node) *Node {
	return &Node{Name: name, Kind: kind, Left: left, Right: right, Bounds: geom.EmptyAABB()}
}

// At sets the local translation and returns n.
func (n *Node) At(t geom.Vector3) *Node {
	n.LocalTranslation = t
	return n
}

// IsBrush reports whether n is a leaf.
func (n *Node) IsBrush() bool {
	return n.Kind == Brush
}

// Nodes returns n and every node below it, parents before children and
// left before right.
func (n *Node) Nodes() []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(node *Node) {
		out = append(out, node)
		if !node.IsBrush() {
			walk(node.Left)
			walk(node.Right)
		}
	}
	walk(n)
	return out
}

// Brushes returns the leaves below n, left to right.
func (n *Node) Brushes() []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(node *Node) {
		if node.IsBrush() {
			out = append(out, node)
			return
		}
		walk(node.Left)
		walk(node.Right)
	}
	walk(n)
	return out
}

// UpdateTranslations recomputes the world translation of n and its
// descendants, treating n as the root of the scene.
func (n *Node) UpdateTranslations() {
	n.updateTranslations(geom.Vector3{})
}

func (n *Node) updateTranslations(parent geom.Vector3) {
	n.Translation = parent.Add(n.LocalTranslation)
	if n.IsBrush() {
		return
	}
	n.Left.updateTranslations(n.Translation)
	n.Right.updateTranslations(n.Translation)
}

// UpdateBounds recomputes the bounds of every operation below n from the
// bounds of its brushes, each child's box moved into its parent's frame.
func (n *Node) UpdateBounds() {
	accumulateBounds(n,
		func(node *Node) geom.AABB { return node.Bounds },
		func(node *Node, b geom.AABB) { node.Bounds = b })
}

func accumulateBounds(n *Node, get func(*Node) geom.AABB, set func(*Node, geom.AABB)) {
	if n.IsBrush() {
		return
	}
	accumulateBounds(n.Left, get, set)
	accumulateBounds(n.Right, get, set)

	b := geom.EmptyAABB()
	b.Union(get(n.Left).Translated(n.Left.Translation.Sub(n.Translation)))
	b.Union(get(n.Right).Translated(n.Right.Translation.Sub(n.Translation)))
	set(n, b)
}

// Clone returns a deep copy of the tree rooted at n. The copy has new node
// identities and therefore shares no cache entries with n.
func (n *Node) Clone() *Node {
	c := *n
	c.Planes = append([]geom.Plane(nil), n.Planes...)
	if !n.IsBrush() {
		c.Left = n.Left.Clone()
		c.Right = n.Right.Clone()
	}
	return &c
}

func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	if n.Name != "" {
		return fmt.Sprintf("%s %q", n.Kind, n.Name)
	}
	return n.Kind.String()
}
