package engine

import "github.com/chazu/brushcsg/pkg/csg"

// Scene is the result of evaluating a script: the CSG tree it built.
type Scene struct {
	// Root is the tree to process. It is nil for a script that built
	// nothing.
	Root *csg.Node
	// Nodes holds every node the script created, in creation order.
	Nodes []*csg.Node
	// Warnings are non-fatal findings about the tree.
	Warnings []EvalWarning

	unused []*csg.Node
}

// IsEmpty reports whether the scene has nothing to process.
func (s *Scene) IsEmpty() bool {
	return s == nil || s.Root == nil
}

// Brushes returns the brushes of the tree, left to right.
func (s *Scene) Brushes() []*csg.Node {
	if s.IsEmpty() {
		return nil
	}
	return s.Root.Brushes()
}

// Lookup returns the first node of the tree with the given name.
func (s *Scene) Lookup(name string) *csg.Node {
	if s.IsEmpty() {
		return nil
	}
	for _, n := range s.Root.Nodes() {
		if n.Name == name {
			return n
		}
	}
	return nil
}

// sceneBuilder collects the nodes a script creates. Every node may be used
// by at most one operation so the result is always a tree.
type sceneBuilder struct {
	nodes    []*csg.Node
	consumed map[*csg.Node]bool
	root     *csg.Node
}

func newSceneBuilder() *sceneBuilder {
	return &sceneBuilder{consumed: make(map[*csg.Node]bool)}
}

func (b *sceneBuilder) add(n *csg.Node) *csg.Node {
	b.nodes = append(b.nodes, n)
	return n
}

// consume marks n as the child of a new operation.
func (b *sceneBuilder) consume(n *csg.Node) bool {
	if b.consumed[n] {
		return false
	}
	b.consumed[n] = true
	return true
}

// finish picks the root: the node passed to scene, or else the last
// created node no operation consumed.
func (b *sceneBuilder) finish() *Scene {
	s := &Scene{Root: b.root, Nodes: b.nodes}
	if s.Root == nil {
		for i := len(b.nodes) - 1; i >= 0; i-- {
			if !b.consumed[b.nodes[i]] {
				s.Root = b.nodes[i]
				break
			}
		}
	}
	for _, n := range b.nodes {
		if n != s.Root && !b.consumed[n] {
			s.unused = append(s.unused, n)
		}
	}
	return s
}
