package csg

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/chazu/brushcsg/pkg/geom"
	"github.com/chazu/brushcsg/pkg/mesh"
)

// Cache holds the base mesh of every node processed so far. A base mesh
// depends only on a node's planes (brushes) or on its subtree (operations),
// never on where the node is placed, so it survives translation changes.
// Base meshes are shared and must be cloned before they are modified.
//
// The cache is safe for concurrent use. It does not notice edits: callers
// must Invalidate a brush whose planes change, or InvalidatePath from the
// root when the edit also affects the operations above it.
type Cache struct {
	mu      sync.RWMutex
	byNode  map[*Node]*mesh.Mesh
	byShape map[string]*mesh.Mesh
	flight  singleflight.Group

	shareBrushes bool
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithSharedBrushes makes brushes with identical planes share one base
// mesh. It is enabled by default.
func WithSharedBrushes(enabled bool) CacheOption {
	return func(c *Cache) { c.shareBrushes = enabled }
}

// NewCache returns an empty cache.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		byNode:       make(map[*Node]*mesh.Mesh),
		byShape:      make(map[string]*mesh.Mesh),
		shareBrushes: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached base mesh for n.
func (c *Cache) Get(n *Node) (*mesh.Mesh, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lookup(n)
}

func (c *Cache) lookup(n *Node) (*mesh.Mesh, bool) {
	if c.sharesShape(n) {
		m, ok := c.byShape[shapeKey(n.Planes)]
		return m, ok
	}
	m, ok := c.byNode[n]
	return m, ok
}

// GetOrBuild returns the cached base mesh for n, calling build to create it
// on a miss. Concurrent callers asking for the same node, or for brushes of
// the same shape, wait for a single build. Failed builds are not cached.
func (c *Cache) GetOrBuild(n *Node, build func() (*mesh.Mesh, error)) (*mesh.Mesh, error) {
	if m, ok := c.Get(n); ok {
		return m, nil
	}

	key := fmt.Sprintf("node:%p", n)
	if c.sharesShape(n) {
		key = "shape:" + shapeKey(n.Planes)
	}
	v, err, _ := c.flight.Do(key, func() (any, error) {
		// Another caller may have finished between Get and Do.
		if m, ok := c.Get(n); ok {
			return m, nil
		}
		m, err := build()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.sharesShape(n) {
			c.byShape[shapeKey(n.Planes)] = m
		} else {
			c.byNode[n] = m
		}
		c.mu.Unlock()
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*mesh.Mesh), nil
}

// Invalidate drops the base mesh of n. For a shared brush this drops the
// entry for its current planes, which other brushes of the same shape use
// as well; they are rebuilt identically on their next lookup.
func (c *Cache) Invalidate(n *Node) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byNode, n)
	if n.IsBrush() {
		delete(c.byShape, shapeKey(n.Planes))
	}
}

// InvalidatePath drops the base meshes of target and of every operation
// between root and target, since their combined meshes include target's
// geometry. It reports whether target was found under root.
func (c *Cache) InvalidatePath(root, target *Node) bool {
	path := pathTo(root, target)
	for _, n := range path {
		c.Invalidate(n)
	}
	return path != nil
}

func pathTo(n, target *Node) []*Node {
	if n == nil {
		return nil
	}
	if n == target {
		return []*Node{n}
	}
	if n.IsBrush() {
		return nil
	}
	for _, child := range []*Node{n.Left, n.Right} {
		if rest := pathTo(child, target); rest != nil {
			return append([]*Node{n}, rest...)
		}
	}
	return nil
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.byNode)
	clear(c.byShape)
}

// Retain drops every mesh that no node of root's tree uses and reports how
// many were dropped. A nil root empties the cache.
func (c *Cache) Retain(root *Node) int {
	nodes := make(map[*Node]bool)
	shapes := make(map[string]bool)
	if root != nil {
		for _, n := range root.Nodes() {
			if c.sharesShape(n) {
				shapes[shapeKey(n.Planes)] = true
			} else {
				nodes[n] = true
			}
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	dropped := 0
	for n := range c.byNode {
		if !nodes[n] {
			delete(c.byNode, n)
			dropped++
		}
	}
	for k := range c.byShape {
		if !shapes[k] {
			delete(c.byShape, k)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of cached meshes.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byNode) + len(c.byShape)
}

func (c *Cache) sharesShape(n *Node) bool {
	return c.shareBrushes && n.IsBrush()
}

// shapeKey identifies a plane set by the exact bits of its coefficients.
func shapeKey(planes []geom.Plane) string {
	var b strings.Builder
	for _, p := range planes {
		for _, f := range [4]float64{p.A, p.B, p.C, p.D} {
			b.WriteString(strconv.FormatUint(math.Float64bits(f), 16))
			b.WriteByte(',')
		}
		b.WriteByte(';')
	}
	return b.String()
}
