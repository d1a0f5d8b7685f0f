package csg

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chazu/brushcsg/pkg/geom"
	"github.com/chazu/brushcsg/pkg/mesh"
)

// Processor turns CSG trees into trimmed per-node meshes. It runs every
// node's work in parallel, in two phases: building each node's mesh, then
// categorizing each node's polygons against the whole tree.
//
// A Processor may be shared between goroutines, but two Process calls must
// not work on the same tree at the same time since both write its
// translations and bounds.
type Processor struct {
	cache   *Cache
	log     *zap.Logger
	workers int
}

// Option configures a Processor.
type Option func(*Processor)

// WithCache makes the processor keep base meshes in c, which may be shared
// with other processors.
func WithCache(c *Cache) Option {
	return func(p *Processor) { p.cache = c }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(p *Processor) { p.log = l }
}

// WithWorkers bounds the number of nodes processed at once. Values below
// one select runtime.GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(p *Processor) { p.workers = n }
}

// NewProcessor returns a processor with a private cache.
func NewProcessor(opts ...Option) *Processor {
	p := &Processor{}
	for _, opt := range opts {
		opt(p)
	}
	if p.cache == nil {
		p.cache = NewCache()
	}
	if p.log == nil {
		p.log = zap.NewNop()
	}
	if p.workers < 1 {
		p.workers = runtime.GOMAXPROCS(0)
	}
	return p
}

// Cache returns the processor's base mesh cache.
func (p *Processor) Cache() *Cache {
	return p.cache
}

// Process computes the working mesh of every node in nodes, which should
// all belong to the tree under root. It first updates the tree's
// translations with root at the origin. In the returned meshes, polygons on
// the surface of the combined solid are visible and categorized Aligned
// (facing out of the solid) or ReverseAligned (facing into a cavity); all
// other polygons are hidden.
//
// ctx is checked between the two phases only. A node's work, once started,
// always runs to completion.
func (p *Processor) Process(ctx context.Context, root *Node, nodes []*Node) (map[*Node]*mesh.Mesh, error) {
	if root == nil {
		return nil, errors.New("csg: nil root")
	}
	start := time.Now()
	root.UpdateTranslations()

	bounds := make(boundsTable)
	meshes, err := p.run(ctx, root, nodes, bounds)
	if err != nil {
		return nil, err
	}
	for n, b := range bounds {
		n.Bounds = b
	}

	p.log.Debug("processed tree",
		zap.Stringer("root", root),
		zap.Int("nodes", len(meshes)),
		zap.Int("cached", p.cache.Len()),
		zap.Duration("elapsed", time.Since(start)))
	return meshes, nil
}

// ProcessBrushes processes every brush under root.
func (p *Processor) ProcessBrushes(ctx context.Context, root *Node) (map[*Node]*mesh.Mesh, error) {
	if root == nil {
		return nil, errors.New("csg: nil root")
	}
	return p.Process(ctx, root, root.Brushes())
}

// run processes nodes against root using bounds as its private bounds
// table. Nested runs for operation base meshes use their own table so they
// never touch node state the outer run is reading.
func (p *Processor) run(ctx context.Context, root *Node, nodes []*Node, bounds boundsTable) (map[*Node]*mesh.Mesh, error) {
	nodes = unique(nodes)
	working := make([]*mesh.Mesh, len(nodes))
	// Every brush is measured, processed or not, since categorization
	// prunes against the bounds of the whole tree.
	brushes := root.Brushes()
	brushBounds := make([]geom.AABB, len(brushes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, n := range nodes {
		g.Go(func() error {
			base, err := p.baseMesh(gctx, n)
			if err != nil {
				return err
			}
			working[i] = base.Clone()
			return nil
		})
	}
	for i, b := range brushes {
		g.Go(func() error {
			base, err := p.baseMesh(gctx, b)
			if err != nil {
				return err
			}
			brushBounds[i] = base.Bounds
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i, b := range brushes {
		bounds[b] = brushBounds[i]
	}
	accumulateBounds(root, bounds.of, func(n *Node, b geom.AABB) { bounds[n] = b })

	g = new(errgroup.Group)
	g.SetLimit(p.workers)
	for i, n := range nodes {
		g.Go(func() error {
			return p.categorizeNode(root, n, working[i], bounds)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[*Node]*mesh.Mesh, len(nodes))
	for i, n := range nodes {
		out[n] = working[i]
	}
	return out, nil
}

// baseMesh returns the cached, translation independent mesh of n. An
// operation's base mesh is its subtree processed on its own and merged in
// the operation's frame.
func (p *Processor) baseMesh(ctx context.Context, n *Node) (*mesh.Mesh, error) {
	return p.cache.GetOrBuild(n, func() (*mesh.Mesh, error) {
		if n.IsBrush() {
			m := mesh.FromPlanes(n.Planes)
			p.log.Debug("built brush", zap.Stringer("node", n), zap.Int("polygons", len(m.Polygons)))
			return m, nil
		}

		brushes := n.Brushes()
		meshes, err := p.run(ctx, n, brushes, make(boundsTable))
		if err != nil {
			return nil, fmt.Errorf("csg: build %s: %w", n, err)
		}
		parts := make([]mesh.Part, len(brushes))
		for i, b := range brushes {
			parts[i] = mesh.Part{Mesh: meshes[b], Translation: b.Translation}
		}
		m := mesh.Combine(n.Translation, parts)
		p.log.Debug("built operation", zap.Stringer("node", n), zap.Int("brushes", len(brushes)))
		return m, nil
	})
}

func (p *Processor) categorizeNode(root, n *Node, m *mesh.Mesh, bounds boundsTable) error {
	var inside, aligned, reverse, outside mesh.Bucket
	c := categorizer{processed: n, mesh: m, bounds: bounds}
	err := c.categorize(root, m.PolygonIndices(), mesh.Buckets{
		Inside:         &inside,
		Aligned:        &aligned,
		ReverseAligned: &reverse,
		Outside:        &outside,
	})
	if err != nil {
		return fmt.Errorf("csg: categorize %s: %w", n, err)
	}

	for _, i := range inside {
		m.Polygons[i].Category = mesh.Inside
		m.Polygons[i].Visible = false
	}
	for _, i := range outside {
		m.Polygons[i].Category = mesh.Outside
		m.Polygons[i].Visible = false
	}
	for _, i := range aligned {
		m.Polygons[i].Category = mesh.Aligned
	}
	for _, i := range reverse {
		m.Polygons[i].Category = mesh.ReverseAligned
	}
	return nil
}

func unique(nodes []*Node) []*Node {
	seen := make(map[*Node]bool, len(nodes))
	out := nodes[:0:0]
	for _, n := range nodes {
		if n == nil || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
