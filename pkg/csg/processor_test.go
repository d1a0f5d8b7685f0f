package csg

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/chazu/brushcsg/pkg/geom"
	"github.com/chazu/brushcsg/pkg/mesh"
)

// summary counts the visible polygons of m per category and sums their area.
type summary struct {
	visible    map[mesh.Category]int
	categories map[mesh.Category]int
	area       float64
}

func summarize(t *testing.T, m *mesh.Mesh) summary {
	t.Helper()
	s := summary{visible: map[mesh.Category]int{}, categories: map[mesh.Category]int{}}
	for i, p := range m.Polygons {
		if p.IsEmpty() {
			continue
		}
		s.categories[p.Category]++
		if !p.Visible {
			continue
		}
		s.visible[p.Category]++
		a, err := m.Area(mesh.PolygonIndex(i))
		require.NoError(t, err)
		s.area += a
	}
	return s
}

func process(t *testing.T, p *Processor, root *Node) map[*Node]*mesh.Mesh {
	t.Helper()
	meshes, err := p.ProcessBrushes(context.Background(), root)
	require.NoError(t, err)
	for n, m := range meshes {
		require.NoError(t, m.Validate(), "%s", n)
	}
	return meshes
}

func totalArea(t *testing.T, meshes map[*Node]*mesh.Mesh) float64 {
	t.Helper()
	var area float64
	for _, m := range meshes {
		area += summarize(t, m).area
	}
	return area
}

func TestProcessTouchingCubes(t *testing.T) {
	a, b := unit("a", 0), unit("b", 1)
	root := NewAddition("pair", a, b)
	meshes := process(t, NewProcessor(WithLogger(zaptest.NewLogger(t))), root)

	for _, n := range []*Node{a, b} {
		s := summarize(t, meshes[n])
		// The shared face is inside the union and hidden.
		assert.Equal(t, map[mesh.Category]int{mesh.Aligned: 5}, s.visible, "%s", n)
		assert.Equal(t, map[mesh.Category]int{mesh.Aligned: 5, mesh.Inside: 1}, s.categories, "%s", n)
	}
	assert.Equal(t, 10, meshes[a].VisibleCount()+meshes[b].VisibleCount())
	assert.InDelta(t, 10, totalArea(t, meshes), 1e-9)
}

func TestProcessIdenticalBrushesLastWins(t *testing.T) {
	first, second := unit("first", 0), unit("second", 0)
	meshes := process(t, NewProcessor(), NewAddition("twice", first, second))

	assert.Equal(t, 0, meshes[first].VisibleCount())
	assert.Equal(t, 6, meshes[second].VisibleCount())
	assert.Equal(t, map[mesh.Category]int{mesh.Aligned: 6}, summarize(t, meshes[first]).categories)
}

func TestProcessDisjointUnion(t *testing.T) {
	a, b := unit("a", 0), unit("b", 5)
	meshes := process(t, NewProcessor(), NewAddition("apart", a, b))
	for _, n := range []*Node{a, b} {
		s := summarize(t, meshes[n])
		assert.Equal(t, map[mesh.Category]int{mesh.Aligned: 6}, s.visible, "%s", n)
		assert.Len(t, meshes[n].Polygons, 6, "%s was split", n)
	}
}

func TestCategorizePrunesDisjointChildren(t *testing.T) {
	a := unit("a", 0)
	m := mesh.FromPlanes(a.Planes)
	a.Bounds = m.Bounds

	// stray has no kind the categorizer knows, so reaching it is an error.
	stray := func(x float64) *Node {
		return &Node{
			Name:        "stray",
			Kind:        Kind(99),
			Translation: geom.Vector3{X: x},
			Bounds:      geom.NewAABB(geom.Vector3{}, geom.Vector3{X: 1, Y: 1, Z: 1}),
		}
	}

	tests := []struct {
		name             string
		root             *Node
		aligned, outside int
	}{
		{"union", NewAddition("u", a, stray(5)), 6, 0},
		{"union stray first", NewAddition("u", stray(5), a), 6, 0},
		{"both apart", NewAddition("u", stray(5), stray(-5)), 0, 6},
		{"subtraction", NewSubtraction("s", a, stray(5)), 6, 0},
		{"subtract from stray", NewSubtraction("s", stray(5), a), 0, 6},
		{"intersection", NewCommon("i", a, stray(5)), 0, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var inside, aligned, reverse, outside mesh.Bucket
			err := Categorize(a, m, tt.root, m.PolygonIndices(), mesh.Buckets{
				Inside: &inside, Aligned: &aligned, ReverseAligned: &reverse, Outside: &outside,
			})
			require.NoError(t, err)
			assert.Len(t, aligned, tt.aligned)
			assert.Len(t, outside, tt.outside)
			assert.Empty(t, inside)
			assert.Empty(t, reverse)
		})
	}

	t.Run("overlapping stray is visited", func(t *testing.T) {
		var b mesh.Bucket
		err := Categorize(a, m, NewAddition("u", a, stray(0.5)), m.PolygonIndices(), mesh.Buckets{
			Inside: &b, Aligned: &mesh.Bucket{}, ReverseAligned: &mesh.Bucket{}, Outside: &mesh.Bucket{},
		})
		assert.ErrorContains(t, err, "unknown node kind")
	})
}

func TestProcessCavity(t *testing.T) {
	block := cube("block", 2, geom.Vector3{})
	hole := cube("hole", 1, geom.Vector3{X: 0.5, Y: 0.5, Z: 0.5})
	meshes := process(t, NewProcessor(), NewSubtraction("hollow", block, hole))

	assert.Equal(t, map[mesh.Category]int{mesh.Aligned: 6}, summarize(t, meshes[block]).visible)
	// The hole's faces bound the cavity and face into it.
	assert.Equal(t, map[mesh.Category]int{mesh.ReverseAligned: 6}, summarize(t, meshes[hole]).visible)
	assert.InDelta(t, 30, totalArea(t, meshes), 1e-9)
}

func TestProcessOverlapAreas(t *testing.T) {
	tests := []struct {
		name  string
		build func(a, b *Node) *Node
		area  float64
	}{
		{"union", func(a, b *Node) *Node { return NewAddition("u", a, b) }, 8},
		{"intersection", func(a, b *Node) *Node { return NewCommon("i", a, b) }, 4},
		{"subtraction", func(a, b *Node) *Node { return NewSubtraction("s", a, b) }, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meshes := process(t, NewProcessor(), tt.build(unit("a", 0), unit("b", 0.5)))
			assert.InDelta(t, tt.area, totalArea(t, meshes), 1e-9)
		})
	}
}

func TestProcessIdempotent(t *testing.T) {
	root := NewSubtraction("s",
		NewAddition("u", unit("a", 0), unit("b", 0.5)),
		cube("c", 0.5, geom.Vector3{X: 0.25, Y: 0.25, Z: 0.75}))
	p := NewProcessor()

	state := func() map[string][]mesh.Polygon {
		out := map[string][]mesh.Polygon{}
		for n, m := range process(t, p, root) {
			out[n.Name] = m.Polygons
		}
		return out
	}
	first := state()
	second := state()
	assert.Equal(t, first, second)
}

func TestProcessSerialMatchesParallel(t *testing.T) {
	build := func() *Node {
		return NewAddition("row",
			NewAddition("pair", unit("a", 0), unit("b", 1)),
			NewSubtraction("cut", unit("c", 2), cube("d", 0.5, geom.Vector3{X: 2.25, Y: 0.25, Z: 0.75})))
	}
	serial := process(t, NewProcessor(WithWorkers(1)), build())
	parallel := process(t, NewProcessor(WithWorkers(8)), build())
	assert.InDelta(t, totalArea(t, serial), totalArea(t, parallel), 1e-9)
}

func TestProcessOperationNode(t *testing.T) {
	a, b, c := unit("a", 0), unit("b", 1), unit("c", 2)
	inner := NewAddition("inner", a, b)
	root := NewAddition("row", inner, c)
	p := NewProcessor()

	meshes, err := p.Process(context.Background(), root, []*Node{inner, c})
	require.NoError(t, err)
	require.Len(t, meshes, 2)

	// inner's mesh holds both of its brushes; b's face against c is hidden
	// on top of the face a and b share.
	assert.Len(t, meshes[inner].Polygons, 12)
	assert.Equal(t, 9, meshes[inner].VisibleCount())
	assert.Equal(t, 5, meshes[c].VisibleCount())
	assert.NoError(t, meshes[inner].Validate())

	brushes := process(t, p, root)
	visible := 0
	for _, m := range brushes {
		visible += m.VisibleCount()
	}
	assert.Equal(t, 14, visible)

	// Bounds were published to the tree.
	assert.Equal(t, geom.NewAABB(geom.Vector3{}, geom.Vector3{X: 3, Y: 1, Z: 1}), root.Bounds)
}

func TestProcessCachesBaseMeshes(t *testing.T) {
	c := NewCache()
	a, b := unit("a", 0), unit("b", 1)
	root := NewAddition("pair", a, b)

	process(t, NewProcessor(WithCache(c)), root)
	base, ok := c.Get(a)
	require.True(t, ok)
	// The cached base mesh is never categorized in place.
	for _, poly := range base.Polygons {
		assert.True(t, poly.Visible)
		assert.Equal(t, mesh.Aligned, poly.Category)
	}
	assert.Equal(t, 1, c.Len())
}

func TestProcessErrors(t *testing.T) {
	p := NewProcessor()

	_, err := p.Process(context.Background(), nil, nil)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.ProcessBrushes(ctx, NewAddition("pair", unit("a", 0), unit("b", 1)))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCategorizeMatchesProcessor(t *testing.T) {
	a, b := unit("a", 0), unit("b", 1)
	root := NewAddition("pair", a, b)
	processed := process(t, NewProcessor(), root)

	m := processed[b].Clone()
	fresh := m.Clone()
	for i := range fresh.Polygons {
		fresh.Polygons[i].Category = mesh.Aligned
		fresh.Polygons[i].Visible = true
	}

	var inside, aligned, reverse, outside mesh.Bucket
	err := Categorize(b, fresh, root, fresh.PolygonIndices(), mesh.Buckets{
		Inside: &inside, Aligned: &aligned, ReverseAligned: &reverse, Outside: &outside,
	})
	require.NoError(t, err)
	assert.Len(t, inside, 1)
	assert.Len(t, aligned, 5)
	assert.Empty(t, reverse)
	assert.Empty(t, outside)
	for _, p := range inside {
		assert.Equal(t, mesh.Inside, m.Polygons[p].Category)
	}
}
