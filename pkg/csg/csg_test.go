package csg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/brushcsg/pkg/geom"
)

// cube returns a brush covering [0,size]^3 placed at at.
func cube(name string, size float64, at geom.Vector3) *Node {
	return NewBrush(name,
		geom.Plane{A: 1, D: size},
		geom.Plane{A: -1},
		geom.Plane{B: 1, D: size},
		geom.Plane{B: -1},
		geom.Plane{C: 1, D: size},
		geom.Plane{C: -1},
	).At(at)
}

func unit(name string, x float64) *Node {
	return cube(name, 1, geom.Vector3{X: x})
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{Brush, "brush"},
		{Addition, "addition"},
		{Common, "common"},
		{Subtraction, "subtraction"},
		{Kind(9), "Kind(9)"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.String())
		})
	}
}

func TestNodeString(t *testing.T) {
	var nilNode *Node
	assert.Equal(t, "<nil>", nilNode.String())
	assert.Equal(t, `brush "a"`, unit("a", 0).String())
	assert.Equal(t, "addition", NewAddition("", unit("a", 0), unit("b", 1)).String())
}

func TestNodesAndBrushesOrder(t *testing.T) {
	a, b, c := unit("a", 0), unit("b", 1), unit("c", 2)
	inner := NewSubtraction("inner", b, c)
	root := NewAddition("root", a, inner)

	assert.Equal(t, []*Node{root, a, inner, b, c}, root.Nodes())
	assert.Equal(t, []*Node{a, b, c}, root.Brushes())
	assert.Equal(t, []*Node{a}, a.Brushes())
}

func TestUpdateTranslations(t *testing.T) {
	a := unit("a", 1)
	b := cube("b", 1, geom.Vector3{Y: 2})
	inner := NewAddition("inner", b, unit("c", 0)).At(geom.Vector3{Z: 3})
	root := NewAddition("root", a, inner).At(geom.Vector3{X: 10})

	root.UpdateTranslations()

	// The root is the scene origin whatever its local translation.
	assert.Equal(t, geom.Vector3{X: 10}, root.Translation)
	assert.Equal(t, geom.Vector3{X: 11}, a.Translation)
	assert.Equal(t, geom.Vector3{X: 10, Z: 3}, inner.Translation)
	assert.Equal(t, geom.Vector3{X: 10, Y: 2, Z: 3}, b.Translation)
}

func TestUpdateBounds(t *testing.T) {
	a := unit("a", 0)
	b := unit("b", 2)
	root := NewAddition("root", a, b)
	root.UpdateTranslations()
	a.Bounds = geom.NewAABB(geom.Vector3{}, geom.Vector3{X: 1, Y: 1, Z: 1})
	b.Bounds = a.Bounds

	root.UpdateBounds()

	assert.Equal(t, geom.NewAABB(geom.Vector3{}, geom.Vector3{X: 3, Y: 1, Z: 1}), root.Bounds)
}

func TestClone(t *testing.T) {
	a := unit("a", 0)
	root := NewSubtraction("root", a, unit("b", 0.5))
	c := root.Clone()

	require.Equal(t, len(root.Nodes()), len(c.Nodes()))
	assert.NotSame(t, root, c)
	assert.NotSame(t, a, c.Left)
	assert.Equal(t, a.Planes, c.Left.Planes)

	c.Left.Planes[0].D = 7
	c.Left.LocalTranslation = geom.Vector3{Z: 1}
	assert.Equal(t, 1.0, a.Planes[0].D, "clone shares planes with the original")
	assert.True(t, a.LocalTranslation.IsZero())
}
