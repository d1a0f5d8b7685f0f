// Package geom provides the value types shared by the mesh builder and the
// CSG categorizer: vectors, planes and integer bounding boxes.
//
// All types compare by exact value so they can be used directly as map keys
// when vertices and planes from different brushes are merged.
package geom

import (
	"fmt"
	"math"
)

// DistanceEpsilon is the half-width of the band in which a point is
// considered to lie on a plane.
const DistanceEpsilon = 0.01

// NormalEpsilon bounds the determinant below which three planes are treated
// as parallel or degenerate.
const NormalEpsilon = 1.0 / 65535.0

// Vector3 is a point or direction in 3D space.
type Vector3 struct {
	X, Y, Z float64
}

// NaN returns a vector with all components set to NaN. It marks an invalid
// intersection result and must never reach a mesh.
func NaN() Vector3 {
	n := math.NaN()
	return Vector3{n, n, n}
}

// Add returns v + o.
func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns v - o.
func (v Vector3) Sub(o Vector3) Vector3 {
	return Vector3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale returns v * s.
func (v Vector3) Scale(s float64) Vector3 {
	return Vector3{v.X * s, v.Y * s, v.Z * s}
}

// Neg returns -v.
func (v Vector3) Neg() Vector3 {
	return Vector3{-v.X, -v.Y, -v.Z}
}

// Dot returns the dot product of v and o.
func (v Vector3) Dot(o Vector3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Cross returns the cross product v × o.
func (v Vector3) Cross(o Vector3) Vector3 {
	return Vector3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

// Length returns the Euclidean length of v.
func (v Vector3) Length() float64 {
	return math.Sqrt(v.Dot(v))
}

// Normalize returns v scaled to unit length. The zero vector is returned
// unchanged.
func (v Vector3) Normalize() Vector3 {
	l := v.Length()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

// IsZero reports whether all components are exactly zero.
func (v Vector3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// IsValid reports whether every component is finite.
func (v Vector3) IsValid() bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

func (v Vector3) String() string {
	return fmt.Sprintf("(%g %g %g)", v.X, v.Y, v.Z)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
