package geom

import (
	"fmt"
	"math"
)

// AABB is an axis-aligned box with integer extents. Coordinates are floored
// into the minimum and ceiled into the maximum, so a box always contains the
// float geometry it was built from and bounds can be compared exactly
// without epsilons.
type AABB struct {
	MinX, MinY, MinZ int
	MaxX, MaxY, MaxZ int
}

// EmptyAABB returns a box that contains nothing; adding any point to it
// yields the box of that point.
func EmptyAABB() AABB {
	return AABB{
		MinX: math.MaxInt32, MinY: math.MaxInt32, MinZ: math.MaxInt32,
		MaxX: math.MinInt32, MaxY: math.MinInt32, MaxZ: math.MinInt32,
	}
}

// NewAABB returns the box covering the two corners.
func NewAABB(min, max Vector3) AABB {
	b := EmptyAABB()
	b.Add(min)
	b.Add(max)
	return b
}

// IsEmpty reports whether the box has no volume on some axis.
func (b AABB) IsEmpty() bool {
	return b.MinX >= b.MaxX || b.MinY >= b.MaxY || b.MinZ >= b.MaxZ
}

// IsCleared reports whether nothing has been added to the box since it was
// created with EmptyAABB.
func (b AABB) IsCleared() bool {
	return b.MinX > b.MaxX
}

// Add grows the box to contain v.
func (b *AABB) Add(v Vector3) {
	b.MinX = min(b.MinX, int(math.Floor(v.X)))
	b.MinY = min(b.MinY, int(math.Floor(v.Y)))
	b.MinZ = min(b.MinZ, int(math.Floor(v.Z)))

	b.MaxX = max(b.MaxX, int(math.Ceil(v.X)))
	b.MaxY = max(b.MaxY, int(math.Ceil(v.Y)))
	b.MaxZ = max(b.MaxZ, int(math.Ceil(v.Z)))
}

// Union grows the box to contain o.
func (b *AABB) Union(o AABB) {
	if o.IsCleared() {
		return
	}
	b.MinX = min(b.MinX, o.MinX)
	b.MinY = min(b.MinY, o.MinY)
	b.MinZ = min(b.MinZ, o.MinZ)

	b.MaxX = max(b.MaxX, o.MaxX)
	b.MaxY = max(b.MaxY, o.MaxY)
	b.MaxZ = max(b.MaxZ, o.MaxZ)
}

// Translated returns the box moved by t, re-rounded outward.
func (b AABB) Translated(t Vector3) AABB {
	if b.IsCleared() {
		return b
	}
	return AABB{
		MinX: int(math.Floor(float64(b.MinX) + t.X)),
		MinY: int(math.Floor(float64(b.MinY) + t.Y)),
		MinZ: int(math.Floor(float64(b.MinZ) + t.Z)),
		MaxX: int(math.Ceil(float64(b.MaxX) + t.X)),
		MaxY: int(math.Ceil(float64(b.MaxY) + t.Y)),
		MaxZ: int(math.Ceil(float64(b.MaxZ) + t.Z)),
	}
}

// Min returns the minimum corner.
func (b AABB) Min() Vector3 {
	return Vector3{float64(b.MinX), float64(b.MinY), float64(b.MinZ)}
}

// Max returns the maximum corner.
func (b AABB) Max() Vector3 {
	return Vector3{float64(b.MaxX), float64(b.MaxY), float64(b.MaxZ)}
}

// Disjoint reports whether left, moved by translation, and right do not
// overlap on some axis. Boxes that merely touch are not disjoint,
// so coincident faces are never pruned. A cleared box is disjoint from everything.
func Disjoint(left AABB, translation Vector3, right AABB) bool {
	if left.IsCleared() || right.IsCleared() {
		return true
	}
	return (float64(left.MaxX)+translation.X)-float64(right.MinX) < 0 ||
		(float64(left.MinX)+translation.X)-float64(right.MaxX) > 0 ||
		(float64(left.MaxY)+translation.Y)-float64(right.MinY) < 0 ||
		(float64(left.MinY)+translation.Y)-float64(right.MaxY) > 0 ||
		(float64(left.MaxZ)+translation.Z)-float64(right.MinZ) < 0 ||
		(float64(left.MinZ)+translation.Z)-float64(right.MaxZ) > 0
}

func (b AABB) String() string {
	if b.IsCleared() {
		return "(cleared)"
	}
	return fmt.Sprintf("(%d %d %d)-(%d %d %d)", b.MinX, b.MinY, b.MinZ, b.MaxX, b.MaxY, b.MaxZ)
}
