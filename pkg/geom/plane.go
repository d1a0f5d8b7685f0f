package geom

import "fmt"

// Side is the classification of a point or box relative to a plane.
type Side int

const (
	Inside     Side = iota // behind the plane, inside the half-space
	Outside                // in front of the plane
	Intersects             // within DistanceEpsilon of the plane
)

func (s Side) String() string {
	switch s {
	case Inside:
		return "inside"
	case Outside:
		return "outside"
	case Intersects:
		return "intersects"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

// Classify maps a signed distance onto a Side using DistanceEpsilon.
func Classify(distance float64) Side {
	switch {
	case distance > DistanceEpsilon:
		return Outside
	case distance < -DistanceEpsilon:
		return Inside
	default:
		return Intersects
	}
}

// Plane is the implicit plane A·x + B·y + C·z - D = 0. The normal (A,B,C)
// points out of the half-space the plane bounds.
type Plane struct {
	A, B, C, D float64
}

// NewPlane builds a plane from an outward normal and a point on the plane.
func NewPlane(normal, point Vector3) Plane {
	return Plane{normal.X, normal.Y, normal.Z, normal.Dot(point)}
}

// Normal returns the (unnormalized) outward normal.
func (p Plane) Normal() Vector3 {
	return Vector3{p.A, p.B, p.C}
}

// Distance returns the signed distance of v from the plane, scaled by the
// normal's length. Positive values lie outside.
func (p Plane) Distance(v Vector3) float64 {
	return p.A*v.X + p.B*v.Y + p.C*v.Z - p.D
}

// OnSide classifies a point against the plane.
func (p Plane) OnSide(v Vector3) Side {
	return Classify(p.Distance(v))
}

// BoundsSide classifies a box, offset by translation, against the plane
// without touching its contents. It evaluates the corner farthest along the
// normal first: if even that corner is inside, the whole box is. Then the
// nearest corner: if that one is outside, so is the box.
func (p Plane) BoundsSide(b AABB, translation Vector3) Side {
	far := Vector3{
		pick(p.A <= 0, b.MinX, b.MaxX) + translation.X,
		pick(p.B <= 0, b.MinY, b.MaxY) + translation.Y,
		pick(p.C <= 0, b.MinZ, b.MaxZ) + translation.Z,
	}
	if Classify(p.Distance(far)) == Inside {
		return Inside
	}
	near := Vector3{
		pick(p.A >= 0, b.MinX, b.MaxX) + translation.X,
		pick(p.B >= 0, b.MinY, b.MaxY) + translation.Y,
		pick(p.C >= 0, b.MinZ, b.MaxZ) + translation.Z,
	}
	if Classify(p.Distance(near)) == Outside {
		return Outside
	}
	return Intersects
}

func pick(cond bool, a, b int) float64 {
	if cond {
		return float64(a)
	}
	return float64(b)
}

// Translated returns the plane moved by t.
func (p Plane) Translated(t Vector3) Plane {
	return Plane{p.A, p.B, p.C, p.D + p.A*t.X + p.B*t.Y + p.C*t.Z}
}

// Negated returns the plane facing the opposite way.
func (p Plane) Negated() Plane {
	return Plane{-p.A, -p.B, -p.C, -p.D}
}

// IsValid reports whether all coefficients are finite and the normal is
// non-zero.
func (p Plane) IsValid() bool {
	return isFinite(p.A) && isFinite(p.B) && isFinite(p.C) && isFinite(p.D) &&
		!p.Normal().IsZero()
}

// SegmentIntersection returns the point where the segment start→end crosses
// the plane, given the precomputed signed distances of both endpoints.
func SegmentIntersection(start, end Vector3, startDist, endDist float64) Vector3 {
	delta := endDist / (endDist - startDist)
	return end.Sub(end.Sub(start).Scale(delta))
}

// Intersect3 solves the three plane equations for their common point. When
// the planes are parallel or nearly so the result is NaN; callers must check
// IsValid before using it.
func Intersect3(p1, p2, p3 Plane) Vector3 {
	bc1 := p1.B*p3.C - p3.B*p1.C
	bc2 := p2.B*p1.C - p1.B*p2.C
	bc3 := p3.B*p2.C - p2.B*p3.C

	ad1 := p1.A*p3.D - p3.A*p1.D
	ad2 := p2.A*p1.D - p1.A*p2.D
	ad3 := p3.A*p2.D - p2.A*p3.D

	x := -(p1.D*bc3 + p2.D*bc1 + p3.D*bc2)
	y := -(p1.C*ad3 + p2.C*ad1 + p3.C*ad2)
	z := p1.B*ad3 + p2.B*ad1 + p3.B*ad2
	w := -(p1.A*bc3 + p2.A*bc1 + p3.A*bc2)

	if w > -NormalEpsilon && w < NormalEpsilon {
		return NaN()
	}
	return Vector3{x / w, y / w, z / w}
}

func (p Plane) String() string {
	return fmt.Sprintf("[%g %g %g %g]", p.A, p.B, p.C, p.D)
}
