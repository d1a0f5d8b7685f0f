package kernel

import (
	"math"

	"github.com/chazu/brushcsg/pkg/geom"
)

// MinPrismSegments is the smallest side count PrismPlanes accepts.
const MinPrismSegments = 3

// BoxPlanes returns the six planes of an x by y by z box with its minimum
// corner at the origin, so a placement translation moves that corner.
func BoxPlanes(x, y, z float64) []geom.Plane {
	return []geom.Plane{
		{A: 1, D: x},
		{A: -1},
		{B: 1, D: y},
		{B: -1},
		{C: 1, D: z},
		{C: -1},
	}
}

// PrismPlanes returns the planes of a regular prism along the Z axis,
// centered on the origin, with segments sides inscribed in a circle of the
// given radius. Fewer than MinPrismSegments sides are raised to it.
func PrismPlanes(height, radius float64, segments int) []geom.Plane {
	segments = max(segments, MinPrismSegments)
	apothem := radius * math.Cos(math.Pi/float64(segments))

	planes := make([]geom.Plane, 0, segments+2)
	for i := range segments {
		angle := (float64(i) + 0.5) * 2 * math.Pi / float64(segments)
		planes = append(planes, geom.Plane{A: math.Cos(angle), B: math.Sin(angle), D: apothem})
	}
	return append(planes,
		geom.Plane{C: 1, D: height / 2},
		geom.Plane{C: -1, D: height / 2},
	)
}
