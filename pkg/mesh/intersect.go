package mesh

import (
	"errors"

	"github.com/chazu/brushcsg/pkg/geom"
)

// Bucket collects polygons of one category. Buckets are passed by pointer
// so two destinations can share one list.
type Bucket []PolygonIndex

// Add appends polygons to the bucket.
func (b *Bucket) Add(p ...PolygonIndex) {
	*b = append(*b, p...)
}

// Buckets are the four destinations a categorization routes polygons to.
// A nil destination discards what would have gone there.
type Buckets struct {
	Inside         *Bucket
	Aligned        *Bucket
	ReverseAligned *Bucket
	Outside        *Bucket
}

func (b Buckets) route(r SplitResult, p PolygonIndex) {
	var dst *Bucket
	switch r {
	case CompletelyInside:
		dst = b.Inside
	case CompletelyOutside:
		dst = b.Outside
	case PlaneAligned:
		dst = b.Aligned
	case PlaneOppositeAligned:
		dst = b.ReverseAligned
	}
	if dst != nil {
		dst.Add(p)
	}
}

// BrushCut is a convex brush used to clip a mesh. Planes and Bounds are in
// the brush's own frame; Translation moves them into the frame of the mesh
// being clipped.
type BrushCut struct {
	Planes      []geom.Plane
	Bounds      geom.AABB
	Translation geom.Vector3
}

// Intersect clips polygons of m against the brush and sorts the results
// into out. Polygons straddling the brush are split; their outside pieces
// go to out.Outside as they are cut off. Polygons lying on the brush surface
// are hidden, since coplanar faces belong to whichever brush is resolved
// last.
func (m *Mesh) Intersect(cut BrushCut, polygons []PolygonIndex, out Buckets) error {
	translated := make([]geom.Plane, len(cut.Planes))
	for i, p := range cut.Planes {
		translated[i] = p.Translated(cut.Translation)
	}
	back := cut.Translation.Neg()

	for i := len(polygons) - 1; i >= 0; i-- {
		p := polygons[i]
		if m.Polygons[p].IsEmpty() {
			continue
		}

		result := CompletelyInside
		if geom.Disjoint(cut.Bounds, cut.Translation, m.Polygons[p].Bounds) {
			result = CompletelyOutside
		} else {
		planes:
			for j, plane := range cut.Planes {
				switch plane.BoundsSide(m.Polygons[p].Bounds, back) {
				case geom.Outside:
					result = CompletelyOutside
					break planes
				case geom.Inside:
					continue
				}

				r, piece, err := m.SplitPolygon(translated[j], p)
				if err != nil {
					var te *TopologyError
					if errors.As(err, &te) {
						te.Plane = j
					}
					return err
				}
				switch r {
				case CompletelyOutside:
					result = CompletelyOutside
					break planes
				case Split:
					if out.Outside != nil {
						out.Outside.Add(piece)
					}
				case PlaneAligned, PlaneOppositeAligned:
					result = r
				}
			}
		}

		if result == PlaneAligned || result == PlaneOppositeAligned {
			m.Polygons[p].Visible = false
		}
		out.route(result, p)
	}
	return nil
}
