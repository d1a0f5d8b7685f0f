package mesh

import "github.com/chazu/brushcsg/pkg/geom"

// Part is one mesh to merge, placed at Translation in world space.
type Part struct {
	Mesh        *Mesh
	Translation geom.Vector3
}

// Combine merges parts into one mesh whose frame sits at offset. Vertices and
// planes with the exact same value after translation are shared; edge and
// polygon indices are rebased as each part is appended. Empty polygons are
// kept so edge-to-polygon indices stay valid. Only visible polygons extend
// the combined bounds.
func Combine(offset geom.Vector3, parts []Part) *Mesh {
	out := &Mesh{Bounds: geom.EmptyAABB()}
	vertexLookup := make(map[geom.Vector3]VertexIndex)
	planeLookup := make(map[geom.Plane]PlaneIndex)

	for _, part := range parts {
		src := part.Mesh
		t := part.Translation.Sub(offset)
		edgeBase := EdgeIndex(len(out.Edges))
		polyBase := PolygonIndex(len(out.Polygons))

		for _, e := range src.Edges {
			v := src.Vertices[e.Vertex].Add(t)
			vi, ok := vertexLookup[v]
			if !ok {
				vi = VertexIndex(len(out.Vertices))
				out.Vertices = append(out.Vertices, v)
				vertexLookup[v] = vi
			}
			out.Edges = append(out.Edges, HalfEdge{
				Vertex:  vi,
				Polygon: rebase(e.Polygon, polyBase),
				Twin:    rebase(e.Twin, edgeBase),
				Next:    rebase(e.Next, edgeBase),
			})
		}

		for _, poly := range src.Polygons {
			plane := src.Planes[poly.Plane].Translated(t)
			pi, ok := planeLookup[plane]
			if !ok {
				pi = PlaneIndex(len(out.Planes))
				out.Planes = append(out.Planes, plane)
				planeLookup[plane] = pi
			}
			np := Polygon{
				First:    rebase(poly.First, edgeBase),
				Plane:    pi,
				Visible:  poly.Visible,
				Category: poly.Category,
				Bounds:   poly.Bounds.Translated(t),
			}
			out.Polygons = append(out.Polygons, np)

			if np.IsEmpty() || !np.Visible {
				continue
			}
			e := np.First
			for {
				out.Bounds.Add(out.Vertices[out.Edges[e].Vertex])
				e = out.Edges[e].Next
				if e == np.First {
					break
				}
			}
		}
	}
	return out
}

// rebase offsets an index, leaving negative sentinels alone.
func rebase[T EdgeIndex | PolygonIndex](i, base T) T {
	if i < 0 {
		return i
	}
	return i + base
}
