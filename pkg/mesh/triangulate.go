package mesh

import "github.com/chazu/brushcsg/pkg/geom"

// Triangle is a filled triangle wound counter-clockwise around Normal.
type Triangle struct {
	V      [3]geom.Vector3
	Normal geom.Vector3
}

// Triangulate fans every visible polygon into triangles. Polygons
// categorized ReverseAligned bound a cavity carved by a subtraction and are
// emitted with flipped winding and normal.
func (m *Mesh) Triangulate() ([]Triangle, error) {
	var out []Triangle
	for i := range m.Polygons {
		poly := &m.Polygons[i]
		if poly.IsEmpty() || !poly.Visible {
			continue
		}
		verts, err := m.PolygonVertices(PolygonIndex(i))
		if err != nil {
			return nil, err
		}
		normal := m.Planes[poly.Plane].Normal().Normalize()
		flip := poly.Category == ReverseAligned
		if flip {
			normal = normal.Neg()
		}
		for k := 1; k+1 < len(verts); k++ {
			t := Triangle{V: [3]geom.Vector3{verts[0], verts[k], verts[k+1]}, Normal: normal}
			if flip {
				t.V[1], t.V[2] = t.V[2], t.V[1]
			}
			out = append(out, t)
		}
	}
	return out, nil
}

// Area returns the area enclosed by polygon p.
func (m *Mesh) Area(p PolygonIndex) (float64, error) {
	verts, err := m.PolygonVertices(p)
	if err != nil || len(verts) == 0 {
		return 0, err
	}
	var sum geom.Vector3
	for k := 1; k+1 < len(verts); k++ {
		sum = sum.Add(verts[k].Sub(verts[0]).Cross(verts[k+1].Sub(verts[0])))
	}
	return sum.Length() / 2, nil
}
