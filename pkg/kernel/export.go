package kernel

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// stlHeaderSize is the fixed size of a binary STL header.
const stlHeaderSize = 80

// WriteSTL writes the triangles of every mesh to w as one binary STL solid.
// Facet normals are taken from the first vertex of each triangle.
func WriteSTL(w io.Writer, meshes ...*Mesh) error {
	var count uint32
	for _, m := range meshes {
		count += uint32(m.TriangleCount())
	}

	header := make([]byte, stlHeaderSize)
	copy(header, "brushcsg")
	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("kernel: write stl header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, count); err != nil {
		return fmt.Errorf("kernel: write stl header: %w", err)
	}

	// normal, three vertices, attribute byte count
	facet := make([]byte, 50)
	put := func(off int, f float32) {
		binary.LittleEndian.PutUint32(facet[off:], math.Float32bits(f))
	}
	for _, m := range meshes {
		for t := 0; t+2 < len(m.Indices); t += 3 {
			first := 3 * int(m.Indices[t])
			for k := range 3 {
				var n float32
				if first+k < len(m.Normals) {
					n = m.Normals[first+k]
				}
				put(4*k, n)
			}
			for j := range 3 {
				v := 3 * int(m.Indices[t+j])
				for k := range 3 {
					put(12+12*j+4*k, m.Vertices[v+k])
				}
			}
			if _, err := w.Write(facet); err != nil {
				return fmt.Errorf("kernel: write stl facet: %w", err)
			}
		}
	}
	return nil
}

// SaveSTL writes the triangles of every mesh to a binary STL file at path
// using the sdfx writer. Facet normals follow each triangle's winding. A
// partially written file is removed.
func SaveSTL(path string, meshes ...*Mesh) error {
	if err := render.SaveSTL(path, Triangles(meshes...)); err != nil {
		os.Remove(path)
		return fmt.Errorf("kernel: save stl %s: %w", path, err)
	}
	return nil
}

// Triangles flattens meshes into sdfx triangles.
func Triangles(meshes ...*Mesh) []*sdf.Triangle3 {
	var out []*sdf.Triangle3
	for _, m := range meshes {
		vertex := func(i uint32) v3.Vec {
			return v3.Vec{
				X: float64(m.Vertices[3*i]),
				Y: float64(m.Vertices[3*i+1]),
				Z: float64(m.Vertices[3*i+2]),
			}
		}
		for t := 0; t+2 < len(m.Indices); t += 3 {
			out = append(out, &sdf.Triangle3{
				vertex(m.Indices[t]),
				vertex(m.Indices[t+1]),
				vertex(m.Indices[t+2]),
			})
		}
	}
	return out
}

// WriteJSON writes meshes to w as a JSON array, one object per mesh.
func WriteJSON(w io.Writer, meshes []*Mesh) error {
	if meshes == nil {
		meshes = []*Mesh{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meshes); err != nil {
		return fmt.Errorf("kernel: write json: %w", err)
	}
	return nil
}
