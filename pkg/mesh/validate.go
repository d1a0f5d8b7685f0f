package mesh

// Validate checks the half-edge invariants of every non-empty polygon:
// each cycle closes after at least three edges, every edge in a cycle
// belongs to the polygon walking it, and twins point back at each other
// across the shared vertex pair. The first violation is returned as a
// *TopologyError.
func (m *Mesh) Validate() error {
	for i := range m.Polygons {
		p := PolygonIndex(i)
		cycle, err := m.Cycle(p)
		if err != nil {
			return err
		}
		if int(m.Polygons[p].Plane) >= len(m.Planes) || m.Polygons[p].Plane < 0 {
			return topologyErrorf(p, "plane index %d out of range", m.Polygons[p].Plane)
		}
		for k, e := range cycle {
			edge := m.Edges[e]
			if edge.Polygon != p {
				return topologyErrorf(p, "edge %d claims polygon %d", e, edge.Polygon)
			}
			if edge.Twin < 0 || int(edge.Twin) >= len(m.Edges) {
				return topologyErrorf(p, "edge %d has no twin", e)
			}
			twin := m.Edges[edge.Twin]
			if twin.Twin != e {
				return topologyErrorf(p, "edge %d twin %d does not point back", e, edge.Twin)
			}
			// The twin runs the opposite way, so it ends where e starts.
			start := m.Edges[cycle[(k+len(cycle)-1)%len(cycle)]].Vertex
			if twin.Vertex != start {
				return topologyErrorf(p, "edge %d twin ends at vertex %d, want %d", e, twin.Vertex, start)
			}
		}
	}
	return nil
}

// EulerCharacteristic returns V - E + F over the vertices, undirected edges
// and faces reachable from non-empty polygons. A closed convex polyhedron
// has characteristic 2.
func (m *Mesh) EulerCharacteristic() (int, error) {
	vertices := make(map[VertexIndex]struct{})
	halfEdges := 0
	faces := 0
	for i := range m.Polygons {
		cycle, err := m.Cycle(PolygonIndex(i))
		if err != nil {
			return 0, err
		}
		if cycle == nil {
			continue
		}
		faces++
		halfEdges += len(cycle)
		for _, e := range cycle {
			vertices[m.Edges[e].Vertex] = struct{}{}
		}
	}
	return len(vertices) - halfEdges/2 + faces, nil
}
