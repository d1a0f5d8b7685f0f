package mesh

import (
	"errors"
	"fmt"
)

// ErrMalformedPolygon is returned, wrapped in a *TopologyError, when a
// polygon's half-edge cycle violates the mesh invariants. It indicates
// corrupt topology and is never recoverable for the mesh that produced it.
var ErrMalformedPolygon = errors.New("malformed polygon")

// TopologyError describes which polygon and cutting plane exposed a broken
// invariant. Plane is -1 when no plane was involved.
type TopologyError struct {
	Polygon PolygonIndex
	Plane   int
	Reason  string
}

func (e *TopologyError) Error() string {
	if e.Plane < 0 {
		return fmt.Sprintf("polygon %d: %s: %v", e.Polygon, e.Reason, ErrMalformedPolygon)
	}
	return fmt.Sprintf("polygon %d, plane %d: %s: %v", e.Polygon, e.Plane, e.Reason, ErrMalformedPolygon)
}

func (e *TopologyError) Unwrap() error {
	return ErrMalformedPolygon
}

func topologyErrorf(p PolygonIndex, format string, args ...any) *TopologyError {
	return &TopologyError{Polygon: p, Plane: -1, Reason: fmt.Sprintf(format, args...)}
}
