package csg

import (
	"fmt"

	"github.com/chazu/brushcsg/pkg/mesh"
)

// ValidationSeverity indicates whether a validation finding blocks
// processing or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks processing
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Node     *Node              // which node has the problem (nil if tree-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.Node == nil {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Node, e.Message)
}

// HasErrors reports whether any finding has SeverityError.
func HasErrors(findings []ValidationError) bool {
	for _, f := range findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate checks the tree under root before it is processed and returns
// every finding. An empty slice means the tree is valid. Validate never
// modifies the tree.
func Validate(root *Node) []ValidationError {
	if root == nil {
		return []ValidationError{{Message: "tree has no root", Severity: SeverityError}}
	}
	errs := validateShape(root)
	if HasErrors(errs) {
		// The remaining checks walk the tree and need it to be one.
		return errs
	}
	errs = append(errs, validateNames(root)...)
	for _, n := range root.Brushes() {
		errs = append(errs, validateBrush(n)...)
	}
	return errs
}

// validateShape checks that root is a tree: operations have two children,
// no node is its own ancestor, and no node is reachable twice. Node identity
// keys the mesh cache, so a node shared between two parents is an error.
func validateShape(root *Node) []ValidationError {
	const (
		white = iota
		gray
		black
	)
	color := make(map[*Node]int)
	var errs []ValidationError

	var visit func(n *Node) bool // returns true if a cycle was found
	visit = func(n *Node) bool {
		switch color[n] {
		case gray:
			errs = append(errs, ValidationError{
				Node:     n,
				Message:  "cycle detected: node is its own ancestor",
				Severity: SeverityError,
			})
			return true
		case black:
			errs = append(errs, ValidationError{
				Node:     n,
				Message:  "node is reachable from more than one parent",
				Severity: SeverityError,
			})
			return false
		}
		color[n] = gray

		switch n.Kind {
		case Brush:
		case Addition, Common, Subtraction:
			if n.Left == nil || n.Right == nil {
				errs = append(errs, ValidationError{
					Node:     n,
					Message:  fmt.Sprintf("%s needs two children", n.Kind),
					Severity: SeverityError,
				})
			}
			for _, child := range []*Node{n.Left, n.Right} {
				if child != nil && visit(child) {
					return true
				}
			}
		default:
			errs = append(errs, ValidationError{
				Node:     n,
				Message:  fmt.Sprintf("unknown node kind %d", n.Kind),
				Severity: SeverityError,
			})
		}

		color[n] = black
		return false
	}
	visit(root)
	return errs
}

// validateNames warns about nodes sharing a non-empty name, which makes
// diagnostics ambiguous.
func validateNames(root *Node) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)
	for _, n := range root.Nodes() {
		if n.Name == "" {
			continue
		}
		if seen[n.Name] {
			errs = append(errs, ValidationError{
				Node:     n,
				Message:  fmt.Sprintf("duplicate name %q", n.Name),
				Severity: SeverityWarning,
			})
		}
		seen[n.Name] = true
	}
	return errs
}

// validateBrush checks a brush's planes and that they bound a closed solid.
func validateBrush(n *Node) []ValidationError {
	var errs []ValidationError
	if len(n.Planes) < 4 {
		return append(errs, ValidationError{
			Node:     n,
			Message:  fmt.Sprintf("brush has %d planes, a closed solid needs at least 4", len(n.Planes)),
			Severity: SeverityError,
		})
	}
	for i, p := range n.Planes {
		if !p.IsValid() {
			errs = append(errs, ValidationError{
				Node:     n,
				Message:  fmt.Sprintf("plane %d %s has a zero or non-finite coefficient", i, p),
				Severity: SeverityError,
			})
		}
	}
	if len(errs) > 0 {
		return errs
	}

	m := mesh.FromPlanes(n.Planes)
	if err := m.Validate(); err != nil {
		return append(errs, ValidationError{
			Node:     n,
			Message:  fmt.Sprintf("brush topology: %v", err),
			Severity: SeverityError,
		})
	}
	chi, err := m.EulerCharacteristic()
	if err != nil || chi != 2 {
		return append(errs, ValidationError{
			Node:     n,
			Message:  "planes do not bound a closed solid",
			Severity: SeverityError,
		})
	}
	for i := range m.Polygons {
		if m.Polygons[i].IsEmpty() {
			errs = append(errs, ValidationError{
				Node:     n,
				Message:  fmt.Sprintf("plane %d %s does not touch the brush", i, n.Planes[i]),
				Severity: SeverityWarning,
			})
		}
	}
	return errs
}
