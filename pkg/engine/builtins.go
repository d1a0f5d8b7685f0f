package engine

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/brushcsg/pkg/csg"
	"github.com/chazu/brushcsg/pkg/geom"
	"github.com/chazu/brushcsg/pkg/kernel"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms scene source code before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: make-wall -> make_wall
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps a geom.Vector3.
type sexpVec3 struct {
	vec geom.Vector3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpPlane wraps a geom.Plane so brush can collect its faces.
type sexpPlane struct {
	plane geom.Plane
}

func (p *sexpPlane) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(plane %g %g %g %g)", p.plane.A, p.plane.B, p.plane.C, p.plane.D)
}
func (p *sexpPlane) Type() *zygo.RegisteredType { return nil }

// sexpNode wraps a *csg.Node so it can be passed between builtins.
type sexpNode struct {
	node *csg.Node
}

func (n *sexpNode) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(node %s)", n.node)
}
func (n *sexpNode) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		switch {
		case !ok:
			result.positional = append(result.positional, args[i])
		case i+1 < len(args):
			result.kw[name] = args[i+1]
			i++
		default:
			// Keyword at end with no value: treat as flag with nil.
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// name pops a leading string from the positional arguments.
func (a *kwArgs) name() string {
	if len(a.positional) == 0 {
		return ""
	}
	if s, ok := a.positional[0].(*zygo.SexpStr); ok {
		a.positional = a.positional[1:]
		return s.S
	}
	return ""
}

// float returns keyword k as a number, or def when it is absent.
func (a kwArgs) float(k string, def float64) (float64, error) {
	v, ok := a.kw[k]
	if !ok {
		return def, nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return f, nil
}

// vec returns keyword k as a vector, or def when it is absent.
func (a kwArgs) vec(k string, def geom.Vector3) (geom.Vector3, error) {
	v, ok := a.kw[k]
	if !ok {
		return def, nil
	}
	vec, err := toVec3(v)
	if err != nil {
		return geom.Vector3{}, fmt.Errorf("%s: %w", k, err)
	}
	return vec, nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts a Vector3 from a sexpVec3.
func toVec3(s zygo.Sexp) (geom.Vector3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return geom.Vector3{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toNode extracts the node from a sexpNode.
func toNode(s zygo.Sexp) (*csg.Node, error) {
	if n, ok := s.(*sexpNode); ok {
		return n.node, nil
	}
	return nil, fmt.Errorf("expected node, got %T (%s)", s, s.SexpString(nil))
}

// toPlanes extracts planes from a plane or from a list or array of planes.
func toPlanes(s zygo.Sexp) ([]geom.Plane, error) {
	if p, ok := s.(*sexpPlane); ok {
		return []geom.Plane{p.plane}, nil
	}
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, fmt.Errorf("expected plane or list of planes: %w", err)
	}
	var planes []geom.Plane
	for _, item := range items {
		p, ok := item.(*sexpPlane)
		if !ok {
			return nil, fmt.Errorf("expected plane, got %T (%s)", item, item.SexpString(nil))
		}
		planes = append(planes, p.plane)
	}
	return planes, nil
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// defaultPrismSegments is the side count of a prism without :segments.
const defaultPrismSegments = 32

// registerBuiltins installs all scene builtins into a zygomys environment.
// The builtins record every node they create in b.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, b *sceneBuilder) {

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var c [3]float64
		for i, arg := range args {
			f, err := toFloat64(arg)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %c: %w", "xyz"[i], err)
			}
			c[i] = f
		}
		return &sexpVec3{vec: geom.Vector3{X: c[0], Y: c[1], Z: c[2]}}, nil
	})

	// -----------------------------------------------------------------------
	// (plane 1 0 0 2) is the half-space x <= 2
	// -----------------------------------------------------------------------
	env.AddFunction("plane", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 4 {
			return zygo.SexpNull, fmt.Errorf("plane requires exactly 4 arguments, got %d", len(args))
		}
		var c [4]float64
		for i, arg := range args {
			f, err := toFloat64(arg)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("plane: %c: %w", "abcd"[i], err)
			}
			c[i] = f
		}
		p := geom.Plane{A: c[0], B: c[1], C: c[2], D: c[3]}
		if !p.IsValid() {
			return zygo.SexpNull, fmt.Errorf("plane: %s has no direction", p)
		}
		return &sexpPlane{plane: p}, nil
	})

	// -----------------------------------------------------------------------
	// (brush "wedge" (plane ...) (plane ...) ... :at (vec3 0 0 0))
	// -----------------------------------------------------------------------
	env.AddFunction("brush", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		brushName := pa.name()
		var planes []geom.Plane
		for _, arg := range pa.positional {
			ps, err := toPlanes(arg)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("brush: %w", err)
			}
			planes = append(planes, ps...)
		}
		if len(planes) < 4 {
			return zygo.SexpNull, fmt.Errorf("brush: needs at least 4 planes, got %d", len(planes))
		}
		return newBrush(b, pa, brushName, planes)
	})

	// -----------------------------------------------------------------------
	// (box "wall" :size (vec3 4 0.5 3) :at (vec3 0 0 0))
	// -----------------------------------------------------------------------
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		boxName := pa.name()
		size, err := pa.vec("size", geom.Vector3{X: 1, Y: 1, Z: 1})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: %w", err)
		}
		if size.X <= 0 || size.Y <= 0 || size.Z <= 0 {
			return zygo.SexpNull, fmt.Errorf("box: size %s must be positive", size)
		}
		return newBrush(b, pa, boxName, kernel.BoxPlanes(size.X, size.Y, size.Z))
	})

	// -----------------------------------------------------------------------
	// (prism "pillar" :height 3 :radius 0.5 :segments 8)
	// -----------------------------------------------------------------------
	env.AddFunction("prism", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		prismName := pa.name()
		height, err := pa.float("height", 1)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("prism: %w", err)
		}
		radius, err := pa.float("radius", 0.5)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("prism: %w", err)
		}
		segments, err := pa.float("segments", defaultPrismSegments)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("prism: %w", err)
		}
		if height <= 0 || radius <= 0 {
			return zygo.SexpNull, fmt.Errorf("prism: height and radius must be positive")
		}
		if segments < kernel.MinPrismSegments {
			return zygo.SexpNull, fmt.Errorf("prism: needs at least %d segments", kernel.MinPrismSegments)
		}
		return newBrush(b, pa, prismName, kernel.PrismPlanes(height, radius, int(segments)))
	})

	// -----------------------------------------------------------------------
	// (union a b c), (intersect "name" a b), (subtract a b c)
	//
	// Operations take two or more nodes and fold them left:
	// (subtract a b c) is (a - b) - c. A leading string names the result.
	// -----------------------------------------------------------------------
	operations := map[string]func(name string, left, right *csg.Node) *csg.Node{
		"union":     csg.NewAddition,
		"intersect": csg.NewCommon,
		"subtract":  csg.NewSubtraction,
	}
	for op, build := range operations {
		env.AddFunction(op, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs(args)
			opName := pa.name()
			if len(pa.positional) < 2 {
				return zygo.SexpNull, fmt.Errorf("%s requires at least 2 nodes, got %d", op, len(pa.positional))
			}

			nodes := make([]*csg.Node, len(pa.positional))
			for i, arg := range pa.positional {
				n, err := toNode(arg)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: argument %d: %w", op, i+1, err)
				}
				if !b.consume(n) {
					return zygo.SexpNull, fmt.Errorf("%s: %s is already used by another operation; use (clone ...)", op, n)
				}
				nodes[i] = n
			}

			at, err := pa.vec("at", geom.Vector3{})
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", op, err)
			}

			acc := nodes[0]
			for i, n := range nodes[1:] {
				stepName := ""
				if i == len(nodes)-2 {
					stepName = opName
				}
				if i > 0 {
					b.consume(acc)
				}
				acc = b.add(build(stepName, acc, n))
			}
			acc.LocalTranslation = at
			return &sexpNode{node: acc}, nil
		})
	}

	// -----------------------------------------------------------------------
	// (place node :at (vec3 1 0 0))
	// -----------------------------------------------------------------------
	env.AddFunction("place", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("place requires a node as its only positional argument")
		}
		n, err := toNode(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("place: %w", err)
		}
		at, err := pa.vec("at", n.LocalTranslation)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("place: %w", err)
		}
		n.LocalTranslation = at
		return pa.positional[0], nil
	})

	// -----------------------------------------------------------------------
	// (clone node) copies a node and its subtree so it can be used again.
	// -----------------------------------------------------------------------
	env.AddFunction("clone", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("clone requires exactly 1 argument, got %d", len(args))
		}
		n, err := toNode(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("clone: %w", err)
		}
		c := n.Clone()
		for _, sub := range c.Nodes() {
			b.add(sub)
			if sub != c {
				b.consume(sub)
			}
		}
		return &sexpNode{node: c}, nil
	})

	// -----------------------------------------------------------------------
	// (scene node) selects the tree to process.
	// -----------------------------------------------------------------------
	env.AddFunction("scene", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("scene requires exactly 1 argument, got %d", len(args))
		}
		n, err := toNode(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("scene: %w", err)
		}
		if b.root != nil {
			return zygo.SexpNull, fmt.Errorf("scene: already set to %s", b.root)
		}
		b.root = n
		return args[0], nil
	})
}

// newBrush records a brush with the planes and the :at keyword of pa.
func newBrush(b *sceneBuilder, pa kwArgs, name string, planes []geom.Plane) (zygo.Sexp, error) {
	at, err := pa.vec("at", geom.Vector3{})
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
	}
	n := b.add(csg.NewBrush(name, planes...).At(at))
	return &sexpNode{node: n}, nil
}
