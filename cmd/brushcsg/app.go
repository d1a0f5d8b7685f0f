package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/chazu/brushcsg/internal/config"
	"github.com/chazu/brushcsg/pkg/csg"
	"github.com/chazu/brushcsg/pkg/engine"
	"github.com/chazu/brushcsg/pkg/kernel"
	"github.com/chazu/brushcsg/pkg/kernel/sdfx"
	"github.com/chazu/brushcsg/pkg/tessellate"
)

// colorPalette is a default palette used to assign distinct colors to brushes.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App runs scene scripts through the engine and the CSG processor.
type App struct {
	engine    *engine.Engine
	processor *csg.Processor
	log       *zap.Logger

	// sdf replaces the processor for meshing when set.
	sdf kernel.Kernel
}

// MeshData is the JSON-serializable mesh of one brush.
type MeshData struct {
	*kernel.Mesh
	Color string `json:"color"`
}

// EvalErrorData is a JSON-serializable eval error or warning.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// Stats summarizes one evaluation.
type Stats struct {
	Brushes     int           `json:"brushes"`
	Meshes      int           `json:"meshes"`
	Triangles   int           `json:"triangles"`
	SurfaceArea float64       `json:"surfaceArea"`
	Elapsed     time.Duration `json:"elapsed"`
}

// EvalResult is the full result of evaluating a script.
type EvalResult struct {
	Meshes   []MeshData      `json:"meshes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
	Stats    Stats           `json:"stats"`
}

// NewApp creates an App configured by cfg.
func NewApp(cfg *config.Config, log *zap.Logger) *App {
	cache := csg.NewCache(csg.WithSharedBrushes(cfg.Processor.ShareBrushes))
	a := &App{
		engine: engine.NewEngine(
			engine.WithTimeout(cfg.Engine.EvalTimeout),
			engine.WithLogger(log.Named("engine"))),
		processor: csg.NewProcessor(
			csg.WithCache(cache),
			csg.WithWorkers(cfg.Processor.Workers),
			csg.WithLogger(log.Named("csg"))),
		log: log,
	}
	if cfg.Export.Kernel == config.KernelSDF {
		a.sdf = sdfx.New(sdfx.WithMeshCells(cfg.Export.MeshCells))
	}
	return a
}

// Evaluate takes Lisp source and returns mesh data + errors.
func (a *App) Evaluate(ctx context.Context, source string) EvalResult {
	start := time.Now()
	result := EvalResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	// Step 1: Evaluate the Lisp source into a CSG tree.
	scene, evalErrs, err := a.engine.Evaluate(source)
	// Every evaluation builds new nodes; keep only meshes the new tree uses.
	var root *csg.Node
	if scene != nil {
		root = scene.Root
	}
	if n := a.processor.Cache().Retain(root); n > 0 {
		a.log.Debug("dropped cached meshes", zap.Int("count", n))
	}
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		a.log.Error("evaluate failed", zap.Error(err))
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}

	// Step 2: Convert eval errors to the output format.
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}
	for _, w := range scene.Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{
			Line:    w.Line,
			Col:     w.Col,
			Message: w.Message,
		})
	}
	if scene.IsEmpty() {
		return result
	}

	// Step 3: Process the tree and triangulate what stays visible.
	meshes, err := a.meshes(ctx, scene.Root)
	if err != nil {
		a.log.Error("tessellate failed", zap.Error(err))
		result.Errors = append(result.Errors, EvalErrorData{
			Message: "tessellation failed: " + err.Error(),
		})
		return result
	}

	// Step 4: Assign colors and collect stats.
	result.Stats.Brushes = len(scene.Brushes())
	for i, m := range meshes {
		result.Meshes = append(result.Meshes, MeshData{
			Mesh:  m,
			Color: colorPalette[i%len(colorPalette)],
		})
		result.Stats.Triangles += m.TriangleCount()
		result.Stats.SurfaceArea += m.SurfaceArea()
	}
	result.Stats.Meshes = len(result.Meshes)
	result.Stats.Elapsed = time.Since(start)

	a.log.Info("evaluated scene",
		zap.Stringer("root", scene.Root),
		zap.Int("brushes", result.Stats.Brushes),
		zap.Int("meshes", result.Stats.Meshes),
		zap.Int("triangles", result.Stats.Triangles),
		zap.Duration("elapsed", result.Stats.Elapsed))
	return result
}

// meshes returns one mesh per visible brush, or a single marching cubes
// mesh of the whole tree when the sdfx kernel is selected.
func (a *App) meshes(ctx context.Context, root *csg.Node) ([]*kernel.Mesh, error) {
	if a.sdf == nil {
		return tessellate.Tessellate(ctx, root, a.processor)
	}
	solid, err := tessellate.Build(a.sdf, root)
	if err != nil {
		return nil, err
	}
	m, err := a.sdf.ToMesh(solid)
	if err != nil {
		return nil, err
	}
	if m.IsEmpty() {
		return nil, nil
	}
	m.PartName = root.Name
	if m.PartName == "" {
		m.PartName = "scene"
	}
	return []*kernel.Mesh{m}, nil
}

// Export writes the result's meshes to w in the given format.
func (r EvalResult) Export(w io.Writer, format string) error {
	meshes := r.kernelMeshes()
	switch format {
	case config.FormatSTL:
		return kernel.WriteSTL(w, meshes...)
	case config.FormatJSON:
		return kernel.WriteJSON(w, meshes)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

// SaveSTL writes the result's meshes to an STL file at path.
func (r EvalResult) SaveSTL(path string) error {
	return kernel.SaveSTL(path, r.kernelMeshes()...)
}

func (r EvalResult) kernelMeshes() []*kernel.Mesh {
	meshes := make([]*kernel.Mesh, len(r.Meshes))
	for i, m := range r.Meshes {
		meshes[i] = m.Mesh
	}
	return meshes
}

// WriteReport writes the whole result, colors and stats included, as JSON.
func (r EvalResult) WriteReport(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
