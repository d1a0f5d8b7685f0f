package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"math"
	"os"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/chazu/brushcsg/internal/config"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	return NewApp(config.Default(), zaptest.NewLogger(t))
}

func evaluateFile(t *testing.T, app *App, path string) EvalResult {
	t.Helper()
	source, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	result := app.Evaluate(context.Background(), string(source))
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error (line %d): %s", e.Line, e.Message)
		}
		t.FailNow()
	}
	return result
}

// TestE2EPairExample exercises the full pipeline: Lisp source → engine →
// CSG tree → processor → meshes.
func TestE2EPairExample(t *testing.T) {
	result := evaluateFile(t, newTestApp(t), "../../examples/pair.brush")

	if len(result.Meshes) != 2 {
		t.Fatalf("expected 2 meshes, got %d", len(result.Meshes))
	}
	for i, name := range []string{"left", "right"} {
		m := result.Meshes[i]
		if m.PartName != name {
			t.Errorf("mesh %d: expected part name %q, got %q", i, name, m.PartName)
		}
		// Five visible unit squares, two triangles each.
		if m.TriangleCount() != 10 {
			t.Errorf("part %q: expected 10 triangles, got %d", name, m.TriangleCount())
		}
		if m.Color == "" {
			t.Errorf("part %q: no color assigned", name)
		}
	}

	if result.Stats.Brushes != 2 || result.Stats.Meshes != 2 || result.Stats.Triangles != 20 {
		t.Errorf("unexpected stats %+v", result.Stats)
	}
	if math.Abs(result.Stats.SurfaceArea-10) > 1e-6 {
		t.Errorf("expected surface area 10, got %g", result.Stats.SurfaceArea)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}
}

func TestE2ERoomExample(t *testing.T) {
	result := evaluateFile(t, newTestApp(t), "../../examples/room.brush")

	// The outer walls, the cavity walls and the doorway reveal.
	want := []string{"outer", "inner", "door"}
	if len(result.Meshes) != len(want) {
		t.Fatalf("expected %d meshes, got %d", len(want), len(result.Meshes))
	}
	for i, name := range want {
		m := result.Meshes[i]
		if m.PartName != name {
			t.Errorf("mesh %d: expected part name %q, got %q", i, name, m.PartName)
		}
		if len(m.Vertices) == 0 || len(m.Normals) == 0 || len(m.Indices) == 0 {
			t.Errorf("part %q: empty geometry", name)
		}
	}

	// The walls and the doorway all lie inside the outer box.
	for _, m := range result.Meshes {
		lo, hi := m.Bounds()
		for axis, limit := range [3]float64{6, 4, 3} {
			if lo[axis] < -1e-6 || hi[axis] > limit+1e-6 {
				t.Errorf("part %q: bounds %v-%v leave the outer box", m.PartName, lo, hi)
			}
		}
	}
}

func TestE2EPillarsExample(t *testing.T) {
	result := evaluateFile(t, newTestApp(t), "../../examples/pillars.brush")

	if len(result.Meshes) != 3 {
		t.Fatalf("expected 3 meshes, got %d", len(result.Meshes))
	}
	names := make(map[string]bool)
	for _, m := range result.Meshes {
		names[m.PartName] = true
	}
	for _, name := range []string{"slab", "west", "east"} {
		if !names[name] {
			t.Errorf("missing mesh for %q", name)
		}
	}
}

// TestE2EEmptySource ensures the pipeline handles empty input gracefully.
func TestE2EEmptySource(t *testing.T) {
	result := newTestApp(t).Evaluate(context.Background(), "")

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors for empty source: %v", result.Errors)
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes for empty source, got %d", len(result.Meshes))
	}
}

// TestE2ESyntaxError ensures eval errors are reported, not fatal errors.
func TestE2ESyntaxError(t *testing.T) {
	result := newTestApp(t).Evaluate(context.Background(), `(box "test"`)

	if len(result.Errors) == 0 {
		t.Fatal("expected eval errors for syntax error")
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes on error, got %d", len(result.Meshes))
	}
}

func TestE2ECanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := newTestApp(t).Evaluate(ctx, `(box "a")`)
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 error, got %v", result.Errors)
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes, got %d", len(result.Meshes))
	}
}

func TestExportSTL(t *testing.T) {
	result := newTestApp(t).Evaluate(context.Background(), `(box "cube")`)

	var buf bytes.Buffer
	if err := result.Export(&buf, config.FormatSTL); err != nil {
		t.Fatalf("Export: %v", err)
	}
	// 80-byte header, triangle count, 50 bytes per triangle.
	if buf.Len() != 84+12*50 {
		t.Fatalf("expected %d bytes, got %d", 84+12*50, buf.Len())
	}
	if n := binary.LittleEndian.Uint32(buf.Bytes()[80:84]); n != 12 {
		t.Errorf("expected 12 triangles in header, got %d", n)
	}
}

func TestExportJSON(t *testing.T) {
	result := newTestApp(t).Evaluate(context.Background(), `(box "cube")`)

	var buf bytes.Buffer
	if err := result.Export(&buf, config.FormatJSON); err != nil {
		t.Fatalf("Export: %v", err)
	}
	var meshes []struct {
		PartName string    `json:"partName"`
		Indices  []uint32  `json:"indices"`
		Vertices []float32 `json:"vertices"`
	}
	if err := json.Unmarshal(buf.Bytes(), &meshes); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(meshes) != 1 || meshes[0].PartName != "cube" || len(meshes[0].Indices) != 36 {
		t.Errorf("unexpected export %+v", meshes)
	}
}

func TestExportUnknownFormat(t *testing.T) {
	var result EvalResult
	if err := result.Export(&bytes.Buffer{}, "obj"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestWriteReport(t *testing.T) {
	result := newTestApp(t).Evaluate(context.Background(), `(box "cube")`)

	var buf bytes.Buffer
	if err := result.WriteReport(&buf); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	var report struct {
		Meshes []struct {
			PartName string `json:"partName"`
			Color    string `json:"color"`
		} `json:"meshes"`
		Errors []EvalErrorData `json:"errors"`
		Stats  Stats           `json:"stats"`
	}
	if err := json.Unmarshal(buf.Bytes(), &report); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(report.Meshes) != 1 || report.Meshes[0].PartName != "cube" || report.Meshes[0].Color != colorPalette[0] {
		t.Errorf("unexpected meshes %+v", report.Meshes)
	}
	if report.Errors == nil {
		t.Error("errors should serialize as [] not null")
	}
	if report.Stats.Triangles != 12 {
		t.Errorf("expected 12 triangles, got %d", report.Stats.Triangles)
	}
}

func TestE2ESDFKernel(t *testing.T) {
	cfg := config.Default()
	cfg.Export.Kernel = config.KernelSDF
	cfg.Export.MeshCells = 32
	app := NewApp(cfg, zaptest.NewLogger(t))

	result := app.Evaluate(context.Background(), `
(def block (box "block" :size (vec3 2 2 2)))
(def notch (box "notch" :at (vec3 1 1 1)))
(scene (subtract "notched" block notch))
`)
	requireNoErrors(t, result)

	// One marching cubes mesh for the whole tree, named after the root.
	if len(result.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(result.Meshes))
	}
	m := result.Meshes[0]
	if m.PartName != "notched" {
		t.Errorf("expected part name 'notched', got %q", m.PartName)
	}
	if m.TriangleCount() == 0 {
		t.Fatal("expected triangles")
	}
	lo, hi := m.Bounds()
	for axis := range 3 {
		if lo[axis] < -0.2 || hi[axis] > 2.2 {
			t.Errorf("bounds %v-%v stray from the block", lo, hi)
		}
	}
	if result.Stats.Brushes != 2 {
		t.Errorf("expected 2 brushes, got %d", result.Stats.Brushes)
	}
}
