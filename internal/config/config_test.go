package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Processor.Workers != 0 {
		t.Errorf("expected workers 0, got %d", cfg.Processor.Workers)
	}
	if !cfg.Processor.ShareBrushes {
		t.Error("expected share_brushes to be true")
	}
	if cfg.Engine.EvalTimeout != 5*time.Second {
		t.Errorf("expected eval timeout 5s, got %s", cfg.Engine.EvalTimeout)
	}
	if cfg.Export.Format != FormatSTL {
		t.Errorf("expected format stl, got %s", cfg.Export.Format)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level info, got %s", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "brushcsg.yaml")

	yamlContent := `
processor:
  workers: 3
  share_brushes: false

engine:
  eval_timeout: 250ms

export:
  format: json
  output: out/scene.json
  kernel: sdfx
  mesh_cells: 64

logging:
  level: debug
  log_file: brushcsg.log
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Processor.Workers != 3 {
		t.Errorf("expected workers 3, got %d", cfg.Processor.Workers)
	}
	if cfg.Processor.ShareBrushes {
		t.Error("expected share_brushes to be false")
	}
	if cfg.Engine.EvalTimeout != 250*time.Millisecond {
		t.Errorf("expected eval timeout 250ms, got %s", cfg.Engine.EvalTimeout)
	}
	if cfg.Export.Format != FormatJSON {
		t.Errorf("expected format json, got %s", cfg.Export.Format)
	}
	if cfg.Export.Output != "out/scene.json" {
		t.Errorf("expected output out/scene.json, got %s", cfg.Export.Output)
	}
	if cfg.Export.Kernel != KernelSDF {
		t.Errorf("expected kernel sdfx, got %s", cfg.Export.Kernel)
	}
	if cfg.Export.MeshCells != 64 {
		t.Errorf("expected mesh cells 64, got %d", cfg.Export.MeshCells)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "brushcsg.log" {
		t.Errorf("expected log file brushcsg.log, got %s", cfg.Logging.LogFile)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "brushcsg.yaml")
	if err := os.WriteFile(configPath, []byte("processor:\n  workers: 2\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Processor.Workers != 2 {
		t.Errorf("expected workers 2, got %d", cfg.Processor.Workers)
	}
	if !cfg.Processor.ShareBrushes {
		t.Error("expected share_brushes to keep its default")
	}
	if cfg.Engine.EvalTimeout != 5*time.Second {
		t.Errorf("expected default eval timeout, got %s", cfg.Engine.EvalTimeout)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		return path
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing", filepath.Join(dir, "nonexistent.yaml")},
		{"invalid yaml", write("invalid.yaml", "processor:\n  workers: many\n  bad syntax here\n")},
		{"negative workers", write("workers.yaml", "processor:\n  workers: -1\n")},
		{"zero timeout", write("timeout.yaml", "engine:\n  eval_timeout: 0s\n")},
		{"unknown format", write("format.yaml", "export:\n  format: obj\n")},
		{"unknown kernel", write("kernel.yaml", "export:\n  kernel: manifold\n")},
		{"zero mesh cells", write("cells.yaml", "export:\n  mesh_cells: 0\n")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(tt.path); err == nil {
				t.Errorf("expected error loading %s, got nil", tt.path)
			}
		})
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Processor.Workers = 7
	cfg.Export.Format = FormatJSON
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("loaded config = %+v, want %+v", loaded, cfg)
	}
}

func TestFlagsApply(t *testing.T) {
	var f Flags
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f.Register(fs)
	err := fs.Parse([]string{"-debug", "-workers", "4", "-timeout", "2s", "-format", "json", "-o", "scene.json", "-kernel", "sdfx", "-log-file", "run.log"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	cfg := Default()
	f.Apply(cfg)

	want := Default()
	want.Logging.Level = "debug"
	want.Logging.LogFile = "run.log"
	want.Processor.Workers = 4
	want.Engine.EvalTimeout = 2 * time.Second
	want.Export.Format = FormatJSON
	want.Export.Output = "scene.json"
	want.Export.Kernel = KernelSDF
	if *cfg != *want {
		t.Errorf("config = %+v, want %+v", cfg, want)
	}
}

func TestFlagsZeroValuesKeepConfig(t *testing.T) {
	cfg := Default()
	cfg.Processor.Workers = 9
	var f Flags
	f.Apply(cfg)
	if cfg.Processor.Workers != 9 {
		t.Errorf("expected workers 9, got %d", cfg.Processor.Workers)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level info, got %s", cfg.Logging.Level)
	}
}
