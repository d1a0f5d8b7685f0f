// Package config handles brushcsg configuration loading.
package config

import (
	"fmt"
	"time"
)

// Config holds every setting of the brushcsg command.
type Config struct {
	Processor ProcessorConfig `yaml:"processor"`
	Engine    EngineConfig    `yaml:"engine"`
	Export    ExportConfig    `yaml:"export"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ProcessorConfig holds CSG processing settings.
type ProcessorConfig struct {
	Workers      int  `yaml:"workers"`       // 0 uses every CPU
	ShareBrushes bool `yaml:"share_brushes"` // brushes with equal planes share a base mesh
}

// EngineConfig holds scene script settings.
type EngineConfig struct {
	EvalTimeout time.Duration `yaml:"eval_timeout"`
}

// Export formats.
const (
	FormatSTL  = "stl"
	FormatJSON = "json"
)

// Kernels that can produce the output meshes.
const (
	KernelBrush = "brush" // exact boundary, one mesh per brush
	KernelSDF   = "sdfx"  // marching cubes over a distance field, one mesh
)

// ExportConfig holds mesh output settings.
type ExportConfig struct {
	Format    string `yaml:"format"`
	Output    string `yaml:"output"` // empty writes to stdout
	Kernel    string `yaml:"kernel"`
	MeshCells int    `yaml:"mesh_cells"` // sdfx resolution along the longest axis
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Processor: ProcessorConfig{
			Workers:      0,
			ShareBrushes: true,
		},
		Engine: EngineConfig{
			EvalTimeout: 5 * time.Second,
		},
		Export: ExportConfig{
			Format:    FormatSTL,
			Kernel:    KernelBrush,
			MeshCells: 200,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	if c.Processor.Workers < 0 {
		return fmt.Errorf("processor.workers must not be negative, got %d", c.Processor.Workers)
	}
	if c.Engine.EvalTimeout <= 0 {
		return fmt.Errorf("engine.eval_timeout must be positive, got %s", c.Engine.EvalTimeout)
	}
	switch c.Export.Format {
	case FormatSTL, FormatJSON:
	default:
		return fmt.Errorf("export.format must be %q or %q, got %q", FormatSTL, FormatJSON, c.Export.Format)
	}
	switch c.Export.Kernel {
	case KernelBrush, KernelSDF:
	default:
		return fmt.Errorf("export.kernel must be %q or %q, got %q", KernelBrush, KernelSDF, c.Export.Kernel)
	}
	if c.Export.MeshCells < 1 {
		return fmt.Errorf("export.mesh_cells must be positive, got %d", c.Export.MeshCells)
	}
	return nil
}
