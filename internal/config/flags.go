package config

import (
	"flag"
	"time"
)

// Flags holds command-line overrides. Zero values leave the loaded config
// untouched.
type Flags struct {
	Config  string
	Debug   bool
	Workers int
	Timeout time.Duration
	Format  string
	Output  string
	Kernel  string
	LogFile string
}

// Register defines the flags on fs.
func (f *Flags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.IntVar(&f.Workers, "workers", 0, "Nodes processed at once (0 keeps the config value)")
	fs.DurationVar(&f.Timeout, "timeout", 0, "Script evaluation timeout")
	fs.StringVar(&f.Format, "format", "", "Output format: stl or json")
	fs.StringVar(&f.Output, "o", "", "Output file (default stdout)")
	fs.StringVar(&f.Kernel, "kernel", "", "Mesh kernel: brush or sdfx")
	fs.StringVar(&f.LogFile, "log-file", "", "Also write logs to this file")
}

// Apply applies the overrides to cfg.
func (f *Flags) Apply(cfg *Config) {
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.Workers > 0 {
		cfg.Processor.Workers = f.Workers
	}
	if f.Timeout > 0 {
		cfg.Engine.EvalTimeout = f.Timeout
	}
	if f.Format != "" {
		cfg.Export.Format = f.Format
	}
	if f.Output != "" {
		cfg.Export.Output = f.Output
	}
	if f.Kernel != "" {
		cfg.Export.Kernel = f.Kernel
	}
	if f.LogFile != "" {
		cfg.Logging.LogFile = f.LogFile
	}
}
