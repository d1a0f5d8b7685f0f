// Command brushcsg evaluates a scene script, trims its brushes against each
// other and writes the visible surface as STL or JSON.
//
// Usage:
//
//	brushcsg [flags] scene.brush
//
// A script path of "-" reads the script from stdin.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/chazu/brushcsg/internal/config"
	"github.com/chazu/brushcsg/internal/logger"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run is main without the process exit, returning the exit status.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("brushcsg", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var flags config.Flags
	flags.Register(fs)
	report := fs.Bool("report", false, "Write the full evaluation report as JSON instead of the meshes")
	writeConfig := fs.String("write-config", "", "Write the effective config to this path and exit")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: brushcsg [flags] scene.brush")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(flags.Config)
	if err != nil {
		fmt.Fprintf(stderr, "brushcsg: %v\n", err)
		return 1
	}
	flags.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "brushcsg: %v\n", err)
		return 1
	}

	if *writeConfig != "" {
		if err := cfg.SaveTo(*writeConfig); err != nil {
			fmt.Fprintf(stderr, "brushcsg: %v\n", err)
			return 1
		}
		return 0
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	fileCfg := logger.FileConfig{}
	if cfg.Logging.LogFile != "" {
		fileCfg = logger.DefaultFileConfig(cfg.Logging.LogFile)
	}
	log, closeLog, err := logger.New(logger.Options{
		Level:   cfg.Logging.Level,
		Console: stderr,
		File:    fileCfg,
	})
	if err != nil {
		fmt.Fprintf(stderr, "brushcsg: %v\n", err)
		return 1
	}
	defer closeLog()

	source, err := readScript(fs.Arg(0), stdin)
	if err != nil {
		log.Error("read script", zap.Error(err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result := NewApp(cfg, log).Evaluate(ctx, source)
	for _, w := range result.Warnings {
		log.Warn(w.Message, zap.Int("line", w.Line))
	}
	for _, e := range result.Errors {
		log.Error(e.Message, zap.Int("line", e.Line), zap.Int("col", e.Col))
	}

	failed := len(result.Errors) > 0
	if failed && !*report {
		return 1
	}

	if !*report && cfg.Export.Format == config.FormatSTL && cfg.Export.Output != "" {
		err = result.SaveSTL(cfg.Export.Output)
	} else {
		err = writeOutput(cfg.Export, stdout, func(w io.Writer) error {
			if *report {
				return result.WriteReport(w)
			}
			return result.Export(w, cfg.Export.Format)
		})
	}
	if err != nil {
		log.Error("write output", zap.Error(err))
		return 1
	}
	if failed {
		return 1
	}
	return 0
}

func readScript(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}

// writeOutput calls write with the configured output file, or stdout when
// none is set. A failed write removes the partial file.
func writeOutput(cfg config.ExportConfig, stdout io.Writer, write func(io.Writer) error) (err error) {
	if cfg.Output == "" {
		return write(stdout)
	}
	f, err := os.Create(cfg.Output)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, f.Close())
		if err != nil {
			os.Remove(cfg.Output)
		}
	}()
	return write(f)
}
