package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zip"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/oy3o/materialbin"
	"github.com/oy3o/materialbin/internal/archive"
	"github.com/oy3o/materialbin/internal/config"
	"github.com/oy3o/materialbin/internal/logging"
	"github.com/oy3o/materialbin/internal/output"
	"github.com/oy3o/materialbin/internal/report"
)

// errHelp is returned after --help output has been printed.
var errHelp = pflag.ErrHelp

type convertFlags struct {
	target     string
	output     string
	level      int
	workers    int
	dryRun     bool
	force      bool
	configPath string
	logLevel   string
	noColor    bool
}

func newConvertFlagSet(f *convertFlags, stderr io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet("convert", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&f.target, "target-version", "t", "", "version to encode every material to (see 'versions')")
	fs.StringVarP(&f.output, "output", "o", "", "output path")
	fs.IntVarP(&f.level, "zip-compression", "z", -1, "deflate level of re-encoded entries, -1 for the default")
	fs.IntVarP(&f.workers, "jobs", "j", 0, "materials transcoded in parallel, 0 for one per CPU")
	fs.BoolVar(&f.dryRun, "dry-run", false, "convert everything but write no output")
	fs.BoolVar(&f.force, "force", false, "replace an existing output file")
	fs.StringVar(&f.configPath, "config", "", "config file (YAML or JSONC), default $"+config.EnvVar)
	fs.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	fs.BoolVar(&f.noColor, "no-color", false, "disable colored output")
	return fs
}

// loadConfig merges the config file with the flags that were set explicitly.
func loadConfig(fs *pflag.FlagSet, f *convertFlags) (*config.Config, error) {
	cfg, err := config.Load(config.Path(f.configPath))
	if err != nil {
		return nil, err
	}
	if fs.Changed("target-version") {
		v, err := materialbin.ParseVersion(f.target)
		if err != nil {
			return nil, err
		}
		cfg.TargetVersion = &v
	}
	if fs.Changed("zip-compression") {
		cfg.CompressionLevel = f.level
	}
	if fs.Changed("jobs") {
		cfg.Workers = f.workers
	}
	if fs.Changed("dry-run") {
		cfg.DryRun = f.dryRun
	}
	if fs.Changed("force") {
		cfg.Force = f.force
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if f.noColor {
		cfg.Color = config.ColorNever
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runConvert(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var f convertFlags
	fs := newConvertFlagSet(&f, stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return errHelp
		}
		return &usageError{err}
	}
	if fs.NArg() != 1 {
		return usagef("convert takes exactly one input file, got %d", fs.NArg())
	}
	input := fs.Arg(0)

	cfg, err := loadConfig(fs, &f)
	if err != nil {
		return &usageError{err}
	}
	if cfg.TargetVersion == nil {
		return usagef("a target version is required (-t)")
	}
	if f.output == "" && !cfg.DryRun {
		return usagef("an output path is required (-o) unless --dry-run is set")
	}

	level, _ := logging.ParseLevel(cfg.LogLevel)
	logger := logging.New(level, stderr).With(zap.String("input", input))
	defer logger.Sync()

	printer := report.New(stdout, report.Profile(stdout, cfg.Color))
	conv := &archive.Converter{
		Target:           *cfg.TargetVersion,
		CompressionLevel: cfg.CompressionLevel,
		Workers:          cfg.Workers,
		Logger:           logger,
		Reporter:         printer,
	}

	if err := convert(ctx, conv, input, f.output, cfg, printer); err != nil {
		logger.Error("conversion failed", zap.Error(err))
		return err
	}
	return nil
}

func convert(ctx context.Context, conv *archive.Converter, input, outPath string, cfg *config.Config, printer *report.Printer) (err error) {
	isArchive := archive.IsArchive(input, cfg.ArchiveExtensions)
	if !isArchive && !archive.IsMaterial(input) {
		return fmt.Errorf("%s is neither a zip archive nor a %s file", input, archive.MaterialSuffix)
	}

	var zr *zip.ReadCloser
	var data []byte
	if isArchive {
		if zr, err = zip.OpenReader(input); err != nil {
			return fmt.Errorf("open %s: %w", input, err)
		}
		defer zr.Close()
	} else if data, err = os.ReadFile(input); err != nil {
		return fmt.Errorf("read %s: %w", input, err)
	}

	sink, err := output.Open(outPath, cfg.DryRun, cfg.Force)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			sink.Abort()
		}
	}()

	var res *archive.Result
	container := "zip"
	if isArchive {
		res, err = conv.ConvertArchive(ctx, &zr.Reader, sink)
	} else {
		container = "file"
		res, err = conv.ConvertMaterial(input, data, sink)
	}
	if err != nil {
		return err
	}
	if err = sink.Commit(); err != nil {
		return err
	}
	printer.Summary(res, container, cfg.DryRun)
	return nil
}
