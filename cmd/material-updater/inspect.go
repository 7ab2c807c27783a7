package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zip"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/oy3o/materialbin"
	"github.com/oy3o/materialbin/internal/archive"
)

// inspection is the machine-readable description of one material.
type inspection struct {
	File       string                `json:"file" yaml:"file"`
	Version    materialbin.Version   `json:"version" yaml:"version"`
	Compatible []materialbin.Version `json:"compatible" yaml:"compatible"`
	Shaders    []shaderSummary       `json:"shaders,omitempty" yaml:"shaders,omitempty"`
	Material   *materialbin.Material `json:"material" yaml:"material"`
}

// shaderSummary identifies one compiled shader without its bytecode.
type shaderSummary struct {
	Pass     string `json:"pass" yaml:"pass"`
	Variant  int    `json:"variant" yaml:"variant"`
	Stage    string `json:"stage" yaml:"stage"`
	Platform string `json:"platform" yaml:"platform"`
	Size     int    `json:"size" yaml:"size"`
	XXH64    string `json:"xxh64" yaml:"xxh64"` // fingerprint of the bytecode
}

var cborMode cbor.EncMode

func init() {
	opts := cbor.CoreDetEncOptions()
	// Versions serialize by name.
	opts.TextMarshaler = cbor.TextMarshalerTextString
	var err error
	if cborMode, err = opts.EncMode(); err != nil {
		panic("material-updater: CBOR encoder initialization failed: " + err.Error())
	}
}

func inspect(name string, doc *materialbin.Document) *inspection {
	m := doc.Material
	in := &inspection{
		File:       name,
		Version:    doc.Version,
		Compatible: materialbin.CompatibleVersions(m),
		Material:   m,
	}
	for _, pass := range m.Passes {
		for i, variant := range pass.Variants {
			for _, code := range variant.Shaders {
				in.Shaders = append(in.Shaders, shaderSummary{
					Pass:     pass.Name,
					Variant:  i,
					Stage:    code.Stage.Stage.String(),
					Platform: code.Stage.Platform.String(),
					Size:     len(code.Bytecode),
					XXH64:    fmt.Sprintf("%016x", xxhash.Sum64(code.Bytecode)),
				})
			}
		}
	}
	return in
}

// read sniffs one material from r.
func read(name string, r io.Reader) (*inspection, error) {
	var doc materialbin.Document
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return inspect(name, &doc), nil
}

// collect inspects a bare material or every material inside an archive.
func collect(path string) ([]*inspection, error) {
	if strings.HasSuffix(strings.ToLower(path), archive.MaterialSuffix) {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		in, err := read(path, f)
		if err != nil {
			return nil, err
		}
		return []*inspection{in}, nil
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer zr.Close()

	var out []*inspection
	for _, f := range zr.File {
		if !archive.IsMaterial(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		in, err := read(f.Name, rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, nil
}

func runInspect(args []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("inspect", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	format := fs.String("format", "text", "output format: text, yaml or cbor")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return errHelp
		}
		return &usageError{err}
	}
	if fs.NArg() != 1 {
		return usagef("inspect takes exactly one file, got %d", fs.NArg())
	}
	switch *format {
	case "text", "yaml", "cbor":
	default:
		return usagef("unknown format %q", *format)
	}

	found, err := collect(fs.Arg(0))
	if err != nil {
		return err
	}

	switch *format {
	case "yaml":
		enc := yaml.NewEncoder(stdout)
		enc.SetIndent(2)
		for _, in := range found {
			if err := enc.Encode(in); err != nil {
				return err
			}
		}
		return enc.Close()
	case "cbor":
		return cborMode.NewEncoder(stdout).Encode(found)
	default:
		for _, in := range found {
			printInspection(stdout, in)
		}
		return nil
	}
}

func printInspection(w io.Writer, in *inspection) {
	m := in.Material
	compatible := make([]string, len(in.Compatible))
	for i, v := range in.Compatible {
		compatible[i] = v.String()
	}
	parent := "-"
	if m.ParentName != nil {
		parent = *m.ParentName
	}

	fmt.Fprintf(w, "%s\n", in.File)
	fmt.Fprintf(w, "  version     %s\n", in.Version)
	fmt.Fprintf(w, "  encodable   %s\n", strings.Join(compatible, ", "))
	fmt.Fprintf(w, "  name        %s\n", m.Name)
	fmt.Fprintf(w, "  parent      %s\n", parent)
	fmt.Fprintf(w, "  samplers    %d\n", len(m.Samplers))
	fmt.Fprintf(w, "  properties  %d\n", len(m.Properties))
	fmt.Fprintf(w, "  overrides   %d\n", len(m.UniformOverrides))
	fmt.Fprintf(w, "  passes      %d\n", len(m.Passes))
	for _, s := range in.Shaders {
		fmt.Fprintf(w, "    %s#%d %s/%s %d bytes xxh64:%s\n", s.Pass, s.Variant, s.Stage, s.Platform, s.Size, s.XXH64)
	}
}
