// Package config loads material-updater settings from an optional YAML or
// JSONC file. Command-line flags are applied on top by the caller.
//
// The file is located through the --config flag or the MATERIAL_UPDATER_CONFIG
// environment variable. There is no implicit search path.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/oy3o/materialbin"
	"github.com/oy3o/materialbin/internal/logging"
)

// EnvVar names the environment variable consulted when no --config flag is given.
const EnvVar = "MATERIAL_UPDATER_CONFIG"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

type Config struct {
	// TargetVersion is the version every material is encoded to.
	// There is no default; it must come from the file or the -t flag.
	TargetVersion *materialbin.Version `yaml:"target_version,omitempty" json:"target_version,omitempty"`

	// CompressionLevel is the deflate level of re-encoded entries.
	// -1 selects the library default, 0 stores without compression.
	CompressionLevel int `yaml:"compression_level" json:"compression_level"`

	// Workers bounds how many materials are transcoded at once.
	// 0 means one per CPU.
	Workers int `yaml:"workers" json:"workers"`

	// DryRun converts everything but writes no output file.
	DryRun bool `yaml:"dry_run" json:"dry_run"`

	// Force allows replacing an existing output file.
	Force bool `yaml:"force" json:"force"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// Color is one of auto, always, never.
	Color string `yaml:"color" json:"color"`

	// ArchiveExtensions are extra file extensions treated as zip archives
	// in addition to .zip and .mcpack.
	ArchiveExtensions []string `yaml:"archive_extensions,omitempty" json:"archive_extensions,omitempty"`
}

func Default() *Config {
	return &Config{
		CompressionLevel: -1,
		LogLevel:         "info",
		Color:            ColorAuto,
	}
}

// Path returns flagValue, or the EnvVar value when the flag is empty.
func Path(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(EnvVar)
}

// Load returns Default overlaid with the file at path. An empty path yields
// the defaults. The format follows the extension: .json and .jsonc are JSON
// with comments, anything else is YAML.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		dec.DisallowUnknownFields()
		err = dec.Decode(cfg)
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(cfg)
		if errors.Is(err, io.EOF) {
			err = nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.Color = strings.ToLower(strings.TrimSpace(c.Color))
	for i, ext := range c.ArchiveExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.ArchiveExtensions[i] = ext
	}
}

// Validate reports the first setting outside its allowed range.
func (c *Config) Validate() error {
	c.normalize()
	if c.TargetVersion != nil && !c.TargetVersion.Valid() {
		return fmt.Errorf("%w: target_version %s", ErrInvalid, c.TargetVersion)
	}
	if c.CompressionLevel < -1 || c.CompressionLevel > 9 {
		return fmt.Errorf("%w: compression_level %d not in -1..9", ErrInvalid, c.CompressionLevel)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers %d is negative", ErrInvalid, c.Workers)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("%w: color %q", ErrInvalid, c.Color)
	}
	for _, ext := range c.ArchiveExtensions {
		if ext == "" || ext == "." {
			return fmt.Errorf("%w: empty archive extension", ErrInvalid)
		}
	}
	return nil
}
