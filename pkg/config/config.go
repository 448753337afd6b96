// Package config loads logsift's optional YAML configuration files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned by LoadLocal and LoadGlobal when no file exists.
var ErrNotFound = errors.New("no config file")

// FileConfig is the on-disk YAML configuration shape. Every field is optional;
// nil means "not set" so that layers can be merged and CLI flags can win.
type FileConfig struct {
	BatchSize     *int    `yaml:"batch_size"`
	Workers       *int    `yaml:"workers"`
	MaxLineBytes  *int    `yaml:"max_line_bytes"`
	MatchTimeout  *string `yaml:"match_timeout"` // Go duration, e.g. "2s"
	AbortOnError  *bool   `yaml:"abort_on_error"`
	IgnoreCase    *bool   `yaml:"ignore_case"`
	IncludeHidden *bool   `yaml:"include_hidden"`
	MaxFileSize   *int64  `yaml:"max_file_size"`
	Color         *string `yaml:"color"` // auto, always, never
	Format        *string `yaml:"format"`
	Database      *string `yaml:"db"`

	// Presets lists extra preset files, loaded after the builtin ones.
	Presets []string `yaml:"presets"`
}

// LoadFile reads a YAML config file from the provided path.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadLocal searches for a project config file in dir.
// It supports .logsift.yml/.yaml and logsift.yml/.yaml, in that order.
func LoadLocal(dir string) (FileConfig, error) {
	for _, name := range []string{".logsift.yml", ".logsift.yaml", "logsift.yml", "logsift.yaml"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return FileConfig{}, ErrNotFound
}

// LoadGlobal loads the global config file from XDG base directory or ~/.config.
func LoadGlobal() (FileConfig, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return FileConfig{}, ErrNotFound
	}
	p := filepath.Join(base, "logsift", "config.yml")
	if _, err := os.Stat(p); err == nil {
		return LoadFile(p)
	}
	return FileConfig{}, ErrNotFound
}

// Load returns the global config overlaid with the project config found in
// dir. Missing files are not an error.
func Load(dir string) (FileConfig, error) {
	global, err := LoadGlobal()
	if err != nil && !errors.Is(err, ErrNotFound) {
		return FileConfig{}, err
	}
	local, err := LoadLocal(dir)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return FileConfig{}, err
	}
	return Merge(global, local), nil
}

// Merge overlays configs left to right: a field set in a later config wins.
// Preset files accumulate.
func Merge(layers ...FileConfig) FileConfig {
	var out FileConfig
	for _, l := range layers {
		if l.BatchSize != nil {
			out.BatchSize = l.BatchSize
		}
		if l.Workers != nil {
			out.Workers = l.Workers
		}
		if l.MaxLineBytes != nil {
			out.MaxLineBytes = l.MaxLineBytes
		}
		if l.MatchTimeout != nil {
			out.MatchTimeout = l.MatchTimeout
		}
		if l.AbortOnError != nil {
			out.AbortOnError = l.AbortOnError
		}
		if l.IgnoreCase != nil {
			out.IgnoreCase = l.IgnoreCase
		}
		if l.IncludeHidden != nil {
			out.IncludeHidden = l.IncludeHidden
		}
		if l.MaxFileSize != nil {
			out.MaxFileSize = l.MaxFileSize
		}
		if l.Color != nil {
			out.Color = l.Color
		}
		if l.Format != nil {
			out.Format = l.Format
		}
		if l.Database != nil {
			out.Database = l.Database
		}
		out.Presets = append(out.Presets, l.Presets...)
	}
	return out
}

// Validate checks values that YAML typing cannot.
func (fc FileConfig) Validate() error {
	if fc.BatchSize != nil && *fc.BatchSize < 1 {
		return fmt.Errorf("batch_size must be positive, got %d", *fc.BatchSize)
	}
	if fc.Workers != nil && *fc.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", *fc.Workers)
	}
	if fc.MaxLineBytes != nil && *fc.MaxLineBytes < 1 {
		return fmt.Errorf("max_line_bytes must be positive, got %d", *fc.MaxLineBytes)
	}
	if _, err := fc.GetMatchTimeout(); err != nil {
		return err
	}
	if fc.Color != nil {
		switch *fc.Color {
		case "auto", "always", "never":
		default:
			return fmt.Errorf("color must be auto, always or never, got %q", *fc.Color)
		}
	}
	return nil
}

// GetMatchTimeout returns the parsed match timeout, or 0 when unset.
func (fc FileConfig) GetMatchTimeout() (time.Duration, error) {
	if fc.MatchTimeout == nil {
		return 0, nil
	}
	d, err := time.ParseDuration(*fc.MatchTimeout)
	if err != nil {
		return 0, fmt.Errorf("match_timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("match_timeout must not be negative, got %s", d)
	}
	return d, nil
}

// GetColor returns the color mode, defaulting to "auto".
func (fc FileConfig) GetColor() string {
	if fc.Color == nil {
		return "auto"
	}
	return *fc.Color
}
