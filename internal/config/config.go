// Package config loads client and server settings.
//
// The client reads ~/.worklog/config.yaml, with WORKLOG_SERVER_URL taking
// precedence over the file. The server is configured from the environment
// only.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mmynk/worklog/internal/export"
	"github.com/mmynk/worklog/internal/filter"
)

const (
	// DefaultServerURL is used when neither the file nor the environment
	// names a server.
	DefaultServerURL = "http://localhost:8080"

	// ServerURLEnv overrides server_url from the config file.
	ServerURLEnv = "WORKLOG_SERVER_URL"
)

// Config is the client configuration.
type Config struct {
	ServerURL string       `yaml:"server_url"`
	Export    ExportConfig `yaml:"export"`
	// Filter is the initial filter of list, watch and export.
	Filter filter.Spec `yaml:"filter"`
}

// ExportConfig controls spreadsheet exports.
type ExportConfig struct {
	// Dir is where exports are written. Empty means the working directory.
	Dir   string `yaml:"dir"`
	Label string `yaml:"label"`
	Sheet string `yaml:"sheet"`
}

// Options converts the export settings for the export package.
func (e ExportConfig) Options() export.Options {
	return export.Options{Sheet: e.Sheet, Label: e.Label}
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ServerURL: DefaultServerURL,
		Export: ExportConfig{
			Dir:   ".",
			Label: export.DefaultLabel,
			Sheet: export.DefaultSheet,
		},
	}
}

// Dir returns ~/.worklog.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".worklog"), nil
}

// DefaultPath returns ~/.worklog/config.yaml.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the config file at path and applies environment overrides.
// A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("reading config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Default(), fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if v := os.Getenv(ServerURLEnv); v != "" {
		cfg.ServerURL = v
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultServerURL
	}
	if err := cfg.Filter.Validate(); err != nil {
		return cfg, fmt.Errorf("config filter: %w", err)
	}
	return cfg, nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	return writeFileAtomic(path, data, 0o644)
}

// writeFileAtomic writes data next to path and renames it into place.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, perm); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("saving %s: %w", filepath.Base(path), err)
	}
	return nil
}
