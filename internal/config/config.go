// Package config loads and persists the viewer's settings. The time
// presentation mode lives here so an explicit user toggle survives across
// sessions.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the viewer settings.
type Config struct {
	// ServerURL is the TestRift server base websocket URL.
	ServerURL string `yaml:"server_url"`
	// TimeMode is "absolute" or "delta".
	TimeMode string `yaml:"time_mode"`
	// IncludeFilter and ExcludeFilter are regular expressions applied to
	// each row's translated text.
	IncludeFilter string `yaml:"include_filter,omitempty"`
	ExcludeFilter string `yaml:"exclude_filter,omitempty"`
}

// Default returns the configuration used when no file exists yet.
func Default() Config {
	return Config{
		ServerURL: "ws://localhost:8765",
		TimeMode:  "absolute",
	}
}

// DefaultPath returns the per-user config file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config dir: %w", err)
	}
	return filepath.Join(dir, "testrift-viewer", "config.yaml"), nil
}

// Load reads the config file at path. A missing file is not an error: the
// defaults are returned.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Default(), fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes the config to path, creating parent directories as needed.
func (c Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
