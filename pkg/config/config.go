// Package config parses the optional kei.yaml project file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the small, validated configuration surface a kei project may
// set via kei.yaml: a voice on/off switch and additional import search
// roots. Scaled down from the teacher's package.yml manifest (no build
// targets, no dependency resolution — kei has neither).
type Config struct {
	Path        string
	Voice       bool
	ImportPaths []string
}

// Default returns the configuration a project with no kei.yaml gets.
func Default() *Config {
	return &Config{Voice: true}
}

type configFile struct {
	Voice       *bool    `yaml:"voice"`
	ImportPaths []string `yaml:"import_paths"`
}

// Load parses kei.yaml at path, rejecting unknown fields the way the
// teacher's manifest decoder does.
func Load(path string) (*Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	var raw configFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return Default(), nil
		}
		return nil, fmt.Errorf("config: parse %s: %w", absPath, err)
	}

	cfg := &Config{Path: absPath, Voice: true, ImportPaths: raw.ImportPaths}
	if raw.Voice != nil {
		cfg.Voice = *raw.Voice
	}
	return cfg, nil
}

// LoadFromDir looks for kei.yaml directly inside dir, returning the
// default configuration (voice on, no extra import paths) if absent.
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "kei.yaml")
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	return Load(path)
}
