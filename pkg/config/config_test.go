package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromDirReturnsDefaultWhenAbsent(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Voice {
		t.Fatalf("expected voice on by default")
	}
	if len(cfg.ImportPaths) != 0 {
		t.Fatalf("expected no import paths by default, got %v", cfg.ImportPaths)
	}
}

func TestLoadParsesVoiceAndImportPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kei.yaml")
	writeFile(t, path, "voice: false\nimport_paths:\n  - ./lib\n  - ./vendor\n")

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Voice {
		t.Fatalf("expected voice: false to be honored")
	}
	if len(cfg.ImportPaths) != 2 || cfg.ImportPaths[0] != "./lib" || cfg.ImportPaths[1] != "./vendor" {
		t.Fatalf("unexpected import paths: %v", cfg.ImportPaths)
	}
}

func TestLoadDefaultsVoiceTrueWhenOmitted(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kei.yaml")
	writeFile(t, path, "import_paths:\n  - ./lib\n")

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Voice {
		t.Fatalf("expected voice to default to true when omitted from kei.yaml")
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kei.yaml")
	writeFile(t, path, "voice: true\nnonsense_field: 1\n")

	if _, err := LoadFromDir(dir); err == nil {
		t.Fatalf("expected an unknown field in kei.yaml to be rejected")
	}
}

func TestLoadEmptyFileReturnsDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kei.yaml")
	writeFile(t, path, "")

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("unexpected error on an empty kei.yaml: %v", err)
	}
	if !cfg.Voice {
		t.Fatalf("expected default voice=true for an empty kei.yaml")
	}
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write fixture file: %v", err)
	}
}
