package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsSane(t *testing.T) {
	d := Default()
	if d.MaxHops < 1 {
		t.Error("expected positive MaxHops")
	}
	if d.TopK < 1 {
		t.Error("expected positive TopK")
	}
	if d.QuoteScale != 18 {
		t.Errorf("expected canonical quote scale 18, got %d", d.QuoteScale)
	}
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("expected default config for missing file, got %+v", cfg)
	}
}

func TestLoadOverridesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"top_k": 10, "max_hops": 2}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TopK != 10 || cfg.MaxHops != 2 {
		t.Errorf("expected overridden fields, got %+v", cfg)
	}
	if cfg.QuoteScale != 18 {
		t.Errorf("expected unset fields to retain defaults, got %+v", cfg)
	}
}
