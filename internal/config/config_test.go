package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_FullFile(t *testing.T) {
	content := `
server:
  port: 9000
  cors_origins: ["https://viewer.example.org"]
library:
  sqlite_path: "/var/lib/tfserver/library.sqlite"
  seed_dir: "/usr/share/luts"
  preload_workers: 8
cache:
  strip_size_mb: 16
render:
  strip_height: 48
log:
  level: debug
  format: json
`
	cfg := loadFromString(t, content)

	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "https://viewer.example.org" {
		t.Errorf("unexpected cors origins: %v", cfg.Server.CORSOrigins)
	}
	if cfg.Library.SQLitePath != "/var/lib/tfserver/library.sqlite" {
		t.Errorf("unexpected sqlite_path: %s", cfg.Library.SQLitePath)
	}
	if cfg.Library.SeedDir != "/usr/share/luts" {
		t.Errorf("unexpected seed_dir: %s", cfg.Library.SeedDir)
	}
	if cfg.Library.PreloadWorkers != 8 {
		t.Errorf("expected 8 preload workers, got %d", cfg.Library.PreloadWorkers)
	}
	if cfg.Cache.StripSizeMB != 16 {
		t.Errorf("expected strip cache 16MB, got %d", cfg.Cache.StripSizeMB)
	}
	if cfg.Render.StripHeight != 48 {
		t.Errorf("expected strip height 48, got %d", cfg.Render.StripHeight)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("unexpected log config: %+v", cfg.Log)
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	content := `
server:
  port: 0
library:
  seed_dir: "./luts"
`
	cfg := loadFromString(t, content)

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Library.SQLitePath != "./data/transfuncs.sqlite" {
		t.Errorf("expected default sqlite path, got %q", cfg.Library.SQLitePath)
	}
	if cfg.Library.DefaultWidth != 256 {
		t.Errorf("expected default width 256, got %d", cfg.Library.DefaultWidth)
	}
	if cfg.Cache.StripSizeMB != 64 {
		t.Errorf("expected default cache size 64, got %d", cfg.Cache.StripSizeMB)
	}
	if cfg.Render.StripWidth != 256 || cfg.Render.StripHeight != 32 {
		t.Errorf("unexpected default strip size %dx%d", cfg.Render.StripWidth, cfg.Render.StripHeight)
	}
	if cfg.Log.Format != "text" {
		t.Errorf("expected text logs, got %q", cfg.Log.Format)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("expected defaults, got error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port, got %d", cfg.Server.Port)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [port"), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected a parse error")
	}
}

func loadFromString(t *testing.T, content string) *Config {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	return cfg
}
