// Package config handles configuration loading for the transfer function
// server.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the server configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Library LibraryConfig `yaml:"library"`
	Cache   CacheConfig   `yaml:"cache"`
	Render  RenderConfig  `yaml:"render"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// LibraryConfig contains transfer function library settings.
type LibraryConfig struct {
	// SQLitePath is the database holding transfer functions and
	// selections.
	SQLitePath string `yaml:"sqlite_path"`
	// SeedDir is scanned at startup for lookup table files. Files are
	// imported under their base name unless already stored.
	SeedDir        string `yaml:"seed_dir"`
	PreloadWorkers int    `yaml:"preload_workers"`
	DefaultWidth   int    `yaml:"default_width"`
}

// CacheConfig contains caching settings.
type CacheConfig struct {
	StripSizeMB     int `yaml:"strip_size_mb"`
	StripTTLMinutes int `yaml:"strip_ttl_minutes"`
	SampleCacheSize int `yaml:"sample_cache_size"`
}

// RenderConfig contains preview strip settings.
type RenderConfig struct {
	StripWidth  int `yaml:"strip_width"`
	StripHeight int `yaml:"strip_height"`
	CheckerSize int `yaml:"checker_size"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		// Return default config if file doesn't exist
		return DefaultConfig(), nil
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Apply defaults for missing values
	applyDefaults(&cfg)

	return &cfg, nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8080,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Library: LibraryConfig{
			SQLitePath:     "./data/transfuncs.sqlite",
			PreloadWorkers: 4,
			DefaultWidth:   256,
		},
		Cache: CacheConfig{
			StripSizeMB:     64,
			StripTTLMinutes: 10,
			SampleCacheSize: 256,
		},
		Render: RenderConfig{
			StripWidth:  256,
			StripHeight: 32,
			CheckerSize: 8,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaults.Server.Port
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = defaults.Server.CORSOrigins
	}
	if cfg.Library.SQLitePath == "" {
		cfg.Library.SQLitePath = defaults.Library.SQLitePath
	}
	if cfg.Library.PreloadWorkers <= 0 {
		cfg.Library.PreloadWorkers = defaults.Library.PreloadWorkers
	}
	if cfg.Library.DefaultWidth <= 0 {
		cfg.Library.DefaultWidth = defaults.Library.DefaultWidth
	}
	if cfg.Cache.StripSizeMB == 0 {
		cfg.Cache.StripSizeMB = defaults.Cache.StripSizeMB
	}
	if cfg.Cache.StripTTLMinutes == 0 {
		cfg.Cache.StripTTLMinutes = defaults.Cache.StripTTLMinutes
	}
	if cfg.Cache.SampleCacheSize == 0 {
		cfg.Cache.SampleCacheSize = defaults.Cache.SampleCacheSize
	}
	if cfg.Render.StripWidth == 0 {
		cfg.Render.StripWidth = defaults.Render.StripWidth
	}
	if cfg.Render.StripHeight == 0 {
		cfg.Render.StripHeight = defaults.Render.StripHeight
	}
	if cfg.Render.CheckerSize == 0 {
		cfg.Render.CheckerSize = defaults.Render.CheckerSize
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = defaults.Log.Format
	}
}
