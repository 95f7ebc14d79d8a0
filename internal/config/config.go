package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the optional tool configuration at <Dir()>/config.yaml.
// Everything has a usable default; the file may be absent entirely.
type Config struct {
	LogLevel    string `yaml:"log_level"`
	SyncAPIBase string `yaml:"sync_api_base"`
	DigestLimit int    `yaml:"digest_limit"`
	SyncLimit   int    `yaml:"sync_limit"`
}

// Dir returns the directory holding session, pending, watermark and
// credential files. Kept at the path the prior tooling wrote to so
// existing sessions keep working.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}
	return filepath.Join(home, ".config", "seed-network", "telegram")
}

// Load reads the tool config, tolerating a missing file.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyDefaults(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.DigestLimit == 0 {
		cfg.DigestLimit = 100
	}
	if cfg.SyncLimit == 0 {
		cfg.SyncLimit = 200
	}
}
