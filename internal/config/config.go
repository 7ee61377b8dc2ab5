package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type Config struct {
	OutputDir   string `toml:"output_dir"`
	BaseURL     string `toml:"base_url"`
	AccessToken string `toml:"access_token"`
	WorkspaceID string `toml:"workspace_id"`
	PageLimit   int    `toml:"page_limit"`
	// RequestsPerSecond paces calls against the backend; the endpoints
	// rate-limit aggressively when hit back to back.
	RequestsPerSecond float64  `toml:"requests_per_second"`
	MaxRetries        int      `toml:"max_retries"`
	ProjectIDs        []string `toml:"project_ids"`
}

func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	cfg := Default()

	cfgPath := filepath.Join(home, ".config", "offboard", "config.toml")
	if _, err := os.Stat(cfgPath); err == nil {
		if _, err := toml.DecodeFile(cfgPath, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
	}

	// token from the environment wins over the config file
	if tok := os.Getenv("OFFBOARD_TOKEN"); tok != "" {
		cfg.AccessToken = tok
	}

	cfg.OutputDir = expandHome(cfg.OutputDir, home)
	cfg.clamp()

	return cfg, nil
}

func Default() *Config {
	return &Config{
		OutputDir:         "exports",
		BaseURL:           "https://chatgpt.com",
		PageLimit:         100,
		RequestsPerSecond: 5,
		MaxRetries:        5,
	}
}

func (c *Config) clamp() {
	if c.PageLimit <= 0 {
		c.PageLimit = 100
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 5
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 5
	}
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
