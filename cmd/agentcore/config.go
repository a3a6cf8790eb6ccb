package main

import (
	"os"
	"time"

	"github.com/ollamabot/agentcore/pkg/config"
)

// loadConfig loads the named config file, or falls back to
// spec-documented defaults when path is empty.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg := &config.Config{}
		cfg.SetDefaults()
		return cfg, nil
	}

	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	return config.LoadConfig(config.LoaderOptions{
		Type: config.ConfigTypeFile,
		Path: path,
	})
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
