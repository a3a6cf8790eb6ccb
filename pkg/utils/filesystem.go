// Package utils provides small filesystem and token-budget helpers shared
// across agentcore's packages.
package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigDirName is the directory agentcore stores session and
// orchestration state under, relative to the user's home directory
// (spec §6.2: "$HOME/.config/ollamabot").
const DefaultConfigDirName = "ollamabot"

// EnsureConfigDir ensures the agentcore configuration root exists and
// returns its path. An empty configDir resolves to $HOME/.config/ollamabot.
func EnsureConfigDir(configDir string) (string, error) {
	dir := configDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		dir = filepath.Join(home, ".config", DefaultConfigDirName)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory at %q: %w", dir, err)
	}

	return dir, nil
}

// EnsureDir is a thin os.MkdirAll wrapper that gives every caller the
// same wrapped-error shape.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create directory at %q: %w", path, err)
	}
	return nil
}
