package config

import (
	"os"
	"path/filepath"
)

// GetConfigPath returns the configuration file path. It first checks
// the WEBVFX_CONFIG environment variable, then falls back to the
// default location (~/.webvfx/config).
func GetConfigPath() (string, error) {
	if configPath := os.Getenv("WEBVFX_CONFIG"); configPath != "" {
		return configPath, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".webvfx", "config"), nil
}
