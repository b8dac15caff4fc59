// Package util provides configuration loading for the sockperf exporter.
package util

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/supporttools/sockperf-exporter/pkg/types"
	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a file (YAML or JSON).
// The file format is determined by extension (.yaml, .yml, .json).
// Environment variables are substituted, defaults are applied, and validation is performed.
func LoadConfig(path string) (*types.ExporterConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	// Substitute environment variables in raw data BEFORE parsing
	// This allows env vars to work in non-string fields (e.g., port: ${PORT})
	data = []byte(os.ExpandEnv(string(data)))

	ext := filepath.Ext(path)

	var config types.ExporterConfig

	switch ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	case ".json":
		err = json.Unmarshal(data, &config)
	default:
		// Try YAML first, then JSON
		err = yaml.Unmarshal(data, &config)
		if err != nil {
			err = json.Unmarshal(data, &config)
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	// Substitute environment variables in string fields (for dynamic map values)
	config.SubstituteEnvVars()

	if err := config.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// LoadConfigOrDefault loads configuration from a file, or returns default if file doesn't exist.
func LoadConfigOrDefault(path string) (*types.ExporterConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig()
	}
	return LoadConfig(path)
}

// DefaultConfig returns a default configuration suitable for exporting from /var/log/sockperf.
func DefaultConfig() (*types.ExporterConfig, error) {
	config := &types.ExporterConfig{}

	if err := config.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("default configuration invalid: %w", err)
	}

	return config, nil
}
