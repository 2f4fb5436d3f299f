// Package config persists user preferences for quarry as JSON in the
// data directory. Missing or unreadable config means defaults, never
// an error: every command must work on a fresh machine.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config is the persistent application configuration
type Config struct {
	// Sampling defaults, overridable per run with flags
	Sampling SamplingConfig `json:"sampling"`

	// Display preferences
	Display DisplayConfig `json:"display"`
}

// SamplingConfig holds default knobs for the sample and publish commands
type SamplingConfig struct {
	DefaultN    int      `json:"default_n"`            // sample size when -n is absent
	DefaultBy   []string `json:"default_by,omitempty"` // dimension keys to stratify by
	MinPerGroup int      `json:"min_per_group"`        // coverage floor per group
	Seed        int64    `json:"seed"`                 // -1 means a fresh seed each run
}

// DisplayConfig holds rendering preferences
type DisplayConfig struct {
	TopValues int `json:"top_values"` // dimension values shown per key in stats and diff
	MaxRows   int `json:"max_rows"`   // browse list cap
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Sampling: SamplingConfig{
			DefaultN:    50,
			MinPerGroup: 0, // pure proportional unless asked for a floor
			Seed:        -1,
		},
		Display: DisplayConfig{
			TopValues: 10,
			MaxRows:   500,
		},
	}
}

// ConfigPath returns the path to the config file.
// QUARRY_HOME overrides the default ~/.quarry data directory.
func ConfigPath() string {
	if dir := os.Getenv("QUARRY_HOME"); dir != "" {
		return filepath.Join(dir, "config.json")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".quarry", "config.json")
}

// Load reads config from disk, or returns defaults
func Load() (*Config, error) {
	path := ConfigPath()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), nil
	}

	return &cfg, nil
}

// Save writes config to disk
func (c *Config) Save() error {
	path := ConfigPath()

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
