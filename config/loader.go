package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader reads a RuntimeConfig from a YAML file and merges it over a set of
// defaults, the way najoast-sngo's config.Loader merges a user file over
// config.DefaultConfig().
type Loader struct {
	defaults *RuntimeConfig
}

// NewLoader builds a Loader seeded with DefaultRuntimeConfig. Callers that
// need different baseline values can call SetDefaults before Load.
func NewLoader() *Loader {
	return &Loader{defaults: DefaultRuntimeConfig()}
}

// SetDefaults overrides the baseline a loaded file is merged over.
func (l *Loader) SetDefaults(defaults *RuntimeConfig) *Loader {
	l.defaults = defaults
	return l
}

// Load reads path, merges it over the loader's defaults, and validates the
// result. An empty path returns the defaults unmodified (still validated).
func (l *Loader) Load(path string) (*RuntimeConfig, error) {
	defaults := l.defaults
	if defaults == nil {
		defaults = DefaultRuntimeConfig()
	}

	if path == "" {
		if err := defaults.Validate(); err != nil {
			return nil, fmt.Errorf("default config is invalid: %w", err)
		}
		return defaults, nil
	}

	if !fileExists(path) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var fileCfg RuntimeConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config %s: %w", path, err)
	}

	merged := mergeDefaults(&fileCfg, defaults)
	if err := merged.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return merged, nil
}
