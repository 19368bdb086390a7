// Package config resolves the runtime environment (home and working
// directories, overrides) and loads the tool configuration file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Config types
// ---------------------------------------------------------------------------

// RegistryConfig holds settings for the package registry queried by the
// update check.
type RegistryConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// UpdateConfig controls the startup update check.
type UpdateConfig struct {
	Check    bool          `yaml:"check"`
	CacheTTL time.Duration `yaml:"cache_ttl"` // 0 disables the version cache
}

// ToolConfig is the root of <working dir>/config.yaml.
type ToolConfig struct {
	Registry RegistryConfig `yaml:"registry"`
	Update   UpdateConfig   `yaml:"update"`
}

// DefaultRegistryURL is the registry queried when nothing overrides it.
const DefaultRegistryURL = "https://registry.npmjs.org"

// Default returns a ToolConfig populated with sensible defaults.
func Default() *ToolConfig {
	return &ToolConfig{
		Registry: RegistryConfig{
			URL:     DefaultRegistryURL,
			Timeout: 30 * time.Second,
		},
		Update: UpdateConfig{
			Check:    true,
			CacheTTL: time.Hour,
		},
	}
}

// Load reads a config.yaml from path.
// If the file does not exist it returns Default() with no error.
// Missing keys retain their default values.
func Load(path string) (*ToolConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	// Unmarshal into a plain map so we can apply only the keys that are present.
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	if reg, ok := raw["registry"].(map[string]any); ok {
		if v, ok := reg["url"].(string); ok && strings.TrimSpace(v) != "" {
			cfg.Registry.URL = strings.TrimSpace(v)
		}
		if v, ok := reg["timeout"]; ok {
			d, err := parseDuration(v)
			if err != nil {
				return nil, fmt.Errorf("registry.timeout: %w", err)
			}
			cfg.Registry.Timeout = d
		}
	}

	if upd, ok := raw["update"].(map[string]any); ok {
		if v, ok := upd["check"].(bool); ok {
			cfg.Update.Check = v
		}
		if v, ok := upd["cache_ttl"]; ok {
			d, err := parseDuration(v)
			if err != nil {
				return nil, fmt.Errorf("update.cache_ttl: %w", err)
			}
			cfg.Update.CacheTTL = d
		}
	}

	return cfg, nil
}

// parseDuration accepts Go duration strings ("90s", "1h") and bare integers,
// which are read as seconds.
func parseDuration(v any) (time.Duration, error) {
	switch t := v.(type) {
	case int:
		return time.Duration(t) * time.Second, nil
	case string:
		return time.ParseDuration(strings.TrimSpace(t))
	default:
		return 0, fmt.Errorf("unsupported duration %v", v)
	}
}
