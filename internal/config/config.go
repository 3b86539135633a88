// Package config handles global arbor configuration and per-project
// arbor.yaml settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config represents the global arbor configuration.
type Config struct {
	// DefaultProject is the name of the default project (from Projects map).
	DefaultProject string `toml:"default_project"`

	// Projects maps project names to project root paths.
	Projects map[string]string `toml:"projects"`

	// Debug enables diagnostic output on stderr.
	Debug bool `toml:"debug"`

	// UI controls optional CLI theming preferences.
	UI UIConfig `toml:"ui"`
}

// UIConfig represents optional CLI theming preferences.
type UIConfig struct {
	// Accent is an optional accent color for CLI output and markdown rendering.
	// Supported values are ANSI color codes ("0" to "255") or hex colors ("#RRGGBB").
	Accent string `toml:"accent"`

	// CodeTheme sets the Glamour/Chroma theme used by `arb show`.
	CodeTheme string `toml:"code_theme"`
}

// GetProjectPath returns the path for a named project.
// If name is empty, returns the default project path.
func (c *Config) GetProjectPath(name string) (string, error) {
	if name == "" {
		name = c.DefaultProject
	}
	if name == "" {
		return "", fmt.Errorf("no default project configured")
	}
	if path, ok := c.Projects[name]; ok {
		return path, nil
	}
	return "", fmt.Errorf("project '%s' not found in config", name)
}

// ProjectNames returns the configured project names, sorted.
func (c *Config) ProjectNames() []string {
	names := make([]string, 0, len(c.Projects))
	for name := range c.Projects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveConfigPath resolves the effective config path from an optional override.
func ResolveConfigPath(explicitConfigPath string) string {
	if strings.TrimSpace(explicitConfigPath) != "" {
		return explicitConfigPath
	}
	return DefaultPath()
}

// Load loads the configuration from path, or the default location when path
// is empty. Returns an empty config if the file doesn't exist.
func Load(path string) (*Config, error) {
	path = ResolveConfigPath(path)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Config{}, nil
	}
	return LoadFrom(path)
}

// LoadFrom loads the configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	var config Config
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return &config, nil
}

// DefaultPath returns the default config file path.
// Checks ~/.config/arbor/config.toml first (XDG style),
// then falls back to OS-specific location.
func DefaultPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		xdgPath := filepath.Join(home, ".config", "arbor", "config.toml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath
		}
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "arbor", "config.toml")
	}

	return filepath.Join(".", "config.toml")
}
