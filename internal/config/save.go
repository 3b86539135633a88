package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/aidanlsb/arbor/internal/atomicfile"
)

type persistedConfig struct {
	DefaultProject *string              `toml:"default_project,omitempty"`
	Debug          bool                 `toml:"debug,omitempty"`
	Projects       map[string]string    `toml:"projects,omitempty"`
	UI             *persistedUISettings `toml:"ui,omitempty"`
}

type persistedUISettings struct {
	Accent    *string `toml:"accent,omitempty"`
	CodeTheme *string `toml:"code_theme,omitempty"`
}

func nonEmptyPtr(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// SaveTo writes the global config to a specific path atomically.
func SaveTo(path string, cfg *Config) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("config path is required")
	}
	if cfg == nil {
		cfg = &Config{}
	}

	out := persistedConfig{
		DefaultProject: nonEmptyPtr(cfg.DefaultProject),
		Debug:          cfg.Debug,
	}
	if len(cfg.Projects) > 0 {
		out.Projects = cfg.Projects
	}
	accent := nonEmptyPtr(cfg.UI.Accent)
	codeTheme := nonEmptyPtr(cfg.UI.CodeTheme)
	if accent != nil || codeTheme != nil {
		out.UI = &persistedUISettings{Accent: accent, CodeTheme: codeTheme}
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(out); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := atomicfile.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}

// RegisterProject adds name -> path to the config at configPath, making it
// the default when no default is set yet.
func RegisterProject(configPath, name, path string) (*Config, error) {
	cfg, err := Load(configPath)
	if err != nil {
		return nil, err
	}
	if cfg.Projects == nil {
		cfg.Projects = make(map[string]string)
	}
	cfg.Projects[name] = path
	if cfg.DefaultProject == "" {
		cfg.DefaultProject = name
	}
	if err := SaveTo(ResolveConfigPath(configPath), cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
