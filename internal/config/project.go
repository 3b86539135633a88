package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aidanlsb/arbor/internal/atomicfile"
)

// ProjectFileName is the per-project configuration file.
const ProjectFileName = "arbor.yaml"

// Defaults for ProjectConfig.
const (
	DefaultCanonicalPath  = "Architecture/ProjectStructure.md"
	DefaultGenerationRoot = "Project"
	DefaultArchiveDir     = "archived"
	DefaultDescriptorName = "README.md"
	DefaultWatchInterval  = time.Hour
	DefaultWatchDebounce  = 250 * time.Millisecond
)

// ProjectConfig represents project-level configuration from arbor.yaml.
type ProjectConfig struct {
	// CanonicalPath is the tree file, relative to the project root.
	CanonicalPath string `yaml:"canonical_path"`

	// GenerationRoot is where directories are materialized.
	GenerationRoot string `yaml:"generation_root"`

	// ArchiveDir receives archived directories; relative to GenerationRoot.
	ArchiveDir string `yaml:"archive_dir"`

	// DescriptorName is the README written into each generated directory.
	DescriptorName string `yaml:"descriptor_name"`

	// DefaultLayers overrides the registry's default layer list.
	DefaultLayers []string `yaml:"default_layers,omitempty"`

	// MaterializeLayers gives unregistered layers their own directories.
	MaterializeLayers bool `yaml:"materialize_layers"`

	Watch WatchConfig `yaml:"watch"`

	// Audit enables .arbor/audit.log (default: true).
	Audit *bool `yaml:"audit,omitempty"`

	// Index enables the SQLite mapping index (default: true).
	Index *bool `yaml:"index,omitempty"`
}

// WatchConfig configures `arb watch`.
type WatchConfig struct {
	// Interval between periodic reconciliation passes, e.g. "1h".
	Interval string `yaml:"interval,omitempty"`
	// Debounce groups bursts of file events, e.g. "250ms".
	Debounce string `yaml:"debounce,omitempty"`
}

// DefaultProjectConfig returns the configuration used when arbor.yaml is absent.
func DefaultProjectConfig() *ProjectConfig {
	return &ProjectConfig{
		CanonicalPath:  DefaultCanonicalPath,
		GenerationRoot: DefaultGenerationRoot,
		ArchiveDir:     DefaultArchiveDir,
		DescriptorName: DefaultDescriptorName,
		Watch: WatchConfig{
			Interval: DefaultWatchInterval.String(),
			Debounce: DefaultWatchDebounce.String(),
		},
	}
}

// LoadProject loads arbor.yaml from projectPath, filling defaults.
func LoadProject(projectPath string) (*ProjectConfig, error) {
	cfg := DefaultProjectConfig()
	path := filepath.Join(projectPath, ProjectFileName)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return cfg, nil
}

func (c *ProjectConfig) applyDefaults() {
	d := DefaultProjectConfig()
	if strings.TrimSpace(c.CanonicalPath) == "" {
		c.CanonicalPath = d.CanonicalPath
	}
	if strings.TrimSpace(c.GenerationRoot) == "" {
		c.GenerationRoot = d.GenerationRoot
	}
	if strings.TrimSpace(c.ArchiveDir) == "" {
		c.ArchiveDir = d.ArchiveDir
	}
	if strings.TrimSpace(c.DescriptorName) == "" {
		c.DescriptorName = d.DescriptorName
	}
	if c.Watch.Interval == "" {
		c.Watch.Interval = d.Watch.Interval
	}
	if c.Watch.Debounce == "" {
		c.Watch.Debounce = d.Watch.Debounce
	}
}

// Validate checks values that would otherwise fail later.
func (c *ProjectConfig) Validate() error {
	if filepath.IsAbs(c.GenerationRoot) {
		return fmt.Errorf("generation_root must be relative to the project root")
	}
	if strings.Contains(filepath.ToSlash(c.ArchiveDir), "/") {
		return fmt.Errorf("archive_dir must be a single directory name")
	}
	if _, err := c.WatchInterval(); err != nil {
		return err
	}
	if _, err := c.WatchDebounce(); err != nil {
		return err
	}
	return nil
}

// WatchInterval parses watch.interval.
func (c *ProjectConfig) WatchInterval() (time.Duration, error) {
	return parsePositiveDuration("watch.interval", c.Watch.Interval, DefaultWatchInterval)
}

// WatchDebounce parses watch.debounce.
func (c *ProjectConfig) WatchDebounce() (time.Duration, error) {
	return parsePositiveDuration("watch.debounce", c.Watch.Debounce, DefaultWatchDebounce)
}

func parsePositiveDuration(key, value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}

// AuditEnabled reports whether the audit log is on (default true).
func (c *ProjectConfig) AuditEnabled() bool {
	return c.Audit == nil || *c.Audit
}

// IndexEnabled reports whether the mapping index is on (default true).
func (c *ProjectConfig) IndexEnabled() bool {
	return c.Index == nil || *c.Index
}

// CanonicalFile returns the absolute canonical file path.
func (c *ProjectConfig) CanonicalFile(projectPath string) string {
	return resolveIn(projectPath, c.CanonicalPath)
}

// GenerationDir returns the absolute generation root.
func (c *ProjectConfig) GenerationDir(projectPath string) string {
	return resolveIn(projectPath, c.GenerationRoot)
}

func resolveIn(projectPath, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(projectPath, filepath.FromSlash(p))
}

// CreateDefaultProject writes a commented arbor.yaml unless one exists.
// It reports whether a file was written.
func CreateDefaultProject(projectPath string) (bool, error) {
	path := filepath.Join(projectPath, ProjectFileName)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	content := `# arbor project configuration

# The canonical architecture tree (relative to this file).
canonical_path: ` + DefaultCanonicalPath + `

# Where directories are generated.
generation_root: ` + DefaultGenerationRoot + `

# Removed entities are moved here when cleanup mode is "archive"
# (relative to generation_root).
archive_dir: ` + DefaultArchiveDir + `

descriptor_name: ` + DefaultDescriptorName + `

# Layers given to new objects that declare none.
# default_layers: [Config, Toolbox, Core, Api, Tests]

# Give layers without a classification their own directories.
materialize_layers: false

watch:
  interval: 1h
  debounce: 250ms

audit: true
index: true
`
	if err := os.MkdirAll(projectPath, 0o755); err != nil {
		return false, fmt.Errorf("failed to create project directory: %w", err)
	}
	if err := atomicfile.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, nil
}
