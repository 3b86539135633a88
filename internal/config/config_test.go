package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfigGetProjectPath(t *testing.T) {
	cfg := &Config{
		DefaultProject: "main",
		Projects: map[string]string{
			"main":  "/path/to/main",
			"infra": "/path/to/infra",
		},
	}

	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"infra", "/path/to/infra", false},
		{"", "/path/to/main", false},
		{"missing", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cfg.GetProjectPath(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := (&Config{}).GetProjectPath(""); err == nil {
		t.Error("expected error without a default project")
	}
}

func TestLoadMissingReturnsEmpty(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DefaultProject != "" || len(cfg.Projects) != 0 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arbor", "config.toml")
	cfg := &Config{
		DefaultProject: "main",
		Projects:       map[string]string{"main": "/srv/main"},
		UI:             UIConfig{Accent: "39"},
	}
	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.DefaultProject != "main" || loaded.Projects["main"] != "/srv/main" || loaded.UI.Accent != "39" {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestRegisterProject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if _, err := RegisterProject(path, "a", "/a"); err != nil {
		t.Fatal(err)
	}
	cfg, err := RegisterProject(path, "b", "/b")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DefaultProject != "a" {
		t.Errorf("default = %q, want a", cfg.DefaultProject)
	}
	if got := cfg.ProjectNames(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("names = %v", got)
	}
}

func TestLoadProjectDefaults(t *testing.T) {
	cfg, err := LoadProject(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.CanonicalPath != DefaultCanonicalPath || cfg.GenerationRoot != DefaultGenerationRoot {
		t.Errorf("cfg = %+v", cfg)
	}
	if !cfg.AuditEnabled() || !cfg.IndexEnabled() {
		t.Error("audit and index default to enabled")
	}
	if d, _ := cfg.WatchInterval(); d != time.Hour {
		t.Errorf("interval = %v", d)
	}
}

func TestLoadProjectFile(t *testing.T) {
	dir := t.TempDir()
	content := `canonical_path: docs/tree.md
generation_root: src
materialize_layers: true
default_layers: [Core, Tests]
watch:
  interval: 5m
audit: false
`
	if err := os.WriteFile(filepath.Join(dir, ProjectFileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadProject(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.CanonicalFile(dir) != filepath.Join(dir, "docs", "tree.md") {
		t.Errorf("canonical = %q", cfg.CanonicalFile(dir))
	}
	if cfg.GenerationDir(dir) != filepath.Join(dir, "src") {
		t.Errorf("generation = %q", cfg.GenerationDir(dir))
	}
	if !cfg.MaterializeLayers || len(cfg.DefaultLayers) != 2 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.AuditEnabled() {
		t.Error("audit should be disabled")
	}
	if cfg.ArchiveDir != DefaultArchiveDir {
		t.Errorf("archive dir = %q", cfg.ArchiveDir)
	}
	if d, _ := cfg.WatchInterval(); d != 5*time.Minute {
		t.Errorf("interval = %v", d)
	}
	if d, _ := cfg.WatchDebounce(); d != DefaultWatchDebounce {
		t.Errorf("debounce = %v", d)
	}
}

func TestLoadProjectInvalid(t *testing.T) {
	tests := map[string]string{
		"bad duration":   "watch:\n  interval: soon\n",
		"nested archive": "archive_dir: a/b\n",
		"absolute root":  "generation_root: /abs\n",
		"negative":       "watch:\n  debounce: -1s\n",
		"malformed yaml": "canonical_path: [",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, ProjectFileName), []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadProject(dir); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestCreateDefaultProject(t *testing.T) {
	dir := t.TempDir()
	wrote, err := CreateDefaultProject(dir)
	if err != nil || !wrote {
		t.Fatalf("CreateDefaultProject = %v, %v", wrote, err)
	}
	cfg, err := LoadProject(dir)
	if err != nil {
		t.Fatalf("generated arbor.yaml does not load: %v", err)
	}
	if cfg.MaterializeLayers {
		t.Error("materialize_layers should default to false")
	}

	wrote, err = CreateDefaultProject(dir)
	if err != nil || wrote {
		t.Errorf("second call = %v, %v; want false, nil", wrote, err)
	}
}
