// Package testutil provides reusable test utilities for arbor integration tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// Default locations used by TestProject, matching the arbor.yaml defaults.
const (
	CanonicalPath  = "Architecture/ProjectStructure.md"
	GenerationRoot = "Project"
)

// TestProject represents a temporary arbor project for testing.
type TestProject struct {
	Path  string
	t     *testing.T
	tree  string
	files map[string]string
}

// NewTestProject creates a new test project builder.
// Call Build() to create the actual project directory.
func NewTestProject(t *testing.T) *TestProject {
	t.Helper()
	return &TestProject{
		t:     t,
		files: make(map[string]string),
	}
}

// WithTree sets the canonical architecture file content.
func (p *TestProject) WithTree(content string) *TestProject {
	p.tree = content
	return p
}

// WithClassifications sets classifications.yaml.
func (p *TestProject) WithClassifications(yaml string) *TestProject {
	p.files["classifications.yaml"] = yaml
	return p
}

// WithArborYAML sets the arbor.yaml content for the project.
func (p *TestProject) WithArborYAML(yaml string) *TestProject {
	p.files["arbor.yaml"] = yaml
	return p
}

// WithFile adds a file to the project.
// The path is relative to the project root.
func (p *TestProject) WithFile(path, content string) *TestProject {
	p.files[path] = content
	return p
}

// Build creates the project directory and all configured files.
func (p *TestProject) Build() *TestProject {
	p.t.Helper()

	p.Path = p.t.TempDir()

	if p.tree != "" {
		p.writeFile(CanonicalPath, p.tree)
	}
	for path, content := range p.files {
		p.writeFile(path, content)
	}

	return p
}

// writeFile writes a file to the project, creating directories as needed.
func (p *TestProject) writeFile(relPath, content string) {
	p.t.Helper()
	fullPath := filepath.Join(p.Path, filepath.FromSlash(relPath))

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		p.t.Fatalf("failed to create directory %s: %v", dir, err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0o644); err != nil {
		p.t.Fatalf("failed to write file %s: %v", fullPath, err)
	}
}

// ReadFile reads a file from the project.
func (p *TestProject) ReadFile(relPath string) string {
	p.t.Helper()
	content, err := os.ReadFile(filepath.Join(p.Path, filepath.FromSlash(relPath)))
	if err != nil {
		p.t.Fatalf("failed to read file %s: %v", relPath, err)
	}
	return string(content)
}

// Tree returns the current canonical file content.
func (p *TestProject) Tree() string {
	p.t.Helper()
	return p.ReadFile(CanonicalPath)
}

// Generated returns a path below the generation root.
func (p *TestProject) Generated(relPath string) string {
	return filepath.ToSlash(filepath.Join(GenerationRoot, filepath.FromSlash(relPath)))
}

// SampleTree is a small tree with two domains, two objects and their layers.
func SampleTree() string {
	return `# Project Structure

## Tree

` + "```" + `
Project/
├── 1 📁 Core/                            # Core domain
│   ├── 1.1 📁 Router/                    # Request routing
│   │   ├── 1.1.1 Config
│   │   └── 1.1.2 Api
│   └── 1.2 📁 Store/                     # Persistence
│       └── 1.2.1 Core
└── 2 📁 Edge/                            # Edge domain
` + "```" + `
`
}
