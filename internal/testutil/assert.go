package testutil

import (
	"os"
	"path/filepath"
	"strings"
)

// AssertFileExists fails the test if the file does not exist.
func (p *TestProject) AssertFileExists(relPath string) {
	p.t.Helper()
	if _, err := os.Stat(filepath.Join(p.Path, filepath.FromSlash(relPath))); os.IsNotExist(err) {
		p.t.Errorf("expected file to exist: %s", relPath)
	}
}

// AssertFileNotExists fails the test if the file exists.
func (p *TestProject) AssertFileNotExists(relPath string) {
	p.t.Helper()
	if _, err := os.Stat(filepath.Join(p.Path, filepath.FromSlash(relPath))); err == nil {
		p.t.Errorf("expected file to not exist: %s", relPath)
	}
}

// AssertFileContains fails the test if the file does not contain the substring.
func (p *TestProject) AssertFileContains(relPath, substr string) {
	p.t.Helper()
	content := p.ReadFile(relPath)
	if !strings.Contains(content, substr) {
		p.t.Errorf("expected file %s to contain %q, got:\n%s", relPath, substr, content)
	}
}

// AssertDirExists fails the test if the directory does not exist.
func (p *TestProject) AssertDirExists(relPath string) {
	p.t.Helper()
	info, err := os.Stat(filepath.Join(p.Path, filepath.FromSlash(relPath)))
	if err != nil {
		p.t.Errorf("expected directory to exist: %s", relPath)
		return
	}
	if !info.IsDir() {
		p.t.Errorf("expected %s to be a directory", relPath)
	}
}

// AssertDirNotExists fails the test if the directory exists.
func (p *TestProject) AssertDirNotExists(relPath string) {
	p.t.Helper()
	if _, err := os.Stat(filepath.Join(p.Path, filepath.FromSlash(relPath))); err == nil {
		p.t.Errorf("expected directory to not exist: %s", relPath)
	}
}

// AssertTreeContains fails the test if the canonical file lacks substr.
func (p *TestProject) AssertTreeContains(substr string) {
	p.t.Helper()
	if content := p.Tree(); !strings.Contains(content, substr) {
		p.t.Errorf("expected tree to contain %q, got:\n%s", substr, content)
	}
}

// AssertTreeNotContains fails the test if the canonical file contains substr.
func (p *TestProject) AssertTreeNotContains(substr string) {
	p.t.Helper()
	if content := p.Tree(); strings.Contains(content, substr) {
		p.t.Errorf("expected tree to not contain %q, got:\n%s", substr, content)
	}
}
