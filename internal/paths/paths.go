// Package paths maps tree entities to their canonical directory locations:
// - Domain "4"     -> [Processing]
// - Object "4.2"   -> [Processing, Processing_Router]
// - Layer  "4.2.1" -> [Processing, Processing_Router, Api]
//
// Ancestors are looked up by number only, the same way the structural
// validator checks parents, so an entity with a missing ancestor never
// resolves.
package paths

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/aidanlsb/arbor/internal/graph"
	"github.com/aidanlsb/arbor/internal/model"
)

// Resolve returns the path segments for e, or false if any ancestor is
// missing from g.
func Resolve(g *graph.Graph, e *model.Entity) ([]string, bool) {
	level := e.Number.Level()
	if level < 1 || level > model.MaxLevel {
		return nil, false
	}

	segments := make([]string, 0, level)
	for i := 1; i < level; i++ {
		ancestor, ok := g.Get(e.Number.Truncate(i))
		if !ok {
			return nil, false
		}
		segments = append(segments, ancestor.Name)
	}
	return append(segments, e.Name), true
}

// Join builds a slash-separated path below root. An empty root yields a
// relative path.
func Join(root string, segments []string) string {
	parts := make([]string, 0, len(segments)+1)
	if root = normalizeRelPath(root); root != "" {
		parts = append(parts, strings.TrimSuffix(root, "/"))
	}
	parts = append(parts, segments...)
	return path.Join(parts...)
}

// LayerPath is the "Domain/Object/Layer" key used by code-entity mappings.
func LayerPath(segments []string) string {
	return strings.Join(segments, "/")
}

// LayerPathFromFile maps a root-relative (or root-prefixed) file path to the
// layer it lives in. Files outside root or less than three directories deep
// return false.
func LayerPathFromFile(root, file string) (string, bool) {
	rel := normalizeRelPath(file)
	if root = normalizeRelPath(root); root != "" {
		prefix := strings.TrimSuffix(root, "/") + "/"
		if !strings.HasPrefix(rel, prefix) {
			return "", false
		}
		rel = strings.TrimPrefix(rel, prefix)
	}

	dirs := strings.Split(rel, "/")
	// The last element is the file itself.
	if len(dirs) < 4 {
		return "", false
	}
	for _, d := range dirs[:3] {
		if d == "" || d == "." || d == ".." {
			return "", false
		}
	}
	return LayerPath(dirs[:3]), true
}

// LayerPaths returns every layer path that resolves in g.
func LayerPaths(g *graph.Graph) map[string]struct{} {
	out := make(map[string]struct{})
	for _, e := range g.ByLevel(3) {
		if segs, ok := Resolve(g, e); ok {
			out[LayerPath(segs)] = struct{}{}
		}
	}
	return out
}

// normalizeRelPath normalizes a path-like value:
// - converts OS separators to '/'
// - trims leading "./" and leading "/"
// - collapses repeated '/'
func normalizeRelPath(p string) string {
	p = filepath.ToSlash(p)
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimPrefix(p, "/")
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	return p
}
