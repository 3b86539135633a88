// Package classify loads the static classification registry and resolves
// the classification record attached to each parsed entity.
package classify

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/aidanlsb/arbor/internal/model"
)

// FileName is the registry file looked up in the project root.
const FileName = "classifications.yaml"

// DefaultLayers are used for objects that declare no layers anywhere.
var DefaultLayers = []string{"Config", "Toolbox", "Core", "Api", "Tests"}

// EntryDefinition is one entity record in classifications.yaml.
type EntryDefinition struct {
	Type             string   `yaml:"type,omitempty"`
	Classification   string   `yaml:"classification,omitempty"`
	ProjectStructure bool     `yaml:"project_structure"`
	ASCIITree        bool     `yaml:"ascii_tree"`
	Hyperlink        bool     `yaml:"hyperlink"`
	DomainNumber     string   `yaml:"domain_number,omitempty"`
	Layers           []string `yaml:"layers,omitempty"`
	Description      string   `yaml:"description,omitempty"`
	Reason           string   `yaml:"reason,omitempty"`
}

// File is the on-disk layout of classifications.yaml.
type File struct {
	Entities      map[string]*EntryDefinition `yaml:"entities"`
	DefaultLayers []string                    `yaml:"default_layers,omitempty"`
}

// Options tune how unregistered entities are classified.
type Options struct {
	// MaterializeLayers gives unregistered layers their own directory.
	MaterializeLayers bool
	// DefaultLayers overrides the registry's default layer list when set.
	DefaultLayers []string
}

// Registry is the loaded, read-only classification table.
type Registry struct {
	entries       map[string]*EntryDefinition
	defaultLayers []string
}

// Load reads the registry from projectRoot. A missing file yields an empty
// registry.
func Load(projectRoot string) (*Registry, error) {
	path := filepath.Join(projectRoot, FileName)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read classification registry %s: %w", path, err)
	}

	return Parse(data)
}

// Parse decodes registry YAML.
func Parse(data []byte) (*Registry, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse classification registry: %w", err)
	}
	r := New(f.Entities)
	if len(f.DefaultLayers) > 0 {
		r.defaultLayers = f.DefaultLayers
	}
	return r, nil
}

// New builds a registry from entries. Nil entries are dropped.
func New(entries map[string]*EntryDefinition) *Registry {
	r := &Registry{
		entries:       make(map[string]*EntryDefinition, len(entries)),
		defaultLayers: DefaultLayers,
	}
	for name, def := range entries {
		if def != nil {
			r.entries[name] = def
		}
	}
	return r
}

// Len returns the number of registered entities.
func (r *Registry) Len() int {
	return len(r.entries)
}

// DefaultLayers returns the layer list for objects with no declared layers.
func (r *Registry) DefaultLayers() []string {
	return append([]string(nil), r.defaultLayers...)
}

// Lookup returns the registered record for name.
func (r *Registry) Lookup(name string) (model.Classification, bool) {
	def, ok := r.entries[name]
	if !ok {
		return model.Classification{}, false
	}
	return def.record(), true
}

func (d *EntryDefinition) record() model.Classification {
	return model.Classification{
		Materialize:  d.ProjectStructure && d.ASCIITree,
		Layers:       append([]string(nil), d.Layers...),
		DomainNumber: d.DomainNumber,
		Description:  d.Description,
		Type:         d.Type,
		Hyperlink:    d.Hyperlink,
		Registered:   true,
	}
}
