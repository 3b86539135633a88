package classify

import (
	"github.com/aidanlsb/arbor/internal/graph"
	"github.com/aidanlsb/arbor/internal/model"
)

// Resolve returns the classification for one entity. Registered entities
// use their record; the rest get defaults derived from the tree itself.
func (r *Registry) Resolve(g *graph.Graph, e *model.Entity, opts Options) model.Classification {
	if c, ok := r.Lookup(e.Name); ok {
		if e.Kind == model.KindObject && len(c.Layers) == 0 {
			c.Layers = r.layersFor(g, e, opts)
		}
		return c
	}

	c := model.Classification{
		Description: e.Comment,
		Hyperlink:   e.Kind != model.KindLayer,
	}
	switch e.Kind {
	case model.KindDomain:
		c.Type = "domain"
		c.Materialize = e.Folder
	case model.KindObject:
		c.Type = "object"
		c.Materialize = e.Folder
		c.Layers = r.layersFor(g, e, opts)
		c.DomainNumber = string(e.Number)
	case model.KindLayer:
		c.Type = "layer"
		c.Materialize = opts.MaterializeLayers
	}
	return c
}

// Apply resolves and attaches a classification to every entity in g.
func (r *Registry) Apply(g *graph.Graph, opts Options) {
	for _, e := range g.All() {
		c := r.Resolve(g, e, opts)
		e.Classification = &c
	}
}

// HyperlinkInfo is the boundary record consumed by documentation hyperlinking.
type HyperlinkInfo struct {
	Name        string `json:"name"`
	Found       bool   `json:"found"`
	Materialize bool   `json:"materialize"`
	Hyperlink   bool   `json:"hyperlink"`
	Description string `json:"description,omitempty"`
}

// HyperlinkLookup answers "may this name be linked, and how is it described".
// Registry records win; otherwise the entity in g (if any) is classified.
func (r *Registry) HyperlinkLookup(g *graph.Graph, name string, opts Options) HyperlinkInfo {
	info := HyperlinkInfo{Name: name}
	if c, ok := r.Lookup(name); ok {
		info.Found = true
		info.Materialize = c.Materialize
		info.Hyperlink = c.Hyperlink
		info.Description = c.Description
		return info
	}
	if g == nil {
		return info
	}
	e, ok := g.FindByName(name)
	if !ok {
		return info
	}
	c := r.Resolve(g, e, opts)
	info.Found = true
	info.Materialize = c.Materialize
	info.Hyperlink = c.Hyperlink
	info.Description = c.Description
	return info
}

func (r *Registry) layersFor(g *graph.Graph, e *model.Entity, opts Options) []string {
	if g != nil {
		if layers := g.Layers(e.Number); len(layers) > 0 {
			names := make([]string, 0, len(layers))
			for _, l := range layers {
				names = append(names, l.Name)
			}
			return names
		}
	}
	if len(opts.DefaultLayers) > 0 {
		return append([]string(nil), opts.DefaultLayers...)
	}
	return r.DefaultLayers()
}
