// Package graph holds the number-indexed view of a parsed architecture tree.
//
// A Graph is immutable once built. Every change to the canonical source is
// followed by a full re-parse and a fresh Build; nothing edits a Graph in place.
package graph

import (
	"github.com/aidanlsb/arbor/internal/model"
)

// Duplicate records an entity whose number was already taken. The first
// occurrence stays in the graph; later ones are kept here for reporting.
type Duplicate struct {
	Number    model.Number  `json:"number"`
	Line      int           `json:"line"`
	FirstLine int           `json:"first_line"`
	Entity    *model.Entity `json:"-"`
}

// Stats summarizes a graph.
type Stats struct {
	Entities     int                `json:"entities"`
	CountsByKind map[model.Kind]int `json:"counts_by_kind"`
	MaxDepth     int                `json:"max_depth"`
	Duplicates   int                `json:"duplicates"`
}

// Graph maps numbers to entities, preserving source order.
type Graph struct {
	order      []*model.Entity
	byNumber   map[model.Number]*model.Entity
	duplicates []Duplicate
}

// Build indexes entities by number. The first entity with a given number
// wins; later entities with the same number are recorded as duplicates.
func Build(entities []*model.Entity) *Graph {
	g := &Graph{
		order:    make([]*model.Entity, 0, len(entities)),
		byNumber: make(map[model.Number]*model.Entity, len(entities)),
	}
	for _, e := range entities {
		if first, ok := g.byNumber[e.Number]; ok {
			g.duplicates = append(g.duplicates, Duplicate{
				Number:    e.Number,
				Line:      e.Line,
				FirstLine: first.Line,
				Entity:    e,
			})
			continue
		}
		g.byNumber[e.Number] = e
		g.order = append(g.order, e)
	}
	return g
}

// Get returns the entity with the given number.
func (g *Graph) Get(number model.Number) (*model.Entity, bool) {
	e, ok := g.byNumber[number]
	return e, ok
}

// Has reports whether number is present.
func (g *Graph) Has(number model.Number) bool {
	_, ok := g.byNumber[number]
	return ok
}

// All returns the entities in source order.
func (g *Graph) All() []*model.Entity {
	out := make([]*model.Entity, len(g.order))
	copy(out, g.order)
	return out
}

// Len returns the number of distinct entities.
func (g *Graph) Len() int {
	return len(g.order)
}

// ByLevel returns the entities at the given level, in source order.
func (g *Graph) ByLevel(level int) []*model.Entity {
	return g.filter(func(e *model.Entity) bool { return e.Level == level })
}

// ByKind returns the entities of the given kind, in source order.
func (g *Graph) ByKind(kind model.Kind) []*model.Entity {
	return g.filter(func(e *model.Entity) bool { return e.Kind == kind })
}

// Children returns the direct children of number, in source order.
func (g *Graph) Children(number model.Number) []*model.Entity {
	return g.filter(func(e *model.Entity) bool { return e.Number.Parent() == number })
}

// Layers returns the layer entities directly under an object.
func (g *Graph) Layers(object model.Number) []*model.Entity {
	return g.filter(func(e *model.Entity) bool {
		return e.Kind == model.KindLayer && e.Number.Parent() == object
	})
}

// FindByName returns the first entity with the given normalized name.
func (g *Graph) FindByName(name string) (*model.Entity, bool) {
	for _, e := range g.order {
		if e.Name == name {
			return e, true
		}
	}
	return nil, false
}

// Duplicates returns the entities dropped because their number was taken.
func (g *Graph) Duplicates() []Duplicate {
	return g.duplicates
}

// Stats computes entity counts and depth.
func (g *Graph) Stats() Stats {
	s := Stats{
		Entities:     len(g.order),
		CountsByKind: make(map[model.Kind]int, len(model.Kinds)),
		Duplicates:   len(g.duplicates),
	}
	for _, k := range model.Kinds {
		s.CountsByKind[k] = 0
	}
	for _, e := range g.order {
		s.CountsByKind[e.Kind]++
		if e.Level > s.MaxDepth {
			s.MaxDepth = e.Level
		}
	}
	return s
}

func (g *Graph) filter(keep func(*model.Entity) bool) []*model.Entity {
	var out []*model.Entity
	for _, e := range g.order {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}
