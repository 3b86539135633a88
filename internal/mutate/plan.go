package mutate

import (
	"fmt"
	"strings"

	"github.com/aidanlsb/arbor/internal/graph"
	"github.com/aidanlsb/arbor/internal/model"
	"github.com/aidanlsb/arbor/internal/parser"
)

// InsertSpec describes a new Object (two-component number) or Domain
// (single-component number) to add to the tree.
type InsertSpec struct {
	Name   string
	Domain string
	Number model.Number
	// Layers become one layer line each, numbered <Number>.1, <Number>.2, ...
	Layers         []string
	Description    string
	Classification string
}

// Plan is the computed edit list for one mutation.
type Plan struct {
	Edits          []Edit
	NumberAssigned model.Number
	LinesAdded     int
	LinesRemoved   int
	// Target is the entity being removed, as parsed before the edit.
	Target *model.Entity
}

// entityLines parses each line on its own, keeping 0-based indices aligned.
func entityLines(lines []string) []*model.Entity {
	out := make([]*model.Entity, len(lines))
	for i, line := range lines {
		e, _ := parser.ParseLine(line, i+1)
		out[i] = e
	}
	return out
}

func buildGraph(parsed []*model.Entity) *graph.Graph {
	var entities []*model.Entity
	for _, e := range parsed {
		if e != nil {
			entities = append(entities, e)
		}
	}
	return graph.Build(entities)
}

// PlanInsert computes the edits that add spec to lines.
//
// Placement: the new lines go just after the first line that names
// "<Domain>/" and whose number is a prefix of spec.Number. Failing that (and
// always for new domains), they go before the next domain line following the
// named domain, or after the last tree line when the domain is the last one.
func PlanInsert(lines []string, spec InsertSpec) (Plan, error) {
	if strings.TrimSpace(spec.Name) == "" || strings.TrimSpace(spec.Domain) == "" || spec.Number == "" {
		return Plan{}, rejectf("missing required fields: name, domain and number")
	}
	if !spec.Number.Valid() {
		return Plan{}, rejectf("invalid number %q", spec.Number)
	}
	level := spec.Number.Level()
	if level > 2 {
		return Plan{}, rejectf("number %s has %d components; only domains (1) and objects (2) can be inserted", spec.Number, level)
	}
	name := parser.NormalizeName(spec.Name)
	if name == "" {
		return Plan{}, rejectf("name %q has no word characters", spec.Name)
	}
	layers := make([]string, 0, len(spec.Layers))
	for i, layer := range spec.Layers {
		normalized := parser.NormalizeName(layer)
		if normalized == "" {
			return Plan{}, rejectf("layer %d name %q has no word characters", i+1, layer)
		}
		layers = append(layers, normalized)
	}

	parsed := entityLines(lines)
	g := buildGraph(parsed)

	if existing, ok := g.Get(spec.Number); ok {
		return Plan{}, rejectf("number %s is already assigned to %s", spec.Number, existing.Name)
	}
	if existing, ok := g.FindByName(name); ok {
		return Plan{}, rejectf("entity %s already exists as %s", name, existing.Number)
	}

	domainName := parser.NormalizeName(spec.Domain)
	domainIdx := -1
	for i, e := range parsed {
		if e != nil && e.Kind == model.KindDomain && e.Name == domainName {
			domainIdx = i
			break
		}
	}
	if domainIdx < 0 {
		return Plan{}, rejectf("domain %s not found", spec.Domain)
	}
	domain := parsed[domainIdx]
	if level == 2 && spec.Number.Truncate(1) != domain.Number {
		return Plan{}, rejectf("number %s is not under domain %s (%s)", spec.Number, domain.Name, domain.Number)
	}

	index := -1
	if level == 2 {
		index = afterReferencingLine(lines, spec.Domain, spec.Number)
	}
	if index < 0 {
		index = beforeNextDomain(lines, parsed, domainIdx)
	}

	newLines := buildLines(name, layers, spec, level)
	edits := make([]Edit, 0, len(newLines))
	for _, line := range newLines {
		edits = append(edits, Edit{Index: index, Op: OpInsert, Line: line})
	}

	return Plan{
		Edits:          edits,
		NumberAssigned: spec.Number,
		LinesAdded:     len(newLines),
	}, nil
}

func afterReferencingLine(lines []string, domain string, number model.Number) int {
	ref := strings.TrimSuffix(domain, "/") + "/"
	for i, line := range lines {
		if !strings.Contains(line, ref) {
			continue
		}
		lead, ok := parser.LeadingNumber(line)
		if ok && number.HasPrefix(lead) {
			return i + 1
		}
	}
	return -1
}

func beforeNextDomain(lines []string, parsed []*model.Entity, domainIdx int) int {
	lastTree := domainIdx
	for i := domainIdx + 1; i < len(lines); i++ {
		lead, ok := parser.LeadingNumber(lines[i])
		if !ok {
			continue
		}
		if lead.IsBareInteger() {
			return i
		}
		if parsed[i] != nil {
			lastTree = i
		}
	}
	return lastTree + 1
}

func buildLines(name string, layers []string, spec InsertSpec, level int) []string {
	if level == 1 {
		return []string{parser.FormatLine(parser.LineSpec{
			Number:  spec.Number,
			Name:    name,
			Folder:  true,
			Comment: "🏛️ Domain: " + describe(spec.Description, "New domain"),
		})}
	}

	out := []string{parser.FormatLine(parser.LineSpec{
		Number:  spec.Number,
		Name:    name,
		Folder:  true,
		Comment: "🎯 Object: " + describe(spec.Description, "New component"),
	})}
	for i, layer := range layers {
		out = append(out, parser.FormatLine(parser.LineSpec{
			Number:  spec.Number.Child(i + 1),
			Name:    layer,
			Last:    i == len(layers)-1,
			Comment: fmt.Sprintf("📦 Layer %d: %s", i+1, layer),
		}))
	}
	return out
}

func describe(desc, fallback string) string {
	if desc = strings.TrimSpace(desc); desc != "" {
		return desc
	}
	return fallback
}

// PlanRemove computes the edits that remove the entity called name and its
// nested lines.
//
// The entity is the first line whose parsed name equals name and which carries
// a materialization marker (folder glyph or trailing "/"). The cascade covers
// every following line numbered below it; it stops at the first entity line
// that is not a descendant. Untracked lines between descendants go with them,
// untracked lines after the last descendant stay.
func PlanRemove(lines []string, name string) (Plan, error) {
	normalized := parser.NormalizeName(name)
	if normalized == "" {
		return Plan{}, rejectf("missing required field: name")
	}

	parsed := entityLines(lines)
	start := -1
	for i, e := range parsed {
		if e != nil && e.Name == normalized && hasMarker(e) {
			start = i
			break
		}
	}
	if start < 0 {
		return Plan{}, &RejectedError{
			Reason: fmt.Sprintf("entity %q not found in canonical source", name),
			Err:    ErrEntityNotFound,
		}
	}
	target := parsed[start]

	collected := []int{start}
	var pending []int
	for i := start + 1; i < len(lines); i++ {
		e := parsed[i]
		if e == nil {
			pending = append(pending, i)
			continue
		}
		if !e.Number.IsDescendantOf(target.Number) {
			break
		}
		collected = append(collected, pending...)
		collected = append(collected, i)
		pending = nil
	}

	edits := make([]Edit, 0, len(collected))
	for j := len(collected) - 1; j >= 0; j-- {
		edits = append(edits, Edit{Index: collected[j], Op: OpDelete})
	}

	return Plan{
		Edits:        edits,
		LinesRemoved: len(collected),
		Target:       target,
	}, nil
}

func hasMarker(e *model.Entity) bool {
	if e.Folder {
		return true
	}
	label, _, _ := strings.Cut(e.Source, " #")
	return strings.HasSuffix(strings.TrimSpace(label), "/")
}
