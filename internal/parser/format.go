package parser

import (
	"strings"

	"github.com/aidanlsb/arbor/internal/model"
)

const (
	indentUnit   = "│   "
	commentAlign = 40
)

// LineSpec describes one tree line to render.
type LineSpec struct {
	Number  model.Number
	Name    string
	Folder  bool
	Comment string
	// Last selects the └── glyph. It is cosmetic only.
	Last bool
}

// FormatLine renders a single entity line in the parser's own grammar, e.g.
//
//	│   ├── 4.2 📁 Processing_Router/          # routing
func FormatLine(spec LineSpec) string {
	var b strings.Builder

	level := spec.Number.Level()
	for i := 1; i < level; i++ {
		b.WriteString(indentUnit)
	}
	if spec.Last {
		b.WriteString(LastBranchGlyph)
	} else {
		b.WriteString(BranchGlyph)
	}
	b.WriteString(" ")
	b.WriteString(string(spec.Number))
	b.WriteString(" ")
	if spec.Folder {
		b.WriteString(FolderGlyph)
		b.WriteString(" ")
	}
	b.WriteString(spec.Name)
	b.WriteString("/")

	if spec.Comment != "" {
		width := utf8Width(b.String())
		pad := commentAlign - width
		if pad < 1 {
			pad = 1
		}
		b.WriteString(strings.Repeat(" ", pad))
		b.WriteString("# ")
		b.WriteString(spec.Comment)
	}

	return b.String()
}

// SpecFor builds the LineSpec that reproduces an entity.
func SpecFor(e *model.Entity) LineSpec {
	return LineSpec{
		Number:  e.Number,
		Name:    e.Name,
		Folder:  e.Folder,
		Comment: e.Comment,
	}
}

// Format renders entities as a tree, one line per entity, in the given order.
// The └── glyph is used for the last sibling under each parent.
func Format(entities []*model.Entity) []string {
	lines := make([]string, 0, len(entities))
	for i, e := range entities {
		spec := SpecFor(e)
		spec.Last = isLastSibling(entities, i)
		lines = append(lines, FormatLine(spec))
	}
	return lines
}

func isLastSibling(entities []*model.Entity, i int) bool {
	parent := entities[i].Number.Parent()
	for _, next := range entities[i+1:] {
		if next.Number.Parent() == parent {
			return false
		}
		if parent != "" && !next.Number.IsDescendantOf(parent) {
			return true
		}
	}
	return true
}

func utf8Width(s string) int {
	return len([]rune(s))
}
