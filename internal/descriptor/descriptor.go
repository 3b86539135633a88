// Package descriptor renders and reads the README written into every
// generated directory.
package descriptor

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/aidanlsb/arbor/internal/model"
)

// DefaultName is the descriptor file name.
const DefaultName = "README.md"

const layersHeading = "Layers"

// Descriptor is the content of one generated README.
type Descriptor struct {
	Name        string
	Kind        model.Kind
	Number      model.Number
	Description string
	Layers      []string
}

// FromEntity builds the descriptor for a classified entity.
func FromEntity(e *model.Entity) Descriptor {
	d := Descriptor{
		Name:        e.Name,
		Kind:        e.Kind,
		Number:      e.Number,
		Description: e.Description(),
	}
	if e.Kind == model.KindObject && e.Classification != nil {
		d.Layers = append([]string(nil), e.Classification.Layers...)
	}
	return d
}

// Render produces the markdown body.
func Render(d Descriptor) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", d.Name)
	if d.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", d.Description)
	}
	fmt.Fprintf(&b, "- **Kind:** %s\n", d.Kind)
	fmt.Fprintf(&b, "- **Number:** %s\n", d.Number)

	if d.Kind == model.KindObject {
		fmt.Fprintf(&b, "\n## %s\n\n", layersHeading)
		for _, layer := range d.Layers {
			fmt.Fprintf(&b, "- %s\n", layer)
		}
	}

	return []byte(b.String())
}

// Parse reads a descriptor back. Only the title and the Layers list are
// recovered; the remaining fields are informational.
func Parse(content []byte) Descriptor {
	var d Descriptor

	doc := goldmark.New().Parser().Parse(text.NewReader(content))

	inLayers := false
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			title := strings.TrimSpace(inlineText(node, content))
			if node.Level == 1 && d.Name == "" {
				d.Name = title
			}
			inLayers = node.Level == 2 && strings.EqualFold(title, layersHeading)
		case *ast.List:
			if !inLayers {
				continue
			}
			for item := node.FirstChild(); item != nil; item = item.NextSibling() {
				if name := strings.TrimSpace(inlineText(item, content)); name != "" {
					d.Layers = append(d.Layers, name)
				}
			}
			inLayers = false
		}
	}

	return d
}

// SameLayers reports whether two layer lists match in order.
func SameLayers(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func inlineText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := child.(*ast.Text); ok {
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				sb.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}
