package paths

import (
	"testing"

	"github.com/aidanlsb/arbor/internal/check"
	"github.com/aidanlsb/arbor/internal/graph"
	"github.com/aidanlsb/arbor/internal/model"
	"github.com/aidanlsb/arbor/internal/parser"
)

const tree = `├── 4 📁 Processing/
│   ├── 4.2 📁 Processing_Router/
│   │   ├── 4.2.1 Api/
│   │   └── 4.2.2 Core/
│   │   └── 4.3.1 Orphan_Layer/
├── 6 📁 Edge/
│   └── 7.1 📁 Lost_Object/
│       └── 7.1.1 Lost_Layer/
`

func TestResolve(t *testing.T) {
	g := graph.Build(parser.ParseString(tree).Entities)

	tests := []struct {
		number model.Number
		want   string
		ok     bool
	}{
		{"4", "Processing", true},
		{"4.2", "Processing/Processing_Router", true},
		{"4.2.1", "Processing/Processing_Router/Api", true},
		{"4.3.1", "", false},
		{"7.1", "", false},
		{"7.1.1", "", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.number), func(t *testing.T) {
			e, ok := g.Get(tt.number)
			if !ok {
				t.Fatalf("entity %s not parsed", tt.number)
			}
			segs, ok := Resolve(g, e)
			if ok != tt.ok {
				t.Fatalf("Resolve ok = %v, want %v", ok, tt.ok)
			}
			if got := Join("", segs); got != tt.want {
				t.Errorf("Resolve = %q, want %q", got, tt.want)
			}
		})
	}
}

// Entities with no structural issue on themselves or their ancestors always
// resolve, with one segment per level.
func TestResolveAgreesWithValidator(t *testing.T) {
	g := graph.Build(parser.ParseString(tree).Entities)
	report := check.Validate(g)

	broken := map[model.Number]bool{}
	for _, issue := range report.Issues {
		if issue.Code == check.CodeMissingParent {
			broken[issue.Number] = true
		}
	}
	reachesBroken := func(n model.Number) bool {
		for i := n.Level(); i >= 1; i-- {
			if broken[n.Truncate(i)] {
				return true
			}
		}
		return false
	}

	for _, e := range g.All() {
		segs, ok := Resolve(g, e)
		if reachesBroken(e.Number) {
			if ok {
				t.Errorf("%s resolved to %v despite a missing ancestor", e.Number, segs)
			}
			continue
		}
		if !ok {
			t.Errorf("%s did not resolve", e.Number)
			continue
		}
		if len(segs) != e.Level {
			t.Errorf("%s: %d segments, level %d", e.Number, len(segs), e.Level)
		}
	}
}

func TestJoin(t *testing.T) {
	tests := []struct {
		root string
		segs []string
		want string
	}{
		{"Project", []string{"A", "B"}, "Project/A/B"},
		{"./Project/", []string{"A"}, "Project/A"},
		{"", []string{"A"}, "A"},
	}
	for _, tt := range tests {
		if got := Join(tt.root, tt.segs); got != tt.want {
			t.Errorf("Join(%q, %v) = %q, want %q", tt.root, tt.segs, got, tt.want)
		}
	}
}

func TestLayerPathFromFile(t *testing.T) {
	tests := []struct {
		root string
		file string
		want string
		ok   bool
	}{
		{"Project", "Project/Processing/Router/Core/router.go", "Processing/Router/Core", true},
		{"Project", "./Project/Processing/Router/Core/sub/x.go", "Processing/Router/Core", true},
		{"Project", "Other/Processing/Router/Core/router.go", "", false},
		{"Project", "Project/Processing/Router/router.go", "", false},
		{"", "Processing/Router/Core/router.go", "Processing/Router/Core", true},
	}
	for _, tt := range tests {
		got, ok := LayerPathFromFile(tt.root, tt.file)
		if got != tt.want || ok != tt.ok {
			t.Errorf("LayerPathFromFile(%q, %q) = %q, %v; want %q, %v", tt.root, tt.file, got, ok, tt.want, tt.ok)
		}
	}
}

func TestLayerPaths(t *testing.T) {
	g := graph.Build(parser.ParseString(tree).Entities)
	got := LayerPaths(g)
	if len(got) != 2 {
		t.Fatalf("LayerPaths = %v", got)
	}
	if _, ok := got["Processing/Processing_Router/Core"]; !ok {
		t.Errorf("missing Core layer path: %v", got)
	}
}
