// Package check computes structural validation reports over an entity graph.
package check

import (
	"fmt"

	"github.com/aidanlsb/arbor/internal/graph"
	"github.com/aidanlsb/arbor/internal/model"
)

// IssueCode identifies the kind of structural issue.
type IssueCode string

const (
	CodeMissingParent   IssueCode = "missing_parent"
	CodeBadDomainNumber IssueCode = "bad_domain_number"
	CodeDuplicateNumber IssueCode = "duplicate_number"
)

// IssueLevel indicates the severity of an issue.
type IssueLevel int

const (
	LevelError IssueLevel = iota
	LevelWarning
)

func (l IssueLevel) String() string {
	switch l {
	case LevelError:
		return "ERROR"
	case LevelWarning:
		return "WARN"
	default:
		return "UNKNOWN"
	}
}

// MarshalText renders the level name in JSON output.
func (l IssueLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Issue is one structural problem found in the graph.
type Issue struct {
	Code    IssueCode    `json:"code"`
	Level   IssueLevel   `json:"level"`
	Number  model.Number `json:"number"`
	Line    int          `json:"line"`
	Message string       `json:"message"`
}

func (i Issue) String() string {
	return i.Message
}

// Report is the outcome of Validate.
type Report struct {
	Valid  bool    `json:"valid"`
	Issues []Issue `json:"issues"`
	Score  int     `json:"score"`
}

// Messages returns the issue messages in order.
func (r *Report) Messages() []string {
	out := make([]string, 0, len(r.Issues))
	for _, issue := range r.Issues {
		out = append(out, issue.Message)
	}
	return out
}

// Count returns how many issues carry code.
func (r *Report) Count(code IssueCode) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Code == code {
			n++
		}
	}
	return n
}

// Validate checks parent existence, domain number format and number
// uniqueness. It never fails; problems are only reported.
func Validate(g *graph.Graph) *Report {
	var issues []Issue

	for _, e := range g.All() {
		if e.Level <= 1 {
			continue
		}
		parent := e.Number.Parent()
		if !g.Has(parent) {
			issues = append(issues, Issue{
				Code:    CodeMissingParent,
				Level:   LevelError,
				Number:  e.Number,
				Line:    e.Line,
				Message: fmt.Sprintf("Missing parent for %s: parent %s not found", e.Number, parent),
			})
		}
	}

	for _, e := range g.All() {
		if e.Level == 1 && !e.Number.IsBareInteger() {
			issues = append(issues, Issue{
				Code:    CodeBadDomainNumber,
				Level:   LevelError,
				Number:  e.Number,
				Line:    e.Line,
				Message: fmt.Sprintf("Invalid domain number format: %s", e.Number),
			})
		}
	}

	for _, d := range g.Duplicates() {
		issues = append(issues, Issue{
			Code:    CodeDuplicateNumber,
			Level:   LevelWarning,
			Number:  d.Number,
			Line:    d.Line,
			Message: fmt.Sprintf("Duplicate number %s at line %d (first defined at line %d)", d.Number, d.Line, d.FirstLine),
		})
	}

	if issues == nil {
		issues = []Issue{}
	}
	return &Report{
		Valid:  len(issues) == 0,
		Issues: issues,
		Score:  Score(len(issues)),
	}
}

// Score is 100 minus 10 per issue, floored at zero.
func Score(issueCount int) int {
	score := 100 - 10*issueCount
	if score < 0 {
		return 0
	}
	return score
}
