// Package parser turns canonical architecture tree text into entities.
//
// The grammar is one entity per line:
//
//	<indent+branch-glyph> <dotted-number> [📁] <label>[/] [# <comment>]
//
// Lines that do not match are skipped, never fatal, so the tree can live
// inside an ordinary markdown document next to headings and prose.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/aidanlsb/arbor/internal/model"
)

const (
	// BranchGlyph marks an entry with more siblings below it.
	BranchGlyph = "├──"
	// LastBranchGlyph marks the last sibling. Parsing treats both the same.
	LastBranchGlyph = "└──"
	// FolderGlyph marks a materializable entity (Domain or Object).
	FolderGlyph = "📁"
)

// ErrInvalidEncoding is returned when the input is not valid UTF-8.
var ErrInvalidEncoding = errors.New("canonical source is not valid UTF-8")

var (
	branchPattern = regexp.MustCompile(`[├└]──\s*(.+)$`)
	numberPattern = regexp.MustCompile(`^(\d+(?:\.\d+)*(?:\.[1-5])?)\s+`)
	nonWord       = regexp.MustCompile(`[^A-Za-z0-9_]+`)
	underscoreRun = regexp.MustCompile(`_{2,}`)
)

// SkipReason explains why a tree-looking line was excluded.
type SkipReason string

const (
	SkipNoNumber     SkipReason = "no leading number"
	SkipBadNumber    SkipReason = "malformed number"
	SkipEmptyName    SkipReason = "empty name"
	skipNotTreeEntry SkipReason = ""
)

// Skip records a line that carried a branch glyph but produced no entity.
type Skip struct {
	Line   int        `json:"line"`
	Reason SkipReason `json:"reason"`
	Text   string     `json:"text"`
}

// Stats aggregates counts over a parse.
type Stats struct {
	Domains  int `json:"domains"`
	Objects  int `json:"objects"`
	Layers   int `json:"layers"`
	MaxLevel int `json:"max_level"`
	Lines    int `json:"lines"`
}

// Total returns the number of entities counted.
func (s Stats) Total() int {
	return s.Domains + s.Objects + s.Layers
}

// Result is the outcome of parsing a canonical source.
type Result struct {
	Entities []*model.Entity
	Skipped  []Skip
	Stats    Stats
}

// Parse reads the whole canonical source and extracts its entities.
// It fails only if the reader fails or the content is not valid UTF-8.
func Parse(r io.Reader) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read canonical source: %w", err)
	}
	return ParseBytes(data)
}

// ParseBytes parses raw canonical source bytes.
func ParseBytes(data []byte) (*Result, error) {
	if !utf8.Valid(data) {
		return nil, ErrInvalidEncoding
	}
	return ParseString(string(data)), nil
}

// ParseString parses canonical source text. Malformed lines are recorded in
// Result.Skipped and never stop extraction of the rest of the document.
func ParseString(text string) *Result {
	res := &Result{}

	lines := SplitLines([]byte(text))
	for i, line := range lines {
		lineNum := i + 1
		entity, reason := ParseLine(line, lineNum)
		if entity == nil {
			if reason != skipNotTreeEntry {
				res.Skipped = append(res.Skipped, Skip{Line: lineNum, Reason: reason, Text: line})
			}
			continue
		}
		res.Entities = append(res.Entities, entity)
		res.Stats.add(entity)
	}
	res.Stats.Lines = len(lines)

	return res
}

// ParseLine parses a single line. It returns nil and the reason when the line
// does not describe an entity; lines that are not tree entries at all (prose,
// headings, blank lines) return nil with an empty reason.
func ParseLine(line string, lineNum int) (*model.Entity, SkipReason) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return nil, skipNotTreeEntry
	}
	if !strings.Contains(trimmed, BranchGlyph) && !strings.Contains(trimmed, LastBranchGlyph) {
		return nil, skipNotTreeEntry
	}

	m := branchPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return nil, skipNotTreeEntry
	}
	content := strings.TrimSpace(m[1])

	nm := numberPattern.FindStringSubmatch(content)
	if nm == nil {
		return nil, SkipNoNumber
	}
	number := model.Number(nm[1])
	if !number.Valid() {
		return nil, SkipBadNumber
	}

	label := content[len(nm[0]):]
	label, comment := splitComment(label)
	folder := strings.Contains(label, FolderGlyph)
	label = strings.ReplaceAll(label, FolderGlyph, "")
	label = strings.TrimSpace(label)
	label = strings.TrimSuffix(label, "/")

	name := NormalizeName(label)
	if name == "" {
		return nil, SkipEmptyName
	}

	level := number.Level()
	return &model.Entity{
		Name:    name,
		Kind:    model.KindFor(level, folder),
		Number:  number,
		Level:   level,
		Folder:  folder,
		Comment: comment,
		Line:    lineNum,
		Source:  line,
	}, skipNotTreeEntry
}

// LeadingNumber returns the number token that follows the branch glyph, if any.
func LeadingNumber(line string) (model.Number, bool) {
	m := branchPattern.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return "", false
	}
	nm := numberPattern.FindStringSubmatch(strings.TrimSpace(m[1]) + " ")
	if nm == nil {
		return "", false
	}
	return model.Number(nm[1]), true
}

// NormalizeName keeps word characters only: every other run becomes a single
// underscore, and leading/trailing underscores are trimmed.
func NormalizeName(label string) string {
	name := nonWord.ReplaceAllString(label, "_")
	name = underscoreRun.ReplaceAllString(name, "_")
	return strings.Trim(name, "_")
}

// splitComment separates a trailing "# comment" from the label.
func splitComment(label string) (string, string) {
	idx := strings.Index(label, " #")
	if idx < 0 {
		if strings.HasPrefix(label, "#") {
			return "", strings.TrimSpace(strings.TrimPrefix(label, "#"))
		}
		return label, ""
	}
	comment := strings.TrimSpace(label[idx+2:])
	return label[:idx], comment
}

func (s *Stats) add(e *model.Entity) {
	switch e.Kind {
	case model.KindDomain:
		s.Domains++
	case model.KindObject:
		s.Objects++
	case model.KindLayer:
		s.Layers++
	}
	if e.Level > s.MaxLevel {
		s.MaxLevel = e.Level
	}
}

// SplitLines splits text into lines, dropping the line terminators. A trailing
// newline does not produce an extra empty line; JoinLines restores it.
func SplitLines(data []byte) []string {
	text := string(bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n")))
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return []string{}
	}
	return strings.Split(text, "\n")
}

// JoinLines joins lines with "\n" and terminates the result with a newline.
func JoinLines(lines []string) []byte {
	if len(lines) == 0 {
		return nil
	}
	return []byte(strings.Join(lines, "\n") + "\n")
}
