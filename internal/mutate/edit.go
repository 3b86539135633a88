// Package mutate edits the canonical source by line surgery.
//
// Every mutation is planned first as an edit list over a fixed line array and
// then applied in one pass. Planning is pure, so the splice and cascade rules
// can be tested without touching the filesystem.
package mutate

import (
	"errors"
	"fmt"
)

// Op is the kind of a single edit.
type Op int

const (
	OpInsert Op = iota + 1
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpInsert:
		return "insert"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Edit is one (line index, operation) pair. Index always refers to the
// original line array: an insert places Line before the original line at
// Index (or at the end when Index == len(lines)); a delete drops the original
// line at Index.
type Edit struct {
	Index int
	Op    Op
	Line  string
}

// ErrEditOutOfRange is returned by Apply for an index outside the line array.
var ErrEditOutOfRange = errors.New("edit index out of range")

// Apply produces the edited lines. Inserts sharing an index keep their order
// in edits, which gives the same result as splicing them deepest-last at a
// fixed index. The input slice is not modified.
func Apply(lines []string, edits []Edit) ([]string, error) {
	inserts := make(map[int][]string)
	deletes := make(map[int]bool)
	added := 0

	for _, e := range edits {
		switch e.Op {
		case OpInsert:
			if e.Index < 0 || e.Index > len(lines) {
				return nil, fmt.Errorf("%w: insert at %d of %d lines", ErrEditOutOfRange, e.Index, len(lines))
			}
			inserts[e.Index] = append(inserts[e.Index], e.Line)
			added++
		case OpDelete:
			if e.Index < 0 || e.Index >= len(lines) {
				return nil, fmt.Errorf("%w: delete at %d of %d lines", ErrEditOutOfRange, e.Index, len(lines))
			}
			deletes[e.Index] = true
		default:
			return nil, fmt.Errorf("unknown edit op %d", e.Op)
		}
	}

	out := make([]string, 0, len(lines)+added-len(deletes))
	for i, line := range lines {
		out = append(out, inserts[i]...)
		if !deletes[i] {
			out = append(out, line)
		}
	}
	out = append(out, inserts[len(lines)]...)
	return out, nil
}
