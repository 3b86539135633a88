// Package model defines the core data types shared across arbor.
package model

// Entity is one node of the architecture tree, produced by the parser.
//
// An entity has no identity beyond its current number: removing it and adding
// it back under another number yields a new entity.
type Entity struct {
	// Name is the label normalized to word characters, e.g. "Processing_Router".
	Name string `json:"name"`

	// Kind is the structural role assigned by the parser's rule table.
	Kind Kind `json:"kind"`

	// Number is the dotted ordinal, e.g. "4.2".
	Number Number `json:"number"`

	// Level equals the number of components in Number.
	Level int `json:"level"`

	// Folder is true when the source line carried the folder glyph.
	Folder bool `json:"folder"`

	// Comment is the trailing "# ..." text of the source line, if any.
	Comment string `json:"comment,omitempty"`

	// Line is the 1-indexed line number in the canonical source.
	Line int `json:"line"`

	// Source is the original, unmodified line text.
	Source string `json:"-"`

	// Classification is filled in by the classification registry.
	Classification *Classification `json:"classification,omitempty"`
}

// Materializable reports whether the entity gets its own directory.
// Entities without a resolved classification never materialize.
func (e *Entity) Materializable() bool {
	return e.Classification != nil && e.Classification.Materialize
}

// Description returns the classification description, falling back to the
// inline comment.
func (e *Entity) Description() string {
	if e.Classification != nil && e.Classification.Description != "" {
		return e.Classification.Description
	}
	return e.Comment
}
