package model

// Classification is the registry record attached to an entity.
type Classification struct {
	// Materialize is project_structure && ascii_tree: the entity gets a directory.
	Materialize bool `json:"materialize"`

	// Layers are the declared layer names, in order (Objects only).
	Layers []string `json:"layers,omitempty"`

	// DomainNumber is the number recorded in the registry, for cross-reference.
	DomainNumber string `json:"domain_number,omitempty"`

	// Description is a short human-readable summary.
	Description string `json:"description,omitempty"`

	// Type is the registry category, e.g. "core_object" or "conceptual_entity".
	Type string `json:"type,omitempty"`

	// Hyperlink controls whether documentation may link the entity.
	Hyperlink bool `json:"hyperlink"`

	// Registered is false when the record was synthesized from defaults.
	Registered bool `json:"registered"`
}

// CodeEntity is a record handed over by the external source-entity extractor.
type CodeEntity struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	FilePath   string `json:"filePath"`
	LineNumber int    `json:"lineNumber"`
}

// ID returns the stable identifier used by the mapping index.
func (c CodeEntity) ID() string {
	return c.FilePath + ":" + c.Name
}
