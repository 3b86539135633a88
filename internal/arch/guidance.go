package arch

// Guidance is the fixed set of placement rules handed to agents asking
// where something belongs.
type Guidance struct {
	Question   string            `json:"question"`
	Principle  string            `json:"principle"`
	Rules      map[string]string `json:"rules"`
	Workflow   []string          `json:"workflow"`
	Suggestion string            `json:"suggestion"`
}

// Guidance answers an architectural question with the project's standing
// rules. The answer does not depend on the question.
func (s *Service) Guidance(question string) Guidance {
	return Guidance{
		Question:  question,
		Principle: "The canonical tree is the source of truth for the project layout.",
		Rules: map[string]string{
			"structural_entities_only": "Only domains and objects marked with 📁 (or registered with project_structure: true) get directories.",
			"classification":           "Classify new components in classifications.yaml before implementing them.",
			"numbering":                "Domains use bare integers, objects <domain>.<n>, layers <object>.<n>.",
			"mutation":                 "Change the layout through insert/remove, never by editing generated directories.",
		},
		Workflow: []string{
			"arbor_analyze to see the current tree",
			"arbor_lookup to check whether a name is already classified",
			"arbor_insert_entity with the next free number under the target domain",
			"arbor_validate to confirm the tree and generation root agree",
		},
		Suggestion: "Consult " + s.cfg.CanonicalPath + " and classifications.yaml for authoritative answers.",
	}
}
