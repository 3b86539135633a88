package model

import "fmt"

// Kind is the structural role of an entity in the architecture tree.
// It is assigned once, at parse time, and never re-derived afterwards.
type Kind int

const (
	KindDomain Kind = iota + 1
	KindObject
	KindLayer
)

// Kinds lists every kind in hierarchy order.
var Kinds = []Kind{KindDomain, KindObject, KindLayer}

func (k Kind) String() string {
	switch k {
	case KindDomain:
		return "domain"
	case KindObject:
		return "object"
	case KindLayer:
		return "layer"
	default:
		return "unknown"
	}
}

// ParseKind converts a kind name back into a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "domain":
		return KindDomain, nil
	case "object":
		return KindObject, nil
	case "layer":
		return KindLayer, nil
	}
	return 0, fmt.Errorf("unknown entity kind %q", s)
}

// MarshalText implements encoding.TextMarshaler so kinds render as names in JSON.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// KindFor applies the kind rule table: a folder glyph on a single-component
// number is a Domain, a folder glyph on a deeper number is an Object, and
// everything else is a Layer.
func KindFor(components int, folder bool) Kind {
	switch {
	case folder && components == 1:
		return KindDomain
	case folder && components >= 2:
		return KindObject
	default:
		return KindLayer
	}
}
