package schema

import "github.com/jacentio/ddbschema/internal/value"

// Kind identifies the variant of an attribute.
type Kind string

const (
	KindAny     Kind = "any"
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindBinary  Kind = "binary"
	KindSet     Kind = "set"
	KindList    Kind = "list"
	KindMap     Kind = "map"
	KindRecord  Kind = "record"
	KindAnyOf   Kind = "anyOf"

	// KindSchema is the kind of a schema root.
	KindSchema Kind = "schema"
)

// IsPrimitive reports whether k is one of string, number, boolean or binary.
func (k Kind) IsPrimitive() bool {
	switch k {
	case KindString, KindNumber, KindBoolean, KindBinary:
		return true
	}
	return false
}

// Required controls when a value must be present.
type Required string

const (
	// Never makes the attribute optional in every mode.
	Never Required = "never"
	// AtLeastOnce requires the attribute on key and put, not on update.
	AtLeastOnce Required = "atLeastOnce"
	// Always requires the attribute in every mode.
	Always Required = "always"
)

// In reports whether a value is mandatory in mode m.
func (r Required) In(m Mode) bool {
	switch r {
	case Always:
		return true
	case AtLeastOnce:
		return m != ModeUpdate
	}
	return false
}

// Mode selects which defaults, links, validators and presence rules apply.
type Mode string

const (
	ModeKey    Mode = "key"
	ModePut    Mode = "put"
	ModeUpdate Mode = "update"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeKey || m == ModePut || m == ModeUpdate
}

func (m Mode) index() int {
	switch m {
	case ModeKey:
		return 0
	case ModeUpdate:
		return 2
	}
	return 1
}

// Set is a collection of primitive values with set semantics. It is the
// in-memory form of string, number and binary sets.
type Set []any

// MatchesKind reports whether v is a valid Go value for the primitive kind k.
func MatchesKind(k Kind, v any) bool {
	switch k {
	case KindString:
		_, ok := v.(string)
		return ok
	case KindNumber:
		return value.IsNumber(v)
	case KindBoolean:
		_, ok := v.(bool)
		return ok
	case KindBinary:
		_, ok := v.([]byte)
		return ok
	}
	return false
}
