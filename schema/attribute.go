package schema

import "github.com/jacentio/ddbschema/internal/value"

// Attribute is a frozen, path-stamped attribute. It is immutable and safe
// for concurrent use.
type Attribute struct {
	name       string
	path       string
	kind       Kind
	required   Required
	hidden     bool
	key        bool
	savedAs    string
	defaults   [3]any
	links      [3]any
	validators [3]ValidatorFunc

	enum      []any
	transform Transformer

	elements     *Attribute
	keys         *Attribute
	attributes   []*Attribute
	byName       map[string]*Attribute
	alternatives []*Attribute
}

// Name is the declared name within the parent map or schema. Elements,
// record keys and alternatives have no name.
func (a *Attribute) Name() string { return a.name }

// Path is the dotted location of the attribute in its schema.
func (a *Attribute) Path() string { return a.path }

func (a *Attribute) Kind() Kind { return a.kind }

func (a *Attribute) Required() Required { return a.required }

// IsRequired reports whether a value must be present in mode m.
func (a *Attribute) IsRequired(m Mode) bool { return a.required.In(m) }

func (a *Attribute) Hidden() bool { return a.hidden }

func (a *Attribute) Key() bool { return a.key }

// SavedAs returns the rename target, or "" when none is configured.
func (a *Attribute) SavedAs() string { return a.savedAs }

// StoredName is the name the attribute is stored under.
func (a *Attribute) StoredName() string {
	if a.savedAs != "" {
		return a.savedAs
	}
	return a.name
}

// Enum returns the allowed values, or nil when unconstrained.
func (a *Attribute) Enum() []any {
	if a.enum == nil {
		return nil
	}
	return append([]any(nil), a.enum...)
}

// InEnum reports whether v is allowed by the enum constraint.
func (a *Attribute) InEnum(v any) bool {
	if a.enum == nil {
		return true
	}
	for _, e := range a.enum {
		if value.Equal(e, v) {
			return true
		}
	}
	return false
}

// Transformer returns the configured transformer, or nil.
func (a *Attribute) Transformer() Transformer { return a.transform }

// Elements returns the element attribute of a set, list or record.
func (a *Attribute) Elements() *Attribute { return a.elements }

// Keys returns the key attribute of a record.
func (a *Attribute) Keys() *Attribute { return a.keys }

// Attributes returns the children of a map or schema in declaration order.
func (a *Attribute) Attributes() []*Attribute {
	return append([]*Attribute(nil), a.attributes...)
}

// Attribute looks up a child of a map or schema by declared name.
func (a *Attribute) Attribute(name string) (*Attribute, bool) {
	child, ok := a.byName[name]
	return child, ok
}

// Alternatives returns the alternatives of an anyOf attribute.
func (a *Attribute) Alternatives() []*Attribute {
	return append([]*Attribute(nil), a.alternatives...)
}

// slot returns the index of the defaults, links and validators used in mode
// m. Key attributes always use their key mode configuration.
func (a *Attribute) slot(m Mode) int {
	if a.key {
		return ModeKey.index()
	}
	return m.index()
}

// HasDefault reports whether a default is configured for mode m.
func (a *Attribute) HasDefault(m Mode) bool { return a.defaults[a.slot(m)] != nil }

// Default evaluates the default for mode m. Producers are called; literal
// values are deep copied.
func (a *Attribute) Default(m Mode) any {
	switch d := a.defaults[a.slot(m)].(type) {
	case nil:
		return nil
	case DefaultFunc:
		return d()
	case func() any:
		return d()
	default:
		return value.Copy(d)
	}
}

// HasLink reports whether a link is configured for mode m.
func (a *Attribute) HasLink(m Mode) bool { return a.links[a.slot(m)] != nil }

// Link evaluates the link for mode m against the defaulted item.
func (a *Attribute) Link(m Mode, item map[string]any) any {
	switch l := a.links[a.slot(m)].(type) {
	case nil:
		return nil
	case LinkFunc:
		return l(item)
	case func(map[string]any) any:
		return l(item)
	default:
		return value.Copy(l)
	}
}

// Validator returns the custom validator for mode m, or nil.
func (a *Attribute) Validator(m Mode) ValidatorFunc { return a.validators[a.slot(m)] }

// RunValidator applies the custom validator configured for mode m. A rejected
// value yields a parsing.customValidationFailed error; the validator's own
// error is kept as the payload's ValidationResult unless it came from Check.
func (a *Attribute) RunValidator(m Mode, v any) error {
	fn := a.validators[a.slot(m)]
	if fn == nil {
		return nil
	}
	err := fn(v, a)
	if err == nil {
		return nil
	}

	payload := Payload{Received: v}
	if err != errValidationRejected {
		payload.ValidationResult = err
	}
	return NewError(CodeCustomValidationFailed, a.path, payload,
		"Custom validation for attribute%s failed.", At(a.path))
}
