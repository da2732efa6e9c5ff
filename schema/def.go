package schema

// DefaultFunc produces a default value on demand.
type DefaultFunc func() any

// LinkFunc derives a value from the defaulted item being parsed.
type LinkFunc func(item map[string]any) any

// ValidatorFunc rejects a value by returning a non-nil error.
type ValidatorFunc func(value any, attr *Attribute) error

// Check adapts a predicate into a ValidatorFunc.
func Check(fn func(value any) bool) ValidatorFunc {
	return func(value any, _ *Attribute) error {
		if fn(value) {
			return nil
		}
		return errValidationRejected
	}
}

var errValidationRejected = &validationRejected{}

type validationRejected struct{}

func (*validationRejected) Error() string { return "value rejected by validator" }

// Def is an attribute definition under construction. Every method returns a
// new Def and leaves the receiver untouched; Freeze turns it into an
// immutable *Attribute.
type Def struct {
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

	elements     *Def
	keys         *Def
	fields       []Field
	alternatives []Def
}

// Field pairs a child attribute definition with its declared name.
type Field struct {
	Name string
	Def  Def
}

// Attr names a definition for use in Map, New and Schema.And.
func Attr(name string, def Def) Field {
	return Field{Name: name, Def: def}
}

func newDef(kind Kind) Def {
	return Def{kind: kind, required: AtLeastOnce}
}

// Any is an unconstrained attribute.
func Any() Def { return newDef(KindAny) }

// String is a string attribute.
func String() Def { return newDef(KindString) }

// Number is a number attribute.
func Number() Def { return newDef(KindNumber) }

// Boolean is a boolean attribute.
func Boolean() Def { return newDef(KindBoolean) }

// Binary is a binary attribute.
func Binary() Def { return newDef(KindBinary) }

// SetOf is a set of string, number or binary elements.
func SetOf(elements Def) Def {
	d := newDef(KindSet)
	d.elements = &elements
	return d
}

// List is an ordered list of elements.
func List(elements Def) Def {
	d := newDef(KindList)
	d.elements = &elements
	return d
}

// Map is a nested record with fixed, ordered attributes.
func Map(fields ...Field) Def {
	d := newDef(KindMap)
	d.fields = append([]Field(nil), fields...)
	return d
}

// Record maps dynamic string keys to values of a single shape.
func Record(keys, elements Def) Def {
	d := newDef(KindRecord)
	d.keys = &keys
	d.elements = &elements
	return d
}

// AnyOf accepts a value matching one of the alternatives. Alternatives are
// tried in order and the first match wins.
func AnyOf(alternatives ...Def) Def {
	d := newDef(KindAnyOf)
	d.alternatives = append([]Def(nil), alternatives...)
	return d
}

// Kind returns the variant of the definition.
func (d Def) Kind() Kind { return d.kind }

// Required sets when the attribute must be present.
func (d Def) Required(r Required) Def {
	d.required = r
	return d
}

// Optional is shorthand for Required(Never).
func (d Def) Optional() Def {
	return d.Required(Never)
}

// Hidden removes the attribute from formatted output.
func (d Def) Hidden() Def {
	d.hidden = true
	return d
}

// Key tags the attribute as part of the primary key. Key attributes are
// always required and use their key mode defaults, links and validators in
// every mode.
func (d Def) Key() Def {
	d.key = true
	d.required = Always
	return d
}

// SavedAs stores the attribute under another name.
func (d Def) SavedAs(name string) Def {
	d.savedAs = name
	return d
}

func (d Def) withDefault(m Mode, v any) Def {
	d.defaults[m.index()] = v
	return d
}

// KeyDefault provides a value, or a func() any producer, used in key mode.
func (d Def) KeyDefault(v any) Def { return d.withDefault(ModeKey, v) }

// PutDefault provides a value, or a func() any producer, used in put mode.
func (d Def) PutDefault(v any) Def { return d.withDefault(ModePut, v) }

// UpdateDefault provides a value, or a func() any producer, used in update
// mode.
func (d Def) UpdateDefault(v any) Def { return d.withDefault(ModeUpdate, v) }

// Default sets the key default of a key attribute, the put default otherwise.
func (d Def) Default(v any) Def {
	if d.key {
		return d.KeyDefault(v)
	}
	return d.PutDefault(v)
}

func (d Def) withLink(m Mode, v any) Def {
	d.links[m.index()] = v
	return d
}

// KeyLink provides a value derived from the defaulted key input.
func (d Def) KeyLink(v any) Def { return d.withLink(ModeKey, v) }

// PutLink provides a value derived from the defaulted put input.
func (d Def) PutLink(v any) Def { return d.withLink(ModePut, v) }

// UpdateLink provides a value derived from the defaulted update input.
func (d Def) UpdateLink(v any) Def { return d.withLink(ModeUpdate, v) }

// Link sets the key link of a key attribute, the put link otherwise. v is a
// literal or a func(map[string]any) any.
func (d Def) Link(v any) Def {
	if d.key {
		return d.KeyLink(v)
	}
	return d.PutLink(v)
}

func (d Def) withValidator(m Mode, fn ValidatorFunc) Def {
	d.validators[m.index()] = fn
	return d
}

// KeyValidate runs fn on the value in key mode.
func (d Def) KeyValidate(fn ValidatorFunc) Def { return d.withValidator(ModeKey, fn) }

// PutValidate runs fn on the value in put mode.
func (d Def) PutValidate(fn ValidatorFunc) Def { return d.withValidator(ModePut, fn) }

// UpdateValidate runs fn on the value in update mode.
func (d Def) UpdateValidate(fn ValidatorFunc) Def { return d.withValidator(ModeUpdate, fn) }

// Validate sets the key validator of a key attribute, the put validator
// otherwise.
func (d Def) Validate(fn ValidatorFunc) Def {
	if d.key {
		return d.KeyValidate(fn)
	}
	return d.PutValidate(fn)
}

// Enum restricts a primitive attribute to the given values.
func (d Def) Enum(values ...any) Def {
	d.enum = append([]any(nil), values...)
	return d
}

// Const restricts a primitive attribute to a single value and defaults it.
func (d Def) Const(v any) Def {
	return d.Enum(v).Default(v)
}

// Transform encodes primitive values on write and decodes them on read.
func (d Def) Transform(t Transformer) Def {
	d.transform = t
	return d
}

// hasFill reports whether any default or link is configured.
func (d Def) hasFill() bool {
	for i := range d.defaults {
		if d.defaults[i] != nil || d.links[i] != nil {
			return true
		}
	}
	return false
}
