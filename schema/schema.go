package schema

// Schema is a frozen, ordered collection of attributes describing one record
// type.
type Schema struct {
	fields []Field
	root   *Attribute
}

// New freezes fields into a Schema.
func New(fields ...Field) (*Schema, error) {
	d := newDef(KindSchema)
	d.required = Always
	d.fields = append([]Field(nil), fields...)

	root, err := d.freeze("", "")
	if err != nil {
		return nil, err
	}
	return &Schema{fields: d.fields, root: root}, nil
}

// MustNew is like New but panics on error.
func MustNew(fields ...Field) *Schema {
	s, err := New(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// And returns a new Schema holding the receiver's attributes followed by
// fields. The receiver is unchanged.
func (s *Schema) And(fields ...Field) (*Schema, error) {
	all := make([]Field, 0, len(s.fields)+len(fields))
	all = append(all, s.fields...)
	all = append(all, fields...)
	return New(all...)
}

// Root returns the schema as an attribute of kind KindSchema.
func (s *Schema) Root() *Attribute { return s.root }

// Attributes returns the top-level attributes in declaration order.
func (s *Schema) Attributes() []*Attribute { return s.root.Attributes() }

// Attribute looks up a top-level attribute by declared name.
func (s *Schema) Attribute(name string) (*Attribute, bool) { return s.root.Attribute(name) }

// KeyAttributes returns the attributes tagged as primary key.
func (s *Schema) KeyAttributes() []*Attribute {
	var keys []*Attribute
	for _, a := range s.root.attributes {
		if a.key {
			keys = append(keys, a)
		}
	}
	return keys
}
