package schema

import (
	"fmt"
	"strconv"
)

// Freeze validates the definition and returns an immutable attribute stamped
// with path.
func (d Def) Freeze(path string) (*Attribute, error) {
	return d.freeze("", path)
}

// MustFreeze is like Freeze but panics on error. It is meant for package
// level schema declarations.
func (d Def) MustFreeze(path string) *Attribute {
	a, err := d.Freeze(path)
	if err != nil {
		panic(err)
	}
	return a
}

func (d Def) freeze(name, path string) (*Attribute, error) {
	if d.kind == "" {
		return nil, NewError(CodeInvalidDefinition, path, Payload{},
			"Invalid attribute definition%s. Missing kind.", At(path))
	}
	if d.key && d.required == Never {
		return nil, NewError(CodeInvalidDefinition, path, Payload{Received: d.required},
			"Invalid attribute definition%s. Key attributes cannot be optional.", At(path))
	}
	if d.enum != nil {
		if err := checkEnum(d, path); err != nil {
			return nil, err
		}
	}
	if d.transform != nil && !d.kind.IsPrimitive() {
		return nil, NewError(CodeInvalidDefinition, path, Payload{Received: d.kind},
			"Invalid attribute definition%s. Only primitives can be transformed.", At(path))
	}

	a := &Attribute{
		name:       name,
		path:       path,
		kind:       d.kind,
		required:   d.required,
		hidden:     d.hidden,
		key:        d.key,
		savedAs:    d.savedAs,
		defaults:   d.defaults,
		links:      d.links,
		validators: d.validators,
		enum:       d.enum,
		transform:  d.transform,
	}

	var err error
	switch d.kind {
	case KindSet:
		if err = checkElements(d.elements, path); err != nil {
			return nil, err
		}
		switch d.elements.kind {
		case KindString, KindNumber, KindBinary:
		default:
			return nil, NewError(CodeInvalidElements, path, Payload{Received: d.elements.kind},
				"Invalid set elements%s. Sets only hold strings, numbers or binaries.", At(path))
		}
		a.elements, err = d.elements.freeze("", path+"[x]")
	case KindList:
		if err = checkElements(d.elements, path); err != nil {
			return nil, err
		}
		a.elements, err = d.elements.freeze("", path+"[n]")
	case KindRecord:
		if err = checkElements(d.keys, path); err != nil {
			return nil, err
		}
		if d.keys.kind != KindString {
			return nil, NewError(CodeInvalidElements, path, Payload{Received: d.keys.kind},
				"Invalid record keys%s. Record keys must be strings.", At(path))
		}
		if err = checkElements(d.elements, path); err != nil {
			return nil, err
		}
		if a.keys, err = d.keys.freeze("", path+" (KEY)"); err != nil {
			return nil, err
		}
		a.elements, err = d.elements.freeze("", path+"[string]")
	case KindAnyOf:
		if len(d.alternatives) == 0 {
			return nil, NewError(CodeInvalidElements, path, Payload{},
				"Invalid anyOf elements%s. At least one alternative is required.", At(path))
		}
		a.alternatives = make([]*Attribute, 0, len(d.alternatives))
		for i := range d.alternatives {
			alt := d.alternatives[i]
			if err = checkElements(&alt, path); err != nil {
				return nil, err
			}
			frozen, err := alt.freeze("", path)
			if err != nil {
				return nil, err
			}
			a.alternatives = append(a.alternatives, frozen)
		}
	case KindMap, KindSchema:
		a.attributes, a.byName, err = freezeFields(d.fields, path, d.kind == KindSchema)
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func freezeFields(fields []Field, path string, root bool) ([]*Attribute, map[string]*Attribute, error) {
	attrs := make([]*Attribute, 0, len(fields))
	byName := make(map[string]*Attribute, len(fields))
	stored := make(map[string]string, len(fields))

	for _, f := range fields {
		if f.Name == "" {
			return nil, nil, NewError(CodeInvalidAttributeName, path, Payload{Received: f.Name},
				"Invalid attribute name%s. Names cannot be empty.", At(path))
		}
		if _, ok := byName[f.Name]; ok {
			return nil, nil, NewError(CodeDuplicateAttributeNames, path, Payload{Received: f.Name},
				"Invalid schema%s. Attribute name '%s' is declared twice.", At(path), f.Name)
		}

		childPath := f.Name
		if !root && path != "" {
			childPath = path + "." + f.Name
		}
		child, err := f.Def.freeze(f.Name, childPath)
		if err != nil {
			return nil, nil, err
		}

		storedName := child.StoredName()
		if other, ok := stored[storedName]; ok {
			return nil, nil, NewError(CodeDuplicateSavedAs, path, Payload{Received: storedName},
				"Invalid schema%s. Attributes '%s' and '%s' are both stored as '%s'.",
				At(path), other, f.Name, storedName)
		}
		stored[storedName] = f.Name
		byName[f.Name] = child
		attrs = append(attrs, child)
	}
	return attrs, byName, nil
}

func checkElements(d *Def, path string) error {
	if d == nil {
		return NewError(CodeInvalidElements, path, Payload{},
			"Invalid elements%s. Elements are missing.", At(path))
	}

	var reason string
	switch {
	case d.required != AtLeastOnce:
		reason = "Elements must be required."
	case d.hidden:
		reason = "Elements cannot be hidden."
	case d.key:
		reason = "Elements cannot be part of the primary key."
	case d.savedAs != "":
		reason = "Elements cannot be renamed."
	case d.hasFill():
		reason = "Elements cannot have default or linked values."
	default:
		return nil
	}
	return NewError(CodeInvalidElements, path, Payload{},
		"Invalid elements%s. %s", At(path), reason)
}

func checkEnum(d Def, path string) error {
	if !d.kind.IsPrimitive() {
		return NewError(CodeInvalidEnum, path, Payload{Received: d.kind},
			"Invalid enum%s. Only primitives accept an enum.", At(path))
	}
	for i, v := range d.enum {
		if !MatchesKind(d.kind, v) {
			return NewError(CodeInvalidEnum, path, Payload{Received: v, Expected: d.kind},
				"Invalid enum%s. Value %s at index %d is not a %s.",
				At(path), strconv.Quote(fmt.Sprint(v)), i, d.kind)
		}
	}
	return nil
}
