package formatter

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/jacentio/ddbschema/internal/value"
	"github.com/jacentio/ddbschema/schema"
)

type options struct {
	attributes []string
	projected  bool
	partial    bool
}

// Option configures a format call.
type Option func(*options)

// Attributes restricts the output to the given attribute paths, such as
// "name", "address.city" or "tags[0].label". List indexes match every
// element of the list.
func Attributes(paths ...string) Option {
	return func(o *options) {
		o.attributes = append(o.attributes, paths...)
		o.projected = true
	}
}

// Partial allows any attribute to be absent from the stored value.
func Partial() Option {
	return func(o *options) { o.partial = true }
}

// Format turns a stored item into its user facing form. Stored names are
// mapped back to declared names and hidden attributes are dropped.
func Format(s *schema.Schema, stored any, opts ...Option) (map[string]any, error) {
	out, err := FormatAttribute(s.Root(), stored, opts...)
	if err != nil {
		return nil, err
	}
	item, _ := out.(map[string]any)
	return item, nil
}

// FormatAttribute formats a single stored attribute value.
func FormatAttribute(attr *schema.Attribute, stored any, opts ...Option) (any, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	f := formatter{partial: o.partial}
	var paths []string
	if o.projected {
		paths = append([]string{}, o.attributes...)
	}
	return f.format(attr, stored, paths)
}

// Decode copies a formatted value into target, a pointer to a struct or map.
// Struct fields are matched through their ddb tags.
func Decode(formatted any, target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: value.TagName,
		Result:  target,
	})
	if err != nil {
		return fmt.Errorf("formatter: %w", err)
	}
	if err := dec.Decode(formatted); err != nil {
		return fmt.Errorf("formatter: decode: %w", err)
	}
	return nil
}

type formatter struct {
	partial bool
}

// format walks attr and raw in parallel. A nil paths slice projects every
// attribute.
func (f formatter) format(attr *schema.Attribute, raw any, paths []string) (any, error) {
	if attr.Kind() == schema.KindSchema {
		m, ok := value.AsMap(raw)
		if !ok {
			return nil, schema.NewError(schema.CodeFormatterInvalidItem, "",
				schema.Payload{Received: raw, Expected: "object"},
				"Invalid item detected while formatting. Should be an object.")
		}
		return f.formatFields(attr, m, paths, true)
	}

	if raw == nil {
		if !f.partial && attr.Required() != schema.Never {
			return nil, schema.NewError(schema.CodeMissingAttribute, attr.Path(), schema.Payload{},
				"Missing required attribute while formatting%s.", schema.At(attr.Path()))
		}
		return nil, nil
	}

	switch attr.Kind() {
	case schema.KindAny:
		return value.Copy(raw), nil
	case schema.KindString, schema.KindNumber, schema.KindBoolean, schema.KindBinary:
		return f.formatPrimitive(attr, raw)
	case schema.KindSet:
		return f.formatSet(attr, raw)
	case schema.KindList:
		return f.formatList(attr, raw, paths)
	case schema.KindMap:
		m, ok := value.AsMap(raw)
		if !ok {
			return nil, invalidAttribute(attr, raw)
		}
		return f.formatFields(attr, m, paths, false)
	case schema.KindRecord:
		return f.formatRecord(attr, raw, paths)
	case schema.KindAnyOf:
		return f.formatAnyOf(attr, raw, paths)
	}
	return nil, invalidAttribute(attr, raw)
}

func invalidAttribute(attr *schema.Attribute, raw any) error {
	return schema.NewError(schema.CodeInvalidAttribute, attr.Path(),
		schema.Payload{Received: raw, Expected: attr.Kind()},
		"Invalid attribute detected while formatting%s. Should be a %s.",
		schema.At(attr.Path()), attr.Kind())
}

func (f formatter) formatPrimitive(attr *schema.Attribute, raw any) (any, error) {
	if !schema.MatchesKind(attr.Kind(), raw) {
		return nil, invalidAttribute(attr, raw)
	}

	out := value.Copy(raw)
	if tr := attr.Transformer(); tr != nil {
		decoded, err := tr.Decode(out)
		if err != nil {
			return nil, schema.NewError(schema.CodeInvalidAttribute, attr.Path(),
				schema.Payload{Received: raw, ValidationResult: err},
				"Unable to decode attribute%s: %v", schema.At(attr.Path()), err)
		}
		out = decoded
	}

	if !attr.InEnum(out) {
		enum := attr.Enum()
		parts := make([]string, len(enum))
		for i, e := range enum {
			parts[i] = fmt.Sprint(e)
		}
		return nil, schema.NewError(schema.CodeInvalidAttribute, attr.Path(),
			schema.Payload{Received: out, Expected: enum},
			"Invalid attribute detected while formatting%s. Should be one of: %s.",
			schema.At(attr.Path()), strings.Join(parts, ", "))
	}
	return out, nil
}

func (f formatter) formatSet(attr *schema.Attribute, raw any) (any, error) {
	elements, ok := value.AsSlice(raw)
	if !ok {
		return nil, invalidAttribute(attr, raw)
	}

	out := make(schema.Set, 0, len(elements))
	for _, e := range elements {
		fe, err := f.format(attr.Elements(), e, nil)
		if err != nil {
			return nil, err
		}
		if fe != nil {
			out = append(out, fe)
		}
	}
	return out, nil
}

var listIndex = regexp.MustCompile(`^\[\d+\]`)

func (f formatter) formatList(attr *schema.Attribute, raw any, paths []string) (any, error) {
	elements, ok := value.AsSlice(raw)
	if !ok {
		return nil, invalidAttribute(attr, raw)
	}

	// A list reached through a projection is either fully projected (paths
	// is nil) or projected through its elements.
	var children []string
	if paths != nil {
		children = []string{}
		for _, p := range paths {
			loc := listIndex.FindStringIndex(p)
			if loc == nil {
				continue
			}
			rest := p[loc[1]:]
			if rest == "" {
				children = nil
				break
			}
			children = append(children, rest)
		}
	}

	out := make([]any, 0, len(elements))
	for _, e := range elements {
		fe, err := f.format(attr.Elements(), e, children)
		if err != nil {
			return nil, err
		}
		if fe != nil {
			out = append(out, fe)
		}
	}
	return out, nil
}

func (f formatter) formatFields(attr *schema.Attribute, m map[string]any, paths []string, root bool) (any, error) {
	out := make(map[string]any, len(m))
	for _, child := range attr.Attributes() {
		if child.Hidden() {
			continue
		}

		prefix := "." + child.Name()
		if root {
			prefix = child.Name()
		}
		projected, children := matchProjection(prefix, paths)
		if !projected {
			continue
		}

		fv, err := f.format(child, m[child.StoredName()], children)
		if err != nil {
			return nil, err
		}
		if fv != nil {
			out[child.Name()] = fv
		}
	}
	return out, nil
}

func (f formatter) formatRecord(attr *schema.Attribute, raw any, paths []string) (any, error) {
	m, ok := value.AsMap(raw)
	if !ok {
		return nil, invalidAttribute(attr, raw)
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]any, len(m))
	for _, k := range keys {
		fk, err := f.formatPrimitive(attr.Keys(), k)
		if err != nil {
			return nil, err
		}
		key, ok := fk.(string)
		if !ok {
			return nil, invalidAttribute(attr.Keys(), fk)
		}

		projected, children := matchProjection("."+key, paths)
		if !projected {
			continue
		}

		fv, err := f.format(attr.Elements(), m[k], children)
		if err != nil {
			return nil, err
		}
		if fv != nil {
			out[key] = fv
		}
	}
	return out, nil
}

func (f formatter) formatAnyOf(attr *schema.Attribute, raw any, paths []string) (any, error) {
	var errs []error
	for _, alt := range attr.Alternatives() {
		out, err := f.format(alt, raw, paths)
		if err == nil {
			return out, nil
		}
		errs = append(errs, err)
	}
	return nil, schema.NewError(schema.CodeInvalidAttribute, attr.Path(),
		schema.Payload{Received: raw, Alternatives: errs},
		"Invalid attribute detected while formatting%s. Does not match any of its alternatives.",
		schema.At(attr.Path()))
}

// matchProjection reports whether an attribute addressed by prefix is part
// of the projection, and which sub-paths of it are. A nil children slice
// means the whole attribute is projected.
func matchProjection(prefix string, paths []string) (projected bool, children []string) {
	if paths == nil {
		return true, nil
	}
	for _, p := range paths {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		rest := p[len(prefix):]
		if rest == "" {
			return true, nil
		}
		if rest[0] == '.' || rest[0] == '[' {
			children = append(children, rest)
		}
	}
	return len(children) > 0, children
}
