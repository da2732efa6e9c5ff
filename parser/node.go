package parser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jacentio/ddbschema/internal/value"
	"github.com/jacentio/ddbschema/schema"
)

// node carries the per-attribute parsing state between stages. Container
// nodes hold one child node per element, built from the defaulted value when
// filling and from the input otherwise.
type node struct {
	attr  *schema.Attribute
	opts  *options
	value any

	// map, schema and record values keyed by input name
	children map[string]*node
	order    []string
	extras   map[string]any

	// record keys keyed by input name
	keys map[string]*node

	// list and set elements
	items []*node

	// anyOf state: fill is set once the node went through the defaulted
	// stage; committed holds the outcome of running the alternatives at the
	// linked stage.
	fill      bool
	committed bool
	alt       *node
	altParsed any
	altOut    any
	altErr    error
}

func newNode(attr *schema.Attribute, v any, opts *options) *node {
	return &node{attr: attr, opts: opts, value: v}
}

func (n *node) kind() schema.Kind { return n.attr.Kind() }

func (n *node) path() string { return n.attr.Path() }

// defaulted fills in mode defaults. The caller owns n.value: the root is
// copied once by the Parser and container children are rebuilt, so no level
// copies its input again.
func (n *node) defaulted() any {
	v := n.value
	if v == nil && n.attr.HasDefault(n.opts.mode) {
		v = value.Copy(n.attr.Default(n.opts.mode))
	}

	switch n.kind() {
	case schema.KindMap, schema.KindSchema:
		if m, ok := value.AsMap(v); ok {
			v = n.fillFields(m)
		}
	case schema.KindRecord:
		if m, ok := value.AsMap(v); ok {
			v = n.fillRecord(m)
		}
	case schema.KindList:
		if s, ok := value.AsSlice(v); ok {
			v = n.fillList(s)
		}
	case schema.KindAnyOf:
		n.fill = true
	}

	n.value = v
	return v
}

func (n *node) fillFields(m map[string]any) map[string]any {
	n.buildFields(m)
	n.extras = make(map[string]any)
	for k, v := range m {
		if _, ok := n.children[k]; !ok {
			n.extras[k] = v
		}
	}

	out := make(map[string]any, len(m))
	for _, name := range n.order {
		if v := n.children[name].defaulted(); v != nil {
			out[name] = v
		}
	}
	for k, v := range n.extras {
		out[k] = v
	}
	return out
}

func (n *node) fillRecord(m map[string]any) map[string]any {
	n.buildRecord(m)
	out := make(map[string]any, len(m))
	for _, k := range n.order {
		if v := n.children[k].defaulted(); v != nil {
			out[k] = v
		}
	}
	return out
}

func (n *node) fillList(s []any) []any {
	n.buildItems(s)
	out := make([]any, len(n.items))
	for i, item := range n.items {
		out[i] = item.defaulted()
	}
	return out
}

func (n *node) linked(item map[string]any) any {
	v := n.value
	switch n.kind() {
	case schema.KindMap, schema.KindSchema:
		if n.children != nil {
			out := make(map[string]any, len(n.order)+len(n.extras))
			for _, name := range n.order {
				if lv := n.children[name].linked(item); lv != nil {
					out[name] = lv
				}
			}
			for k, ev := range n.extras {
				out[k] = ev
			}
			v = out
		}
	case schema.KindRecord:
		if n.children != nil {
			out := make(map[string]any, len(n.order))
			for _, k := range n.order {
				if lv := n.children[k].linked(item); lv != nil {
					out[k] = lv
				}
			}
			v = out
		}
	case schema.KindList:
		if n.items != nil {
			out := make([]any, len(n.items))
			for i, it := range n.items {
				out[i] = it.linked(item)
			}
			v = out
		}
	}

	fromLink := false
	if v == nil && n.attr.HasLink(n.opts.mode) {
		v = n.attr.Link(n.opts.mode, item)
		n.children, n.items, n.keys = nil, nil, nil
		fromLink = true
	}

	n.value = v
	if n.kind() == schema.KindAnyOf && n.fill && v != nil && !fromLink {
		n.altParsed, n.altErr = n.tryAlternatives(true, item)
		n.committed = true
	}
	return n.value
}

func (n *node) parsed() (any, error) {
	a := n.attr
	if a.Kind() == schema.KindSchema {
		out, err := n.parseFields()
		if err != nil {
			return nil, err
		}
		return n.validated(out)
	}

	if n.value == nil {
		if a.IsRequired(n.opts.mode) {
			return nil, schema.NewError(schema.CodeAttributeRequired, a.Path(), schema.Payload{},
				"Attribute%s is required.", schema.At(a.Path()))
		}
		return nil, nil
	}

	var (
		out any
		err error
	)
	switch a.Kind() {
	case schema.KindAny:
		out = value.Copy(n.value)
	case schema.KindString, schema.KindNumber, schema.KindBoolean, schema.KindBinary:
		out, err = n.parsePrimitive()
	case schema.KindSet:
		out, err = n.parseSet()
	case schema.KindList:
		out, err = n.parseList()
	case schema.KindMap:
		out, err = n.parseFields()
	case schema.KindRecord:
		out, err = n.parseRecord()
	case schema.KindAnyOf:
		out, err = n.parseAnyOf()
	}
	if err != nil {
		return nil, err
	}
	return n.validated(out)
}

func (n *node) validated(out any) (any, error) {
	if out != nil {
		if err := n.attr.RunValidator(n.opts.mode, out); err != nil {
			return nil, err
		}
	}
	n.value = out
	return out, nil
}

func (n *node) invalidInput(expected any, format string, args ...any) error {
	return schema.NewError(schema.CodeInvalidAttributeInput, n.path(),
		schema.Payload{Received: n.value, Expected: expected}, format, args...)
}

func (n *node) parsePrimitive() (any, error) {
	a := n.attr
	if !schema.MatchesKind(a.Kind(), n.value) {
		return nil, n.invalidInput(a.Kind(),
			"Attribute%s should be a %s.", schema.At(n.path()), a.Kind())
	}
	if !a.InEnum(n.value) {
		return nil, n.invalidInput(a.Enum(),
			"Attribute%s should be one of: %s.", schema.At(n.path()), joinValues(a.Enum()))
	}
	return value.Copy(n.value), nil
}

func (n *node) parseSet() (any, error) {
	s, ok := value.AsSlice(n.value)
	if !ok {
		return nil, n.invalidInput(schema.KindSet, "Attribute%s should be a set.", schema.At(n.path()))
	}
	n.buildItems(s)

	out := make(schema.Set, 0, len(n.items))
	for _, item := range n.items {
		pv, err := item.parsed()
		if err != nil {
			return nil, err
		}
		if pv == nil {
			return nil, n.invalidInput(schema.KindSet,
				"Attribute%s cannot contain empty set elements.", schema.At(n.path()))
		}
		out = append(out, pv)
	}
	if err := n.checkDuplicates(out); err != nil {
		return nil, err
	}
	return out, nil
}

func (n *node) checkDuplicates(elements []any) error {
	seen := make(map[string]struct{}, len(elements))
	for _, e := range elements {
		id, ok := value.Identity(e)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			return schema.NewError(schema.CodeInvalidAttributeInput, n.path(),
				schema.Payload{Received: e, Expected: schema.KindSet},
				"Attribute%s contains duplicate set elements.", schema.At(n.path()))
		}
		seen[id] = struct{}{}
	}
	return nil
}

func (n *node) parseList() (any, error) {
	s, ok := value.AsSlice(n.value)
	if !ok {
		return nil, n.invalidInput(schema.KindList, "Attribute%s should be a list.", schema.At(n.path()))
	}
	if n.items == nil {
		n.buildItems(s)
	}

	out := make([]any, len(n.items))
	for i, item := range n.items {
		pv, err := item.parsed()
		if err != nil {
			return nil, err
		}
		out[i] = pv
	}
	return out, nil
}

func (n *node) parseFields() (any, error) {
	m, ok := value.AsMap(n.value)
	if !ok {
		if n.kind() == schema.KindSchema {
			return nil, schema.NewError(schema.CodeInvalidItem, "",
				schema.Payload{Received: n.value, Expected: "object"}, "Items should be objects.")
		}
		return nil, n.invalidInput(schema.KindMap, "Attribute%s should be a map.", schema.At(n.path()))
	}
	if n.children == nil {
		n.buildFields(m)
	}

	out := make(map[string]any, len(n.order))
	for _, name := range n.order {
		pv, err := n.children[name].parsed()
		if err != nil {
			return nil, err
		}
		if pv != nil {
			out[name] = pv
		}
	}
	return out, nil
}

func (n *node) parseRecord() (any, error) {
	m, ok := value.AsMap(n.value)
	if !ok {
		return nil, n.invalidInput(schema.KindRecord, "Attribute%s should be a record.", schema.At(n.path()))
	}
	if n.children == nil {
		n.buildRecord(m)
	}

	n.keys = make(map[string]*node, len(n.order))
	out := make(map[string]any, len(n.order))
	for _, k := range n.order {
		kn := newNode(n.attr.Keys(), k, n.opts)
		pk, err := kn.parsed()
		if err != nil {
			return nil, err
		}
		n.keys[k] = kn

		pv, err := n.children[k].parsed()
		if err != nil {
			return nil, err
		}
		if pv != nil {
			out[pk.(string)] = pv
		}
	}
	return out, nil
}

func (n *node) parseAnyOf() (any, error) {
	if n.committed {
		return n.altParsed, n.altErr
	}
	return n.tryAlternatives(false, nil)
}

// tryAlternatives runs each alternative through the whole pipeline on its own
// copy of the value and commits the first that succeeds. When filling, item is
// the defaulted top-level item passed to links, and the committed
// alternative's linked value replaces the node's value.
func (n *node) tryAlternatives(fill bool, item map[string]any) (any, error) {
	var errs []error
	for _, alt := range n.attr.Alternatives() {
		trial := newNode(alt, value.Copy(n.value), n.opts)
		var filled any
		if fill {
			trial.defaulted()
			filled = trial.linked(item)
		}
		pv, err := trial.parsed()
		var tv any
		if err == nil && n.opts.transform {
			tv, err = trial.transformed()
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if fill {
			n.value = filled
		}
		n.alt, n.altOut = trial, tv
		return pv, nil
	}

	return nil, schema.NewError(schema.CodeInvalidAttributeInput, n.path(),
		schema.Payload{Received: n.value, Alternatives: errs},
		"Attribute%s does not match any of its alternatives.", schema.At(n.path()))
}

func (n *node) transformed() (any, error) {
	if n.value == nil {
		return nil, nil
	}

	a := n.attr
	switch a.Kind() {
	case schema.KindString, schema.KindNumber, schema.KindBoolean, schema.KindBinary:
		tr := a.Transformer()
		if tr == nil {
			return n.value, nil
		}
		out, err := tr.Encode(n.value)
		if err != nil {
			return nil, schema.NewError(schema.CodeInvalidAttributeInput, n.path(),
				schema.Payload{Received: n.value, ValidationResult: err},
				"Unable to transform attribute%s: %v", schema.At(n.path()), err)
		}
		return out, nil

	case schema.KindSet:
		out := make(schema.Set, 0, len(n.items))
		for _, item := range n.items {
			tv, err := item.transformed()
			if err != nil {
				return nil, err
			}
			out = append(out, tv)
		}
		if err := n.checkDuplicates(out); err != nil {
			return nil, err
		}
		return out, nil

	case schema.KindList:
		out := make([]any, len(n.items))
		for i, item := range n.items {
			tv, err := item.transformed()
			if err != nil {
				return nil, err
			}
			out[i] = tv
		}
		return out, nil

	case schema.KindMap, schema.KindSchema:
		out := make(map[string]any, len(n.order))
		for _, name := range n.order {
			child := n.children[name]
			tv, err := child.transformed()
			if err != nil {
				return nil, err
			}
			if tv != nil {
				out[child.attr.StoredName()] = tv
			}
		}
		return out, nil

	case schema.KindRecord:
		out := make(map[string]any, len(n.order))
		for _, k := range n.order {
			tk, err := n.keys[k].transformed()
			if err != nil {
				return nil, err
			}
			key, ok := tk.(string)
			if !ok {
				return nil, schema.NewError(schema.CodeInvalidAttributeInput, n.path(),
					schema.Payload{Received: tk, Expected: schema.KindString},
					"Attribute%s has a key that does not transform to a string.", schema.At(n.path()))
			}
			tv, err := n.children[k].transformed()
			if err != nil {
				return nil, err
			}
			if tv != nil {
				out[key] = tv
			}
		}
		return out, nil

	case schema.KindAnyOf:
		return n.altOut, nil
	}
	return n.value, nil
}

func (n *node) fieldAttrs() []*schema.Attribute {
	attrs := n.attr.Attributes()
	if n.kind() != schema.KindSchema || n.opts.mode != schema.ModeKey {
		return attrs
	}
	keys := attrs[:0]
	for _, a := range attrs {
		if a.Key() {
			keys = append(keys, a)
		}
	}
	return keys
}

func (n *node) buildFields(m map[string]any) {
	attrs := n.fieldAttrs()
	n.children = make(map[string]*node, len(attrs))
	n.order = make([]string, 0, len(attrs))
	for _, a := range attrs {
		n.children[a.Name()] = newNode(a, m[a.Name()], n.opts)
		n.order = append(n.order, a.Name())
	}
}

func (n *node) buildRecord(m map[string]any) {
	n.children = make(map[string]*node, len(m))
	n.order = make([]string, 0, len(m))
	for k, v := range m {
		n.children[k] = newNode(n.attr.Elements(), v, n.opts)
		n.order = append(n.order, k)
	}
	sort.Strings(n.order)
}

func (n *node) buildItems(s []any) {
	n.items = make([]*node, len(s))
	for i, v := range s {
		n.items[i] = newNode(n.attr.Elements(), v, n.opts)
	}
}

func joinValues(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}
