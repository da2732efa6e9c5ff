package expression

import (
	"strconv"

	"github.com/jacentio/ddbschema/parser"
	"github.com/jacentio/ddbschema/schema"
)

var (
	anyAttribute    = schema.Any().Optional()
	numberAttribute = schema.Number().Optional()
)

// Path is a resolved attribute path.
type Path struct {
	// Expression is the path with every name replaced by a placeholder,
	// for example "#c_1[1].#c_2".
	Expression string

	// Attribute is the attribute the path points to. It is a synthetic
	// number attribute when the path was resolved with Size.
	Attribute *schema.Attribute
}

type resolveOptions struct {
	size bool
}

// ResolveOption configures a single Resolve call.
type ResolveOption func(*resolveOptions)

// Size wraps the resolved path in size(...).
func Size() ResolveOption {
	return func(o *resolveOptions) { o.size = true }
}

// Resolver compiles attribute paths into placeholder based expressions. Name
// placeholders are numbered from 1 across every Resolve call of a Resolver,
// so one Resolver can serve a whole expression.
type Resolver struct {
	root   *schema.Attribute
	prefix string
	names  []string
}

// NewResolver returns a Resolver walking paths from root. Placeholders are
// rendered as "#<prefix><n>".
func NewResolver(root *schema.Attribute, prefix string) *Resolver {
	return &Resolver{root: root, prefix: prefix}
}

// Names returns the placeholder table, mapping each placeholder to the
// stored attribute name it stands for.
func (r *Resolver) Names() map[string]string {
	names := make(map[string]string, len(r.names))
	for i, n := range r.names {
		names[r.placeholder(i+1)] = n
	}
	return names
}

func (r *Resolver) placeholder(n int) string {
	return "#" + r.prefix + strconv.Itoa(n)
}

func (r *Resolver) push(name string) string {
	r.names = append(r.names, name)
	return r.placeholder(len(r.names))
}

func (r *Resolver) clone() *Resolver {
	return &Resolver{
		root:   r.root,
		prefix: r.prefix,
		names:  append([]string(nil), r.names...),
	}
}

// Resolve compiles path. On error no placeholder is allocated.
func (r *Resolver) Resolve(path string, opts ...ResolveOption) (Path, error) {
	var o resolveOptions
	for _, opt := range opts {
		opt(&o)
	}

	tokens, ok := tokenize(path)
	if !ok || len(tokens) == 0 {
		return Path{}, invalidPath(path)
	}

	trial := r.clone()
	expr, attr, err := trial.walk(r.root, path, tokens, "")
	if err != nil {
		return Path{}, err
	}
	if attr.Kind() == schema.KindSchema {
		return Path{}, invalidPath(path)
	}
	r.names = trial.names

	if o.size {
		return Path{
			Expression: "size(" + expr + ")",
			Attribute:  numberAttribute.MustFreeze(attr.Path()),
		}, nil
	}
	return Path{Expression: expr, Attribute: attr}, nil
}

func invalidPath(path string) error {
	return schema.NewError(schema.CodeInvalidExpressionAttributePath, path,
		schema.Payload{Received: path},
		"Unable to match expression attribute path with schema: %s", path)
}

// walk resolves tokens from cursor, appending to expr.
func (r *Resolver) walk(cursor *schema.Attribute, path string, tokens []accessor, expr string) (string, *schema.Attribute, error) {
	for i, tok := range tokens {
		switch cursor.Kind() {
		case schema.KindAny:
			childPath := cursor.Path()
			if tok.isIndex() {
				expr += tok.String()
				childPath += tok.String()
			} else {
				expr = join(expr, r.push(tok.name))
				if childPath != "" {
					childPath += "."
				}
				childPath += tok.name
			}
			cursor = anyAttribute.MustFreeze(childPath)

		case schema.KindSchema, schema.KindMap:
			if tok.isIndex() {
				return "", nil, invalidPath(path)
			}
			child, ok := cursor.Attribute(tok.name)
			if !ok {
				return "", nil, invalidPath(path)
			}
			expr = join(expr, r.push(child.StoredName()))
			cursor = child

		case schema.KindList:
			if !tok.isIndex() {
				return "", nil, invalidPath(path)
			}
			expr += tok.String()
			cursor = cursor.Elements()

		case schema.KindRecord:
			if tok.isIndex() {
				return "", nil, invalidPath(path)
			}
			key, err := parser.ParseAttribute(cursor.Keys(), tok.name, parser.Fill(false))
			if err != nil {
				return "", nil, invalidPath(path)
			}
			storedKey, ok := key.(string)
			if !ok {
				return "", nil, invalidPath(path)
			}
			expr = join(expr, r.push(storedKey))
			cursor = cursor.Elements()

		case schema.KindAnyOf:
			rest := tokens[i:]
			for _, alt := range cursor.Alternatives() {
				trial := r.clone()
				e, a, err := trial.walk(alt, path, rest, expr)
				if err != nil {
					continue
				}
				r.names = trial.names
				return e, a, nil
			}
			return "", nil, invalidPath(path)

		default:
			return "", nil, invalidPath(path)
		}
	}
	return expr, cursor, nil
}

// join appends a name placeholder. Names are separated by a dot except at
// the start of the expression.
func join(expr, placeholder string) string {
	if expr == "" {
		return placeholder
	}
	return expr + "." + placeholder
}
