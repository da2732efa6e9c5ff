package parser

import (
	"github.com/jacentio/ddbschema/internal/value"
	"github.com/jacentio/ddbschema/schema"
)

// Stage identifies the output produced by one step of the parser.
type Stage int

const (
	// Defaulted is the input with mode defaults filled in.
	Defaulted Stage = iota + 1
	// Linked is the defaulted value with links resolved.
	Linked
	// Parsed is the validated value, using declared attribute names.
	Parsed
	// Transformed is the storable value, using stored names and encoded
	// primitives.
	Transformed
)

func (s Stage) String() string {
	switch s {
	case Defaulted:
		return "defaulted"
	case Linked:
		return "linked"
	case Parsed:
		return "parsed"
	case Transformed:
		return "transformed"
	}
	return "start"
}

type options struct {
	mode      schema.Mode
	fill      bool
	transform bool
}

// Option configures a Parser.
type Option func(*options)

// Mode selects the defaults, links, validators and presence rules to apply.
// An unknown mode fails the first stage. Default: schema.ModePut.
func Mode(m schema.Mode) Option {
	return func(o *options) { o.mode = m }
}

// Fill controls whether defaults and links are applied. When false the
// Defaulted and Linked stages are skipped. Default: true.
func Fill(fill bool) Option {
	return func(o *options) { o.fill = fill }
}

// Transform controls whether the Transformed stage runs. Default: true.
func Transform(transform bool) Option {
	return func(o *options) { o.transform = transform }
}

// Parser turns an input value into a storable value one stage at a time.
//
//	p := parser.New(s.Root(), input)
//	for p.Next() {
//		fmt.Println(p.Stage(), p.Value())
//	}
//	if err := p.Err(); err != nil { ... }
//
// A Parser is not safe for concurrent use.
type Parser struct {
	attr   *schema.Attribute
	opts   options
	root   *node
	stages []Stage
	pos    int

	stage Stage
	value any
	err   error
}

// New returns a Parser for input against attr. Use schema.Schema.Root to
// parse a whole item.
func New(attr *schema.Attribute, input any, opts ...Option) *Parser {
	p := &Parser{
		attr: attr,
		opts: options{mode: schema.ModePut, fill: true, transform: true},
	}
	for _, opt := range opts {
		opt(&p.opts)
	}

	if p.opts.fill {
		p.stages = append(p.stages, Defaulted, Linked)
	}
	p.stages = append(p.stages, Parsed)
	if p.opts.transform {
		p.stages = append(p.stages, Transformed)
	}

	p.root = newNode(attr, input, &p.opts)
	return p
}

// Next runs the next stage. It returns false once every stage has run or
// when a stage fails; check Err to tell the two apart.
func (p *Parser) Next() bool {
	if p.err != nil || p.pos >= len(p.stages) {
		return false
	}
	stage := p.stages[p.pos]
	p.pos++

	if !p.opts.mode.Valid() {
		p.stage, p.value = stage, nil
		p.err = schema.NewError(schema.CodeInvalidAttributeInput, p.attr.Path(),
			schema.Payload{Received: p.opts.mode, Expected: []schema.Mode{schema.ModeKey, schema.ModePut, schema.ModeUpdate}},
			"Invalid parsing mode: %q.", p.opts.mode)
		return false
	}

	switch stage {
	case Defaulted:
		p.root.value = value.Copy(p.root.value)
		p.value = p.root.defaulted()
	case Linked:
		item, _ := p.value.(map[string]any)
		p.value = p.root.linked(item)
	case Parsed:
		p.value, p.err = p.root.parsed()
	case Transformed:
		p.value, p.err = p.root.transformed()
	}

	p.stage = stage
	if p.err != nil {
		p.value = nil
		return false
	}
	return true
}

// Stage reports the last stage that ran.
func (p *Parser) Stage() Stage { return p.stage }

// Value returns the output of the last stage.
func (p *Parser) Value() any { return p.value }

// Err returns the error that stopped the parser, if any.
func (p *Parser) Err() error { return p.err }

// Override replaces the output of the current stage with v. The remaining
// stages run on v without filling.
func (p *Parser) Override(v any) {
	if p.err != nil {
		return
	}
	p.root = newNode(p.attr, v, &p.opts)
	p.value = v
	if p.stage == Parsed {
		p.value, p.err = p.root.parsed()
	}
}

// Parse runs every stage against the root of s and returns the final item.
func Parse(s *schema.Schema, input any, opts ...Option) (map[string]any, error) {
	out, err := ParseAttribute(s.Root(), input, opts...)
	if err != nil {
		return nil, err
	}
	item, _ := out.(map[string]any)
	return item, nil
}

// ParseAttribute runs every stage for a single attribute.
func ParseAttribute(attr *schema.Attribute, input any, opts ...Option) (any, error) {
	p := New(attr, input, opts...)
	for p.Next() {
	}
	if err := p.Err(); err != nil {
		return nil, err
	}
	return p.Value(), nil
}
