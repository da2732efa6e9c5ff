package expression

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/ddbschema/codec"
	"github.com/jacentio/ddbschema/parser"
	"github.com/jacentio/ddbschema/schema"
)

// Expression is a compiled expression with its placeholder tables, ready to
// be used in a DynamoDB request.
type Expression struct {
	Expression string
	Names      map[string]string
	Values     map[string]types.AttributeValue
}

// Merge adds the names and values of other to e. Placeholder prefixes must
// differ between the two expressions.
func (e *Expression) Merge(other Expression) {
	if len(other.Names) > 0 && e.Names == nil {
		e.Names = make(map[string]string, len(other.Names))
	}
	for k, v := range other.Names {
		e.Names[k] = v
	}
	if len(other.Values) > 0 && e.Values == nil {
		e.Values = make(map[string]types.AttributeValue, len(other.Values))
	}
	for k, v := range other.Values {
		e.Values[k] = v
	}
}

// Operand is an attribute path used on either side of a condition.
type Operand struct {
	path string
	size bool
}

// Attr refers to the attribute at path.
func Attr(path string) Operand {
	return Operand{path: path}
}

// Size refers to the size of the attribute instead of its value.
func (o Operand) Size() Operand {
	o.size = true
	return o
}

type operator string

const (
	opEq         operator = "="
	opNe         operator = "<>"
	opLt         operator = "<"
	opLte        operator = "<="
	opGt         operator = ">"
	opGte        operator = ">="
	opBetween    operator = "BETWEEN"
	opIn         operator = "IN"
	opBeginsWith operator = "begins_with"
	opContains   operator = "contains"
	opExists     operator = "attribute_exists"
	opNotExists  operator = "attribute_not_exists"
	opType       operator = "attribute_type"
	opAnd        operator = "AND"
	opOr         operator = "OR"
	opNot        operator = "NOT"
)

// Condition is a condition tree built from Operand methods, And, Or and Not.
type Condition struct {
	op       operator
	operand  Operand
	values   []any
	children []Condition
}

func (o Operand) compare(op operator, v any) Condition {
	return Condition{op: op, operand: o, values: []any{v}}
}

// Eq is true when the attribute equals v. v may be another Operand.
func (o Operand) Eq(v any) Condition { return o.compare(opEq, v) }

// Ne is true when the attribute differs from v.
func (o Operand) Ne(v any) Condition { return o.compare(opNe, v) }

// Lt is true when the attribute is lower than v.
func (o Operand) Lt(v any) Condition { return o.compare(opLt, v) }

// Lte is true when the attribute is lower than or equal to v.
func (o Operand) Lte(v any) Condition { return o.compare(opLte, v) }

// Gt is true when the attribute is greater than v.
func (o Operand) Gt(v any) Condition { return o.compare(opGt, v) }

// Gte is true when the attribute is greater than or equal to v.
func (o Operand) Gte(v any) Condition { return o.compare(opGte, v) }

// Between is true when low <= attribute <= high.
func (o Operand) Between(low, high any) Condition {
	return Condition{op: opBetween, operand: o, values: []any{low, high}}
}

// In is true when the attribute equals one of values.
func (o Operand) In(values ...any) Condition {
	return Condition{op: opIn, operand: o, values: values}
}

// BeginsWith is true when the attribute starts with prefix.
func (o Operand) BeginsWith(prefix any) Condition { return o.compare(opBeginsWith, prefix) }

// Contains is true when a string attribute contains v as a substring, or a
// set or list attribute contains v as an element.
func (o Operand) Contains(v any) Condition { return o.compare(opContains, v) }

// Exists is true when the attribute is present.
func (o Operand) Exists() Condition { return Condition{op: opExists, operand: o} }

// NotExists is true when the attribute is absent.
func (o Operand) NotExists() Condition { return Condition{op: opNotExists, operand: o} }

// Type is true when the attribute has the given DynamoDB type, such as "S",
// "N" or "L".
func (o Operand) Type(t string) Condition { return o.compare(opType, t) }

// And is true when every condition is.
func And(conditions ...Condition) Condition {
	return Condition{op: opAnd, children: conditions}
}

// Or is true when any condition is.
func Or(conditions ...Condition) Condition {
	return Condition{op: opOr, children: conditions}
}

// Not negates c.
func Not(c Condition) Condition {
	return Condition{op: opNot, children: []Condition{c}}
}

var attributeTypes = map[string]struct{}{
	"S": {}, "SS": {}, "N": {}, "NS": {}, "B": {}, "BS": {},
	"BOOL": {}, "NULL": {}, "L": {}, "M": {},
}

// ConditionPrefix returns the placeholder prefix of condition expressions for
// id. Distinct ids keep several conditions of one request apart.
func ConditionPrefix(id string) string {
	return "c" + id + "_"
}

// BuildCondition compiles c against s. Names are rendered as "#c<id>_<n>"
// and values as ":c<id>_<n>".
func BuildCondition(s *schema.Schema, c Condition, id string) (Expression, error) {
	b := &conditionBuilder{
		resolver: NewResolver(s.Root(), ConditionPrefix(id)),
		prefix:   ConditionPrefix(id),
		values:   make(map[string]types.AttributeValue),
	}
	expr, err := b.build(c)
	if err != nil {
		return Expression{}, err
	}

	out := Expression{Expression: expr, Names: b.resolver.Names()}
	if len(b.values) > 0 {
		out.Values = b.values
	}
	return out, nil
}

type conditionBuilder struct {
	resolver *Resolver
	prefix   string
	values   map[string]types.AttributeValue
}

func invalidCondition(format string, args ...any) error {
	return schema.NewError(schema.CodeInvalidCondition, "", schema.Payload{},
		"Invalid condition: "+format, args...)
}

func (b *conditionBuilder) build(c Condition) (string, error) {
	switch c.op {
	case opAnd, opOr:
		if len(c.children) == 0 {
			return "", invalidCondition("%s needs at least one condition", c.op)
		}
		parts := make([]string, len(c.children))
		for i, child := range c.children {
			p, err := b.build(child)
			if err != nil {
				return "", err
			}
			parts[i] = p
		}
		if len(parts) == 1 {
			return parts[0], nil
		}
		return "(" + strings.Join(parts, ") "+string(c.op)+" (") + ")", nil

	case opNot:
		p, err := b.build(c.children[0])
		if err != nil {
			return "", err
		}
		return "NOT (" + p + ")", nil

	case "":
		return "", invalidCondition("empty condition")
	}

	lhs, err := b.path(c.operand)
	if err != nil {
		return "", err
	}

	switch c.op {
	case opExists, opNotExists:
		return fmt.Sprintf("%s(%s)", c.op, lhs.Expression), nil

	case opType:
		t, _ := c.values[0].(string)
		if _, ok := attributeTypes[t]; !ok {
			return "", invalidCondition("unknown attribute type %q", c.values[0])
		}
		av, err := codec.Marshal(t)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s(%s, %s)", c.op, lhs.Expression, b.push(av)), nil

	case opBeginsWith:
		v, err := b.value(lhs.Attribute, c.values[0])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s(%s, %s)", c.op, lhs.Expression, v), nil

	case opContains:
		attr := lhs.Attribute
		if k := attr.Kind(); k == schema.KindSet || k == schema.KindList {
			attr = attr.Elements()
		}
		v, err := b.value(attr, c.values[0])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s(%s, %s)", c.op, lhs.Expression, v), nil

	case opBetween:
		low, err := b.value(lhs.Attribute, c.values[0])
		if err != nil {
			return "", err
		}
		high, err := b.value(lhs.Attribute, c.values[1])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s BETWEEN %s AND %s", lhs.Expression, low, high), nil

	case opIn:
		if len(c.values) == 0 {
			return "", invalidCondition("IN needs at least one value")
		}
		parts := make([]string, len(c.values))
		for i, v := range c.values {
			p, err := b.value(lhs.Attribute, v)
			if err != nil {
				return "", err
			}
			parts[i] = p
		}
		return fmt.Sprintf("%s IN (%s)", lhs.Expression, strings.Join(parts, ", ")), nil
	}

	rhs, err := b.value(lhs.Attribute, c.values[0])
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s %s", lhs.Expression, c.op, rhs), nil
}

func (b *conditionBuilder) path(o Operand) (Path, error) {
	if o.size {
		return b.resolver.Resolve(o.path, Size())
	}
	return b.resolver.Resolve(o.path)
}

// value renders v as a value placeholder, or as a path when v is an Operand.
// Values are parsed against attr so that transformers apply.
func (b *conditionBuilder) value(attr *schema.Attribute, v any) (string, error) {
	if o, ok := v.(Operand); ok {
		p, err := b.path(o)
		if err != nil {
			return "", err
		}
		return p.Expression, nil
	}

	parsed, err := parser.ParseAttribute(attr, v, parser.Fill(false))
	if err != nil {
		return "", err
	}
	av, err := codec.Marshal(parsed)
	if err != nil {
		return "", invalidCondition("%v", err)
	}
	return b.push(av), nil
}

func (b *conditionBuilder) push(av types.AttributeValue) string {
	placeholder := ":" + b.prefix + strconv.Itoa(len(b.values)+1)
	b.values[placeholder] = av
	return placeholder
}
