package expression

import (
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/ddbschema/codec"
	"github.com/jacentio/ddbschema/schema"
)

// UpdatePrefix is the placeholder prefix of update expressions.
const UpdatePrefix = "u_"

// BuildUpdate compiles an update expression from stored, the transformed
// output of an update-mode parse. Every non-key top-level attribute present
// in stored is SET and every path in remove is REMOVEd.
func BuildUpdate(s *schema.Schema, stored map[string]any, remove ...string) (Expression, error) {
	r := NewResolver(s.Root(), UpdatePrefix)
	values := make(map[string]types.AttributeValue)

	var sets []string
	for _, a := range s.Attributes() {
		if a.Key() {
			continue
		}
		v, ok := stored[a.StoredName()]
		if !ok || v == nil {
			continue
		}
		p, err := r.Resolve(a.Name())
		if err != nil {
			return Expression{}, err
		}
		av, err := codec.Marshal(v)
		if err != nil {
			return Expression{}, schema.NewError(schema.CodeInvalidAttributeInput, a.Path(),
				schema.Payload{Received: v}, "Unable to encode attribute%s: %v", schema.At(a.Path()), err)
		}
		placeholder := ":" + UpdatePrefix + strconv.Itoa(len(values)+1)
		values[placeholder] = av
		sets = append(sets, p.Expression+" = "+placeholder)
	}

	removes := make([]string, 0, len(remove))
	for _, path := range remove {
		p, err := r.Resolve(path)
		if err != nil {
			return Expression{}, err
		}
		if p.Attribute.IsRequired(schema.ModeUpdate) || p.Attribute.Key() {
			return Expression{}, schema.NewError(schema.CodeAttributeRequired, p.Attribute.Path(),
				schema.Payload{}, "Attribute%s is required and cannot be removed.", schema.At(p.Attribute.Path()))
		}
		removes = append(removes, p.Expression)
	}

	var clauses []string
	if len(sets) > 0 {
		clauses = append(clauses, "SET "+strings.Join(sets, ", "))
	}
	if len(removes) > 0 {
		clauses = append(clauses, "REMOVE "+strings.Join(removes, ", "))
	}
	if len(clauses) == 0 {
		return Expression{}, schema.NewError(schema.CodeInvalidItem, "", schema.Payload{Received: stored},
			"Update has nothing to set or remove.")
	}

	out := Expression{Expression: strings.Join(clauses, " "), Names: r.Names()}
	if len(values) > 0 {
		out.Values = values
	}
	return out, nil
}
