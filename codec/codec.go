// Package codec converts between the generic value model used by the parser
// and formatter and DynamoDB attribute values.
//
// schema.Set values become SS, NS or BS sets depending on their elements;
// any other slice becomes a list and any string keyed map becomes a map.
// Values outside the generic model, such as pointers, named scalar types and
// time.Time, go through the attributevalue marshaler with ddb struct tags.
// Numbers are decoded as int64 when integral and float64 otherwise.
package codec

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/ddbschema/internal/value"
	"github.com/jacentio/ddbschema/schema"
)

var (
	// ErrEmptySet is returned when marshaling a set without elements.
	// DynamoDB does not store empty sets.
	ErrEmptySet = errors.New("codec: empty set")

	// ErrMixedSet is returned when set elements are not all of one type.
	ErrMixedSet = errors.New("codec: set elements must share one type")

	// ErrUnsupported is returned for values with no DynamoDB representation.
	ErrUnsupported = errors.New("codec: unsupported value")
)

// Marshal converts v into an attribute value. A nil v becomes NULL.
func Marshal(v any) (types.AttributeValue, error) {
	switch x := v.(type) {
	case nil:
		return &types.AttributeValueMemberNULL{Value: true}, nil
	case types.AttributeValue:
		return x, nil
	case string:
		return &types.AttributeValueMemberS{Value: x}, nil
	case bool:
		return &types.AttributeValueMemberBOOL{Value: x}, nil
	case []byte:
		return &types.AttributeValueMemberB{Value: append([]byte(nil), x...)}, nil
	case schema.Set:
		return marshalSet(x)
	case time.Time:
		return marshalOther(x)
	}

	if n, ok := value.NumberString(v); ok {
		return &types.AttributeValueMemberN{Value: n}, nil
	}
	if m, ok := value.AsMap(v); ok {
		item, err := MarshalItem(m)
		if err != nil {
			return nil, err
		}
		return &types.AttributeValueMemberM{Value: item}, nil
	}
	if s, ok := value.AsSlice(v); ok {
		list := make([]types.AttributeValue, len(s))
		for i, e := range s {
			av, err := Marshal(e)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			list[i] = av
		}
		return &types.AttributeValueMemberL{Value: list}, nil
	}
	return marshalOther(v)
}

func marshalOther(v any) (types.AttributeValue, error) {
	av, err := attributevalue.MarshalWithOptions(v, func(o *attributevalue.EncoderOptions) {
		o.TagKey = value.TagName
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %T: %v", ErrUnsupported, v, err)
	}
	return av, nil
}

// MarshalItem converts an item into a DynamoDB item. Absent (nil) attributes
// are left out.
func MarshalItem(item map[string]any) (map[string]types.AttributeValue, error) {
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		if v == nil {
			continue
		}
		av, err := Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		out[k] = av
	}
	return out, nil
}

func marshalSet(s schema.Set) (types.AttributeValue, error) {
	if len(s) == 0 {
		return nil, ErrEmptySet
	}

	switch s[0].(type) {
	case string:
		out := make([]string, len(s))
		for i, e := range s {
			str, ok := e.(string)
			if !ok {
				return nil, ErrMixedSet
			}
			out[i] = str
		}
		return &types.AttributeValueMemberSS{Value: out}, nil
	case []byte:
		out := make([][]byte, len(s))
		for i, e := range s {
			b, ok := e.([]byte)
			if !ok {
				return nil, ErrMixedSet
			}
			out[i] = append([]byte(nil), b...)
		}
		return &types.AttributeValueMemberBS{Value: out}, nil
	}

	out := make([]string, len(s))
	for i, e := range s {
		n, ok := value.NumberString(e)
		if !ok {
			if i == 0 {
				return nil, fmt.Errorf("%w: set of %T", ErrUnsupported, e)
			}
			return nil, ErrMixedSet
		}
		out[i] = n
	}
	return &types.AttributeValueMemberNS{Value: out}, nil
}

// Unmarshal converts an attribute value into the generic value model.
func Unmarshal(av types.AttributeValue) (any, error) {
	switch v := av.(type) {
	case nil:
		return nil, nil
	case *types.AttributeValueMemberNULL:
		return nil, nil
	case *types.AttributeValueMemberS:
		return v.Value, nil
	case *types.AttributeValueMemberBOOL:
		return v.Value, nil
	case *types.AttributeValueMemberN:
		return ParseNumber(v.Value)
	case *types.AttributeValueMemberB:
		return append([]byte(nil), v.Value...), nil
	case *types.AttributeValueMemberSS:
		out := make(schema.Set, len(v.Value))
		for i, s := range v.Value {
			out[i] = s
		}
		return out, nil
	case *types.AttributeValueMemberNS:
		out := make(schema.Set, len(v.Value))
		for i, s := range v.Value {
			n, err := ParseNumber(s)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case *types.AttributeValueMemberBS:
		out := make(schema.Set, len(v.Value))
		for i, b := range v.Value {
			out[i] = append([]byte(nil), b...)
		}
		return out, nil
	case *types.AttributeValueMemberL:
		out := make([]any, len(v.Value))
		for i, e := range v.Value {
			d, err := Unmarshal(e)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = d
		}
		return out, nil
	case *types.AttributeValueMemberM:
		return UnmarshalItem(v.Value)
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupported, av)
}

// UnmarshalItem converts a DynamoDB item into a generic item.
func UnmarshalItem(item map[string]types.AttributeValue) (map[string]any, error) {
	out := make(map[string]any, len(item))
	for k, av := range item {
		v, err := Unmarshal(av)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		if v != nil {
			out[k] = v
		}
	}
	return out, nil
}

// ParseNumber decodes a DynamoDB number string.
func ParseNumber(s string) (any, error) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("codec: invalid number %q: %w", s, err)
	}
	return f, nil
}
