package schema

import (
	"fmt"
	"strings"
)

// Transformer converts primitive values between their parsed and stored
// forms. Encode runs at the end of parsing and Decode at the start of
// formatting, so Decode(Encode(v)) must give v back.
type Transformer interface {
	Encode(v any) (any, error)
	Decode(v any) (any, error)
}

// TransformerFuncs adapts a pair of functions into a Transformer. A nil
// function leaves values untouched.
type TransformerFuncs struct {
	EncodeFunc func(any) (any, error)
	DecodeFunc func(any) (any, error)
}

func (t TransformerFuncs) Encode(v any) (any, error) {
	if t.EncodeFunc == nil {
		return v, nil
	}
	return t.EncodeFunc(v)
}

func (t TransformerFuncs) Decode(v any) (any, error) {
	if t.DecodeFunc == nil {
		return v, nil
	}
	return t.DecodeFunc(v)
}

// PrefixDelimiter separates a prefix from the value it decorates.
const PrefixDelimiter = "#"

type prefixTransformer struct {
	prefix string
}

// Prefix stores string values as "<prefix>#<value>". Stored values without
// the prefix are decoded unchanged.
func Prefix(prefix string) Transformer {
	return prefixTransformer{prefix: prefix + PrefixDelimiter}
}

func (p prefixTransformer) Encode(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("prefix transformer: expected string, got %T", v)
	}
	return p.prefix + s, nil
}

func (p prefixTransformer) Decode(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("prefix transformer: expected string, got %T", v)
	}
	return strings.TrimPrefix(s, p.prefix), nil
}
