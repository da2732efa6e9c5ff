// Package value holds shape coercion helpers shared by the parser, the
// formatter and the codec.
package value

import (
	"bytes"
	"math"
	"reflect"
	"strconv"

	"github.com/mitchellh/mapstructure"
	"github.com/mohae/deepcopy"
)

// TagName is the struct tag read when a Go struct is used as an item.
const TagName = "ddb"

// Copy returns a deep copy of v.
func Copy(v any) any {
	if v == nil {
		return nil
	}
	return deepcopy.Copy(v)
}

// AsMap returns v as a string-keyed map. Structs and pointers to structs are
// decoded through their ddb tags.
func AsMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case nil:
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = iter.Value().Interface()
		}
		return out, true
	case reflect.Struct:
		out := map[string]any{}
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			TagName: TagName,
			Result:  &out,
		})
		if err != nil {
			return nil, false
		}
		if err := dec.Decode(rv.Interface()); err != nil {
			return nil, false
		}
		return out, true
	}
	return nil, false
}

// AsSlice returns v as a slice of values. Byte slices are binary values, not
// lists, and are rejected.
func AsSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []byte, nil:
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// IsNumber reports whether v holds a Go integer or float.
func IsNumber(v any) bool {
	if v == nil {
		return false
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// NumberString renders a number in the canonical decimal form used for
// comparisons and storage.
func NumberString(v any) (string, bool) {
	if !IsNumber(v) {
		return "", false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), true
	}
	f := rv.Float()
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10), true
	}
	return strconv.FormatFloat(f, 'g', -1, 64), true
}

// Equal compares two primitive values. Numbers compare by value regardless of
// their Go type.
func Equal(a, b any) bool {
	if na, ok := NumberString(a); ok {
		nb, ok := NumberString(b)
		return ok && na == nb
	}
	if ba, ok := a.([]byte); ok {
		bb, ok := b.([]byte)
		return ok && bytes.Equal(ba, bb)
	}
	if a == nil || b == nil {
		return a == b
	}
	if !reflect.TypeOf(a).Comparable() || !reflect.TypeOf(b).Comparable() {
		return false
	}
	return a == b
}

// Identity returns a string identifying a primitive set element so that
// duplicates can be detected.
func Identity(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return "S" + x, true
	case []byte:
		return "B" + string(x), true
	case bool:
		return "T" + strconv.FormatBool(x), true
	}
	if n, ok := NumberString(v); ok {
		return "N" + n, true
	}
	return "", false
}
