package codec_test

import (
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/jacentio/ddbschema/codec"
	"github.com/jacentio/ddbschema/schema"
)

var avOpts = cmpopts.IgnoreUnexported(
	types.AttributeValueMemberS{},
	types.AttributeValueMemberN{},
	types.AttributeValueMemberB{},
	types.AttributeValueMemberBOOL{},
	types.AttributeValueMemberNULL{},
	types.AttributeValueMemberSS{},
	types.AttributeValueMemberNS{},
	types.AttributeValueMemberBS{},
	types.AttributeValueMemberL{},
	types.AttributeValueMemberM{},
)

func TestMarshal(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want types.AttributeValue
	}{
		{"nil", nil, &types.AttributeValueMemberNULL{Value: true}},
		{"string", "a", &types.AttributeValueMemberS{Value: "a"}},
		{"bool", true, &types.AttributeValueMemberBOOL{Value: true}},
		{"int", 42, &types.AttributeValueMemberN{Value: "42"}},
		{"float", 1.5, &types.AttributeValueMemberN{Value: "1.5"}},
		{"integral float", float64(3), &types.AttributeValueMemberN{Value: "3"}},
		{"binary", []byte("x"), &types.AttributeValueMemberB{Value: []byte("x")}},
		{"string set", schema.Set{"a", "b"}, &types.AttributeValueMemberSS{Value: []string{"a", "b"}}},
		{"number set", schema.Set{1, int64(2)}, &types.AttributeValueMemberNS{Value: []string{"1", "2"}}},
		{"binary set", schema.Set{[]byte("a")}, &types.AttributeValueMemberBS{Value: [][]byte{[]byte("a")}}},
		{"list", []any{"a", 1}, &types.AttributeValueMemberL{Value: []types.AttributeValue{
			&types.AttributeValueMemberS{Value: "a"},
			&types.AttributeValueMemberN{Value: "1"},
		}}},
		{"map", map[string]any{"a": "b"}, &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
			"a": &types.AttributeValueMemberS{Value: "b"},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := codec.Marshal(tt.in)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			if diff := cmp.Diff(tt.want, got, avOpts); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

type status string

func TestMarshal_OutsideValueModel(t *testing.T) {
	name := "ada"
	count := 3
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   any
		want types.AttributeValue
	}{
		{"named string", status("active"), &types.AttributeValueMemberS{Value: "active"}},
		{"string pointer", &name, &types.AttributeValueMemberS{Value: "ada"}},
		{"int pointer", &count, &types.AttributeValueMemberN{Value: "3"}},
		{"nil pointer", (*string)(nil), &types.AttributeValueMemberNULL{Value: true}},
		{"time", created, &types.AttributeValueMemberS{Value: "2024-05-01T12:00:00Z"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := codec.Marshal(tt.in)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			if diff := cmp.Diff(tt.want, got, avOpts); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestMarshal_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want error
	}{
		{"empty set", schema.Set{}, codec.ErrEmptySet},
		{"mixed set", schema.Set{"a", 1}, codec.ErrMixedSet},
		{"channel", make(chan int), codec.ErrUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Marshal(tt.in)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   types.AttributeValue
		want any
	}{
		{"null", &types.AttributeValueMemberNULL{Value: true}, nil},
		{"string", &types.AttributeValueMemberS{Value: "a"}, "a"},
		{"int", &types.AttributeValueMemberN{Value: "42"}, int64(42)},
		{"float", &types.AttributeValueMemberN{Value: "1.25"}, 1.25},
		{"number set", &types.AttributeValueMemberNS{Value: []string{"1", "2.5"}}, schema.Set{int64(1), 2.5}},
		{"string set", &types.AttributeValueMemberSS{Value: []string{"a"}}, schema.Set{"a"}},
		{"list", &types.AttributeValueMemberL{Value: []types.AttributeValue{
			&types.AttributeValueMemberBOOL{Value: true},
		}}, []any{true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := codec.Unmarshal(tt.in)
			if err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestItemRoundTrip(t *testing.T) {
	item := map[string]any{
		"pk":    "USER#1",
		"count": int64(3),
		"tags":  schema.Set{"a", "b"},
		"blob":  []byte{1, 2},
		"nested": map[string]any{
			"list": []any{"x", 1.5, false},
		},
	}

	av, err := codec.MarshalItem(item)
	if err != nil {
		t.Fatalf("MarshalItem: %v", err)
	}
	got, err := codec.UnmarshalItem(av)
	if err != nil {
		t.Fatalf("UnmarshalItem: %v", err)
	}
	if diff := cmp.Diff(item, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestMarshalItem_SkipsNil(t *testing.T) {
	av, err := codec.MarshalItem(map[string]any{"a": nil, "b": "x"})
	if err != nil {
		t.Fatalf("MarshalItem: %v", err)
	}
	if _, ok := av["a"]; ok {
		t.Error("expected nil attribute to be skipped")
	}
	if len(av) != 1 {
		t.Errorf("expected 1 attribute, got %d", len(av))
	}
}
