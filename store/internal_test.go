package store

import (
	"strconv"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/ddbschema/expression"
)

// --- IsDeleted Tests ---

func TestIsDeleted(t *testing.T) {
	now := time.Now().Unix()

	tests := []struct {
		name     string
		item     map[string]types.AttributeValue
		expected bool
	}{
		{"no ttl", map[string]types.AttributeValue{}, false},
		{"past ttl", map[string]types.AttributeValue{"ttl": &types.AttributeValueMemberN{Value: strconv.FormatInt(now-60, 10)}}, true},
		{"current ttl", map[string]types.AttributeValue{"ttl": &types.AttributeValueMemberN{Value: strconv.FormatInt(now, 10)}}, true},
		{"future ttl", map[string]types.AttributeValue{"ttl": &types.AttributeValueMemberN{Value: strconv.FormatInt(now+3600, 10)}}, false},
		{"string ttl", map[string]types.AttributeValue{"ttl": &types.AttributeValueMemberS{Value: "0"}}, false},
		{"unparseable ttl", map[string]types.AttributeValue{"ttl": &types.AttributeValueMemberN{Value: "soon"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDeleted(tt.item, "ttl"); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestIsDeleted_CustomAttribute(t *testing.T) {
	item := map[string]types.AttributeValue{"expires": &types.AttributeValueMemberN{Value: "1"}}
	if !IsDeleted(item, "expires") {
		t.Error("expected item to be deleted under custom TTL attribute")
	}
	if IsDeleted(item, "ttl") {
		t.Error("expected default attribute to be ignored")
	}
}

// --- TTLFilter Tests ---

func TestTTLFilter(t *testing.T) {
	at := time.Unix(1700000000, 0)
	f := TTLFilter("expires", at)

	if f.Expression != "(attribute_not_exists(#t_ttl) OR #t_ttl > :t_now)" {
		t.Errorf("unexpected expression %q", f.Expression)
	}
	if f.Names["#t_ttl"] != "expires" {
		t.Errorf("expected #t_ttl to name expires, got %q", f.Names["#t_ttl"])
	}
	n, ok := f.Values[":t_now"].(*types.AttributeValueMemberN)
	if !ok || n.Value != "1700000000" {
		t.Errorf("expected :t_now 1700000000, got %v", f.Values[":t_now"])
	}
}

// --- and Tests ---

func TestAnd(t *testing.T) {
	a := expression.Expression{Expression: "#a = :a", Names: map[string]string{"#a": "a"}}
	b := expression.Expression{Expression: "#b OR #c", Names: map[string]string{"#b": "b", "#c": "c"}}

	tests := []struct {
		name     string
		exprs    []expression.Expression
		expected string
		names    int
	}{
		{"none", nil, "", 0},
		{"single", []expression.Expression{a}, "#a = :a", 1},
		{"skips empty", []expression.Expression{{}, a, {}}, "#a = :a", 1},
		{"multiple", []expression.Expression{a, b}, "(#a = :a) AND (#b OR #c)", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := and(tt.exprs...)
			if got.Expression != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got.Expression)
			}
			if len(got.Names) != tt.names {
				t.Errorf("expected %d names, got %d", tt.names, len(got.Names))
			}
		})
	}
}

func TestNamesAndValues_EmptyIsNil(t *testing.T) {
	if names(map[string]string{}) != nil {
		t.Error("expected nil names for empty map")
	}
	if values(map[string]types.AttributeValue{}) != nil {
		t.Error("expected nil values for empty map")
	}
}

// --- Config Tests ---

func TestConfig_Validate(t *testing.T) {
	c := Config{}
	c.validate()
	if c.TTLAttribute != "ttl" {
		t.Errorf("expected default TTL attribute, got %q", c.TTLAttribute)
	}
	if c.Logger == nil {
		t.Error("expected default logger")
	}
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		err      error
		expected string
	}{
		{nil, "ok"},
		{ErrNotFound, "not_found"},
		{ErrConditionFailed, "condition_failed"},
		{ErrInvalidKey, "error"},
	}
	for _, tt := range tests {
		if got := outcome(tt.err); got != tt.expected {
			t.Errorf("outcome(%v): expected %q, got %q", tt.err, tt.expected, got)
		}
	}
}
