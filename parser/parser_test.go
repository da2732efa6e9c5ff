package parser_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jacentio/ddbschema/parser"
	"github.com/jacentio/ddbschema/schema"
)

func keySchema() *schema.Schema {
	return schema.MustNew(
		schema.Attr("parentId", schema.String().Key().SavedAs("pk")),
		schema.Attr("childId", schema.String().Key().SavedAs("sk")),
		schema.Attr("name", schema.String()),
	)
}

func TestParse_KeyMode(t *testing.T) {
	got, err := parser.Parse(keySchema(),
		map[string]any{"parentId": "a", "childId": "b"},
		parser.Mode(schema.ModeKey))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := map[string]any{"pk": "a", "sk": "b"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected key (-want +got):\n%s", diff)
	}
}

func TestParse_PutModeRequiresNonKeyAttributes(t *testing.T) {
	_, err := parser.Parse(keySchema(), map[string]any{"parentId": "a", "childId": "b"})
	if !errors.Is(err, schema.ErrAttributeRequired) {
		t.Fatalf("expected attribute required, got %v", err)
	}

	var serr *schema.Error
	if !errors.As(err, &serr) || serr.Path != "name" {
		t.Errorf("expected error on path 'name', got %v", err)
	}
}

func TestParse_StructInput(t *testing.T) {
	type key struct {
		ParentID string `ddb:"parentId"`
		ChildID  string `ddb:"childId"`
	}

	got, err := parser.Parse(keySchema(), key{ParentID: "a", ChildID: "b"}, parser.Mode(schema.ModeKey))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"pk": "a", "sk": "b"}, got); diff != "" {
		t.Errorf("unexpected key (-want +got):\n%s", diff)
	}
}

func TestParse_ModeSensitivity(t *testing.T) {
	s := schema.MustNew(
		schema.Attr("id", schema.String().Key()),
		schema.Attr("once", schema.String()),
		schema.Attr("always", schema.String().Required(schema.Always)),
	)

	tests := []struct {
		name    string
		mode    schema.Mode
		input   map[string]any
		wantErr bool
	}{
		{"put without atLeastOnce", schema.ModePut, map[string]any{"id": "1", "always": "x"}, true},
		{"update without atLeastOnce", schema.ModeUpdate, map[string]any{"id": "1", "always": "x"}, false},
		{"put without always", schema.ModePut, map[string]any{"id": "1", "once": "x"}, true},
		{"update without always", schema.ModeUpdate, map[string]any{"id": "1", "once": "x"}, true},
		{"key without key", schema.ModeKey, map[string]any{"once": "x", "always": "x"}, true},
		{"key ignores others", schema.ModeKey, map[string]any{"id": "1"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.Parse(s, tt.input, parser.Mode(tt.mode))
			if tt.wantErr && !errors.Is(err, schema.ErrAttributeRequired) {
				t.Errorf("expected attribute required, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestParser_Stages(t *testing.T) {
	s := schema.MustNew(
		schema.Attr("a", schema.String().PutDefault("x")),
		schema.Attr("b", schema.String().SavedAs("_b").PutLink(schema.LinkFunc(func(item map[string]any) any {
			return item["a"].(string) + "-linked"
		}))),
	)

	p := parser.New(s.Root(), map[string]any{"extra": 1})

	want := []struct {
		stage parser.Stage
		value map[string]any
	}{
		{parser.Defaulted, map[string]any{"a": "x", "extra": 1}},
		{parser.Linked, map[string]any{"a": "x", "b": "x-linked", "extra": 1}},
		{parser.Parsed, map[string]any{"a": "x", "b": "x-linked"}},
		{parser.Transformed, map[string]any{"a": "x", "_b": "x-linked"}},
	}

	for _, w := range want {
		if !p.Next() {
			t.Fatalf("expected stage %s, parser stopped: %v", w.stage, p.Err())
		}
		if p.Stage() != w.stage {
			t.Errorf("expected stage %s, got %s", w.stage, p.Stage())
		}
		if diff := cmp.Diff(w.value, p.Value()); diff != "" {
			t.Errorf("stage %s (-want +got):\n%s", w.stage, diff)
		}
	}

	if p.Next() {
		t.Error("expected parser to be done")
	}
	if p.Err() != nil {
		t.Errorf("unexpected error: %v", p.Err())
	}
}

func TestParser_Override(t *testing.T) {
	s := schema.MustNew(
		schema.Attr("a", schema.String()),
		schema.Attr("b", schema.String().PutDefault("default")),
	)

	p := parser.New(s.Root(), map[string]any{"a": "x"})
	p.Next()
	p.Next()
	p.Override(map[string]any{"a": "y", "b": "z"})

	if !p.Next() || p.Stage() != parser.Parsed {
		t.Fatalf("expected parsed stage, got %s (%v)", p.Stage(), p.Err())
	}
	if diff := cmp.Diff(map[string]any{"a": "y", "b": "z"}, p.Value()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestParse_DefaultsPerMode(t *testing.T) {
	s := schema.MustNew(
		schema.Attr("id", schema.String().Key()),
		schema.Attr("updated", schema.String().PutDefault("put").UpdateDefault("update")),
	)

	put, err := parser.Parse(s, map[string]any{"id": "1"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if put["updated"] != "put" {
		t.Errorf("expected put default, got %v", put["updated"])
	}

	upd, err := parser.Parse(s, map[string]any{"id": "1"}, parser.Mode(schema.ModeUpdate))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if upd["updated"] != "update" {
		t.Errorf("expected update default, got %v", upd["updated"])
	}

	given, err := parser.Parse(s, map[string]any{"id": "1", "updated": "given"})
	if err != nil {
		t.Fatalf("given: %v", err)
	}
	if given["updated"] != "given" {
		t.Errorf("expected given value to win over default, got %v", given["updated"])
	}
}

func TestParse_FillDisabled(t *testing.T) {
	s := schema.MustNew(schema.Attr("a", schema.String().PutDefault("x")))

	_, err := parser.Parse(s, map[string]any{}, parser.Fill(false))
	if !errors.Is(err, schema.ErrAttributeRequired) {
		t.Errorf("expected attribute required, got %v", err)
	}
}

func TestParse_TransformDisabledKeepsDeclaredNames(t *testing.T) {
	got, err := parser.Parse(keySchema(),
		map[string]any{"parentId": "a", "childId": "b"},
		parser.Mode(schema.ModeKey), parser.Transform(false))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"parentId": "a", "childId": "b"}, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestParse_InvalidItem(t *testing.T) {
	_, err := parser.Parse(keySchema(), "not an item")
	if !errors.Is(err, schema.ErrInvalidItem) {
		t.Errorf("expected invalid item, got %v", err)
	}
}

func TestParse_NestedDefaultsInList(t *testing.T) {
	s := schema.MustNew(schema.Attr("list", schema.List(schema.Map(
		schema.Attr("n", schema.Number().PutDefault(0)),
	))))

	got, err := parser.Parse(s, map[string]any{
		"list": []any{map[string]any{}, map[string]any{"n": 2}},
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := map[string]any{"list": []any{
		map[string]any{"n": 0},
		map[string]any{"n": 2},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestParseAttribute_Record(t *testing.T) {
	rec := schema.Record(
		schema.String().Enum("foo", "bar"),
		schema.Map(schema.Attr("num", schema.Number())),
	).MustFreeze("rec")

	_, err := parser.ParseAttribute(rec, map[string]any{"baz": map[string]any{"num": 1}})
	if !errors.Is(err, schema.ErrInvalidAttributeInput) {
		t.Errorf("expected invalid attribute input for key 'baz', got %v", err)
	}

	got, err := parser.ParseAttribute(rec, map[string]any{"foo": map[string]any{"num": 1}})
	if err != nil {
		t.Fatalf("ParseAttribute: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"foo": map[string]any{"num": 1}}, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestParseAttribute_RecordKeyTransform(t *testing.T) {
	rec := schema.Record(
		schema.String().Transform(schema.Prefix("K")),
		schema.Number(),
	).MustFreeze("rec")

	got, err := parser.ParseAttribute(rec, map[string]any{"a": 1})
	if err != nil {
		t.Fatalf("ParseAttribute: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"K#a": 1}, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestParseAttribute_Set(t *testing.T) {
	set := schema.SetOf(schema.String()).MustFreeze("set")

	got, err := parser.ParseAttribute(set, []string{"a", "b"})
	if err != nil {
		t.Fatalf("ParseAttribute: %v", err)
	}
	if diff := cmp.Diff(schema.Set{"a", "b"}, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	if _, err := parser.ParseAttribute(set, schema.Set{"a", "a"}); !errors.Is(err, schema.ErrInvalidAttributeInput) {
		t.Errorf("expected duplicate error, got %v", err)
	}
	if _, err := parser.ParseAttribute(set, schema.Set{"a", 1}); !errors.Is(err, schema.ErrInvalidAttributeInput) {
		t.Errorf("expected type error, got %v", err)
	}
}

func TestParseAttribute_SetDuplicatesAfterTransform(t *testing.T) {
	collapse := schema.TransformerFuncs{
		EncodeFunc: func(any) (any, error) { return "same", nil },
	}
	set := schema.SetOf(schema.String().Transform(collapse)).MustFreeze("set")

	if _, err := parser.ParseAttribute(set, schema.Set{"a", "b"}, parser.Transform(false)); err != nil {
		t.Fatalf("expected parsed set to be valid, got %v", err)
	}
	if _, err := parser.ParseAttribute(set, schema.Set{"a", "b"}); !errors.Is(err, schema.ErrInvalidAttributeInput) {
		t.Errorf("expected duplicate error after transform, got %v", err)
	}
}

func TestParseAttribute_Primitives(t *testing.T) {
	tests := []struct {
		name    string
		def     schema.Def
		input   any
		wantErr bool
	}{
		{"string", schema.String(), "a", false},
		{"string rejects number", schema.String(), 1, true},
		{"number int", schema.Number(), 1, false},
		{"number float", schema.Number(), 1.5, false},
		{"number rejects string", schema.Number(), "1", true},
		{"boolean", schema.Boolean(), true, false},
		{"binary", schema.Binary(), []byte("x"), false},
		{"binary rejects string", schema.Binary(), "x", true},
		{"enum match", schema.Number().Enum(1, 2), 2, false},
		{"enum mismatch", schema.Number().Enum(1, 2), 3, true},
		{"list rejects map", schema.List(schema.String()), map[string]any{}, true},
		{"map rejects list", schema.Map(), []any{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.ParseAttribute(tt.def.MustFreeze("attr"), tt.input)
			if tt.wantErr && !errors.Is(err, schema.ErrInvalidAttributeInput) {
				t.Errorf("expected invalid attribute input, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestParseAttribute_AnyOf(t *testing.T) {
	first := schema.AnyOf(
		schema.String().Transform(schema.Prefix("A")),
		schema.String().Transform(schema.Prefix("B")),
	).MustFreeze("u")

	got, err := parser.ParseAttribute(first, "x")
	if err != nil {
		t.Fatalf("ParseAttribute: %v", err)
	}
	if got != "A#x" {
		t.Errorf("expected first alternative to win, got %v", got)
	}

	numOrStr := schema.AnyOf(schema.Number(), schema.String()).MustFreeze("u")
	if got, err := parser.ParseAttribute(numOrStr, "s"); err != nil || got != "s" {
		t.Errorf("expected 's', got %v (%v)", got, err)
	}

	_, err = parser.ParseAttribute(numOrStr, true)
	var serr *schema.Error
	if !errors.As(err, &serr) || serr.Code != schema.CodeInvalidAttributeInput {
		t.Fatalf("expected invalid attribute input, got %v", err)
	}
	if len(serr.Payload.Alternatives) != 2 {
		t.Errorf("expected 2 alternative errors, got %d", len(serr.Payload.Alternatives))
	}
}

func choiceSchema() *schema.Schema {
	return schema.MustNew(
		schema.Attr("name", schema.String()),
		schema.Attr("choice", schema.AnyOf(
			schema.Map(
				schema.Attr("a", schema.String()),
				schema.Attr("c", schema.Number()),
			),
			schema.Map(
				schema.Attr("a", schema.String()),
				schema.Attr("b", schema.String().SavedAs("_b").PutDefault("x")),
				schema.Attr("owner", schema.String().PutLink(func(item map[string]any) any {
					return item["name"]
				})),
			),
		)),
	)
}

func TestParse_AnyOfAlternativeDefaultsAndLinks(t *testing.T) {
	got, err := parser.Parse(choiceSchema(), map[string]any{
		"name":   "Ada",
		"choice": map[string]any{"a": "y"},
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := map[string]any{
		"name":   "Ada",
		"choice": map[string]any{"a": "y", "_b": "x", "owner": "Ada"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected item (-want +got):\n%s", diff)
	}
}

func TestParser_AnyOfLinkedStage(t *testing.T) {
	p := parser.New(choiceSchema().Root(), map[string]any{
		"name":   "Ada",
		"choice": map[string]any{"a": "y"},
	})

	// defaulted, then linked
	for i := 0; i < 2; i++ {
		if !p.Next() {
			t.Fatalf("parser stopped: %v", p.Err())
		}
	}
	if p.Stage() != parser.Linked {
		t.Fatalf("expected linked stage, got %s", p.Stage())
	}

	item := p.Value().(map[string]any)
	want := map[string]any{"a": "y", "b": "x", "owner": "Ada"}
	if diff := cmp.Diff(want, item["choice"]); diff != "" {
		t.Errorf("linked choice (-want +got):\n%s", diff)
	}
}

func TestParse_AnyOfWithoutFill(t *testing.T) {
	_, err := parser.Parse(choiceSchema(), map[string]any{
		"name":   "Ada",
		"choice": map[string]any{"a": "y"},
	}, parser.Fill(false))
	if !errors.Is(err, schema.ErrInvalidAttributeInput) {
		t.Errorf("expected invalid attribute input, got %v", err)
	}
}

func TestParse_InvalidMode(t *testing.T) {
	_, err := parser.Parse(keySchema(), map[string]any{"parentId": "a", "childId": "b"},
		parser.Mode(schema.Mode("scan")))
	if !errors.Is(err, schema.ErrInvalidAttributeInput) {
		t.Errorf("expected invalid attribute input, got %v", err)
	}
}

var errTooShort = errors.New("too short")

func TestParse_Validators(t *testing.T) {
	s := schema.MustNew(
		schema.Attr("name", schema.String().Validate(schema.Check(func(v any) bool {
			return v != "bad"
		}))),
		schema.Attr("code", schema.String().Optional().Validate(func(v any, _ *schema.Attribute) error {
			if len(v.(string)) < 3 {
				return errTooShort
			}
			return nil
		})),
	)

	if _, err := parser.Parse(s, map[string]any{"name": "good"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	_, err := parser.Parse(s, map[string]any{"name": "bad"})
	var serr *schema.Error
	if !errors.As(err, &serr) || serr.Code != schema.CodeCustomValidationFailed {
		t.Fatalf("expected custom validation failure, got %v", err)
	}
	if serr.Payload.Received != "bad" {
		t.Errorf("expected received 'bad', got %v", serr.Payload.Received)
	}
	if serr.Payload.ValidationResult != nil {
		t.Errorf("expected no validation result for a predicate, got %v", serr.Payload.ValidationResult)
	}

	_, err = parser.Parse(s, map[string]any{"name": "good", "code": "ab"})
	if !errors.Is(err, schema.ErrCustomValidationFailed) || !errors.Is(err, errTooShort) {
		t.Errorf("expected custom validation failure wrapping errTooShort, got %v", err)
	}
}

func TestParse_DoesNotMutateInput(t *testing.T) {
	s := schema.MustNew(schema.Attr("m", schema.Map(
		schema.Attr("a", schema.String()),
		schema.Attr("b", schema.String().PutDefault("x")),
	)))

	input := map[string]any{"m": map[string]any{"a": "1"}}
	if _, err := parser.Parse(s, input); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"m": map[string]any{"a": "1"}}, input); diff != "" {
		t.Errorf("input was mutated (-want +got):\n%s", diff)
	}

	p := parser.New(s.Root(), input)
	p.Next()
	p.Value().(map[string]any)["m"].(map[string]any)["a"] = "changed"
	if input["m"].(map[string]any)["a"] != "1" {
		t.Error("expected defaulted stage output to be independent of the input")
	}
}
