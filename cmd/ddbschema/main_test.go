package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const userSchema = "../../schemadef/testdata/user.yaml"

func run(t *testing.T, input string, args ...string) (map[string]any, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	var got map[string]any
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("decode output %q: %v", out.String(), err)
	}
	return got, nil
}

func TestParse_Put(t *testing.T) {
	got, err := run(t, `{"id":"1","email":"ada@example.com"}`, "parse", "-s", userSchema)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if got["pk"] != "USER#1" {
		t.Errorf("expected pk 'USER#1', got %v", got["pk"])
	}
	if got["sk"] != "PROFILE" {
		t.Errorf("expected sk 'PROFILE', got %v", got["sk"])
	}
	if got["role"] != "member" {
		t.Errorf("expected default role 'member', got %v", got["role"])
	}
	if id, _ := got["requestId"].(string); id == "" {
		t.Errorf("expected generated requestId, got %v", got["requestId"])
	}
}

func TestParse_Key(t *testing.T) {
	got, err := run(t, `{"id":"1"}`, "parse", "-s", userSchema, "--mode", "key")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	want := map[string]any{"pk": "USER#1", "sk": "PROFILE"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("key mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_InvalidInput(t *testing.T) {
	_, err := run(t, `{"id":"1","email":"not-an-email"}`, "parse", "-s", userSchema, "--mode", "put")
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestParse_UnknownMode(t *testing.T) {
	_, err := run(t, `{"id":"1"}`, "parse", "-s", userSchema, "--mode", "scan")
	if err == nil || !strings.Contains(err.Error(), "unknown mode") {
		t.Errorf("expected unknown mode error, got %v", err)
	}
}

func TestFormat_Attributes(t *testing.T) {
	stored := `{"pk":"USER#1","sk":"PROFILE","email":"ada@example.com","requestId":"r","role":"admin"}`
	got, err := run(t, stored, "format", "-s", userSchema, "-a", "id,role")
	if err != nil {
		t.Fatalf("format failed: %v", err)
	}

	want := map[string]any{"id": "1", "role": "admin"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("format mismatch (-want +got):\n%s", diff)
	}
}

func TestPath_Resolve(t *testing.T) {
	got, err := run(t, "", "path", "-s", userSchema, "--prefix", "p_", "addresses[0].city")
	if err != nil {
		t.Fatalf("path failed: %v", err)
	}

	want := map[string]any{
		"paths": []any{"#p_1[0].#p_2"},
		"names": map[string]any{"#p_1": "addresses", "#p_2": "city"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("path mismatch (-want +got):\n%s", diff)
	}
}
