package gateway

import (
	"sort"
	"testing"
)

func intPtr(n int) *int { return &n }

func TestParseSchemaEmptyBlobs(t *testing.T) {
	for _, raw := range []string{"", "null", "{}", `{"required":[],"properties":{}}`} {
		s, err := ParseSchema([]byte(raw))
		if err != nil {
			t.Fatalf("ParseSchema(%q): %v", raw, err)
		}
		if s != nil {
			t.Fatalf("ParseSchema(%q) = %+v, want nil", raw, s)
		}
	}
}

func TestParseSchemaInvalidJSON(t *testing.T) {
	if _, err := ParseSchema([]byte(`{"required": not-json`)); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestValidateBodyAccumulatesAllViolations(t *testing.T) {
	schema := &Schema{
		Required: []string{"name", "email"},
		Properties: map[string]Property{
			"name":  {Type: "string", MinLength: intPtr(3), MaxLength: intPtr(10)},
			"email": {Type: "string"},
			"age":   {Type: "number"},
		},
	}

	ok, errs := ValidateBody(map[string]any{
		"name": "ab",
		"age":  "forty",
	}, schema)
	if ok {
		t.Fatal("expected validation failure")
	}

	sort.Strings(errs)
	want := []string{
		"Field age must be of type number",
		"Field name must be at least 3 characters",
		"Missing required field: email",
	}
	if len(errs) != len(want) {
		t.Fatalf("errs = %v, want %v", errs, want)
	}
	for i := range want {
		if errs[i] != want[i] {
			t.Fatalf("errs[%d] = %q, want %q", i, errs[i], want[i])
		}
	}
}

func TestValidateBodyMaxLength(t *testing.T) {
	schema := &Schema{
		Properties: map[string]Property{
			"code": {Type: "string", MaxLength: intPtr(4)},
		},
	}
	ok, errs := ValidateBody(map[string]any{"code": "toolong"}, schema)
	if ok || len(errs) != 1 || errs[0] != "Field code must be at most 4 characters" {
		t.Fatalf("errs = %v", errs)
	}
}

func TestValidateBodyTypeMatrix(t *testing.T) {
	cases := []struct {
		typ   string
		value any
		ok    bool
	}{
		{"string", "x", true},
		{"string", 1.0, false},
		{"number", 1.5, true},
		{"number", "1.5", false},
		{"boolean", true, true},
		{"boolean", "true", false},
		{"object", map[string]any{"a": 1}, true},
		{"object", []any{1, 2}, true},
		{"object", "not an object", false},
	}

	for _, tc := range cases {
		schema := &Schema{Properties: map[string]Property{"v": {Type: tc.typ}}}
		ok, _ := ValidateBody(map[string]any{"v": tc.value}, schema)
		if ok != tc.ok {
			t.Errorf("type %s with %T: ok = %v, want %v", tc.typ, tc.value, ok, tc.ok)
		}
	}
}

func TestValidateBodyIgnoresExtraFields(t *testing.T) {
	schema := &Schema{Required: []string{"name"}}
	ok, errs := ValidateBody(map[string]any{"name": "x", "extra": 42}, schema)
	if !ok || len(errs) != 0 {
		t.Fatalf("unknown fields must be allowed, errs = %v", errs)
	}
}

func TestValidateBodyNilSchema(t *testing.T) {
	ok, errs := ValidateBody(map[string]any{"anything": 1}, nil)
	if !ok || errs != nil {
		t.Fatalf("nil schema must pass everything, got %v", errs)
	}
}
