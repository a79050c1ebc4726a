package app_test

import (
	"testing"

	"hoteldesk/internal/app"
	"hoteldesk/internal/domain"
)

var testFields = []app.Field{
	{Name: "name", Kind: app.String},
	{Name: "stars", Kind: app.Int},
	{Name: "fee", Kind: app.Number},
	{Name: "available", Kind: app.Bool},
	{Name: "methods", Kind: app.JSONArray},
}

func TestProject_OnlyDeclaredAndPresentKeys(t *testing.T) {
	out, err := app.Project(map[string]any{
		"name":       "Grand",
		"unknown":    "ignored",
		"stars":      nil, // explicit null is a no-op
		"fee":        "12,50",
		"available":  "true",
		"methods":    `["cash"]`,
		"extraArray": []any{1, 2},
	}, testFields)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(out) != 4 {
		t.Fatalf("projected %d fields, want 4: %+v", len(out), out)
	}
	if _, present := out["stars"]; present {
		t.Fatalf("explicit null was projected")
	}
	if out["fee"] != 12.5 {
		t.Fatalf("comma decimal not coerced: %v", out["fee"])
	}
	if out["available"] != true {
		t.Fatalf("boolean string not coerced: %v", out["available"])
	}
	arr, ok := out["methods"].([]any)
	if !ok || len(arr) != 1 || arr[0] != "cash" {
		t.Fatalf("JSON string not decoded to array: %v", out["methods"])
	}
}

func TestProject_EmptyWhenNothingRecognized(t *testing.T) {
	out, err := app.Project(map[string]any{"zzz": 1}, testFields)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty projection, got %+v", out)
	}
}

func TestProject_InvalidValuesFailClosed(t *testing.T) {
	cases := []struct {
		name    string
		payload map[string]any
	}{
		{"non-numeric int", map[string]any{"stars": "five"}},
		{"fractional int", map[string]any{"stars": 4.5}},
		{"non-numeric number", map[string]any{"fee": "free"}},
		{"bad bool", map[string]any{"available": "maybe"}},
		{"json object not array", map[string]any{"methods": `{"a":1}`}},
		{"broken json", map[string]any{"methods": `[1,`}},
		{"scalar for array", map[string]any{"methods": 3.0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := app.Project(tc.payload, testFields)
			if domain.KindOf(err) != domain.KindInvalidFieldType {
				t.Fatalf("kind = %q, want invalid_field_type (%v)", domain.KindOf(err), err)
			}
		})
	}
}

func TestProject_NumericVariants(t *testing.T) {
	out, err := app.Project(map[string]any{
		"stars":     "4",
		"fee":       3, // plain int from non-JSON callers
		"available": 1.0,
	}, testFields)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if out["stars"] != int64(4) {
		t.Fatalf("stars = %v (%T)", out["stars"], out["stars"])
	}
	if out["fee"] != 3.0 {
		t.Fatalf("fee = %v (%T)", out["fee"], out["fee"])
	}
	if out["available"] != true {
		t.Fatalf("available = %v", out["available"])
	}
}

func TestNormalize_RetypesStoredRepresentations(t *testing.T) {
	row := domain.Row{
		"name":      "Grand",
		"stars":     "4",          // DECIMAL/text protocol strings
		"fee":       "12.50",
		"available": int64(1),     // TINYINT(1)
		"methods":   `["cash"]`,   // JSON column
		"id":        int64(7),     // not a declared field, left as-is
	}
	out := app.Normalize(row, testFields)
	if out["stars"] != int64(4) || out["fee"] != 12.5 || out["available"] != true {
		t.Fatalf("scalars not retyped: %+v", out)
	}
	if _, ok := out["methods"].([]any); !ok {
		t.Fatalf("JSON column not decoded: %+v", out)
	}
	if out["id"] != int64(7) {
		t.Fatalf("undeclared column modified: %+v", out)
	}
	if row["stars"] != "4" {
		t.Fatalf("Normalize mutated its input")
	}
}
