package schema

import (
	"fmt"
	"testing"
)

func scoresProperty(t *testing.T, s map[string]any) map[string]any {
	t.Helper()
	props, ok := s["properties"].(map[string]any)
	if !ok {
		t.Fatal("schema has no properties object")
	}
	scores, ok := props["scores"].(map[string]any)
	if !ok {
		t.Fatal("schema has no scores property")
	}
	return scores
}

func TestStrictConstrainsLength(t *testing.T) {
	t.Parallel()

	scores := scoresProperty(t, Strict())
	if scores["minItems"] != 17 || scores["maxItems"] != 17 {
		t.Fatalf("expected minItems/maxItems of 17, got %v/%v", scores["minItems"], scores["maxItems"])
	}

	if Strict()["additionalProperties"] != false {
		t.Fatal("strict schema must forbid extra fields")
	}
}

func TestRelaxedDropsLengthBounds(t *testing.T) {
	t.Parallel()

	scores := scoresProperty(t, Relaxed())
	if _, ok := scores["minItems"]; ok {
		t.Fatal("relaxed schema must not carry minItems")
	}
	if _, ok := scores["maxItems"]; ok {
		t.Fatal("relaxed schema must not carry maxItems")
	}

	// Relaxed is derived from Strict; make sure Strict stays intact.
	if _, ok := scoresProperty(t, Strict())["minItems"]; !ok {
		t.Fatal("building the relaxed schema must not mutate the strict one")
	}
}

func TestFlattenedBoundsMatchQuestionnaire(t *testing.T) {
	t.Parallel()

	props := Flattened()["properties"].(map[string]any)

	tests := []struct {
		key string
		min int
		max int
	}{
		{"q1", 1, 7},
		{"q2", 1, 5},
		{"q7", 1, 6},
		{"q16", 1, 6},
		{"q17", 1, 2},
	}

	for _, tt := range tests {
		field, ok := props[tt.key].(map[string]any)
		if !ok {
			t.Fatalf("missing property %s", tt.key)
		}
		if field["minimum"] != tt.min || field["maximum"] != tt.max {
			t.Fatalf("%s: expected bounds %d-%d, got %v-%v", tt.key, tt.min, tt.max, field["minimum"], field["maximum"])
		}
	}

	required := Flattened()["required"].([]string)
	if len(required) != 19 {
		t.Fatalf("expected 19 required fields, got %d", len(required))
	}
	for q := 1; q <= 17; q++ {
		found := false
		for _, key := range required {
			if key == fmt.Sprintf("q%d", q) {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("q%d missing from required list", q)
		}
	}
}
