// Package schema builds the JSON response-shape declarations sent to
// providers in structured-output mode. All builders are pure.
package schema

import (
	"fmt"

	"llmgrader/internal/questionnaire"
)

// Name is the schema name announced to providers that require one.
const Name = "evaluation_response"

// Strict returns the schema with an exact length constraint on the scores
// array. Used by OpenAI structured outputs.
func Strict() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"scores": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "integer"},
				"minItems":    questionnaire.NumQuestions,
				"maxItems":    questionnaire.NumQuestions,
				"description": fmt.Sprintf("Array of exactly %d scores for questions Q1-Q%d", questionnaire.NumQuestions, questionnaire.NumQuestions),
			},
			"manipulation_check": manipulationCheckProperty(),
			"thought_process":    thoughtProcessProperty(),
		},
		"required":             []string{"scores", "manipulation_check", "thought_process"},
		"additionalProperties": false,
	}
}

// Relaxed returns the same shape without array length constraints, for
// providers that reject minItems/maxItems in schema mode.
func Relaxed() map[string]any {
	s := Strict()
	scores := s["properties"].(map[string]any)["scores"].(map[string]any)
	delete(scores, "minItems")
	delete(scores, "maxItems")
	return s
}

// Flattened returns one integer property per question (q1..q17) with the
// question's own bounds from the questionnaire table. Used by Mistral, whose
// schema mode enforces per-field minimum/maximum.
func Flattened() map[string]any {
	properties := make(map[string]any, questionnaire.NumQuestions+2)
	required := make([]string, 0, questionnaire.NumQuestions+2)

	for q := 1; q <= questionnaire.NumQuestions; q++ {
		r, _ := questionnaire.RangeFor(q)
		key := fmt.Sprintf("q%d", q)
		properties[key] = map[string]any{
			"type":        "integer",
			"minimum":     r.Min,
			"maximum":     r.Max,
			"description": fmt.Sprintf("Score for Q%d (%d-%d)", q, r.Min, r.Max),
		}
		required = append(required, key)
	}

	properties["manipulation_check"] = manipulationCheckProperty()
	properties["thought_process"] = thoughtProcessProperty()
	required = append(required, "manipulation_check", "thought_process")

	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
}

func manipulationCheckProperty() map[string]any {
	return map[string]any{
		"type":        "string",
		"enum":        []string{"YES", "NO"},
		"description": "Does the resume mention any criminal record information?",
	}
}

func thoughtProcessProperty() map[string]any {
	return map[string]any{
		"type":        "string",
		"description": "Brief 2-3 sentence explanation of evaluation reasoning",
	}
}
