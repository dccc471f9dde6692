// Package questionnaire holds the fixed evaluation questionnaire: the
// per-question score ranges, score validation, and the prompt material sent to
// every model.
package questionnaire

import (
	"fmt"
)

// NumQuestions is the number of scored questions in the questionnaire.
const NumQuestions = 17

// Range is an inclusive valid score range for one question.
type Range struct {
	Min int
	Max int
}

// ranges is indexed by question number minus one. The table is fixed: Q1 is a
// seven-point item, Q2-Q6 are five-point, Q7-Q16 six-point, and Q17 is
// dichotomous.
var ranges = [NumQuestions]Range{
	{1, 7},
	{1, 5}, {1, 5}, {1, 5}, {1, 5}, {1, 5},
	{1, 6}, {1, 6}, {1, 6}, {1, 6}, {1, 6},
	{1, 6}, {1, 6}, {1, 6}, {1, 6}, {1, 6},
	{1, 2},
}

// RangeFor returns the valid range for the 1-indexed question number.
func RangeFor(question int) (Range, bool) {
	if question < 1 || question > NumQuestions {
		return Range{}, false
	}
	return ranges[question-1], true
}

// ValidationError reports a score that failed validation. Question is the
// 1-indexed offending question, or 0 when the score count itself is wrong.
type ValidationError struct {
	Question int
	Value    int
	Min      int
	Max      int
	Count    int
}

func (e *ValidationError) Error() string {
	if e.Question == 0 {
		return fmt.Sprintf("expected %d scores, got %d", NumQuestions, e.Count)
	}
	return fmt.Sprintf("Q%d score %d out of valid range %d-%d", e.Question, e.Value, e.Min, e.Max)
}

// ValidateScores checks that exactly NumQuestions scores are present and that
// each is within its question's range. The first violation is reported.
func ValidateScores(scores []int) error {
	if len(scores) != NumQuestions {
		return &ValidationError{Count: len(scores)}
	}

	for i, score := range scores {
		r := ranges[i]
		if score < r.Min || score > r.Max {
			return &ValidationError{
				Question: i + 1,
				Value:    score,
				Min:      r.Min,
				Max:      r.Max,
			}
		}
	}

	return nil
}
