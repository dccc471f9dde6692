// Package parser normalizes raw model responses into evaluation records. A
// response may be schema-enforced JSON, loosely structured JSON, or free text
// with embedded numbers; extraction is a fixed chain of attempts tried in
// order, with textual fallbacks only after every JSON shape has been ruled
// out.
package parser

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"llmgrader/internal/questionnaire"
)

// Check is the manipulation-check answer extracted from a response.
type Check string

const (
	CheckYes     Check = "YES"
	CheckNo      Check = "NO"
	CheckUnknown Check = "UNKNOWN"
)

// Record is the canonical output for one evaluation response. Scores are
// validated against the questionnaire before a record is produced. Truncated
// marks records whose textual extraction found more numbers than questions.
type Record struct {
	Scores            []int
	ManipulationCheck Check
	ThoughtProcess    string
	Truncated         bool
}

// ParseError reports a response that could not be reduced to the expected
// number of scores. The partial extraction is kept for diagnostics.
type ParseError struct {
	Found   int
	Partial []int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not extract %d valid scores, found %d: %v",
		questionnaire.NumQuestions, e.Found, e.Partial)
}

// Parser extracts scores and auxiliary fields from raw responses.
type Parser struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{logger: logger}
}

// Normalize reduces one raw response to a validated record. Score extraction
// and validation failures are fatal; the manipulation check and thought
// process are best-effort and degrade to UNKNOWN and empty string.
func (p *Parser) Normalize(raw string) (*Record, error) {
	scores, truncated, err := p.Scores(raw)
	if err != nil {
		return nil, err
	}

	if err := questionnaire.ValidateScores(scores); err != nil {
		return nil, err
	}

	return &Record{
		Scores:            scores,
		ManipulationCheck: p.ManipulationCheck(raw),
		ThoughtProcess:    p.ThoughtProcess(raw),
		Truncated:         truncated,
	}, nil
}

// jsonAttempts are the JSON extraction shapes, tried in order. The first
// definite result wins; order matters so that the explicit q1..q17 and
// scores shapes are preferred over scanning arbitrary lists.
var jsonAttempts = []func(data any) ([]int, bool){
	fromQuestionKeys,
	fromScoresKey,
	fromAnyList,
	fromTopLevelList,
}

// Scores extracts the ordered score vector from a raw response. The returned
// scores are unvalidated. The boolean reports whether the textual fallback
// found more numbers than questions and truncated the result.
func (p *Parser) Scores(raw string) ([]int, bool, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, false, &ParseError{}
	}

	if data, ok := decodeJSON(raw); ok {
		for _, attempt := range jsonAttempts {
			if scores, ok := attempt(data); ok {
				return scores, false, nil
			}
		}
	}

	numbers := lineScores(raw)

	if len(numbers) == questionnaire.NumQuestions {
		return numbers, false, nil
	}

	if len(numbers) > questionnaire.NumQuestions {
		p.logger.Warn("found more numbers than questions, truncating",
			zap.Int("found", len(numbers)),
			zap.Int("expected", questionnaire.NumQuestions),
		)
		return numbers[:questionnaire.NumQuestions], true, nil
	}

	// Last resort: ignore line structure and take standalone digits from the
	// whole text.
	all := allStandaloneDigits(raw)
	if len(all) >= questionnaire.NumQuestions {
		return all[:questionnaire.NumQuestions], false, nil
	}

	return nil, false, &ParseError{Found: len(numbers), Partial: numbers}
}

// decodeJSON parses the whole response as JSON, tolerating markdown code
// fences around the payload.
func decodeJSON(raw string) (any, bool) {
	cleaned := stripFences(raw)

	var data any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, false
	}
	return data, true
}

func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	return strings.TrimSpace(strings.Trim(raw, "`"))
}

// fromQuestionKeys collects q1..q17 values in question order, stopping at the
// first missing key. Matches the flattened schema shape.
func fromQuestionKeys(data any) ([]int, bool) {
	obj, ok := data.(map[string]any)
	if !ok {
		return nil, false
	}
	if _, ok := obj["q1"]; !ok {
		return nil, false
	}
	if _, ok := obj[fmt.Sprintf("q%d", questionnaire.NumQuestions)]; !ok {
		return nil, false
	}

	numbers := make([]int, 0, questionnaire.NumQuestions)
	for q := 1; q <= questionnaire.NumQuestions; q++ {
		value, ok := obj[fmt.Sprintf("q%d", q)]
		if !ok {
			break
		}
		n, ok := coerceInt(value)
		if !ok {
			return nil, false
		}
		numbers = append(numbers, n)
	}

	if len(numbers) != questionnaire.NumQuestions {
		return nil, false
	}
	return numbers, true
}

// fromScoresKey accepts an object carrying a "scores" list of exactly the
// expected length. Matches the strict and relaxed schema shapes.
func fromScoresKey(data any) ([]int, bool) {
	obj, ok := data.(map[string]any)
	if !ok {
		return nil, false
	}
	list, ok := obj["scores"].([]any)
	if !ok {
		return nil, false
	}
	return coerceIntList(list)
}

// fromAnyList scans object values for any list coercible to exactly the
// expected number of integers. Keys are visited in sorted order so the result
// is deterministic.
func fromAnyList(data any) ([]int, bool) {
	obj, ok := data.(map[string]any)
	if !ok {
		return nil, false
	}

	keys := make([]string, 0, len(obj))
	for key := range obj {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		list, ok := obj[key].([]any)
		if !ok {
			continue
		}
		if numbers, ok := coerceIntList(list); ok {
			return numbers, true
		}
	}
	return nil, false
}

// fromTopLevelList accepts a bare JSON array of the expected length.
func fromTopLevelList(data any) ([]int, bool) {
	list, ok := data.([]any)
	if !ok {
		return nil, false
	}
	return coerceIntList(list)
}

func coerceIntList(list []any) ([]int, bool) {
	if len(list) != questionnaire.NumQuestions {
		return nil, false
	}
	numbers := make([]int, 0, len(list))
	for _, value := range list {
		n, ok := coerceInt(value)
		if !ok {
			return nil, false
		}
		numbers = append(numbers, n)
	}
	return numbers, true
}

func coerceInt(value any) (int, bool) {
	switch v := value.(type) {
	case float64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

var (
	questionPrefixRe = regexp.MustCompile(`^[Qq]\d+[:\-.]?\s*`)
	numberPrefixRe   = regexp.MustCompile(`^\d+[.)]\s*`)
	standaloneDigit  = regexp.MustCompile(`\b([1-7])\b`)
)

// lineScores collects one in-range digit per qualifying line, preserving line
// order. Leading "Q<n>:" and "<n>." tokens are removed before searching so
// question numbering is not mistaken for an answer.
func lineScores(raw string) []int {
	var numbers []int
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		line = questionPrefixRe.ReplaceAllString(line, "")
		line = numberPrefixRe.ReplaceAllString(line, "")

		if match := standaloneDigit.FindStringSubmatch(line); match != nil {
			n, _ := strconv.Atoi(match[1])
			numbers = append(numbers, n)
		}
	}
	return numbers
}

func allStandaloneDigits(raw string) []int {
	matches := standaloneDigit.FindAllStringSubmatch(raw, -1)
	numbers := make([]int, 0, len(matches))
	for _, match := range matches {
		n, _ := strconv.Atoi(match[1])
		numbers = append(numbers, n)
	}
	return numbers
}
