package parser

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	yesTokenRe      = regexp.MustCompile(`\bYES\b`)
	noTokenRe       = regexp.MustCompile(`\bNO\b`)
	trailingTokenRe = regexp.MustCompile(`(?i)\s+(YES|NO)\s*$`)
	sectionSplitRe  = regexp.MustCompile(`\n\s*---\s*\n|\n\s*\n\s*\n`)
)

// ManipulationCheck extracts the YES/NO manipulation-check answer. It prefers
// a JSON field, then a standalone token anywhere in the text, then a token
// within five lines of a manipulation/Q18 marker. The extraction is
// best-effort and never fails; UNKNOWN is returned when nothing matches.
func (p *Parser) ManipulationCheck(raw string) Check {
	if data, ok := decodeJSON(raw); ok {
		if obj, ok := data.(map[string]any); ok {
			if value, ok := obj["manipulation_check"]; ok {
				switch strings.ToUpper(strings.TrimSpace(fmt.Sprint(value))) {
				case "YES":
					return CheckYes
				case "NO":
					return CheckNo
				}
			}
		}
	}

	upper := strings.ToUpper(raw)
	if yesTokenRe.MatchString(upper) {
		return CheckYes
	}
	if noTokenRe.MatchString(upper) {
		return CheckNo
	}

	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		lineUpper := strings.ToUpper(line)
		if !strings.Contains(lineUpper, "MANIPULATION") &&
			!strings.Contains(lineUpper, "Q18") &&
			!strings.Contains(line, "18.") {
			continue
		}
		for j := i; j < len(lines) && j < i+5; j++ {
			candidate := strings.ToUpper(lines[j])
			if yesTokenRe.MatchString(candidate) {
				return CheckYes
			}
			if noTokenRe.MatchString(candidate) {
				return CheckNo
			}
		}
	}

	p.logger.Warn("could not find YES/NO for manipulation check, defaulting to UNKNOWN")
	return CheckUnknown
}

// thoughtMarkers locate the start of the free-text explanation when the
// response is not JSON.
var thoughtMarkers = []string{
	"19.",
	"q19",
	"thought process",
	"explain your thought",
	"step-by-step",
	"reasoning",
}

// ThoughtProcess extracts the free-text explanation. It prefers a JSON
// field, then text after a marker line, then the last long section of the
// response. A trailing YES/NO token left over from the manipulation check is
// stripped. Best-effort; returns an empty string when nothing matches.
func (p *Parser) ThoughtProcess(raw string) string {
	if data, ok := decodeJSON(raw); ok {
		if obj, ok := data.(map[string]any); ok {
			if value, ok := obj["thought_process"]; ok {
				return strings.TrimSpace(fmt.Sprint(value))
			}
		}
	}

	lines := strings.Split(raw, "\n")
	start := -1
	for i, line := range lines {
		lower := strings.ToLower(line)
		for _, marker := range thoughtMarkers {
			if strings.Contains(lower, marker) {
				start = i + 1
				break
			}
		}
		if start > 0 {
			break
		}
	}

	if start > 0 && start < len(lines) {
		thought := strings.TrimSpace(strings.Join(lines[start:], "\n"))
		thought = trailingTokenRe.ReplaceAllString(thought, "")
		if thought != "" {
			return thought
		}
	}

	sections := sectionSplitRe.Split(raw, -1)
	if len(sections) > 1 {
		for i := len(sections) - 1; i >= 0; i-- {
			section := strings.TrimSpace(sections[i])
			if len(section) > 100 {
				return trailingTokenRe.ReplaceAllString(section, "")
			}
		}
	}

	p.logger.Warn("could not extract thought process, returning empty string")
	return ""
}
