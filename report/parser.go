// Package report turns free-form analyst output into typed decisions and
// applies the alert rule to them.
package report

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"signalbot/types"
)

// snippetLimit bounds how much of the offending report text a ParseError
// carries for diagnostics.
const snippetLimit = 200

// ParseError is the typed negative result of parsing a report. It is a
// value, not a crash: callers treat it as "no decision, do not alert".
type ParseError struct {
	Reason  string
	Snippet string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("report parse failed: %s (report: %s)", e.Reason, e.Snippet)
}

// Labels and values may carry markdown emphasis (`*Direction:*`,
// `**Direction:**`). The patterns absorb the asterisks around labels and
// values instead of stripping them from the whole report, which would
// corrupt literal asterisks inside the Analysis text.
var (
	directionPattern  = regexp.MustCompile(`(?i)Direction\s*\**\s*:\s*\**\s*\[?\s*([^\]\n]+)`)
	impactPattern     = regexp.MustCompile(`(?i)Impact\s+Score\s*\**\s*:\s*\**\s*\[?\s*(\d+)`)
	confidencePattern = regexp.MustCompile(`(?i)Confidence\s+Score\s*\**\s*:\s*\**\s*\[?\s*(\d+)`)
	// Line-anchored label as emitted by the canonical report template.
	analysisLinePattern = regexp.MustCompile(`(?im)^[ \t]*\**[ \t]*Analysis\s*\**\s*:\**[ \t]*`)
	analysisAnyPattern  = regexp.MustCompile(`(?i)\**Analysis\s*\**\s*:\s*\**\s*`)
)

// Parse extracts a Decision from raw model output. The four labeled fields
// must appear in the order Direction, Impact Score, Confidence Score,
// Analysis; labels and values may be wrapped in markdown emphasis markers
// and/or square brackets. A missing field or an unparseable score yields a
// *ParseError, never a partially populated Decision.
func Parse(raw string) (*types.Decision, error) {
	direction, rest, err := matchDirection(raw, raw)
	if err != nil {
		return nil, err
	}

	impact, rest, err := matchScore(impactPattern, rest, raw, "Impact Score")
	if err != nil {
		return nil, err
	}

	confidence, rest, err := matchScore(confidencePattern, rest, raw, "Confidence Score")
	if err != nil {
		return nil, err
	}

	analysis, err := matchAnalysis(rest, raw)
	if err != nil {
		return nil, err
	}

	return &types.Decision{
		Direction:  direction,
		Impact:     impact,
		Confidence: confidence,
		Analysis:   analysis,
	}, nil
}

func matchDirection(text, raw string) (string, string, error) {
	loc := directionPattern.FindStringSubmatchIndex(text)
	if loc == nil {
		return "", "", failure("Direction label not found", raw)
	}
	direction := strings.TrimSpace(text[loc[2]:loc[3]])
	direction = strings.TrimSpace(strings.Trim(direction, "*"))
	if direction == "" {
		return "", "", failure("Direction value is empty", raw)
	}
	return direction, text[loc[1]:], nil
}

func matchScore(pattern *regexp.Regexp, text, raw, label string) (int, string, error) {
	loc := pattern.FindStringSubmatchIndex(text)
	if loc == nil {
		return 0, "", failure(label+" not found", raw)
	}
	value, err := strconv.Atoi(text[loc[2]:loc[3]])
	if err != nil {
		return 0, "", failure(label+" is not an integer", raw)
	}
	return value, text[loc[1]:], nil
}

func matchAnalysis(text, raw string) (string, error) {
	// Anchor on the last line-anchored label so an incidental "Analysis:"
	// inside the report body cannot truncate the capture. Fall back to the
	// first inline occurrence for single-line reports.
	if locs := analysisLinePattern.FindAllStringIndex(text, -1); len(locs) > 0 {
		last := locs[len(locs)-1]
		return trimBrackets(text[last[1]:]), nil
	}
	if loc := analysisAnyPattern.FindStringIndex(text); loc != nil {
		return trimBrackets(text[loc[1]:]), nil
	}
	return "", failure("Analysis label not found", raw)
}

// trimBrackets drops the template's optional square brackets around a value.
func trimBrackets(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") && len(s) >= 2 {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

func failure(reason, raw string) *ParseError {
	snippet := strings.TrimSpace(raw)
	if len(snippet) > snippetLimit {
		snippet = snippet[:snippetLimit] + "..."
	}
	return &ParseError{Reason: reason, Snippet: snippet}
}
