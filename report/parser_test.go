package report

import (
	"strings"
	"testing"
)

const canonicalReport = `**STRUCTURED ANALYSIS REPORT:**
**Direction:** [Negative]
**Impact Score:** [9]
**Confidence Score:** [8]
**Analysis:** [Geopolitical: risk-off event per protocol, strong historical precedent in context.]`

func TestParseCanonicalReport(t *testing.T) {
	d, err := Parse(canonicalReport)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if d.Direction != "Negative" {
		t.Errorf("Direction = %q, want %q", d.Direction, "Negative")
	}
	if d.Impact != 9 {
		t.Errorf("Impact = %d, want 9", d.Impact)
	}
	if d.Confidence != 8 {
		t.Errorf("Confidence = %d, want 8", d.Confidence)
	}
	if !strings.HasPrefix(d.Analysis, "Geopolitical:") {
		t.Errorf("Analysis = %q, want Geopolitical prefix", d.Analysis)
	}
}

func TestParseVariants(t *testing.T) {
	tests := []struct {
		name          string
		raw           string
		wantDirection string
		wantImpact    int
	}{
		{
			name:          "plain labels no markdown",
			raw:           "Direction: Positive\nImpact Score: 8\nConfidence Score: 7\nAnalysis: Catalyst-Signal, ETF approval.",
			wantDirection: "Positive",
			wantImpact:    8,
		},
		{
			name:          "no brackets around values",
			raw:           "**Direction:** Positive\n**Impact Score:** 10\n**Confidence Score:** 9\n**Analysis:** Mainnet launch is a concrete action.",
			wantDirection: "Positive",
			wantImpact:    10,
		},
		{
			name:          "lowercase labels",
			raw:           "direction: negative\nimpact score: 7\nconfidence score: 7\nanalysis: Macro, CPI above consensus.",
			wantDirection: "negative",
			wantImpact:    7,
		},
		{
			name:          "preamble before the report",
			raw:           "Here is my assessment of the headline.\n\n" + canonicalReport,
			wantDirection: "Negative",
			wantImpact:    9,
		},
		{
			name:          "single asterisk emphasis",
			raw:           "*Direction:* [Neutral]\n*Impact Score:* [2]\n*Confidence Score:* [5]\n*Analysis:* [Noise, market summary.]",
			wantDirection: "Neutral",
			wantImpact:    2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Parse(tt.raw)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if d.Direction != tt.wantDirection {
				t.Errorf("Direction = %q, want %q", d.Direction, tt.wantDirection)
			}
			if d.Impact != tt.wantImpact {
				t.Errorf("Impact = %d, want %d", d.Impact, tt.wantImpact)
			}
		})
	}
}

func TestParseAnchorsOnLastAnalysisLabel(t *testing.T) {
	raw := "Direction: Negative\n" +
		"Impact Score: 8\n" +
		"Confidence Score: 8\n" +
		"Analysis: preliminary take, superseded below.\n" +
		"Analysis: Geopolitical, final single-sentence justification."

	d, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := "Geopolitical, final single-sentence justification."
	if d.Analysis != want {
		t.Errorf("Analysis = %q, want %q", d.Analysis, want)
	}
}

func TestParseKeepsAsterisksInAnalysisText(t *testing.T) {
	raw := "**Direction:** [Negative]\n" +
		"**Impact Score:** [8]\n" +
		"**Confidence Score:** [7]\n" +
		"**Analysis:** Rejection at the 200*day average, *not* yet confirmed."

	d, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !strings.Contains(d.Analysis, "200*day") || !strings.Contains(d.Analysis, "*not*") {
		t.Errorf("Analysis = %q, literal asterisks must be preserved", d.Analysis)
	}
	if d.Direction != "Negative" {
		t.Errorf("Direction = %q, want %q", d.Direction, "Negative")
	}
}

func TestParseMissingFields(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty report", ""},
		{"prose only", "The market looks uncertain today, hard to say."},
		{"missing direction", "Impact Score: 8\nConfidence Score: 7\nAnalysis: something."},
		{"missing impact", "Direction: Positive\nConfidence Score: 7\nAnalysis: something."},
		{"missing confidence", "Direction: Positive\nImpact Score: 8\nAnalysis: something."},
		{"missing analysis", "Direction: Positive\nImpact Score: 8\nConfidence Score: 7"},
		{"non-numeric score", "Direction: Positive\nImpact Score: high\nConfidence Score: 7\nAnalysis: x."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Parse(tt.raw)
			if err == nil {
				t.Fatalf("Parse() = %+v, want error", d)
			}
			if _, ok := err.(*ParseError); !ok {
				t.Errorf("error type = %T, want *ParseError", err)
			}
		})
	}
}

func TestParseEnforcesFieldOrder(t *testing.T) {
	// Scores appearing before the Direction label must not satisfy the
	// contract: fields are matched in report order.
	raw := "Impact Score: 9\nConfidence Score: 9\nDirection: Positive\nAnalysis: out of order."
	if _, err := Parse(raw); err == nil {
		t.Fatal("Parse() accepted out-of-order fields, want error")
	}
}

func TestParseErrorSnippetBounded(t *testing.T) {
	raw := strings.Repeat("x", 1000)
	_, err := Parse(raw)
	parseErr, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("error type = %T, want *ParseError", err)
	}
	if len(parseErr.Snippet) > snippetLimit+3 {
		t.Errorf("snippet length = %d, want <= %d", len(parseErr.Snippet), snippetLimit+3)
	}
}
