package types

import (
	"strings"
	"time"
)

// Decision is the structured verdict parsed from an analyst report.
// Impact and Confidence are 1-10 integers; Impact 0 marks an explicit
// "not relevant" classification.
type Decision struct {
	Direction  string `json:"direction"`
	Impact     int    `json:"impact"`
	Confidence int    `json:"confidence"`
	Analysis   string `json:"analysis"`
}

// IsNeutral reports whether the decision direction is "Neutral",
// case-insensitively.
func (d Decision) IsNeutral() bool {
	return strings.EqualFold(strings.TrimSpace(d.Direction), "neutral")
}

// Alert captures a decision that crossed the alert thresholds, together
// with the headline and market context it was made against.
type Alert struct {
	Decision    Decision  `json:"decision"`
	Headline    string    `json:"headline"`
	Price       string    `json:"price,omitempty"`
	TriggeredAt time.Time `json:"triggered_at"`
}

// MergeReport summarizes the outcome of merging a batch of news items into
// the record store. Dropped counts malformed items that were skipped, not
// raised.
type MergeReport struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Dropped int `json:"dropped"`
	Total   int `json:"total"`
}
