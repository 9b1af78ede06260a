package types

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// NewsItem represents a single news event as delivered by the stream or a
// backfill collector. ID is globally unique; duplicate IDs are the same
// event and the latest delivery wins.
type NewsItem struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Headline  string    `json:"headline"`
	Summary   string    `json:"summary,omitempty"`
	Source    string    `json:"source"`
	Symbols   []string  `json:"symbols,omitempty"`
}

// ContentRecord is the normalized, retrievable form of a NewsItem kept in
// the knowledge base. BodyText is what gets embedded.
type ContentRecord struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Title     string    `json:"title"`
	BodyText  string    `json:"rag_content"`
	Source    string    `json:"source"`
	Symbols   []string  `json:"symbols,omitempty"`
}

// minSummaryTokens is the cutoff below which a summary is treated as noise
// and dropped from the retrievable body text.
const minSummaryTokens = 5

// SynthesizeBody builds the retrievable body text from a headline and
// summary. Summaries of five or fewer whitespace-delimited tokens dilute
// the semantic signal and are discarded.
func SynthesizeBody(headline, summary string) string {
	summary = strings.TrimSpace(summary)
	if summary == "" || len(strings.Fields(summary)) <= minSummaryTokens {
		return headline
	}
	return headline + ". " + summary
}

// GenerateID creates a short, stable ID by hashing the provided string input
func GenerateID(input string) string {
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])[:16]
}
