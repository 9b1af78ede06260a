// Package knowledge keeps the append-only news archive and the pending
// ingest buffer that the reconciliation pipeline merges into it.
package knowledge

import (
	"fmt"
	"strings"
	"time"

	"signalbot/types"
)

// Archive and buffer files share one row shape so buffered rows can be
// merged without re-normalization.
var csvHeader = []string{"id", "timestamp", "title", "rag_content", "source", "symbols"}

func encodeRecord(r types.ContentRecord) []string {
	return []string{
		r.ID,
		r.Timestamp.UTC().Format(time.RFC3339),
		r.Title,
		r.BodyText,
		r.Source,
		strings.Join(r.Symbols, ","),
	}
}

func decodeRecord(row []string) (types.ContentRecord, error) {
	if len(row) < len(csvHeader) {
		return types.ContentRecord{}, fmt.Errorf("row has %d columns, want %d", len(row), len(csvHeader))
	}

	ts, err := parseTimestamp(row[1])
	if err != nil {
		return types.ContentRecord{}, fmt.Errorf("bad timestamp %q: %w", row[1], err)
	}

	var symbols []string
	for _, s := range strings.Split(row[5], ",") {
		if s = strings.TrimSpace(s); s != "" {
			symbols = append(symbols, s)
		}
	}

	return types.ContentRecord{
		ID:        row[0],
		Timestamp: ts,
		Title:     row[2],
		BodyText:  row[3],
		Source:    row[4],
		Symbols:   symbols,
	}, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimestamp accepts the RFC3339 form we write plus the looser shapes
// older archives were collected with.
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func isHeaderRow(row []string) bool {
	return len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), "id")
}
