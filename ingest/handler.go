package ingest

import (
	"context"
	"log"
	"strings"
	"time"

	"signalbot/analyst"
	"signalbot/knowledge"
	"signalbot/market"
	"signalbot/notify"
	"signalbot/report"
	"signalbot/types"
)

// Assessor is the analyst surface the fast path calls.
type Assessor interface {
	Assess(ctx context.Context, headline string) (analyst.Assessment, error)
}

// PriceSource returns a formatted spot price for the alert message.
type PriceSource interface {
	Snapshot(ctx context.Context, symbol string) string
}

// FastPath handles one live news item end to end: dedupe, persist,
// relevance filter, assessment, alert. Every failure is contained to the
// item; the stream never stops because one headline went wrong.
type FastPath struct {
	Watchlist           []string
	Seen                *SeenFilter
	Saver               *Saver
	Analyst             Assessor
	Notifier            notify.Notifier
	Price               PriceSource
	ConfidenceThreshold int
	ImpactThreshold     int
}

// NewsHandler wires the fast path into the typed Kafka handler. Items that
// fail normalization are marked and skipped, not retried; retrying cannot
// fix a malformed item.
func (p *FastPath) NewsHandler() MessageHandler {
	return &TypedMessageHandler[types.NewsItem]{
		AlwaysMark: true,
		Process:    p.Process,
	}
}

// Process runs the fast path for a single item. The returned error is only
// ever logged upstream; offsets are marked regardless.
func (p *FastPath) Process(ctx context.Context, item *types.NewsItem) error {
	record, ok := knowledge.Normalize(*item)
	if !ok {
		log.Printf("Dropping malformed news item (id=%q)", item.ID)
		return nil
	}

	if p.Seen.Seen(ctx, record.ID) {
		log.Printf("Skipping duplicate item %s", record.ID)
		return nil
	}
	if err := p.Seen.Mark(ctx, record.ID); err != nil {
		log.Printf("Warning: failed to mark item %s as seen: %v", record.ID, err)
	}

	// Persist first so the knowledge base learns the item even when the
	// assessment below fails or the item is off-watchlist.
	if p.Saver != nil {
		p.Saver.Enqueue(record)
	}

	if !Relevant(record, p.Watchlist) {
		log.Printf("Item %s not on watchlist, archived without assessment", record.ID)
		return nil
	}

	assessment, err := p.Analyst.Assess(ctx, record.Title)
	if err != nil {
		if parseErr, ok := err.(*report.ParseError); ok {
			log.Printf("Report parse failed for %s: %v", record.ID, parseErr)
		} else {
			log.Printf("Assessment failed for %s: %v", record.ID, err)
		}
		return nil
	}

	log.Printf("Assessed %s: direction=%s impact=%d confidence=%d",
		record.ID, assessment.Decision.Direction, assessment.Decision.Impact, assessment.Decision.Confidence)

	if !report.ShouldAlert(assessment.Decision, p.ConfidenceThreshold, p.ImpactThreshold) {
		return nil
	}

	price := "Price N/A"
	if p.Price != nil {
		price = p.Price.Snapshot(ctx, "BTCUSDT")
	}
	if p.Notifier != nil {
		p.Notifier.SendAlert(ctx, types.Alert{
			Decision:    assessment.Decision,
			Headline:    record.Title,
			Price:       price,
			TriggeredAt: time.Now().UTC(),
		})
	}
	return nil
}

// Relevant reports whether the record mentions a watched symbol, either in
// its tagged symbols or as a substring of the headline. An empty watchlist
// matches everything.
func Relevant(record types.ContentRecord, watchlist []string) bool {
	if len(watchlist) == 0 {
		return true
	}

	headline := strings.ToUpper(record.Title)
	for _, symbol := range watchlist {
		want := strings.ToUpper(strings.TrimSpace(symbol))
		if want == "" {
			continue
		}
		for _, tagged := range record.Symbols {
			if strings.EqualFold(strings.TrimSpace(tagged), want) {
				return true
			}
		}
		if strings.Contains(headline, want) {
			return true
		}
	}
	return false
}

var _ PriceSource = (*market.PriceClient)(nil)
