package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"signalbot/analyst"
	"signalbot/knowledge"
	"signalbot/report"
	"signalbot/types"
)

type fakeAssessor struct {
	assessment analyst.Assessment
	err        error
	calls      int
}

func (f *fakeAssessor) Assess(ctx context.Context, headline string) (analyst.Assessment, error) {
	f.calls++
	return f.assessment, f.err
}

type fakeNotifier struct {
	alerts []types.Alert
}

func (f *fakeNotifier) SendAlert(ctx context.Context, alert types.Alert) {
	f.alerts = append(f.alerts, alert)
}

type fakePrice struct{}

func (fakePrice) Snapshot(ctx context.Context, symbol string) string { return "$50000.00" }

func alertingAssessment() analyst.Assessment {
	return analyst.Assessment{
		Decision: types.Decision{
			Direction:  "Negative",
			Impact:     9,
			Confidence: 8,
			Analysis:   "Geopolitical, risk-off.",
		},
		RawReport: "Direction: Negative ...",
	}
}

func newTestFastPath(t *testing.T, assessor Assessor, notifier *fakeNotifier) (*FastPath, *knowledge.Buffer) {
	t.Helper()
	buffer := knowledge.NewBuffer(filepath.Join(t.TempDir(), "buffer.csv"))
	return &FastPath{
		Watchlist:           []string{"BTC", "ETH"},
		Saver:               NewSaver(buffer, nil),
		Analyst:             assessor,
		Notifier:            notifier,
		Price:               fakePrice{},
		ConfidenceThreshold: 7,
		ImpactThreshold:     7,
	}, buffer
}

func btcItem() *types.NewsItem {
	return &types.NewsItem{
		ID:        "item-1",
		Timestamp: time.Now(),
		Headline:  "BTC plunges after surprise rate decision",
		Source:    "test-feed",
	}
}

func TestProcessAlertsOnStrongDecision(t *testing.T) {
	assessor := &fakeAssessor{assessment: alertingAssessment()}
	notifier := &fakeNotifier{}
	fp, _ := newTestFastPath(t, assessor, notifier)

	if err := fp.Process(context.Background(), btcItem()); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if assessor.calls != 1 {
		t.Errorf("analyst calls = %d, want 1", assessor.calls)
	}
	if len(notifier.alerts) != 1 {
		t.Fatalf("alerts = %d, want 1", len(notifier.alerts))
	}
	alert := notifier.alerts[0]
	if alert.Price != "$50000.00" {
		t.Errorf("alert price = %q, want snapshot value", alert.Price)
	}
	if alert.Decision.Direction != "Negative" {
		t.Errorf("alert direction = %q", alert.Decision.Direction)
	}
}

func TestProcessNoAlertBelowThresholds(t *testing.T) {
	assessment := alertingAssessment()
	assessment.Decision.Confidence = 5
	assessor := &fakeAssessor{assessment: assessment}
	notifier := &fakeNotifier{}
	fp, _ := newTestFastPath(t, assessor, notifier)

	if err := fp.Process(context.Background(), btcItem()); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(notifier.alerts) != 0 {
		t.Errorf("alerts = %d, want 0", len(notifier.alerts))
	}
}

func TestProcessNoAlertOnNeutral(t *testing.T) {
	assessment := alertingAssessment()
	assessment.Decision.Direction = "Neutral"
	assessor := &fakeAssessor{assessment: assessment}
	notifier := &fakeNotifier{}
	fp, _ := newTestFastPath(t, assessor, notifier)

	if err := fp.Process(context.Background(), btcItem()); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(notifier.alerts) != 0 {
		t.Errorf("alerts = %d, want 0 for neutral direction", len(notifier.alerts))
	}
}

func TestProcessParseFailureIsContained(t *testing.T) {
	assessor := &fakeAssessor{err: &report.ParseError{Reason: "Direction label not found"}}
	notifier := &fakeNotifier{}
	fp, buffer := newTestFastPath(t, assessor, notifier)

	if err := fp.Process(context.Background(), btcItem()); err != nil {
		t.Fatalf("Process() error = %v, parse failure must not propagate", err)
	}
	if len(notifier.alerts) != 0 {
		t.Errorf("alerts = %d, want 0", len(notifier.alerts))
	}

	// The item is still persisted for the knowledge base.
	fp.Saver.Close()
	rows, err := buffer.Drain()
	if err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("buffered rows = %d, want 1", len(rows))
	}
}

func TestProcessGeneratorFailureIsContained(t *testing.T) {
	assessor := &fakeAssessor{err: errors.New("model unavailable")}
	notifier := &fakeNotifier{}
	fp, _ := newTestFastPath(t, assessor, notifier)

	if err := fp.Process(context.Background(), btcItem()); err != nil {
		t.Fatalf("Process() error = %v, want contained failure", err)
	}
	if len(notifier.alerts) != 0 {
		t.Errorf("alerts = %d, want 0", len(notifier.alerts))
	}
}

func TestProcessOffWatchlistArchivedWithoutAssessment(t *testing.T) {
	assessor := &fakeAssessor{assessment: alertingAssessment()}
	notifier := &fakeNotifier{}
	fp, buffer := newTestFastPath(t, assessor, notifier)

	item := &types.NewsItem{
		ID:        "item-2",
		Timestamp: time.Now(),
		Headline:  "Celebrity opens a new restaurant",
		Source:    "test-feed",
	}
	if err := fp.Process(context.Background(), item); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if assessor.calls != 0 {
		t.Errorf("analyst calls = %d, want 0 for off-watchlist item", assessor.calls)
	}

	fp.Saver.Close()
	rows, err := buffer.Drain()
	if err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("buffered rows = %d, want 1 (archived regardless)", len(rows))
	}
}

func TestProcessDropsMalformedItem(t *testing.T) {
	assessor := &fakeAssessor{}
	notifier := &fakeNotifier{}
	fp, buffer := newTestFastPath(t, assessor, notifier)

	item := &types.NewsItem{ID: "item-3", Headline: "   "}
	if err := fp.Process(context.Background(), item); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	fp.Saver.Close()
	rows, _ := buffer.Drain()
	if len(rows) != 0 {
		t.Errorf("buffered rows = %d, want 0 for malformed item", len(rows))
	}
}

func TestNewsHandlerMarksInvalidJSON(t *testing.T) {
	fp, _ := newTestFastPath(t, &fakeAssessor{}, &fakeNotifier{})
	handler := fp.NewsHandler()

	shouldMark, err := handler.HandleMessage(context.Background(), []byte("not json"))
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if !shouldMark {
		t.Error("shouldMark = false, want true so malformed messages are skipped")
	}
}

func TestRelevant(t *testing.T) {
	watchlist := []string{"BTC", "ETH/USD", "SPY"}

	tests := []struct {
		name   string
		record types.ContentRecord
		want   bool
	}{
		{"symbol tag match", types.ContentRecord{Title: "markets today", Symbols: []string{"BTC"}}, true},
		{"symbol tag case-insensitive", types.ContentRecord{Title: "markets", Symbols: []string{"btc"}}, true},
		{"headline substring", types.ContentRecord{Title: "BTC hits new high"}, true},
		{"headline lowercase", types.ContentRecord{Title: "btc hits new high"}, true},
		{"pair symbol in headline", types.ContentRecord{Title: "ETH/USD tumbles"}, true},
		{"no match", types.ContentRecord{Title: "local sports roundup"}, false},
		{"unrelated symbols", types.ContentRecord{Title: "earnings", Symbols: []string{"AAPL"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Relevant(tt.record, watchlist); got != tt.want {
				t.Errorf("Relevant() = %v, want %v", got, tt.want)
			}
		})
	}

	if !Relevant(types.ContentRecord{Title: "anything"}, nil) {
		t.Error("empty watchlist must match everything")
	}
}
