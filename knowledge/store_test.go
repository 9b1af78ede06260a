package knowledge

import (
	"path/filepath"
	"testing"
	"time"

	"signalbot/types"
)

func newsItem(id, headline, summary string, ts time.Time) types.NewsItem {
	return types.NewsItem{
		ID:        id,
		Timestamp: ts,
		Headline:  headline,
		Summary:   summary,
		Source:    "test-feed",
		Symbols:   []string{"BTC"},
	}
}

func TestNormalizeSynthesizesBody(t *testing.T) {
	ts := time.Now()

	tests := []struct {
		name     string
		headline string
		summary  string
		wantBody string
	}{
		{"empty summary", "Fed cuts rates", "", "Fed cuts rates"},
		{"thin summary dropped", "Fed cuts rates", "see more inside now", "Fed cuts rates"},
		{"five tokens dropped", "Fed cuts rates", "one two three four five", "Fed cuts rates"},
		{
			"six tokens kept",
			"Fed cuts rates",
			"one two three four five six",
			"Fed cuts rates. one two three four five six",
		},
		{
			"rich summary appended",
			"Fed cuts rates",
			"The committee voted unanimously to lower the target range.",
			"Fed cuts rates. The committee voted unanimously to lower the target range.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, ok := Normalize(newsItem("id1", tt.headline, tt.summary, ts))
			if !ok {
				t.Fatal("Normalize() rejected a valid item")
			}
			if record.BodyText != tt.wantBody {
				t.Errorf("BodyText = %q, want %q", record.BodyText, tt.wantBody)
			}
		})
	}
}

func TestNormalizeDropsMalformed(t *testing.T) {
	ts := time.Now()

	if _, ok := Normalize(newsItem("", "headline", "", ts)); ok {
		t.Error("Normalize() accepted an item with no id")
	}
	if _, ok := Normalize(newsItem("id1", "", "", ts)); ok {
		t.Error("Normalize() accepted an item with no headline")
	}
	if _, ok := Normalize(newsItem("id1", "   ", "", ts)); ok {
		t.Error("Normalize() accepted a whitespace headline")
	}
}

func TestNormalizeUnescapesEntities(t *testing.T) {
	record, ok := Normalize(newsItem("id1", "Stocks &amp; bonds rally", "", time.Now()))
	if !ok {
		t.Fatal("Normalize() rejected a valid item")
	}
	if record.Title != "Stocks & bonds rally" {
		t.Errorf("Title = %q, want unescaped entity", record.Title)
	}
}

func TestMergeIdempotent(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "kb.csv"))
	ts := time.Now()
	items := []types.NewsItem{
		newsItem("a", "headline a", "", ts),
		newsItem("b", "headline b", "", ts),
	}

	first := store.Merge(items)
	if first.Added != 2 || first.Updated != 0 || first.Total != 2 {
		t.Fatalf("first merge = %+v, want 2 added, total 2", first)
	}

	second := store.Merge(items)
	if second.Added != 0 || second.Updated != 2 || second.Total != 2 {
		t.Fatalf("second merge = %+v, want 2 updated, total 2", second)
	}
}

func TestMergeLastWriteWins(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "kb.csv"))
	ts := time.Now()

	store.Merge([]types.NewsItem{newsItem("a", "old headline", "", ts)})
	store.Merge([]types.NewsItem{newsItem("a", "new headline", "", ts)})

	records := store.All()
	if len(records) != 1 {
		t.Fatalf("len(All()) = %d, want 1", len(records))
	}
	if records[0].Title != "new headline" {
		t.Errorf("Title = %q, want the later write", records[0].Title)
	}
}

func TestMergeCountsDropped(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "kb.csv"))
	ts := time.Now()

	report := store.Merge([]types.NewsItem{
		newsItem("a", "valid", "", ts),
		newsItem("", "no id", "", ts),
		newsItem("b", "", "", ts),
	})
	if report.Added != 1 || report.Dropped != 2 {
		t.Errorf("report = %+v, want 1 added, 2 dropped", report)
	}
}

func TestAllOrderedNewestFirst(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "kb.csv"))
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	store.Merge([]types.NewsItem{
		newsItem("old", "old", "", base.Add(-48*time.Hour)),
		newsItem("new", "new", "", base),
		newsItem("mid", "mid", "", base.Add(-24*time.Hour)),
	})

	records := store.All()
	got := []string{records[0].ID, records[1].ID, records[2].ID}
	want := []string{"new", "mid", "old"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestAllTiesBrokenByID(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "kb.csv"))
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	store.Merge([]types.NewsItem{
		newsItem("bbb", "b", "", ts),
		newsItem("aaa", "a", "", ts),
	})

	records := store.All()
	if records[0].ID != "aaa" || records[1].ID != "bbb" {
		t.Errorf("tie order = [%s %s], want [aaa bbb]", records[0].ID, records[1].ID)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.csv")
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	store := NewStore(path)
	store.Merge([]types.NewsItem{
		newsItem("a", "headline a", "a much longer summary with plenty of tokens to keep", ts),
		newsItem("b", "headline b", "", ts.Add(time.Hour)),
	})
	if err := store.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	reloaded := NewStore(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if reloaded.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", reloaded.Count())
	}

	records := reloaded.All()
	if records[0].ID != "b" {
		t.Errorf("first record = %s, want newest (b)", records[0].ID)
	}
	if records[1].BodyText != "headline a. a much longer summary with plenty of tokens to keep" {
		t.Errorf("BodyText not preserved: %q", records[1].BodyText)
	}
	if len(records[1].Symbols) != 1 || records[1].Symbols[0] != "BTC" {
		t.Errorf("Symbols = %v, want [BTC]", records[1].Symbols)
	}
}

func TestLoadMissingFileIsColdStart(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing.csv"))
	if err := store.Load(); err != nil {
		t.Fatalf("Load() on missing file error = %v, want nil", err)
	}
	if store.Count() != 0 {
		t.Errorf("Count() = %d, want 0", store.Count())
	}
}
