package retrieval

import (
	"context"
	"testing"
	"time"

	"signalbot/types"
)

// fakeVectorClient records calls and serves canned query results.
type fakeVectorClient struct {
	resets  int
	batches [][]Document
	results *QueryResults
	count   int
}

func (f *fakeVectorClient) Reset(ctx context.Context) error {
	f.resets++
	f.batches = nil
	return nil
}

func (f *fakeVectorClient) AddDocuments(ctx context.Context, docs []Document) error {
	f.batches = append(f.batches, docs)
	return nil
}

func (f *fakeVectorClient) QuerySimilar(ctx context.Context, queryText string, nResults int) (*QueryResults, error) {
	return f.results, nil
}

func (f *fakeVectorClient) Count(ctx context.Context) (int, error) {
	return f.count, nil
}

func makeRecords(n int) []types.ContentRecord {
	records := make([]types.ContentRecord, n)
	for i := range records {
		records[i] = types.ContentRecord{
			ID:        string(rune('a' + i%26)),
			Timestamp: time.Now(),
			Title:     "headline",
			BodyText:  "headline body",
		}
	}
	return records
}

func TestRebuildEmptyArchive(t *testing.T) {
	fake := &fakeVectorClient{}
	ix := NewIndex(fake, 3)

	if err := ix.Rebuild(context.Background(), nil); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if fake.resets != 1 {
		t.Errorf("resets = %d, want 1", fake.resets)
	}
	if len(fake.batches) != 0 {
		t.Errorf("batches = %d, want 0 for empty archive", len(fake.batches))
	}
}

func TestRebuildBatches(t *testing.T) {
	fake := &fakeVectorClient{}
	ix := NewIndex(fake, 3)

	if err := ix.Rebuild(context.Background(), makeRecords(150)); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if len(fake.batches) != 3 {
		t.Fatalf("batches = %d, want 3 (64+64+22)", len(fake.batches))
	}
	if len(fake.batches[0]) != 64 || len(fake.batches[2]) != 22 {
		t.Errorf("batch sizes = %d,%d,%d", len(fake.batches[0]), len(fake.batches[1]), len(fake.batches[2]))
	}
}

func queryResultsFor(ids []string, distances []float32, embeddings [][]float32) *QueryResults {
	docs := make([]string, len(ids))
	metas := make([]map[string]interface{}, len(ids))
	for i, id := range ids {
		docs[i] = "body " + id
		metas[i] = map[string]interface{}{
			"title":        "title " + id,
			"source":       "feed",
			"publish_date": "2025-06-01T12:00:00Z",
		}
	}
	results := &QueryResults{
		IDs:       [][]string{ids},
		Distances: [][]float32{distances},
		Documents: [][]string{docs},
		Metadatas: [][]map[string]interface{}{metas},
	}
	if embeddings != nil {
		results.Embeddings = [][][]float32{embeddings}
	}
	return results
}

func TestSearchKeepsRelevanceOrderWithoutVectors(t *testing.T) {
	fake := &fakeVectorClient{
		results: queryResultsFor(
			[]string{"a", "b", "c"},
			[]float32{0.1, 0.2, 0.3},
			nil,
		),
	}
	ix := NewIndex(fake, 3)

	records, err := ix.Search(context.Background(), "query", 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	if records[0].ID != "a" || records[1].ID != "b" {
		t.Errorf("order = [%s %s], want relevance order [a b]", records[0].ID, records[1].ID)
	}
}

func TestSearchDiversifiesWithMMR(t *testing.T) {
	// a and b are near-duplicates; c is orthogonal. With lambda 0.5 the
	// second pick must be c even though b is closer to the query.
	fake := &fakeVectorClient{
		results: queryResultsFor(
			[]string{"a", "b", "c"},
			[]float32{0.10, 0.12, 0.50},
			[][]float32{
				{1, 0},
				{0.99, 0.14},
				{0, 1},
			},
		),
	}
	ix := NewIndex(fake, 3)

	records, err := ix.Search(context.Background(), "query", 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	if records[0].ID != "a" {
		t.Errorf("first pick = %s, want most relevant (a)", records[0].ID)
	}
	if records[1].ID != "c" {
		t.Errorf("second pick = %s, want diverse candidate (c)", records[1].ID)
	}
}

func TestSearchTieBreaksByRelevanceOrder(t *testing.T) {
	// All three candidates are indistinguishable: same distance, same
	// embedding. Selection must fall back to the store's relevance order
	// instead of varying between runs.
	fake := &fakeVectorClient{
		results: queryResultsFor(
			[]string{"a", "b", "c"},
			[]float32{0.2, 0.2, 0.2},
			[][]float32{
				{1, 0},
				{1, 0},
				{1, 0},
			},
		),
	}
	ix := NewIndex(fake, 3)

	for run := 0; run < 5; run++ {
		records, err := ix.Search(context.Background(), "query", 2)
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("len(records) = %d, want 2", len(records))
		}
		if records[0].ID != "a" || records[1].ID != "b" {
			t.Fatalf("run %d order = [%s %s], want [a b]", run, records[0].ID, records[1].ID)
		}
	}
}

func TestSearchReconstructsRecords(t *testing.T) {
	fake := &fakeVectorClient{
		results: queryResultsFor([]string{"a"}, []float32{0.1}, nil),
	}
	ix := NewIndex(fake, 3)

	records, err := ix.Search(context.Background(), "query", 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	r := records[0]
	if r.Title != "title a" || r.Source != "feed" || r.BodyText != "body a" {
		t.Errorf("record = %+v, metadata not reconstructed", r)
	}
	want := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if !r.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", r.Timestamp, want)
	}
}

func TestSearchZeroK(t *testing.T) {
	ix := NewIndex(&fakeVectorClient{}, 3)
	records, err := ix.Search(context.Background(), "query", 0)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if records != nil {
		t.Errorf("records = %v, want nil", records)
	}
}

func TestSortOldestFirst(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	records := []types.ContentRecord{
		{ID: "new", Timestamp: base.Add(48 * time.Hour)},
		{ID: "old", Timestamp: base},
		{ID: "mid", Timestamp: base.Add(24 * time.Hour)},
	}

	SortOldestFirst(records)
	got := []string{records[0].ID, records[1].ID, records[2].ID}
	want := []string{"old", "mid", "new"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}
