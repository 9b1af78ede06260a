package retrieval

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"signalbot/types"
)

// VectorClient is the slice of the vector store the index needs. *Chroma
// satisfies it; tests substitute a fake.
type VectorClient interface {
	Reset(ctx context.Context) error
	AddDocuments(ctx context.Context, docs []Document) error
	QuerySimilar(ctx context.Context, queryText string, nResults int) (*QueryResults, error)
	Count(ctx context.Context) (int, error)
}

const (
	rebuildBatchSize = 64
	// mmrLambda balances query relevance against diversity among the
	// already-picked results. 0.5 weighs them equally.
	mmrLambda = 0.5
)

// Index is the similarity index over the knowledge archive. It is derived
// state: the CSV archive is authoritative and the index can be rebuilt from
// it wholesale at any time.
type Index struct {
	client             VectorClient
	candidatePoolScale int
}

// NewIndex wraps a vector client. candidatePoolScale widens the candidate
// pool fetched per search before diversity filtering; values below 1 are
// clamped to 1.
func NewIndex(client VectorClient, candidatePoolScale int) *Index {
	if candidatePoolScale < 1 {
		candidatePoolScale = 1
	}
	return &Index{client: client, candidatePoolScale: candidatePoolScale}
}

// Rebuild drops the collection and re-adds every record from scratch. A
// rebuild over zero records succeeds and leaves an empty index.
func (ix *Index) Rebuild(ctx context.Context, records []types.ContentRecord) error {
	if err := ix.client.Reset(ctx); err != nil {
		return fmt.Errorf("index reset failed: %w", err)
	}

	for start := 0; start < len(records); start += rebuildBatchSize {
		end := start + rebuildBatchSize
		if end > len(records) {
			end = len(records)
		}
		if err := ix.client.AddDocuments(ctx, toDocuments(records[start:end])); err != nil {
			return fmt.Errorf("index rebuild batch %d-%d failed: %w", start, end, err)
		}
	}

	log.Printf("Index rebuilt with %d record(s)", len(records))
	return nil
}

// Add upserts records incrementally. Used by the fast path between
// reconciliation runs; the next rebuild supersedes whatever this wrote.
func (ix *Index) Add(ctx context.Context, records []types.ContentRecord) error {
	if len(records) == 0 {
		return nil
	}
	return ix.client.AddDocuments(ctx, toDocuments(records))
}

// Count returns the number of indexed documents.
func (ix *Index) Count(ctx context.Context) (int, error) {
	return ix.client.Count(ctx)
}

// Search returns up to k records relevant to the query, reranked for
// diversity with maximal marginal relevance over a wider candidate pool.
// When the store returns no candidate vectors the relevance order is kept.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]types.ContentRecord, error) {
	if k <= 0 {
		return nil, nil
	}

	poolSize := k * ix.candidatePoolScale
	results, err := ix.client.QuerySimilar(ctx, query, poolSize)
	if err != nil {
		return nil, fmt.Errorf("similarity query failed: %w", err)
	}

	candidates := fromQueryResults(results)
	if len(candidates) == 0 {
		return nil, nil
	}

	order := mmrOrder(candidates, k)
	out := make([]types.ContentRecord, 0, len(order))
	for _, i := range order {
		out = append(out, candidates[i].record)
	}
	return out, nil
}

type candidate struct {
	record    types.ContentRecord
	embedding []float32
	// distance from the query as reported by the store; lower is closer.
	distance float32
}

func toDocuments(records []types.ContentRecord) []Document {
	docs := make([]Document, len(records))
	for i, r := range records {
		docs[i] = Document{
			ID:      r.ID,
			Content: r.BodyText,
			Metadata: map[string]interface{}{
				"source":       r.Source,
				"title":        r.Title,
				"publish_date": r.Timestamp.UTC().Format(time.RFC3339),
			},
		}
	}
	return docs
}

// fromQueryResults reconstructs content records from the first query's
// result lists. The lists are parallel; entries missing from an optional
// list are tolerated.
func fromQueryResults(results *QueryResults) []candidate {
	if results == nil || len(results.IDs) == 0 {
		return nil
	}

	ids := results.IDs[0]
	candidates := make([]candidate, 0, len(ids))
	for i, id := range ids {
		c := candidate{record: types.ContentRecord{ID: id}}

		if len(results.Documents) > 0 && i < len(results.Documents[0]) {
			c.record.BodyText = results.Documents[0][i]
		}
		if len(results.Metadatas) > 0 && i < len(results.Metadatas[0]) {
			meta := results.Metadatas[0][i]
			if v, ok := meta["title"].(string); ok {
				c.record.Title = v
			}
			if v, ok := meta["source"].(string); ok {
				c.record.Source = v
			}
			if v, ok := meta["publish_date"].(string); ok {
				if ts, err := time.Parse(time.RFC3339, v); err == nil {
					c.record.Timestamp = ts
				}
			}
		}
		if len(results.Distances) > 0 && i < len(results.Distances[0]) {
			c.distance = results.Distances[0][i]
		}
		if len(results.Embeddings) > 0 && i < len(results.Embeddings[0]) {
			c.embedding = results.Embeddings[0][i]
		}
		candidates = append(candidates, c)
	}
	return candidates
}

// mmrOrder picks up to k candidate indices by maximal marginal relevance.
// Candidates arrive in relevance order; without embeddings to compare,
// that order stands.
func mmrOrder(candidates []candidate, k int) []int {
	if k > len(candidates) {
		k = len(candidates)
	}

	haveVectors := true
	for _, c := range candidates {
		if len(c.embedding) == 0 {
			haveVectors = false
			break
		}
	}
	if !haveVectors {
		order := make([]int, k)
		for i := range order {
			order[i] = i
		}
		return order
	}

	// Relevance per candidate from the store's distance, normalized so the
	// closest candidate scores highest.
	relevance := make([]float64, len(candidates))
	for i, c := range candidates {
		relevance[i] = 1.0 / (1.0 + float64(c.distance))
	}

	selected := make([]int, 0, k)
	picked := make([]bool, len(candidates))

	for len(selected) < k {
		best := -1
		bestScore := math.Inf(-1)
		// Candidates are scanned in relevance order; a strict improvement
		// requirement makes ties resolve to the earlier candidate, keeping
		// the selection deterministic.
		for i := range candidates {
			if picked[i] {
				continue
			}
			maxSim := 0.0
			for _, j := range selected {
				sim := cosineSimilarity(candidates[i].embedding, candidates[j].embedding)
				if sim > maxSim {
					maxSim = sim
				}
			}
			score := mmrLambda*relevance[i] - (1-mmrLambda)*maxSim
			if score > bestScore {
				bestScore = score
				best = i
			}
		}
		if best < 0 {
			break
		}
		selected = append(selected, best)
		picked[best] = true
	}

	return selected
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// SortOldestFirst orders records ascending by timestamp for prompt
// assembly, so newer developments read after the history they follow.
func SortOldestFirst(records []types.ContentRecord) {
	sort.Slice(records, func(i, j int) bool {
		if !records[i].Timestamp.Equal(records[j].Timestamp) {
			return records[i].Timestamp.Before(records[j].Timestamp)
		}
		return records[i].ID < records[j].ID
	})
}
