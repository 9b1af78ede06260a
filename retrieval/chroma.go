// Package retrieval provides the rebuildable similarity index over the
// knowledge base, backed by the Chroma vector database.
package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
)

// Chroma wraps the Chroma vector database REST API. Chroma v2 expects
// client-supplied embeddings on add and query, so the wrapper carries an
// embeddings provider.
type Chroma struct {
	baseURL        string
	tenant         string
	database       string
	collectionName string
	collectionID   string
	httpClient     *http.Client
	embedder       EmbeddingsProvider
}

// ChromaConfig holds configuration for Chroma connection
type ChromaConfig struct {
	Host           string
	Port           int
	CollectionName string
	Embedder       EmbeddingsProvider
}

// Document represents a document to be stored in Chroma
type Document struct {
	ID       string
	Content  string
	Metadata map[string]interface{}
}

// QueryResults represents the response from a similarity query
type QueryResults struct {
	IDs        [][]string                 `json:"ids"`
	Distances  [][]float32                `json:"distances"`
	Metadatas  [][]map[string]interface{} `json:"metadatas"`
	Documents  [][]string                 `json:"documents"`
	Embeddings [][][]float32              `json:"embeddings"`
}

// NewChroma creates a new Chroma wrapper instance
func NewChroma(ctx context.Context, config ChromaConfig) (*Chroma, error) {
	if config.Embedder == nil {
		return nil, fmt.Errorf("no embeddings provider configured. Set COHERE_API_KEY or OPENAI_API_KEY to enable client-side embeddings required by Chroma v2")
	}

	wrapper := &Chroma{
		baseURL:        fmt.Sprintf("http://%s:%d/api/v2", config.Host, config.Port),
		tenant:         "default_tenant",
		database:       "default_database",
		collectionName: config.CollectionName,
		httpClient:     &http.Client{},
		embedder:       config.Embedder,
	}
	log.Printf("Using embeddings provider: %s", wrapper.embedder.ModelName())

	collectionID, err := wrapper.getOrCreateCollection(ctx, config.CollectionName)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create collection: %w", err)
	}

	wrapper.collectionID = collectionID
	return wrapper, nil
}

// getOrCreateCollection gets an existing collection or creates a new one
func (c *Chroma) getOrCreateCollection(ctx context.Context, name string) (string, error) {
	url := fmt.Sprintf("%s/tenants/%s/databases/%s/collections/%s", c.baseURL, c.tenant, c.database, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)

	if err == nil && resp.StatusCode == http.StatusOK {
		defer resp.Body.Close()
		var result map[string]interface{}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return "", err
		}
		id, ok := result["id"].(string)
		if !ok {
			return "", fmt.Errorf("collection response missing id")
		}
		log.Printf("Using existing collection: %s", name)
		return id, nil
	}
	if resp != nil {
		resp.Body.Close()
	}

	log.Printf("Creating new collection: %s", name)
	createURL := fmt.Sprintf("%s/tenants/%s/databases/%s/collections", c.baseURL, c.tenant, c.database)
	payload := map[string]interface{}{
		"name": name,
		"metadata": map[string]interface{}{
			"description": "signalbot news knowledge base",
		},
		"get_or_create": true,
	}

	body, err := c.post(ctx, createURL, payload)
	if err != nil {
		return "", fmt.Errorf("failed to create collection: %w", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w, body: %s", err, string(body))
	}
	id, ok := result["id"].(string)
	if !ok {
		return "", fmt.Errorf("create collection response missing id: %s", string(body))
	}
	return id, nil
}

// Reset drops the collection and recreates it empty. This is the first step
// of an authoritative rebuild; stale entries from the incremental fast path
// are discarded here.
func (c *Chroma) Reset(ctx context.Context) error {
	url := fmt.Sprintf("%s/tenants/%s/databases/%s/collections/%s", c.baseURL, c.tenant, c.database, c.collectionName)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	defer resp.Body.Close()

	// 404 means there was nothing to drop; a cold start is not an error.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to delete collection (status %d): %s", resp.StatusCode, string(body))
	}

	collectionID, err := c.getOrCreateCollection(ctx, c.collectionName)
	if err != nil {
		return err
	}
	c.collectionID = collectionID
	return nil
}

// collectionURL returns the base URL for collection operations
func (c *Chroma) collectionURL() string {
	return fmt.Sprintf("%s/tenants/%s/databases/%s/collections/%s", c.baseURL, c.tenant, c.database, c.collectionID)
}

// AddDocuments embeds and adds a batch of documents to the collection.
func (c *Chroma) AddDocuments(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	documents := make([]string, len(docs))
	metadatas := make([]map[string]interface{}, len(docs))
	ids := make([]string, len(docs))
	for i, doc := range docs {
		documents[i] = doc.Content
		metadatas[i] = doc.Metadata
		ids[i] = doc.ID
	}

	embs, err := c.embedder.EmbedTexts(ctx, documents)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings: %w", err)
	}

	payload := map[string]interface{}{
		"documents":  documents,
		"metadatas":  metadatas,
		"ids":        ids,
		"embeddings": embs,
	}

	if _, err := c.post(ctx, fmt.Sprintf("%s/add", c.collectionURL()), payload); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}

	log.Printf("Added %d documents to collection", len(docs))
	return nil
}

// QuerySimilar searches for documents nearest to the query text. Candidate
// embeddings are included in the response so callers can diversity-filter.
func (c *Chroma) QuerySimilar(ctx context.Context, queryText string, nResults int) (*QueryResults, error) {
	embs, err := c.embedder.EmbedTexts(ctx, []string{queryText})
	if err != nil {
		return nil, fmt.Errorf("failed to generate query embeddings: %w", err)
	}

	payload := map[string]interface{}{
		"n_results":        nResults,
		"include":          []string{"metadatas", "documents", "distances", "embeddings"},
		"query_embeddings": embs,
	}

	body, err := c.post(ctx, fmt.Sprintf("%s/query", c.collectionURL()), payload)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	var result QueryResults
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Count returns the number of documents in the collection
func (c *Chroma) Count(ctx context.Context) (int, error) {
	url := fmt.Sprintf("%s/count", c.collectionURL())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("failed to count documents: %s", string(body))
	}

	var count int
	if err := json.NewDecoder(resp.Body).Decode(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (c *Chroma) post(ctx context.Context, url string, payload map[string]interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
