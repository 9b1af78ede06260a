package collect

import (
	"log"
	"strings"
	"sync"
	"time"

	readability "github.com/go-shiori/go-readability"
)

const (
	WorkerCount      = 5
	extractorTimeout = 30 * time.Second

	// Items whose summary has at most this many tokens get full-text
	// enrichment; longer summaries already carry enough signal.
	thinSummaryTokens = 5
)

// EnrichAll fetches readable full text for thin items using a worker pool.
// Extraction failures leave the item as fetched; backfill proceeds either way.
func EnrichAll(items []*FeedItem) {
	var wg sync.WaitGroup
	itemChan := make(chan *FeedItem, len(items))

	for i := 0; i < WorkerCount; i++ {
		go func(workerID int) {
			for item := range itemChan {
				if err := enrich(item); err != nil {
					log.Printf("[Worker %d] Failed to extract %s: %v", workerID, item.Link, err)
				}
				wg.Done()
			}
		}(i)
	}

	for _, item := range items {
		if !needsEnrichment(item) {
			continue
		}
		wg.Add(1)
		itemChan <- item
	}

	wg.Wait()
	close(itemChan)
}

func needsEnrichment(item *FeedItem) bool {
	if item.Link == "" {
		return false
	}
	return len(strings.Fields(item.News.Summary)) <= thinSummaryTokens
}

func enrich(item *FeedItem) error {
	extracted, err := readability.FromURL(item.Link, extractorTimeout)
	if err != nil {
		return err
	}

	text := strings.TrimSpace(extracted.TextContent)
	if text == "" {
		return nil
	}

	// Keep the prompt-sized excerpt, not the whole article body.
	if excerpt := strings.TrimSpace(extracted.Excerpt); excerpt != "" && len(excerpt) < len(text) {
		text = excerpt
	}
	item.News.Summary = text
	log.Printf("✓ Extracted: %s", item.News.Headline)
	return nil
}
