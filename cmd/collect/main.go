// Command collect backfills the knowledge base from RSS feeds: fetch,
// enrich, buffer, then run one reconciliation cycle so the archive and
// index pick the new items up immediately.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"signalbot/collect"
	"signalbot/config"
	"signalbot/knowledge"
	"signalbot/reconcile"
	"signalbot/retrieval"
)

func main() {
	_ = godotenv.Load()

	var (
		feedKeys   = flag.String("feeds", "", "comma-separated feed preset keys (default: all presets)")
		maxPerFeed = flag.Int("max", 50, "maximum items fetched per feed")
		noEnrich   = flag.Bool("no-enrich", false, "skip full-text enrichment of thin items")
	)
	flag.Parse()

	cfg := config.Load()
	ctx := context.Background()

	feeds := resolveFeeds(*feedKeys)
	if len(feeds) == 0 {
		log.Fatal("no feeds selected")
	}

	log.Printf("Fetching %d feed(s)...", len(feeds))
	items := collect.FetchAll(feeds, *maxPerFeed)
	log.Printf("Fetched %d item(s)", len(items))
	if len(items) == 0 {
		return
	}

	if !*noEnrich {
		log.Printf("Extracting full content using %d workers...", collect.WorkerCount)
		collect.EnrichAll(items)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("failed to create data dir: %v", err)
	}

	buffer := knowledge.NewBuffer(cfg.BufferPath)
	buffered := 0
	for _, item := range items {
		record, ok := knowledge.Normalize(item.News)
		if !ok {
			continue
		}
		if err := buffer.Append(record); err != nil {
			log.Printf("Failed to buffer %s: %v", record.ID, err)
			continue
		}
		buffered++
	}
	log.Printf("Buffered %d/%d item(s)", buffered, len(items))

	store := knowledge.NewStore(cfg.ArchivePath)
	if err := store.Load(); err != nil {
		log.Fatalf("archive load failed: %v", err)
	}

	embedder := retrieval.NewDefaultEmbeddingsProvider(cfg.EmbeddingModel)
	chroma, err := retrieval.NewChroma(ctx, retrieval.ChromaConfig{
		Host:           cfg.ChromaHost,
		Port:           cfg.ChromaPort,
		CollectionName: cfg.ChromaCollection,
		Embedder:       embedder,
	})
	if err != nil {
		log.Fatalf("vector store init failed: %v", err)
	}

	pipeline := reconcile.NewPipeline(reconcile.PipelineConfig{
		Store:       store,
		Buffer:      buffer,
		Index:       retrieval.NewIndex(chroma, config.CandidatePoolFactor),
		SnapshotKey: filepath.Base(cfg.ArchivePath),
	})

	log.Println("Running reconciliation cycle...")
	if err := pipeline.Run(ctx); err != nil {
		log.Fatalf("reconciliation failed: %v", err)
	}
	log.Printf("Done: archive now holds %d record(s)", store.Count())
}

func resolveFeeds(keys string) []collect.FeedConfig {
	if strings.TrimSpace(keys) == "" {
		feeds := make([]collect.FeedConfig, 0, len(collect.FeedPresets))
		for _, feed := range collect.FeedPresets {
			feeds = append(feeds, feed)
		}
		return feeds
	}

	var feeds []collect.FeedConfig
	for _, key := range strings.Split(keys, ",") {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		feed, ok := collect.FeedPresets[key]
		if !ok {
			log.Printf("Unknown feed preset %q, skipping", key)
			continue
		}
		feeds = append(feeds, feed)
	}
	return feeds
}
