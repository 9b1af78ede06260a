// Package app assembles the application from configuration. Everything is
// built once here and passed explicitly; no package-level singletons.
package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"signalbot/analyst"
	"signalbot/common"
	"signalbot/config"
	"signalbot/ingest"
	"signalbot/knowledge"
	"signalbot/llm"
	"signalbot/market"
	"signalbot/notify"
	"signalbot/reconcile"
	"signalbot/retrieval"
)

// App holds every long-lived component of the running service.
type App struct {
	Config   config.Config
	Store    *knowledge.Store
	Buffer   *knowledge.Buffer
	Index    *retrieval.Index
	Analyst  *analyst.Analyst
	Pipeline *reconcile.Pipeline
	Saver    *ingest.Saver
	Seen     *ingest.SeenFilter
	Notifier *notify.Telegram
	Price    *market.PriceClient
	Consumer *ingest.Consumer
}

// New builds the application graph. Optional components (Kafka, Redis,
// Telegram, S3) come up disabled when unconfigured; the core decision and
// reconciliation paths always come up or construction fails.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir %s: %w", cfg.DataDir, err)
	}

	var snapshotter reconcile.Snapshotter
	snapshotKey := filepath.Base(cfg.ArchivePath)
	if cfg.S3Bucket != "" {
		snaps, err := common.NewArchiveSnapshots(ctx, common.S3Config{
			Bucket: cfg.S3Bucket,
			Region: cfg.S3Region,
			Prefix: cfg.S3Prefix,
		})
		if err != nil {
			log.Printf("Warning: failed to init S3 snapshots: %v (uploads disabled)", err)
		} else {
			snapshotter = snaps
			if err := maybeRestoreArchive(ctx, snaps, cfg.ArchivePath, snapshotKey); err != nil {
				log.Printf("Warning: archive restore from snapshot failed: %v (starting cold)", err)
			}
		}
	}

	store := knowledge.NewStore(cfg.ArchivePath)
	if err := store.Load(); err != nil {
		return nil, fmt.Errorf("archive load failed: %w", err)
	}
	log.Printf("Knowledge archive loaded: %d record(s)", store.Count())

	buffer := knowledge.NewBuffer(cfg.BufferPath)

	embedder := retrieval.NewDefaultEmbeddingsProvider(cfg.EmbeddingModel)
	chroma, err := retrieval.NewChroma(ctx, retrieval.ChromaConfig{
		Host:           cfg.ChromaHost,
		Port:           cfg.ChromaPort,
		CollectionName: cfg.ChromaCollection,
		Embedder:       embedder,
	})
	if err != nil {
		return nil, fmt.Errorf("vector store init failed: %w", err)
	}
	index := retrieval.NewIndex(chroma, config.CandidatePoolFactor)

	generator, err := llm.NewGemini(ctx, cfg.GeminiAPIKey, cfg.LLMModel)
	if err != nil {
		return nil, fmt.Errorf("generator init failed: %w", err)
	}

	app := &App{
		Config:   cfg,
		Store:    store,
		Buffer:   buffer,
		Index:    index,
		Analyst:  analyst.New(index, generator, config.RetrievalK),
		Notifier: notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID),
		Price:    market.NewPriceClient(),
		Seen:     ingest.NewSeenFilter(cfg.RedisAddr, cfg.RedisPassword, cfg.BloomKey, cfg.BloomTTL),
	}
	app.Saver = ingest.NewSaver(buffer, index)

	app.Pipeline = reconcile.NewPipeline(reconcile.PipelineConfig{
		Store:       store,
		Buffer:      buffer,
		Index:       index,
		Snapshotter: snapshotter,
		SnapshotKey: snapshotKey,
	})

	return app, nil
}

// snapshotRestorer is the slice of the snapshot store that archive restore
// needs.
type snapshotRestorer interface {
	Exists(ctx context.Context, key string) (bool, error)
	DownloadFile(ctx context.Context, key, localPath string) error
}

// maybeRestoreArchive pulls the last uploaded archive snapshot when no
// local archive exists yet, so a fresh host resumes from the last
// reconciled state instead of an empty knowledge base.
func maybeRestoreArchive(ctx context.Context, snaps snapshotRestorer, archivePath, key string) error {
	if _, err := os.Stat(archivePath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}

	found, err := snaps.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("snapshot lookup failed: %w", err)
	}
	if !found {
		return nil
	}

	log.Printf("Restoring knowledge archive from snapshot %s", key)
	return snaps.DownloadFile(ctx, key, archivePath)
}

// Bootstrap rebuilds the index when it is empty but the archive is not.
// Happens on first boot and after the vector store loses its volume.
func (a *App) Bootstrap(ctx context.Context) error {
	count, err := a.Index.Count(ctx)
	if err != nil {
		return fmt.Errorf("index count failed: %w", err)
	}
	if count > 0 || a.Store.Count() == 0 {
		return nil
	}

	log.Printf("Index empty with %d archived record(s), rebuilding", a.Store.Count())
	return a.Index.Rebuild(ctx, a.Store.All())
}

// StartConsumer brings up the Kafka fast path when brokers are configured.
func (a *App) StartConsumer(ctx context.Context) error {
	if len(a.Config.KafkaBrokers) == 0 {
		log.Println("Kafka not configured; live stream disabled")
		return nil
	}

	fastPath := &ingest.FastPath{
		Watchlist:           a.Config.Watchlist,
		Seen:                a.Seen,
		Saver:               a.Saver,
		Analyst:             a.Analyst,
		Notifier:            a.Notifier,
		Price:               a.Price,
		ConfidenceThreshold: a.Config.ConfidenceThreshold,
		ImpactThreshold:     a.Config.ImpactThreshold,
	}

	consumer, err := ingest.NewConsumer(ingest.ConsumerConfig{
		Brokers: a.Config.KafkaBrokers,
		Topic:   a.Config.KafkaTopic,
		GroupID: a.Config.KafkaGroupID,
		Handler: fastPath.NewsHandler(),
	})
	if err != nil {
		return fmt.Errorf("kafka consumer init failed: %w", err)
	}

	if err := consumer.Start(ctx); err != nil {
		return err
	}
	a.Consumer = consumer
	return nil
}

// Shutdown stops intake first, then drains the saver so every accepted
// item reaches the pending buffer before exit.
func (a *App) Shutdown() {
	if a.Consumer != nil {
		if err := a.Consumer.Close(); err != nil {
			log.Printf("Kafka consumer close error: %v", err)
		}
	}
	a.Saver.Close()
	if err := a.Seen.Close(); err != nil {
		log.Printf("Redis close error: %v", err)
	}
}
