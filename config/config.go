package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Default alert thresholds (1-10 scale)
const (
	DefaultConfidenceThreshold = 7
	DefaultImpactThreshold     = 7
)

// Default model identifiers
const (
	DefaultLLMModel       = "gemini-2.5-flash"
	DefaultEmbeddingModel = "embed-english-v3.0"
)

// Retrieval constants
const (
	// RetrievalK is the number of historical precedents handed to the model.
	RetrievalK = 10
	// CandidatePoolFactor sizes the pre-diversity candidate pool relative to k.
	CandidatePoolFactor = 3
)

// DefaultReconcileHourUTC is when the daily reconciliation cycle runs.
const DefaultReconcileHourUTC = 3

// DefaultWatchlist lists the symbols that make a news item relevant.
var DefaultWatchlist = []string{
	"BTC/USD", "BTC", "BTCUSD",
	"ETH/USD", "ETH", "ETHUSD",
	"SOL/USD", "SOL", "SOLUSD",
	"XRP/USD", "XRP", "XRPUSD",
	"BNB/USD", "BNB", "BNBUSD",
	"SPY", "QQQ",
}

// Config holds every startup setting. All values are read once at process
// start; there is no hot reload.
type Config struct {
	// Alerting
	ConfidenceThreshold int
	ImpactThreshold     int
	Watchlist           []string

	// Models
	LLMModel       string
	EmbeddingModel string
	GeminiAPIKey   string

	// Storage
	DataDir     string
	ArchivePath string
	BufferPath  string

	// Chroma
	ChromaHost       string
	ChromaPort       int
	ChromaCollection string

	// Kafka live stream (optional; stream disabled when no brokers)
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	// Redis bloom filter (optional; disabled when addr empty)
	RedisAddr     string
	RedisPassword string
	BloomKey      string
	BloomTTL      time.Duration

	// Telegram
	TelegramToken  string
	TelegramChatID string

	// S3 archive snapshots (optional)
	S3Bucket string
	S3Region string
	S3Prefix string

	// API
	Port string

	// Reconciliation schedule
	ReconcileHourUTC int
}

// Load reads configuration from the environment, applying defaults.
func Load() Config {
	dataDir := getEnvOrDefault("DATA_DIR", "data")

	cfg := Config{
		ConfidenceThreshold: getEnvInt("CONFIDENCE_THRESHOLD", DefaultConfidenceThreshold),
		ImpactThreshold:     getEnvInt("IMPACT_THRESHOLD", DefaultImpactThreshold),
		Watchlist:           DefaultWatchlist,
		LLMModel:            getEnvOrDefault("LLM_MODEL", DefaultLLMModel),
		EmbeddingModel:      getEnvOrDefault("EMBEDDING_MODEL", DefaultEmbeddingModel),
		GeminiAPIKey:        os.Getenv("GEMINI_API_KEY"),
		DataDir:             dataDir,
		ArchivePath:         getEnvOrDefault("KNOWLEDGE_BASE_CSV", filepath.Join(dataDir, "knowledge_base.csv")),
		BufferPath:          getEnvOrDefault("LIVE_BUFFER_CSV", filepath.Join(dataDir, "live_buffer.csv")),
		ChromaHost:          getEnvOrDefault("CHROMA_HOST", "localhost"),
		ChromaPort:          getEnvInt("CHROMA_PORT", 8000),
		ChromaCollection:    getEnvOrDefault("CHROMA_COLLECTION", "news_knowledge_base"),
		KafkaTopic:          getEnvOrDefault("KAFKA_TOPIC", "market-news"),
		KafkaGroupID:        getEnvOrDefault("KAFKA_GROUP_ID", "signalbot-analyst"),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		RedisPassword:       os.Getenv("REDIS_PASS"),
		BloomKey:            getEnvOrDefault("BLOOM_KEY", "news:seen"),
		BloomTTL:            24 * time.Hour,
		TelegramToken:       os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:      os.Getenv("TELEGRAM_CHAT_ID"),
		S3Bucket:            strings.TrimSpace(os.Getenv("S3_BUCKET")),
		S3Region:            strings.TrimSpace(os.Getenv("S3_REGION")),
		S3Prefix:            strings.Trim(strings.TrimSpace(os.Getenv("S3_PREFIX")), "/"),
		Port:                getEnvOrDefault("PORT", "8080"),
		ReconcileHourUTC:    getEnvInt("RECONCILE_HOUR_UTC", DefaultReconcileHourUTC),
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	if symbols := os.Getenv("SYMBOL_WATCHLIST"); symbols != "" {
		cfg.Watchlist = nil
		for _, s := range strings.Split(symbols, ",") {
			if s = strings.TrimSpace(s); s != "" {
				cfg.Watchlist = append(cfg.Watchlist, s)
			}
		}
	}

	if t := os.Getenv("BLOOM_TTL_SECONDS"); t != "" {
		if secs, err := strconv.Atoi(t); err == nil && secs > 0 {
			cfg.BloomTTL = time.Duration(secs) * time.Second
		}
	}

	return cfg
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
