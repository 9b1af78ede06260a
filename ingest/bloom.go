package ingest

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// SeenFilter is an id-keyed exact-duplicate pre-check backed by a
// RedisBloom filter. False positives are possible but only cost a skipped
// item; the archive merge deduplicates by id regardless.
type SeenFilter struct {
	redis *redis.Client
	key   string
	ttl   time.Duration
}

// NewSeenFilter connects to Redis, or returns nil when addr is empty or the
// server is unreachable. Callers treat a nil filter as "check disabled".
func NewSeenFilter(addr, password, key string, ttl time.Duration) *SeenFilter {
	if addr == "" {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Bloom filter will be disabled.", err)
		rdb.Close()
		return nil
	}

	return &SeenFilter{redis: rdb, key: key, ttl: ttl}
}

// Seen reports whether the id was already observed. Redis errors disable
// the check for this item rather than failing it.
func (f *SeenFilter) Seen(ctx context.Context, id string) bool {
	if f == nil {
		return false
	}

	exists, err := f.redis.Do(ctx, "BF.EXISTS", f.key, id).Bool()
	if err != nil {
		log.Printf("Warning: bloom filter check failed: %v", err)
		return false
	}
	return exists
}

// Mark records the id in the filter and refreshes the key's TTL so the
// whole filter ages out instead of growing forever.
func (f *SeenFilter) Mark(ctx context.Context, id string) error {
	if f == nil {
		return nil
	}

	if _, err := f.redis.Do(ctx, "BF.ADD", f.key, id).Result(); err != nil {
		return fmt.Errorf("failed to add id to bloom filter: %w", err)
	}
	if f.ttl > 0 {
		if err := f.redis.Expire(ctx, f.key, f.ttl).Err(); err != nil {
			log.Printf("Warning: failed to refresh bloom filter TTL: %v", err)
		}
	}
	return nil
}

// Close releases the Redis connection.
func (f *SeenFilter) Close() error {
	if f == nil || f.redis == nil {
		return nil
	}
	return f.redis.Close()
}
