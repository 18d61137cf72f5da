package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lunexa/zimlaw-orchestrator/internal/model"
)

// ExactCache is the first, cheapest semantic-cache layer: a direct lookup by
// (user type, normalized query hash). A hit here skips retrieval, reranking,
// and synthesis entirely.
type ExactCache struct {
	client *redis.Client
}

// NewExactCache creates an ExactCache.
func NewExactCache(client *redis.Client) *ExactCache {
	return &ExactCache{client: client}
}

// Get looks up a cached entry for query under userType. A miss (including a
// Redis error, which is logged and treated as a miss) returns ok=false —
// cache unavailability must never fail the request.
func (c *ExactCache) Get(ctx context.Context, userType model.UserType, query string) (model.CacheEntry, bool) {
	key := exactKey(userType, normalizeQuery(query))
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("[CACHE-EXACT] get failed", "error", err)
		}
		return model.CacheEntry{}, false
	}

	var entry model.CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		slog.Warn("[CACHE-EXACT] decode failed", "error", err)
		return model.CacheEntry{}, false
	}

	if err := c.client.Incr(ctx, key+":hits").Err(); err != nil {
		slog.Warn("[CACHE-EXACT] hit counter increment failed", "error", err)
	}

	return entry, true
}

// Set stores entry under (userType, query) with the given TTL, plus a
// sibling meta record carrying the raw query text. Nothing in this package
// reads the meta record back; the similarity layer's Index takes the query
// text directly.
func (c *ExactCache) Set(ctx context.Context, userType model.UserType, query string, entry model.CacheEntry, ttl time.Duration) error {
	normalized := normalizeQuery(query)
	key := exactKey(userType, normalized)

	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("cache.ExactCache.Set: marshal entry: %w", err)
	}
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache.ExactCache.Set: %w", err)
	}

	meta := model.CacheMeta{QueryText: query}
	metaRaw, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("cache.ExactCache.Set: marshal meta: %w", err)
	}
	if err := c.client.Set(ctx, exactMetaKey(userType, normalized), metaRaw, ttl).Err(); err != nil {
		return fmt.Errorf("cache.ExactCache.Set: meta: %w", err)
	}
	return nil
}
