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

// intentCacheTTL is the fixed TTL for intent sub-cache entries: intent
// classification is cheap to recompute but stable per query, so a longer
// TTL than the answer cache is safe.
const intentCacheTTL = 2 * time.Hour

// intentCacheValue is the cached classification payload.
type intentCacheValue struct {
	Intent     model.Intent     `json:"intent"`
	Complexity model.Complexity `json:"complexity"`
}

// IntentCache memoizes the classifier's heuristic-or-model decision for a
// raw query so repeated queries (common across users asking the same
// question) skip the classification model call.
type IntentCache struct {
	client *redis.Client
}

// NewIntentCache creates an IntentCache.
func NewIntentCache(client *redis.Client) *IntentCache {
	return &IntentCache{client: client}
}

// Get returns the cached (intent, complexity) pair for query, if present.
func (c *IntentCache) Get(ctx context.Context, query string) (model.Intent, model.Complexity, bool) {
	raw, err := c.client.Get(ctx, intentKey(query)).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("[CACHE-INTENT] get failed", "error", err)
		}
		return "", "", false
	}
	var v intentCacheValue
	if err := json.Unmarshal(raw, &v); err != nil {
		slog.Warn("[CACHE-INTENT] decode failed", "error", err)
		return "", "", false
	}
	return v.Intent, v.Complexity, true
}

// Set stores the classification result for query under the fixed intent
// cache TTL (7200s).
func (c *IntentCache) Set(ctx context.Context, query string, intent model.Intent, complexity model.Complexity) error {
	raw, err := json.Marshal(intentCacheValue{Intent: intent, Complexity: complexity})
	if err != nil {
		return fmt.Errorf("cache.IntentCache.Set: marshal: %w", err)
	}
	if err := c.client.Set(ctx, intentKey(query), raw, intentCacheTTL).Err(); err != nil {
		return fmt.Errorf("cache.IntentCache.Set: %w", err)
	}
	return nil
}
