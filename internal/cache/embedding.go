package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// embeddingCacheTTL is the fixed TTL for the raw-embedding sub-cache: an
// hour is long enough to absorb the retry/refinement loop's repeated
// embedding of the same query text within one request, and short enough
// that a changed embedding model rolls over quickly.
const embeddingCacheTTL = 1 * time.Hour

// EmbeddingCache memoizes the raw embedding vector for a query string,
// avoiding a redundant embedding-model call across the rewriter's variants,
// the retrieval engine, and the similarity cache layer within one request
// lifecycle (and across requests for repeated queries).
type EmbeddingCache struct {
	client *redis.Client
}

// NewEmbeddingCache creates an EmbeddingCache.
func NewEmbeddingCache(client *redis.Client) *EmbeddingCache {
	return &EmbeddingCache{client: client}
}

// Get returns the cached embedding for query, if present.
func (c *EmbeddingCache) Get(ctx context.Context, query string) ([]float32, bool) {
	raw, err := c.client.Get(ctx, embeddingKey(query)).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("[CACHE-EMBEDDING] get failed", "error", err)
		}
		return nil, false
	}
	var vec []float32
	if err := json.Unmarshal(raw, &vec); err != nil {
		slog.Warn("[CACHE-EMBEDDING] decode failed", "error", err)
		return nil, false
	}
	return vec, true
}

// Set stores embedding for query under the fixed embedding cache TTL
// (3600s).
func (c *EmbeddingCache) Set(ctx context.Context, query string, embedding []float32) error {
	raw, err := json.Marshal(embedding)
	if err != nil {
		return fmt.Errorf("cache.EmbeddingCache.Set: marshal: %w", err)
	}
	if err := c.client.Set(ctx, embeddingKey(query), raw, embeddingCacheTTL).Err(); err != nil {
		return fmt.Errorf("cache.EmbeddingCache.Set: %w", err)
	}
	return nil
}
