package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lunexa/zimlaw-orchestrator/internal/model"
)

// SemanticCache composes the exact and similarity layers into the single
// answer-cache lookup the orchestrator calls at the top of a request: exact
// match first (cheapest), then embedding similarity.
type SemanticCache struct {
	Exact      *ExactCache
	Similarity *SimilarityCache
	Intent     *IntentCache
	Embedding  *EmbeddingCache
}

// NewSemanticCache wires all four cache layers against a single Redis
// client.
func NewSemanticCache(client *redis.Client) *SemanticCache {
	exact := NewExactCache(client)
	return &SemanticCache{
		Exact:      exact,
		Similarity: NewSimilarityCache(client, exact),
		Intent:     NewIntentCache(client),
		Embedding:  NewEmbeddingCache(client),
	}
}

// Lookup tries the exact layer, then the similarity layer, returning the
// first hit. Both misses return ok=false; callers proceed to the full
// pipeline.
func (c *SemanticCache) Lookup(ctx context.Context, userType model.UserType, query string, queryEmbedding []float32) (model.CacheEntry, bool) {
	if entry, ok := c.Exact.Get(ctx, userType, query); ok {
		slog.Info("[CACHE] exact hit", "user_type", userType)
		return entry, true
	}
	if entry, ok := c.Similarity.Lookup(ctx, userType, queryEmbedding); ok {
		return entry, true
	}
	return model.CacheEntry{}, false
}

// Store writes entry to both the exact and similarity layers under ttl, and
// best-effort logs (but does not propagate) any write failure — a cache
// write failure must never fail a request that already has its answer.
func (c *SemanticCache) Store(ctx context.Context, userType model.UserType, query string, queryEmbedding []float32, entry model.CacheEntry, ttl time.Duration) {
	if err := c.Exact.Set(ctx, userType, query, entry, ttl); err != nil {
		slog.Warn("[CACHE] exact store failed", "error", err)
		return
	}
	if err := c.Similarity.Index(ctx, userType, query, queryEmbedding, ttl); err != nil {
		slog.Warn("[CACHE] similarity index failed", "error", err)
	}
}
