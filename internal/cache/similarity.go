package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lunexa/zimlaw-orchestrator/internal/model"
)

// similarityThreshold is the minimum cosine similarity for a near-duplicate
// query to count as a semantic-cache hit.
const similarityThreshold = 0.95

// indexEntry is one member of a user type's semantic index: the embedding
// used for similarity comparison plus the exact-cache key it resolves to.
type indexEntry struct {
	Embedding []float32 `json:"embedding"`
	ExactKey  string    `json:"exactKey"`
}

// SimilarityCache is the second semantic-cache layer: it holds every cached
// query's embedding per user type and serves a hit when an incoming query's
// embedding is cosine-similar enough to a previously answered one, even if
// the wording differs.
type SimilarityCache struct {
	client    *redis.Client
	exact     *ExactCache
	threshold float64
}

// NewSimilarityCache creates a SimilarityCache using the package-default
// similarity threshold (0.95).
func NewSimilarityCache(client *redis.Client, exact *ExactCache) *SimilarityCache {
	return &SimilarityCache{client: client, exact: exact, threshold: similarityThreshold}
}

// Lookup scans userType's semantic index for the nearest neighbor to
// queryEmbedding. If its cosine similarity clears the threshold, the
// matching exact-cache entry is returned.
func (c *SimilarityCache) Lookup(ctx context.Context, userType model.UserType, queryEmbedding []float32) (model.CacheEntry, bool) {
	members, err := c.client.HGetAll(ctx, semanticIndexKey(userType)).Result()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("[CACHE-SIMILARITY] index read failed", "error", err)
		}
		return model.CacheEntry{}, false
	}

	bestSim := -1.0
	var bestKey string
	for _, raw := range members {
		var entry indexEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			continue
		}
		sim := cosineSimilarity(queryEmbedding, entry.Embedding)
		if sim > bestSim {
			bestSim = sim
			bestKey = entry.ExactKey
		}
	}

	if bestSim < c.threshold {
		return model.CacheEntry{}, false
	}

	raw, err := c.client.Get(ctx, bestKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("[CACHE-SIMILARITY] exact-key resolve failed", "error", err, "key", bestKey)
		}
		return model.CacheEntry{}, false
	}

	var cached model.CacheEntry
	if err := json.Unmarshal(raw, &cached); err != nil {
		slog.Warn("[CACHE-SIMILARITY] decode failed", "error", err)
		return model.CacheEntry{}, false
	}

	slog.Info("[CACHE-SIMILARITY] semantic hit", "similarity", bestSim, "user_type", userType)
	return cached, true
}

// Index registers query's embedding in userType's semantic index, keyed to
// the exact-cache key it should resolve to on a future similarity hit. ttl
// is not applied to the index entry: members stay in the hash until
// overwritten.
func (c *SimilarityCache) Index(ctx context.Context, userType model.UserType, query string, embedding []float32, ttl time.Duration) error {
	normalized := normalizeQuery(query)
	entry := indexEntry{Embedding: embedding, ExactKey: exactKey(userType, normalized)}
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("cache.SimilarityCache.Index: marshal: %w", err)
	}

	indexKey := semanticIndexKey(userType)
	member := md5Hex(normalized)
	if err := c.client.HSet(ctx, indexKey, member, raw).Err(); err != nil {
		return fmt.Errorf("cache.SimilarityCache.Index: hset: %w", err)
	}
	// The index key itself carries no expiry (it is a long-lived hash of
	// many members), but stale members age out naturally since their
	// exact-cache key will have expired by the time Lookup resolves them.
	return nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return -1
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return -1
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
