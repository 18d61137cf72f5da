package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/lunexa/zimlaw-orchestrator/internal/model"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestExactCache_SetThenGet(t *testing.T) {
	client := newTestClient(t)
	c := NewExactCache(client)
	ctx := context.Background()

	entry := model.CacheEntry{Answer: "The minimum wage is set by statutory instrument.", Confidence: 0.9}
	if err := c.Set(ctx, model.UserCitizen, "What is the minimum wage?", entry, time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, ok := c.Get(ctx, model.UserCitizen, "what is the minimum wage?")
	if !ok {
		t.Fatal("expected cache hit on normalized-equivalent query")
	}
	if got.Answer != entry.Answer {
		t.Fatalf("unexpected answer: %q", got.Answer)
	}
}

func TestExactCache_MissOnDifferentUserType(t *testing.T) {
	client := newTestClient(t)
	c := NewExactCache(client)
	ctx := context.Background()

	entry := model.CacheEntry{Answer: "answer"}
	if err := c.Set(ctx, model.UserCitizen, "query", entry, time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}

	_, ok := c.Get(ctx, model.UserProfessional, "query")
	if ok {
		t.Fatal("expected miss across different user types")
	}
}

func TestSimilarityCache_HitAboveThreshold(t *testing.T) {
	client := newTestClient(t)
	exact := NewExactCache(client)
	sim := NewSimilarityCache(client, exact)
	ctx := context.Background()

	entry := model.CacheEntry{Answer: "answer about labour law"}
	if err := exact.Set(ctx, model.UserCitizen, "what is the labour act", entry, time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	embedding := []float32{1, 0, 0}
	if err := sim.Index(ctx, model.UserCitizen, "what is the labour act", embedding, time.Hour); err != nil {
		t.Fatalf("Index: %v", err)
	}

	got, ok := sim.Lookup(ctx, model.UserCitizen, []float32{1, 0, 0})
	if !ok {
		t.Fatal("expected similarity hit for identical embedding")
	}
	if got.Answer != entry.Answer {
		t.Fatalf("unexpected answer: %q", got.Answer)
	}
}

func TestSimilarityCache_MissBelowThreshold(t *testing.T) {
	client := newTestClient(t)
	exact := NewExactCache(client)
	sim := NewSimilarityCache(client, exact)
	ctx := context.Background()

	entry := model.CacheEntry{Answer: "answer"}
	if err := exact.Set(ctx, model.UserCitizen, "query", entry, time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := sim.Index(ctx, model.UserCitizen, "query", []float32{1, 0, 0}, time.Hour); err != nil {
		t.Fatalf("Index: %v", err)
	}

	_, ok := sim.Lookup(ctx, model.UserCitizen, []float32{0, 1, 0})
	if ok {
		t.Fatal("expected miss for orthogonal embedding")
	}
}

func TestCosineSimilarity(t *testing.T) {
	if sim := cosineSimilarity([]float32{1, 0}, []float32{1, 0}); sim < 0.999 {
		t.Fatalf("expected identical vectors to have similarity ~1, got %f", sim)
	}
	if sim := cosineSimilarity([]float32{1, 0}, []float32{0, 1}); sim > 0.001 {
		t.Fatalf("expected orthogonal vectors to have similarity ~0, got %f", sim)
	}
	if sim := cosineSimilarity(nil, []float32{1}); sim != -1 {
		t.Fatalf("expected -1 for mismatched/empty vectors, got %f", sim)
	}
}

func TestIntentCache_SetThenGet(t *testing.T) {
	client := newTestClient(t)
	c := NewIntentCache(client)
	ctx := context.Background()

	if err := c.Set(ctx, "what are my rights on arrest", model.IntentRightsInquiry, model.ComplexityModerate); err != nil {
		t.Fatalf("Set: %v", err)
	}
	intent, complexity, ok := c.Get(ctx, "what are my rights on arrest")
	if !ok {
		t.Fatal("expected intent cache hit")
	}
	if intent != model.IntentRightsInquiry || complexity != model.ComplexityModerate {
		t.Fatalf("unexpected cached values: %v %v", intent, complexity)
	}
}

func TestEmbeddingCache_SetThenGet(t *testing.T) {
	client := newTestClient(t)
	c := NewEmbeddingCache(client)
	ctx := context.Background()

	vec := []float32{0.1, 0.2, 0.3}
	if err := c.Set(ctx, "raw query", vec); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok := c.Get(ctx, "raw query")
	if !ok {
		t.Fatal("expected embedding cache hit")
	}
	if len(got) != len(vec) {
		t.Fatalf("unexpected embedding length: %d", len(got))
	}
}

func TestSemanticCache_LookupFallsThroughToSimilarity(t *testing.T) {
	client := newTestClient(t)
	sc := NewSemanticCache(client)
	ctx := context.Background()

	entry := model.CacheEntry{Answer: "fused answer"}
	sc.Store(ctx, model.UserCitizen, "what is the constitution", []float32{1, 0}, entry, time.Hour)

	got, ok := sc.Lookup(ctx, model.UserCitizen, "what is the constitution", []float32{1, 0})
	if !ok {
		t.Fatal("expected exact hit on identical query")
	}
	if got.Answer != entry.Answer {
		t.Fatalf("unexpected answer: %q", got.Answer)
	}

	got, ok = sc.Lookup(ctx, model.UserCitizen, "tell me about the constitution please", []float32{1, 0})
	if !ok {
		t.Fatal("expected similarity hit on reworded query with identical embedding")
	}
	if got.Answer != entry.Answer {
		t.Fatalf("unexpected answer on similarity fallback: %q", got.Answer)
	}
}
