package retrieval

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lunexa/zimlaw-orchestrator/internal/model"
)

type fakeVectorIndex struct {
	results []ProviderResult
	err     error
	delay   time.Duration
}

func (f *fakeVectorIndex) Search(ctx context.Context, _ []float32, _ int, _ Filters) ([]ProviderResult, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.results, f.err
}

type fakeSparseIndex struct {
	results []ProviderResult
	err     error
	delay   time.Duration
}

func (f *fakeSparseIndex) Search(ctx context.Context, _ string, _ int, _ Filters) ([]ProviderResult, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.results, f.err
}

type fakeEmbedder struct {
	vectors [][]float32
	err     error
}

func (f *fakeEmbedder) Embed(_ context.Context, batch []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.vectors != nil {
		return f.vectors, nil
	}
	out := make([][]float32, len(batch))
	for i := range batch {
		out[i] = []float32{0.1, 0.2}
	}
	return out, nil
}

func TestEngine_Retrieve_BothBranchesSucceed(t *testing.T) {
	vector := &fakeVectorIndex{results: []ProviderResult{{Chunk: model.Chunk{ID: "d1"}, Rank: 0}}}
	sparse := &fakeSparseIndex{results: []ProviderResult{{Chunk: model.Chunk{ID: "s1"}, Rank: 0}}}
	embedder := &fakeEmbedder{}

	e := NewEngine(vector, sparse, embedder, 500*time.Millisecond, 300*time.Millisecond)
	results, err := e.Retrieve(context.Background(), "what is the minimum wage", 10, 10, 0, Filters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 fused results, got %d", len(results))
	}
}

func TestEngine_Retrieve_DenseFailsSparseSurvives(t *testing.T) {
	vector := &fakeVectorIndex{err: errors.New("index unavailable")}
	sparse := &fakeSparseIndex{results: []ProviderResult{{Chunk: model.Chunk{ID: "s1"}, Rank: 0}}}
	embedder := &fakeEmbedder{}

	e := NewEngine(vector, sparse, embedder, 500*time.Millisecond, 300*time.Millisecond)
	results, err := e.Retrieve(context.Background(), "query", 10, 10, 0, Filters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 surviving result, got %d", len(results))
	}
}

func TestEngine_Retrieve_BothFail_ReturnsNoSourcesAvailable(t *testing.T) {
	vector := &fakeVectorIndex{err: errors.New("index unavailable")}
	sparse := &fakeSparseIndex{err: errors.New("db down")}
	embedder := &fakeEmbedder{}

	e := NewEngine(vector, sparse, embedder, 500*time.Millisecond, 300*time.Millisecond)
	_, err := e.Retrieve(context.Background(), "query", 10, 10, 0, Filters{})
	if err == nil {
		t.Fatal("expected error when both branches fail")
	}
	if !errors.Is(err, ErrNoSourcesAvailable) {
		t.Fatalf("expected ErrNoSourcesAvailable, got %v", err)
	}
}

func TestEngine_Retrieve_EmbedFailureDegradesToSparseOnly(t *testing.T) {
	vector := &fakeVectorIndex{results: []ProviderResult{{Chunk: model.Chunk{ID: "d1"}, Rank: 0}}}
	sparse := &fakeSparseIndex{results: []ProviderResult{{Chunk: model.Chunk{ID: "s1"}, Rank: 0}}}
	embedder := &fakeEmbedder{err: errors.New("embedding service down")}

	e := NewEngine(vector, sparse, embedder, 500*time.Millisecond, 300*time.Millisecond)
	results, err := e.Retrieve(context.Background(), "query", 10, 10, 0, Filters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].Chunk.ID != "s1" {
		t.Fatalf("expected only sparse result s1 to survive, got %+v", results)
	}
}

func TestEngine_RetrieveMulti_UnionsAndDedups(t *testing.T) {
	vector := &fakeVectorIndex{results: []ProviderResult{{Chunk: model.Chunk{ID: "d1"}, Rank: 0}}}
	sparse := &fakeSparseIndex{results: []ProviderResult{{Chunk: model.Chunk{ID: "d1"}, Rank: 0}}}
	embedder := &fakeEmbedder{}

	e := NewEngine(vector, sparse, embedder, 500*time.Millisecond, 300*time.Millisecond)
	results, err := e.RetrieveMulti(context.Background(), []string{"query one", "query two"}, 10, 10, 0, Filters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected deduplicated union of 1 result, got %d", len(results))
	}
}

func TestEngine_RetrieveMulti_AllVariantsFail(t *testing.T) {
	vector := &fakeVectorIndex{err: errors.New("down")}
	sparse := &fakeSparseIndex{err: errors.New("down")}
	embedder := &fakeEmbedder{}

	e := NewEngine(vector, sparse, embedder, 500*time.Millisecond, 300*time.Millisecond)
	_, err := e.RetrieveMulti(context.Background(), []string{"q1"}, 10, 10, 0, Filters{})
	if err == nil {
		t.Fatal("expected error when all variants fail")
	}
}
