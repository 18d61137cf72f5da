package rerank

import (
	"context"
	"errors"
	"testing"

	"github.com/lunexa/zimlaw-orchestrator/internal/model"
)

type fakeCrossEncoder struct {
	scores []float64
	err    error
}

func (f *fakeCrossEncoder) Score(_ context.Context, _ string, passages []string) ([]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.scores, nil
}

func candidates(n int, parent string) []model.RetrievalResult {
	out := make([]model.RetrievalResult, n)
	for i := range out {
		out[i] = model.RetrievalResult{
			Chunk:       model.Chunk{ID: string(rune('a' + i)), Content: "text"},
			ParentDocID: parent,
			Confidence:  float64(n-i) / float64(n),
		}
	}
	return out
}

func TestReranker_FiltersBelowQualityThreshold(t *testing.T) {
	enc := &fakeCrossEncoder{scores: []float64{0.9, 0.1, 0.5}}
	cands := candidates(3, "p1")
	for i := range cands {
		cands[i].ParentDocID = "p" + string(rune('1'+i))
	}
	r := NewReranker(enc)
	out := r.Rerank(context.Background(), "query", cands, 5)
	if len(out) != 2 {
		t.Fatalf("expected 2 survivors above threshold, got %d", len(out))
	}
}

func TestReranker_AppliesDiversityCap(t *testing.T) {
	enc := &fakeCrossEncoder{scores: []float64{0.9, 0.8, 0.7, 0.6, 0.5}}
	cands := candidates(5, "p1")
	r := NewReranker(enc)
	// rerankTopK=5 -> cap = ceil(0.4*5) = 2 per parent
	out := r.Rerank(context.Background(), "query", cands, 5)
	if len(out) != 2 {
		t.Fatalf("expected diversity cap of 2 for single-parent candidates, got %d", len(out))
	}
}

func TestReranker_FallsBackOnCrossEncoderError(t *testing.T) {
	enc := &fakeCrossEncoder{err: errors.New("timeout")}
	cands := candidates(3, "p1")
	for i := range cands {
		cands[i].ParentDocID = "p" + string(rune('1'+i))
	}
	r := NewReranker(enc)
	out := r.Rerank(context.Background(), "query", cands, 5)
	if len(out) != 3 {
		t.Fatalf("expected fallback to return all candidates (within diversity cap), got %d", len(out))
	}
	if out[0].Confidence < out[len(out)-1].Confidence {
		t.Fatalf("expected fallback order to be descending by confidence")
	}
}

func TestReranker_EmptyCandidates(t *testing.T) {
	enc := &fakeCrossEncoder{}
	r := NewReranker(enc)
	out := r.Rerank(context.Background(), "query", nil, 5)
	if out != nil {
		t.Fatalf("expected nil for empty candidates, got %+v", out)
	}
}

func TestDiversityCapFor(t *testing.T) {
	cases := map[int]int{5: 2, 8: 4, 12: 5, 15: 6, 1: 1, 0: 1}
	for topK, want := range cases {
		if got := diversityCapFor(topK); got != want {
			t.Errorf("diversityCapFor(%d) = %d, want %d", topK, got, want)
		}
	}
}
