package rerank

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"github.com/lunexa/zimlaw-orchestrator/internal/model"
)

// Reranker scores fused retrieval candidates with a cross-encoder and
// applies a quality threshold plus per-parent diversity cap. If the
// cross-encoder is unavailable or times out, it falls back to the
// candidates' existing fused-confidence ordering so a single degraded
// dependency never empties the pipeline.
type Reranker struct {
	encoder CrossEncoder
}

// NewReranker creates a Reranker backed by encoder.
func NewReranker(encoder CrossEncoder) *Reranker {
	return &Reranker{encoder: encoder}
}

// Rerank scores candidates against query, drops any below the quality
// threshold, caps per-parent representation to ceil(0.4*rerankTopK), and
// returns at most rerankTopK results ordered by descending score.
func (r *Reranker) Rerank(ctx context.Context, query string, candidates []model.RetrievalResult, rerankTopK int) []model.RetrievalResult {
	if len(candidates) == 0 {
		return nil
	}

	passages := make([]string, len(candidates))
	for i, c := range candidates {
		passages[i] = c.Chunk.Content
	}

	scores, err := r.encoder.Score(ctx, query, passages)
	if err != nil {
		slog.Warn("[RERANK] cross-encoder unavailable, falling back to fused confidence order", "error", err)
		return r.fallback(candidates, rerankTopK)
	}

	scored := make([]model.RetrievalResult, 0, len(candidates))
	for i, c := range candidates {
		if scores[i] < qualityThreshold {
			continue
		}
		c.Score = scores[i]
		c.Confidence = scores[i]
		scored = append(scored, c)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	maxPerParent := diversityCapFor(rerankTopK)
	capped := make([]model.RetrievalResult, 0, len(scored))
	counts := make(map[string]int)
	for _, c := range scored {
		if counts[c.ParentDocID] >= maxPerParent {
			continue
		}
		counts[c.ParentDocID]++
		capped = append(capped, c)
		if len(capped) >= rerankTopK {
			break
		}
	}

	slog.Info("[RERANK] rerank complete",
		"candidates_in", len(candidates), "survived_threshold", len(scored), "final_count", len(capped))

	return capped
}

// fallback returns candidates already ordered by fused confidence (the
// caller's RetrievalResult.Confidence), applying the same diversity cap but
// skipping the quality-threshold filter since no cross-encoder score exists.
func (r *Reranker) fallback(candidates []model.RetrievalResult, rerankTopK int) []model.RetrievalResult {
	sorted := make([]model.RetrievalResult, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	maxPerParent := diversityCapFor(rerankTopK)
	capped := make([]model.RetrievalResult, 0, len(sorted))
	counts := make(map[string]int)
	for _, c := range sorted {
		if counts[c.ParentDocID] >= maxPerParent {
			continue
		}
		counts[c.ParentDocID]++
		capped = append(capped, c)
		if len(capped) >= rerankTopK {
			break
		}
	}
	return capped
}

// diversityCapFor returns ceil(0.4*rerankTopK), the maximum surviving
// chunks per parent document, with a floor of 1.
func diversityCapFor(rerankTopK int) int {
	cap := int(math.Ceil(0.4 * float64(rerankTopK)))
	if cap < 1 {
		return 1
	}
	return cap
}
