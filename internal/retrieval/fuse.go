package retrieval

import (
	"math"
	"sort"

	"github.com/lunexa/zimlaw-orchestrator/internal/model"
)

// rrfK is the Reciprocal Rank Fusion rank-damping constant. Lower values
// weight top ranks more heavily; 60 is the standard value from the RRF
// literature and is what both fused providers are tuned against.
const rrfK = 60

// fusedCandidate accumulates the RRF score for one chunk across providers
// before the final sort and diversity pass.
type fusedCandidate struct {
	chunk      model.Chunk
	score      float64
	bestSource model.RetrievalSource
}

// ReciprocalRankFusion merges ranked sparse and dense result lists into a
// single fused ranking. A chunk appearing in both lists accumulates the sum
// of its per-provider RRF contributions, so chunks found by both providers
// are favored over single-provider hits of similar rank.
func ReciprocalRankFusion(sparse, dense []ProviderResult) []model.RetrievalResult {
	byID := make(map[string]*fusedCandidate)
	order := make([]string, 0, len(sparse)+len(dense))

	accumulate := func(results []ProviderResult, source model.RetrievalSource) {
		for _, r := range results {
			contribution := 1.0 / float64(rrfK+r.Rank+1)
			if existing, ok := byID[r.Chunk.ID]; ok {
				existing.score += contribution
				existing.bestSource = model.SourceFused
				continue
			}
			byID[r.Chunk.ID] = &fusedCandidate{
				chunk:      r.Chunk,
				score:      contribution,
				bestSource: source,
			}
			order = append(order, r.Chunk.ID)
		}
	}

	accumulate(sparse, model.SourceSparse)
	accumulate(dense, model.SourceDense)

	fused := make([]model.RetrievalResult, 0, len(order))
	for _, id := range order {
		c := byID[id]
		fused = append(fused, model.RetrievalResult{
			Chunk:       c.chunk,
			ParentDocID: c.chunk.ParentDocID,
			Score:       c.score,
			Confidence:  normalizeConfidence(c.score),
			Source:      c.bestSource,
		})
	}

	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].Score > fused[j].Score
	})
	return fused
}

// normalizeConfidence squashes an RRF score (unbounded but typically well
// under 1.0 for a single provider, up to ~2/(k+1) when both agree) into a
// 0..1 confidence range via a saturating transform.
func normalizeConfidence(score float64) float64 {
	return 1 - math.Exp(-score*rrfK)
}

// DiversityCap filters a fused, score-sorted result list so that at most
// maxPerParent chunks survive per parent document, preserving overall rank
// order. This keeps a single long statute from crowding out every other
// source in the top-K.
func DiversityCap(results []model.RetrievalResult, maxPerParent int) []model.RetrievalResult {
	if maxPerParent <= 0 {
		return results
	}
	counts := make(map[string]int)
	capped := make([]model.RetrievalResult, 0, len(results))
	for _, r := range results {
		if counts[r.ParentDocID] >= maxPerParent {
			continue
		}
		counts[r.ParentDocID]++
		capped = append(capped, r)
	}
	return capped
}
