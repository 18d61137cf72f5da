// Package iterative performs a second, gap-filling retrieval pass when the
// quality gate identifies missing source coverage.
package iterative

import (
	"context"
	"fmt"
	"strings"

	"github.com/lunexa/zimlaw-orchestrator/internal/model"
	"github.com/lunexa/zimlaw-orchestrator/internal/retrieval"
)

// additionalCandidateCount is how many new candidates the gap-filling pass
// requests.
const additionalCandidateCount = 15

// caseLawGapMarkers flag a quality issue as indicating missing case-law
// coverage specifically, steering the reformulated query toward that
// doc_type.
var caseLawGapMarkers = []string{"no case law", "missing case law", "lacks case law", "case law cited"}

// Retriever runs the gap-filling reformulation and retrieval pass.
type Retriever struct {
	engine *retrieval.Engine
}

// NewRetriever creates a Retriever.
func NewRetriever(engine *retrieval.Engine) *Retriever {
	return &Retriever{engine: engine}
}

// reformulate builds a gap-filling query from the original query plus the
// quality issues, steering toward case law when the issues call for it.
func reformulate(originalQuery string, qualityIssues []string) (string, retrieval.Filters) {
	filters := retrieval.Filters{}
	for _, issue := range qualityIssues {
		lower := strings.ToLower(issue)
		for _, marker := range caseLawGapMarkers {
			if strings.Contains(lower, marker) {
				filters.DocType = model.DocTypeCaseLaw
			}
		}
	}

	if filters.DocType == model.DocTypeCaseLaw {
		return fmt.Sprintf("%s (judicial precedent and case law)", originalQuery), filters
	}
	return originalQuery, filters
}

// Retrieve runs the gap-filling pass: reformulates originalQuery from
// qualityIssues, retrieves up to additionalCandidateCount new candidates,
// and deduplicates against existingChunkIDs. The returned slice is the set
// of genuinely new candidates to merge into combined_results.
func (r *Retriever) Retrieve(ctx context.Context, originalQuery string, qualityIssues []string, existingChunkIDs map[string]bool) ([]model.RetrievalResult, error) {
	query, filters := reformulate(originalQuery, qualityIssues)

	results, err := r.engine.Retrieve(ctx, query, additionalCandidateCount, additionalCandidateCount, 0, filters)
	if err != nil {
		return nil, fmt.Errorf("iterative.Retriever.Retrieve: %w", err)
	}

	fresh := make([]model.RetrievalResult, 0, len(results))
	for _, result := range results {
		if existingChunkIDs[result.Chunk.ID] {
			continue
		}
		fresh = append(fresh, result)
	}
	if len(fresh) > additionalCandidateCount {
		fresh = fresh[:additionalCandidateCount]
	}
	return fresh, nil
}

// Merge combines existing and fresh retrieval results into combined_results,
// deduplicating by chunk ID with existing entries taking precedence.
func Merge(existing, fresh []model.RetrievalResult) []model.RetrievalResult {
	seen := make(map[string]bool, len(existing))
	combined := make([]model.RetrievalResult, 0, len(existing)+len(fresh))
	for _, r := range existing {
		seen[r.Chunk.ID] = true
		combined = append(combined, r)
	}
	for _, r := range fresh {
		if seen[r.Chunk.ID] {
			continue
		}
		seen[r.Chunk.ID] = true
		combined = append(combined, r)
	}
	return combined
}
