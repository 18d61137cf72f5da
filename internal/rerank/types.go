// Package rerank scores fused retrieval candidates against the query text
// with a cross-encoder, then re-sorts and diversity-caps them for handoff to
// parent-document fetching and synthesis.
package rerank

import (
	"context"
)

// qualityThreshold is the minimum cross-encoder score a candidate must clear
// to survive reranking at all, independent of its position in the ranking.
const qualityThreshold = 0.3

// CrossEncoder scores (query, passage) pairs. Implementations may batch
// internally; callers pass the full candidate set for one query.
type CrossEncoder interface {
	Score(ctx context.Context, query string, passages []string) ([]float64, error)
}
