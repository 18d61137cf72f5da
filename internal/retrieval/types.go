// Package retrieval executes concurrent sparse and dense search over the
// legal corpus, fuses the two ranked lists via Reciprocal Rank Fusion, and
// enforces per-parent-document diversity on the fused candidate list.
package retrieval

import (
	"context"

	"github.com/lunexa/zimlaw-orchestrator/internal/model"
)

// Filters is the closed metadata-filter vocabulary a caller may apply.
type Filters struct {
	DocType model.DocType
	Year    int
	Chapter string
}

// ProviderResult is one ranked hit from a single search provider, prior to
// fusion.
type ProviderResult struct {
	Chunk model.Chunk
	Score float64
	Rank  int
}

// VectorIndex is the dense-search external collaborator.
type VectorIndex interface {
	Search(ctx context.Context, queryEmbedding []float32, topK int, filters Filters) ([]ProviderResult, error)
}

// SparseIndex is the keyword-search external collaborator.
type SparseIndex interface {
	Search(ctx context.Context, queryText string, topK int, filters Filters) ([]ProviderResult, error)
}
