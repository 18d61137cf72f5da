package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lunexa/zimlaw-orchestrator/internal/llm"
	"github.com/lunexa/zimlaw-orchestrator/internal/model"
)

// ErrNoSourcesAvailable is returned when both the sparse and dense branches
// fail or time out, leaving nothing to fuse.
var ErrNoSourcesAvailable = errors.New("retrieval: no sources available")

// Engine executes the hybrid retrieval stage: concurrent sparse and dense
// search, fused via Reciprocal Rank Fusion and capped for per-parent
// diversity.
type Engine struct {
	vector   VectorIndex
	sparse   SparseIndex
	embedder llm.Embedder

	denseDeadline  time.Duration
	sparseDeadline time.Duration
}

// NewEngine creates a retrieval Engine.
func NewEngine(vector VectorIndex, sparse SparseIndex, embedder llm.Embedder, denseDeadline, sparseDeadline time.Duration) *Engine {
	return &Engine{
		vector:         vector,
		sparse:         sparse,
		embedder:       embedder,
		denseDeadline:  denseDeadline,
		sparseDeadline: sparseDeadline,
	}
}

// Retrieve runs sparse and dense search concurrently for a single query
// variant, each under its own deadline, and fuses whichever branch(es)
// complete successfully. Either branch may fail or time out without
// aborting the other; both failing is fatal.
func (e *Engine) Retrieve(ctx context.Context, queryText string, topKDense, topKSparse, maxPerParent int, filters Filters) ([]model.RetrievalResult, error) {
	var denseResults, sparseResults []ProviderResult
	var denseErr, sparseErr error

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		dctx, cancel := context.WithTimeout(gctx, e.denseDeadline)
		defer cancel()
		embeddings, err := e.embedder.Embed(dctx, []string{queryText})
		if err != nil {
			denseErr = fmt.Errorf("retrieval.Engine.Retrieve: embed: %w", err)
			slog.Warn("[RETRIEVAL-ENGINE] dense branch failed", "error", denseErr)
			return nil
		}
		if len(embeddings) == 0 {
			denseErr = fmt.Errorf("retrieval.Engine.Retrieve: embed: empty embedding batch")
			slog.Warn("[RETRIEVAL-ENGINE] dense branch failed", "error", denseErr)
			return nil
		}
		results, err := e.vector.Search(dctx, embeddings[0], topKDense, filters)
		if err != nil {
			denseErr = fmt.Errorf("retrieval.Engine.Retrieve: dense search: %w", err)
			slog.Warn("[RETRIEVAL-ENGINE] dense branch failed", "error", denseErr)
			return nil
		}
		denseResults = results
		return nil
	})

	g.Go(func() error {
		sctx, cancel := context.WithTimeout(gctx, e.sparseDeadline)
		defer cancel()
		results, err := e.sparse.Search(sctx, queryText, topKSparse, filters)
		if err != nil {
			sparseErr = fmt.Errorf("retrieval.Engine.Retrieve: sparse search: %w", err)
			slog.Warn("[RETRIEVAL-ENGINE] sparse branch failed", "error", sparseErr)
			return nil
		}
		sparseResults = results
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("retrieval.Engine.Retrieve: %w", err)
	}

	if denseErr != nil && sparseErr != nil {
		return nil, fmt.Errorf("retrieval.Engine.Retrieve: %w", ErrNoSourcesAvailable)
	}

	fused := ReciprocalRankFusion(sparseResults, denseResults)
	capped := DiversityCap(fused, maxPerParent)

	slog.Info("[RETRIEVAL-ENGINE] retrieve complete",
		"dense_count", len(denseResults), "sparse_count", len(sparseResults),
		"fused_count", len(fused), "capped_count", len(capped),
		"dense_ok", denseErr == nil, "sparse_ok", sparseErr == nil)

	return capped, nil
}

// RetrieveMulti runs Retrieve for each query variant (e.g. the original
// query plus rewriter-generated sub-questions/HyDE variants), fusing each
// variant's own sparse+dense results independently before taking the union
// across variants, deduplicated by chunk ID and re-sorted by score.
func (e *Engine) RetrieveMulti(ctx context.Context, queryTexts []string, topKDense, topKSparse, maxPerParent int, filters Filters) ([]model.RetrievalResult, error) {
	seen := make(map[string]bool)
	var union []model.RetrievalResult
	var lastErr error
	succeeded := 0

	for _, q := range queryTexts {
		results, err := e.Retrieve(ctx, q, topKDense, topKSparse, maxPerParent, filters)
		if err != nil {
			lastErr = err
			continue
		}
		succeeded++
		for _, r := range results {
			if seen[r.Chunk.ID] {
				continue
			}
			seen[r.Chunk.ID] = true
			union = append(union, r)
		}
	}

	if succeeded == 0 {
		return nil, fmt.Errorf("retrieval.Engine.RetrieveMulti: all variants failed: %w", lastErr)
	}

	sort.SliceStable(union, func(i, j int) bool {
		return union[i].Score > union[j].Score
	})
	return DiversityCap(union, maxPerParent), nil
}
