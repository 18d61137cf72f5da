package parentfetch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lunexa/zimlaw-orchestrator/internal/model"
)

// Fetcher speculatively resolves the unique parent documents behind a set of
// reranked chunks, bounding concurrent object-store reads to avoid
// overwhelming the backing store on a broad query.
type Fetcher struct {
	store       Store
	concurrency int
}

// NewFetcher creates a Fetcher with the given bounded concurrency.
func NewFetcher(store Store, concurrency int) *Fetcher {
	if concurrency <= 0 {
		concurrency = 16
	}
	return &Fetcher{store: store, concurrency: concurrency}
}

// parentResult pairs a resolved parent document with the fetch error, if
// any, so a single failed lookup degrades instead of aborting the batch.
type parentResult struct {
	doc model.ParentDocument
	err error
}

// FetchBatch resolves the unique parent documents referenced by results,
// fetching with concurrency bounded by f.concurrency. Documents that fail
// to resolve are omitted from the returned map and logged, not returned as
// an error — a partial bundle is preferable to failing the whole request.
func (f *Fetcher) FetchBatch(ctx context.Context, results []model.RetrievalResult) map[string]model.ParentDocument {
	uniqueIDs := make([]string, 0, len(results))
	seen := make(map[string]bool)
	for _, r := range results {
		if seen[r.ParentDocID] {
			continue
		}
		seen[r.ParentDocID] = true
		uniqueIDs = append(uniqueIDs, r.ParentDocID)
	}

	sem := make(chan struct{}, f.concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	resolved := make(map[string]model.ParentDocument, len(uniqueIDs))
	missCount := 0

	for _, docID := range uniqueIDs {
		wg.Add(1)
		sem <- struct{}{}
		go func(docID string) {
			defer wg.Done()
			defer func() { <-sem }()

			res := f.fetchOne(ctx, docID)
			mu.Lock()
			defer mu.Unlock()
			if res.err != nil {
				missCount++
				slog.Warn("[PARENT-FETCH] fetch failed", "parent_doc_id", docID, "error", res.err)
				return
			}
			resolved[docID] = res.doc
		}(docID)
	}
	wg.Wait()

	slog.Info("[PARENT-FETCH] batch complete",
		"requested", len(uniqueIDs), "resolved", len(resolved), "missed", missCount)

	return resolved
}

func (f *Fetcher) fetchOne(ctx context.Context, docID string) parentResult {
	data, err := f.store.Get(ctx, docID)
	if err != nil {
		return parentResult{err: fmt.Errorf("parentfetch.Fetcher.fetchOne: %w", err)}
	}
	doc, err := decodeParentDocument(data)
	if err != nil {
		return parentResult{err: err}
	}
	return parentResult{doc: doc}
}

// BuildBundledContext assembles the per-chunk excerpt bundle handed to
// synthesis: each reranked chunk's content, truncated to excerptMaxChars,
// paired with its resolved parent's title. A chunk whose parent failed to
// resolve falls back to the chunk content alone with an empty title, rather
// than being dropped — partial attribution beats no attribution.
func BuildBundledContext(results []model.RetrievalResult, parents map[string]model.ParentDocument) []model.BundledContextItem {
	items := make([]model.BundledContextItem, 0, len(results))
	for _, r := range results {
		title := ""
		if doc, ok := parents[r.ParentDocID]; ok {
			title = doc.Title
		}
		items = append(items, model.BundledContextItem{
			ChunkID:     r.Chunk.ID,
			ParentDocID: r.ParentDocID,
			Title:       title,
			Excerpt:     truncate(r.Chunk.Content, excerptMaxChars),
			Confidence:  r.Confidence,
			SourceType:  r.Chunk.DocType,
		})
	}
	return items
}

func truncate(s string, maxChars int) string {
	if len(s) <= maxChars {
		return s
	}
	return s[:maxChars]
}
