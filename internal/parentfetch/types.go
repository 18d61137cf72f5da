// Package parentfetch speculatively resolves the parent documents behind
// reranked chunks, in bounded-concurrency batches, and assembles the
// truncated excerpt bundle handed to synthesis.
package parentfetch

import "context"

// excerptMaxChars is the per-item truncation applied when assembling bundled
// context so no single parent document can crowd out the others in the
// synthesis prompt budget.
const excerptMaxChars = 2000

// Store resolves a parent document by ID from the backing object store.
type Store interface {
	Get(ctx context.Context, docID string) ([]byte, error)
}
