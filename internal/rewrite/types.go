// Package rewrite expands a raw query into the set of search variants
// retrieval actually runs: a reference-resolved, abbreviation-expanded
// canonical form, plus hypothetical-document and sub-question variants.
package rewrite

import "time"

// Variant is one query-text candidate handed to the retrieval engine.
type Variant struct {
	Text string
	Kind VariantKind
}

// VariantKind discriminates why a Variant was generated.
type VariantKind string

const (
	KindCanonical    VariantKind = "canonical"
	KindHypothetical VariantKind = "hypothetical"
	KindSubQuestion  VariantKind = "sub-question"
)

// maxHypotheticalDocs and maxSubQuestions bound the generative fan-out of
// the rewriter; maxTotalVariants further caps the overall variant count
// handed to retrieval (canonical + hypotheticals + sub-questions).
const (
	maxHypotheticalDocs  = 4
	maxHypotheticalChars = 480 // ~120 tokens at a 4 chars/token approximation
	maxSubQuestions      = 3
	maxTotalVariants     = 8
)

// variantDeadline bounds each per-variant generation call so one slow
// generation cannot stall the whole rewrite stage.
const variantDeadline = 600 * time.Millisecond
