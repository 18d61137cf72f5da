package rewrite

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lunexa/zimlaw-orchestrator/internal/llm"
	"github.com/lunexa/zimlaw-orchestrator/internal/model"
)

// Rewriter expands a raw query into the canonical search form plus
// generative variants, used to widen hybrid retrieval's recall.
type Rewriter struct {
	small llm.SmallModel
}

// NewRewriter creates a Rewriter.
func NewRewriter(small llm.SmallModel) *Rewriter {
	return &Rewriter{small: small}
}

// Result is the rewriter's full output for one query.
type Result struct {
	Canonical string
	Variants  []Variant
}

// AllTexts returns the canonical query plus every generated variant's text,
// in a single slice ready to hand to the retrieval engine's multi-query
// fan-out.
func (r Result) AllTexts() []string {
	texts := make([]string, 0, 1+len(r.Variants))
	texts = append(texts, r.Canonical)
	for _, v := range r.Variants {
		texts = append(texts, v.Text)
	}
	return texts
}

// Rewrite produces the canonical form of query (reference-resolved if it
// looks like a follow-up, abbreviation-expanded, and annotated with
// jurisdiction/date context) plus hypothetical-document and sub-question
// variants, for complexity tiers that warrant the extra retrieval fan-out.
// Total variants generated never exceed maxTotalVariants.
func (r *Rewriter) Rewrite(ctx context.Context, query string, recentTurns []model.ShortTermRecord, jurisdiction, dateContext string, complexity model.Complexity) (Result, error) {
	canonical := query
	if isFollowUp(query) {
		resolved, err := resolveReference(ctx, r.small, query, recentTurns)
		if err != nil {
			slog.Warn("[REWRITE] reference resolution failed, using raw query", "error", err)
		} else {
			canonical = resolved
		}
	}

	canonical = expandAbbreviations(canonical)
	canonical = injectContext(canonical, jurisdiction, dateContext)

	var variants []Variant
	switch complexity {
	case model.ComplexityComplex, model.ComplexityExpert:
		variants = append(variants, generateHypotheticalDocs(ctx, r.small, canonical, maxHypotheticalDocs)...)
		variants = append(variants, generateSubQuestions(ctx, r.small, canonical)...)
	case model.ComplexityModerate:
		variants = append(variants, generateHypotheticalDocs(ctx, r.small, canonical, 2)...)
	}

	if len(variants) > maxTotalVariants-1 {
		variants = variants[:maxTotalVariants-1]
	}

	return Result{Canonical: canonical, Variants: variants}, nil
}

// injectContext appends jurisdiction and date-context hints to the query
// text so the embedding and cross-encoder models see them directly, rather
// than relying on downstream filtering alone.
func injectContext(query, jurisdiction, dateContext string) string {
	if jurisdiction == "" && dateContext == "" {
		return query
	}
	suffix := ""
	if jurisdiction != "" {
		suffix += fmt.Sprintf(" (jurisdiction: %s)", jurisdiction)
	}
	if dateContext != "" {
		suffix += fmt.Sprintf(" (as at: %s)", dateContext)
	}
	return query + suffix
}
