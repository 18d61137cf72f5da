package rewrite

import (
	"context"
	"strings"

	"github.com/lunexa/zimlaw-orchestrator/internal/llm"
)

var hypotheticalSystemPrompt = "Write a short, plausible passage (2-3 sentences) from a Zimbabwean legal " +
	"document that would directly answer the following question, as if it were an excerpt from a " +
	"statute, case judgment, or legal commentary. Respond with ONLY the passage text."

// generateHypotheticalDocs produces up to maxHypotheticalDocs short
// hypothetical-document variants (the HyDE technique: a plausible answer
// passage embeds closer to the real source passage than the bare question
// does). Each call is independently bounded by variantDeadline; a failed
// call simply yields fewer hypothetical variants rather than aborting the
// batch.
func generateHypotheticalDocs(ctx context.Context, small llm.SmallModel, query string, count int) []Variant {
	if count > maxHypotheticalDocs {
		count = maxHypotheticalDocs
	}

	variants := make([]Variant, 0, count)
	for i := 0; i < count; i++ {
		vctx, cancel := context.WithTimeout(ctx, variantDeadline)
		text, err := small.Complete(vctx, hypotheticalSystemPrompt, query)
		cancel()
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if len(text) > maxHypotheticalChars {
			text = text[:maxHypotheticalChars]
		}
		variants = append(variants, Variant{Text: text, Kind: KindHypothetical})
	}
	return variants
}

var subQuestionSystemPrompt = "Break the following legal question into at most 3 narrower sub-questions " +
	"that, taken together, cover everything needed to answer it fully. Respond with ONLY the " +
	"sub-questions, one per line, no numbering."

// generateSubQuestions asks the small model to decompose query into at most
// maxSubQuestions narrower questions, each of which can be retrieved
// against independently. A model failure yields zero sub-questions.
func generateSubQuestions(ctx context.Context, small llm.SmallModel, query string) []Variant {
	vctx, cancel := context.WithTimeout(ctx, variantDeadline)
	defer cancel()

	raw, err := small.Complete(vctx, subQuestionSystemPrompt, query)
	if err != nil {
		return nil
	}

	lines := strings.Split(raw, "\n")
	variants := make([]Variant, 0, maxSubQuestions)
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		variants = append(variants, Variant{Text: line, Kind: KindSubQuestion})
		if len(variants) >= maxSubQuestions {
			break
		}
	}
	return variants
}

