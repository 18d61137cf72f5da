package synthesize

import (
	"context"
	"fmt"
	"strings"

	"github.com/lunexa/zimlaw-orchestrator/internal/model"
)

// RefinementInput carries the self-critic's output plus the prior answer,
// used to regenerate an improved answer.
type RefinementInput struct {
	OriginalAnswer         string
	RefinementInstructions []string
	PriorityFixes          []string
	SuggestedAdditions     []string
	IterationCount         int
}

// RefinedSynthesizer re-runs synthesis with the original answer (truncated)
// and refinement guidance folded into the prompt. It shares the
// Synthesizer's model contract; only the user prompt differs.
type RefinedSynthesizer struct {
	*Synthesizer
}

// NewRefinedSynthesizer creates a RefinedSynthesizer over an existing
// Synthesizer's model client.
func NewRefinedSynthesizer(s *Synthesizer) *RefinedSynthesizer {
	return &RefinedSynthesizer{Synthesizer: s}
}

// Refine regenerates the answer for req incorporating refinement. On
// failure, the caller should keep the original answer — Refine returns the
// error rather than silently falling back, so that decision stays at the
// orchestrator boundary.
func (r *RefinedSynthesizer) Refine(ctx context.Context, req Request, refinement RefinementInput, onToken func(string)) (Result, error) {
	systemPrompt := buildSystemPrompt(req.Complexity, req.ReasoningFramework, req.UserType)
	systemPrompt += "\n\n" + refinementGuidance(refinement)

	userPrompt := buildUserPrompt(req)
	userPrompt += "\n\n" + previousAnswerBlock(refinement.OriginalAnswer)

	maxTokens := model.SynthesisTokenBudgetFor(req.Complexity)
	textCh, errCh := r.large.StreamComplete(ctx, systemPrompt, userPrompt, maxTokens, 0.2)

	var answer strings.Builder
	for chunk := range textCh {
		answer.WriteString(chunk)
		if onToken != nil {
			onToken(chunk)
		}
	}
	if err := <-errCh; err != nil {
		return Result{}, fmt.Errorf("synthesize.Refine: %w", err)
	}

	full := answer.String()
	return Result{
		FinalAnswer: full,
		Meta: model.SynthesisMeta{
			TLDR:              extractTLDR(full),
			RefinementApplied: true,
			IterationCount:    refinement.IterationCount,
		},
	}, nil
}

func refinementGuidance(r RefinementInput) string {
	var b strings.Builder
	b.WriteString("This is a revision of a previous answer that failed quality review. Address these ")
	b.WriteString("instructions:\n")
	for _, instr := range r.RefinementInstructions {
		fmt.Fprintf(&b, "- %s\n", instr)
	}
	if len(r.PriorityFixes) > 0 {
		b.WriteString("Priority fixes:\n")
		for _, fix := range r.PriorityFixes {
			fmt.Fprintf(&b, "- %s\n", fix)
		}
	}
	if len(r.SuggestedAdditions) > 0 {
		b.WriteString("Consider adding:\n")
		for _, add := range r.SuggestedAdditions {
			fmt.Fprintf(&b, "- %s\n", add)
		}
	}
	return b.String()
}

func previousAnswerBlock(original string) string {
	excerpt := original
	if len(excerpt) > refinedAnswerExcerptChars {
		excerpt = excerpt[:refinedAnswerExcerptChars]
	}
	return "Previous answer (truncated):\n" + excerpt
}
