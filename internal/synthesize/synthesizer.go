package synthesize

import (
	"context"
	"fmt"
	"strings"

	"github.com/lunexa/zimlaw-orchestrator/internal/llm"
	"github.com/lunexa/zimlaw-orchestrator/internal/model"
)

// Synthesizer produces the final answer, streaming tokens via onToken as
// they are generated by the large model.
type Synthesizer struct {
	large llm.LargeModel
}

// NewSynthesizer creates a Synthesizer.
func NewSynthesizer(large llm.LargeModel) *Synthesizer {
	return &Synthesizer{large: large}
}

// Synthesize streams the answer for req, invoking onToken with each text
// chunk as it arrives, and returns the accumulated result once generation
// completes. The temperature is fixed low (0.2) to favor grounded,
// deterministic legal prose over creative variation.
func (s *Synthesizer) Synthesize(ctx context.Context, req Request, onToken func(string)) (Result, error) {
	systemPrompt := buildSystemPrompt(req.Complexity, req.ReasoningFramework, req.UserType)
	userPrompt := buildUserPrompt(req)
	maxTokens := model.SynthesisTokenBudgetFor(req.Complexity)

	textCh, errCh := s.large.StreamComplete(ctx, systemPrompt, userPrompt, maxTokens, 0.2)

	var answer strings.Builder
	for chunk := range textCh {
		answer.WriteString(chunk)
		if onToken != nil {
			onToken(chunk)
		}
	}
	if err := <-errCh; err != nil {
		return Result{}, fmt.Errorf("synthesize.Synthesize: %w", err)
	}

	full := answer.String()
	return Result{
		FinalAnswer: full,
		Meta: model.SynthesisMeta{
			TLDR: extractTLDR(full),
		},
	}, nil
}

// extractTLDR returns the text following the final "TL;DR:" marker in
// answer, or an empty string if the model did not include one.
func extractTLDR(answer string) string {
	idx := strings.LastIndex(answer, "TL;DR:")
	if idx == -1 {
		return ""
	}
	return strings.TrimSpace(answer[idx+len("TL;DR:"):])
}
