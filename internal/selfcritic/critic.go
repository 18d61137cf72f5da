// Package selfcritic turns a failed quality-gate verdict into concrete
// refinement guidance for the refined synthesizer.
package selfcritic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lunexa/zimlaw-orchestrator/internal/llm"
)

// minRefinementInstructions is the floor the self-critic always meets,
// falling back to templated instructions derived from quality issues if the
// model returns fewer.
const minRefinementInstructions = 3

var criticSystemPrompt = "A legal answer failed a quality review. Given the issues found, produce at least 3 " +
	"specific, actionable refinement instructions. Respond with ONLY a JSON object: " +
	"{\"refinement_instructions\": [<string>, ...], \"priority_fixes\": [<string>, ...], " +
	"\"suggested_additions\": [<string>, ...]}."

type critiqueResponse struct {
	RefinementInstructions []string `json:"refinement_instructions"`
	PriorityFixes          []string `json:"priority_fixes"`
	SuggestedAdditions     []string `json:"suggested_additions"`
}

// Critique is the self-critic's structured output.
type Critique struct {
	RefinementInstructions []string
	PriorityFixes          []string
	SuggestedAdditions     []string
	RefinementIteration    int
}

// Critic produces refinement guidance from a failed answer and the quality
// issues that caused the failure.
type Critic struct {
	small llm.SmallModel
}

// NewCritic creates a Critic.
func NewCritic(small llm.SmallModel) *Critic {
	return &Critic{small: small}
}

// Critique asks the small model for refinement guidance given answer and
// qualityIssues. priorIteration is the refinement_iteration value coming
// into this call; the returned Critique always increments it. A malformed
// or failed model response falls back to a templated instruction list
// derived directly from qualityIssues — the critic never fails the request.
func (c *Critic) Critique(ctx context.Context, answer string, qualityIssues []string, priorIteration int) Critique {
	userPrompt := fmt.Sprintf("Answer:\n%s\n\nQuality issues found:\n- %s", answer, strings.Join(qualityIssues, "\n- "))

	raw, err := c.small.Complete(ctx, criticSystemPrompt, userPrompt)
	if err != nil {
		return templatedFallback(qualityIssues, priorIteration)
	}

	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var parsed critiqueResponse
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return templatedFallback(qualityIssues, priorIteration)
	}
	if len(parsed.RefinementInstructions) < minRefinementInstructions {
		fallback := templatedFallback(qualityIssues, priorIteration)
		if len(parsed.RefinementInstructions) > 0 {
			parsed.RefinementInstructions = append(parsed.RefinementInstructions, fallback.RefinementInstructions...)
		} else {
			parsed.RefinementInstructions = fallback.RefinementInstructions
		}
	}

	return Critique{
		RefinementInstructions: parsed.RefinementInstructions,
		PriorityFixes:          parsed.PriorityFixes,
		SuggestedAdditions:     parsed.SuggestedAdditions,
		RefinementIteration:    priorIteration + 1,
	}
}

// templatedFallback derives at least minRefinementInstructions generic but
// specific instructions directly from qualityIssues, used when the model
// call fails or returns malformed output.
func templatedFallback(qualityIssues []string, priorIteration int) Critique {
	instructions := make([]string, 0, len(qualityIssues)+minRefinementInstructions)
	for _, issue := range qualityIssues {
		instructions = append(instructions, fmt.Sprintf("Address the following issue: %s", issue))
	}
	for len(instructions) < minRefinementInstructions {
		instructions = append(instructions, "Add a citation immediately before every substantive legal statement.")
	}
	return Critique{
		RefinementInstructions: instructions,
		PriorityFixes:          qualityIssues,
		RefinementIteration:    priorIteration + 1,
	}
}
