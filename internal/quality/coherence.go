package quality

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lunexa/zimlaw-orchestrator/internal/llm"
)

var coherenceSystemPrompt = "Assess the logical consistency and completeness of the following legal answer. " +
	"Respond with ONLY a JSON object: {\"coherence_score\": <0.0-1.0>, \"issues\": [<string>, ...]}. " +
	"issues should be empty if none are found."

type coherenceAssessment struct {
	CoherenceScore float64  `json:"coherence_score"`
	Issues         []string `json:"issues"`
}

// CoherenceResult is the outcome of the small-model coherence assessment.
type CoherenceResult struct {
	Score  float64
	Issues []string
}

// CoherenceChecker delegates logical-consistency assessment to the small
// model.
type CoherenceChecker struct {
	small llm.SmallModel
}

// NewCoherenceChecker creates a CoherenceChecker.
func NewCoherenceChecker(small llm.SmallModel) *CoherenceChecker {
	return &CoherenceChecker{small: small}
}

// Check asks the small model to assess answer's logical consistency and
// completeness. A malformed response degrades to a neutral score of 0.5
// with a diagnostic issue noted; a failed model call is returned as an
// error, which the Gate turns into a pass at confidence 0.5.
func (c *CoherenceChecker) Check(ctx context.Context, answer string) (CoherenceResult, error) {
	raw, err := c.small.Complete(ctx, coherenceSystemPrompt, answer)
	if err != nil {
		return CoherenceResult{}, fmt.Errorf("quality.CoherenceChecker.Check: %w", err)
	}

	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var assessment coherenceAssessment
	if err := json.Unmarshal([]byte(raw), &assessment); err != nil {
		return CoherenceResult{Score: 0.5, Issues: []string{"coherence assessment was malformed, degraded to neutral score"}}, nil
	}
	return CoherenceResult{Score: assessment.CoherenceScore, Issues: assessment.Issues}, nil
}

// VerifyQuote fuzzy-matches a verbatim quote (8-15 consecutive words,
// typically) pulled from the answer against the source excerpts, tolerating
// whitespace and case differences. It returns true if the quote is found
// as a substring of any excerpt once both are normalized.
func VerifyQuote(quote string, excerpts []string) bool {
	normalizedQuote := normalizeForMatch(quote)
	if normalizedQuote == "" {
		return false
	}
	for _, excerpt := range excerpts {
		if strings.Contains(normalizeForMatch(excerpt), normalizedQuote) {
			return true
		}
	}
	return false
}

func normalizeForMatch(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	return strings.Join(fields, " ")
}
