package rewrite

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/lunexa/zimlaw-orchestrator/internal/llm"
	"github.com/lunexa/zimlaw-orchestrator/internal/model"
)

// followUpPronounPattern flags a query that opens with a pronoun or
// demonstrative referring to something established earlier in the
// conversation, rather than naming its subject directly.
var followUpPronounPattern = regexp.MustCompile(`(?i)^\s*(it|that|this|they|those|he|she|the same)\b`)

// isFollowUp reports whether query appears to depend on prior conversation
// turns: either it opens with an unresolved pronoun, or it is short enough
// (under 6 words) that it is unlikely to be self-contained.
func isFollowUp(query string) bool {
	if followUpPronounPattern.MatchString(query) {
		return true
	}
	return len(strings.Fields(query)) < 6
}

var referenceResolutionSystemPrompt = "You resolve pronoun and topic references in a follow-up legal question " +
	"using the prior conversation turns given. Rewrite the latest question as a single, " +
	"self-contained question with all references resolved. Respond with ONLY the rewritten " +
	"question, no preamble or explanation."

// resolveReference asks the small model to rewrite query into a
// self-contained form given recentTurns. If recentTurns is empty or the
// model returns blank text, query is returned unchanged. A failed model call
// is returned as an error; Rewrite then keeps the raw query rather than
// failing the request.
func resolveReference(ctx context.Context, small llm.SmallModel, query string, recentTurns []model.ShortTermRecord) (string, error) {
	if len(recentTurns) == 0 {
		return query, nil
	}

	var transcript strings.Builder
	for _, turn := range recentTurns {
		fmt.Fprintf(&transcript, "%s: %s\n", turn.Role, turn.Content)
	}
	fmt.Fprintf(&transcript, "user: %s", query)

	resolved, err := small.Complete(ctx, referenceResolutionSystemPrompt, transcript.String())
	if err != nil {
		return "", fmt.Errorf("rewrite.resolveReference: %w", err)
	}
	resolved = strings.TrimSpace(resolved)
	if resolved == "" {
		return query, nil
	}
	return resolved, nil
}
