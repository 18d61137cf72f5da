package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lunexa/zimlaw-orchestrator/internal/cache"
	"github.com/lunexa/zimlaw-orchestrator/internal/llm"
	"github.com/lunexa/zimlaw-orchestrator/internal/model"
)

// Classifier determines a query's intent and complexity via a fast
// heuristic pass, a small-model fallback for ambiguous cases, and an
// optional returning-user profile override, then derives the adaptive
// retrieval/rerank parameters for the chosen complexity.
type Classifier struct {
	small llm.SmallModel
	cache *cache.IntentCache
}

// NewClassifier creates a Classifier.
func NewClassifier(small llm.SmallModel, intentCache *cache.IntentCache) *Classifier {
	return &Classifier{small: small, cache: intentCache}
}

// Classify returns the full Classification for query. profile may be the
// zero value for an anonymous or first-time user.
func (c *Classifier) Classify(ctx context.Context, query string, profile model.LongTermProfile) Classification {
	if c.cache != nil {
		if cachedIntent, cachedComplexity, ok := c.cache.Get(ctx, query); ok {
			complexity := c.applyReturningUserOverride(cachedComplexity, profile)
			return Classification{
				Intent:        cachedIntent,
				Complexity:    complexity,
				Adaptive:      model.AdaptiveParamsFor(complexity),
				UsedHeuristic: true,
			}
		}
	}

	h := classifyHeuristic(query)

	var finalIntent model.Intent
	var finalComplexity model.Complexity
	usedHeuristic := h.confidence >= heuristicAcceptThreshold

	if usedHeuristic {
		finalIntent, finalComplexity = h.intent, h.complexity
	} else {
		modelIntent, modelComplexity, err := c.classifyWithModel(ctx, query)
		if err != nil {
			slog.Warn("[INTENT] model fallback failed, using heuristic guess", "error", err)
			finalIntent, finalComplexity = h.intent, h.complexity
		} else {
			finalIntent, finalComplexity = modelIntent, modelComplexity
		}
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, query, finalIntent, finalComplexity); err != nil {
			slog.Warn("[INTENT] cache write failed", "error", err)
		}
	}

	complexity := c.applyReturningUserOverride(finalComplexity, profile)

	return Classification{
		Intent:         finalIntent,
		Complexity:     complexity,
		Adaptive:       model.AdaptiveParamsFor(complexity),
		UsedHeuristic:  usedHeuristic,
		HeuristicScore: h.confidence,
	}
}

// applyReturningUserOverride nudges complexity toward a returning user's
// typical complexity when the classifier's own guess is simple — a user
// who has consistently asked complex questions is unlikely to suddenly need
// only the minimal retrieval tier, even if a given query reads tersely.
func (c *Classifier) applyReturningUserOverride(complexity model.Complexity, profile model.LongTermProfile) model.Complexity {
	if !profile.IsReturningUser() {
		return complexity
	}
	if complexity == model.ComplexitySimple && complexityRank(profile.TypicalComplexity) > complexityRank(complexity) {
		return profile.TypicalComplexity
	}
	return complexity
}

func complexityRank(c model.Complexity) int {
	switch c {
	case model.ComplexitySimple:
		return 0
	case model.ComplexityModerate:
		return 1
	case model.ComplexityComplex:
		return 2
	case model.ComplexityExpert:
		return 3
	default:
		return 0
	}
}

type modelClassification struct {
	Intent     string `json:"intent"`
	Complexity string `json:"complexity"`
}

var classifierSystemPrompt = "You are a legal query classifier for Zimbabwean law. " +
	"Given a user question, respond with ONLY a JSON object of the form " +
	`{"intent": "...", "complexity": "..."}. ` +
	"intent must be one of: conversational, rag-qa, constitutional-interpretation, " +
	"statutory-analysis, case-law-research, procedural-inquiry, rights-inquiry, " +
	"contract-analysis, legal-drafting, summarization. " +
	"complexity must be one of: simple, moderate, complex, expert."

func (c *Classifier) classifyWithModel(ctx context.Context, query string) (model.Intent, model.Complexity, error) {
	raw, err := c.small.Complete(ctx, classifierSystemPrompt, query)
	if err != nil {
		return "", "", fmt.Errorf("intent.Classifier.classifyWithModel: %w", err)
	}

	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var parsed modelClassification
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return "", "", fmt.Errorf("intent.Classifier.classifyWithModel: decode %q: %w", raw, err)
	}

	return model.Intent(parsed.Intent), model.Complexity(parsed.Complexity), nil
}
