package quality

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/lunexa/zimlaw-orchestrator/internal/model"
)

// Gate combines the attribution and coherence checks into a single verdict.
type Gate struct {
	coherence *CoherenceChecker
}

// NewGate creates a Gate.
func NewGate(coherence *CoherenceChecker) *Gate {
	return &Gate{coherence: coherence}
}

// Evaluate runs the attribution and coherence checks concurrently (they are
// independent) and merges their results deterministically: quality_passed
// requires density >= threshold and no unresolved citation, AND the
// coherence score clearing the same threshold; quality_confidence is the
// minimum of the two scores. If the coherence model call fails, the gate
// passes with confidence 0.5 and notes the failure as an issue.
func (g *Gate) Evaluate(ctx context.Context, answer string, bundledContext []model.BundledContextItem) Result {
	var attribution AttributionResult
	var coherence CoherenceResult
	coherenceFailed := false

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		attribution = CheckAttribution(answer, bundledContext)
		return nil
	})
	group.Go(func() error {
		result, err := g.coherence.Check(gctx, answer)
		if err != nil {
			slog.Warn("[QUALITY] coherence check failed, degrading to neutral score", "error", err)
			coherence = CoherenceResult{Score: 0.5, Issues: []string{"coherence check unavailable"}}
			coherenceFailed = true
			return nil
		}
		coherence = result
		return nil
	})
	_ = group.Wait()

	issues := make([]string, 0, len(attribution.Issues)+len(coherence.Issues))
	issues = append(issues, attribution.Issues...)
	issues = append(issues, coherence.Issues...)

	confidence := attribution.Density
	if coherence.Score < confidence {
		confidence = coherence.Score
	}

	known := make(map[string]bool, len(bundledContext))
	for _, item := range bundledContext {
		known[item.ParentDocID] = true
	}
	unresolved := false
	for _, m := range citationPattern.FindAllStringSubmatch(answer, -1) {
		if !known[m[1]] {
			unresolved = true
		}
	}

	passed := !unresolved && attribution.Density >= attributionThreshold && coherence.Score >= attributionThreshold
	if coherenceFailed {
		passed, confidence = true, 0.5
	}

	return Result{
		Passed:     passed,
		Confidence: confidence,
		Issues:     issues,
	}
}
