package orchestrator

import (
	"strings"

	"github.com/lunexa/zimlaw-orchestrator/internal/model"
)

// Decision is the quality-gate routing outcome.
type Decision string

const (
	DecisionPass         Decision = "pass"
	DecisionRefine       Decision = "refine"
	DecisionRetrieveMore Decision = "retrieve_more"
)

// maxRefinementIterations bounds the self-correction loop: at or beyond
// this many prior iterations, the decision is forced to pass regardless of
// quality, so the loop can never run unbounded.
const maxRefinementIterations = 2

// issuesContainAny reports whether any issue in issues contains any of the
// given substrings, case-insensitively.
func issuesContainAny(issues []string, substrings ...string) bool {
	for _, issue := range issues {
		lower := strings.ToLower(issue)
		for _, s := range substrings {
			if strings.Contains(lower, s) {
				return true
			}
		}
	}
	return false
}

// Decide implements the deterministic quality-gate routing function: given
// the current state's quality verdict, refinement iteration count, and
// complexity, choose pass, refine, or retrieve_more. The fail-safe
// (refinement_iteration >= 2) always wins over any other consideration.
func Decide(state AgentState) Decision {
	if state.RefinementIteration >= maxRefinementIterations {
		return DecisionPass
	}
	if state.QualityPassed && state.QualityConfidence >= 0.8 {
		return DecisionPass
	}
	if issuesContainAny(state.QualityIssues, "insufficient", "missing source") {
		return DecisionRetrieveMore
	}
	if issuesContainAny(state.QualityIssues, "coherence", "logic") && state.QualityConfidence > 0.5 && state.QualityConfidence < 0.8 {
		return DecisionRefine
	}
	if state.Complexity == model.ComplexityExpert && state.QualityConfidence < 0.7 {
		return DecisionRefine
	}
	return DecisionPass
}
