package orchestrator

import (
	"testing"

	"github.com/lunexa/zimlaw-orchestrator/internal/model"
)

func TestDecide_PassesOnHighConfidence(t *testing.T) {
	state := AgentState{QualityPassed: true, QualityConfidence: 0.9}
	if got := Decide(state); got != DecisionPass {
		t.Fatalf("expected pass, got %s", got)
	}
}

func TestDecide_ForcesPassAtMaxIterations(t *testing.T) {
	state := AgentState{QualityPassed: false, QualityConfidence: 0.3, RefinementIteration: 2, QualityIssues: []string{"insufficient sources"}}
	if got := Decide(state); got != DecisionPass {
		t.Fatalf("expected forced pass at max iterations, got %s", got)
	}
}

func TestDecide_RetrievesMoreOnInsufficientSources(t *testing.T) {
	state := AgentState{QualityPassed: false, QualityConfidence: 0.4, QualityIssues: []string{"insufficient sources cited", "no case law cited"}}
	if got := Decide(state); got != DecisionRetrieveMore {
		t.Fatalf("expected retrieve_more, got %s", got)
	}
}

func TestDecide_RefinesOnMidRangeCoherenceIssue(t *testing.T) {
	state := AgentState{QualityPassed: false, QualityConfidence: 0.65, QualityIssues: []string{"weak coherence in conclusion"}}
	if got := Decide(state); got != DecisionRefine {
		t.Fatalf("expected refine, got %s", got)
	}
}

func TestDecide_RefinesOnLowConfidenceExpertComplexity(t *testing.T) {
	state := AgentState{QualityPassed: false, QualityConfidence: 0.6, Complexity: model.ComplexityExpert}
	if got := Decide(state); got != DecisionRefine {
		t.Fatalf("expected refine for low-confidence expert query, got %s", got)
	}
}

func TestDecide_DefaultsToPass(t *testing.T) {
	state := AgentState{QualityPassed: false, QualityConfidence: 0.75, QualityIssues: []string{"minor stylistic issue"}}
	if got := Decide(state); got != DecisionPass {
		t.Fatalf("expected default pass, got %s", got)
	}
}
