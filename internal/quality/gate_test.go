package quality

import (
	"context"
	"testing"
)

func TestGate_Evaluate_PassesWellGroundedAnswer(t *testing.T) {
	small := &fakeSmallModel{response: `{"coherence_score": 0.95, "issues": []}`}
	gate := NewGate(NewCoherenceChecker(small))

	answer := "[labour-act-ch-28-01] Section 12 of the Act requires 30 days notice for termination."
	result := gate.Evaluate(context.Background(), answer, testContext())

	if !result.Passed {
		t.Fatalf("expected gate to pass, issues: %v", result.Issues)
	}
	if result.Confidence != 0.95 && result.Confidence != 1.0 {
		t.Fatalf("expected confidence to reflect min(density, coherence), got %.2f", result.Confidence)
	}
}

func TestGate_Evaluate_FailsOnLowCoherence(t *testing.T) {
	small := &fakeSmallModel{response: `{"coherence_score": 0.3, "issues": ["answer contradicts itself"]}`}
	gate := NewGate(NewCoherenceChecker(small))

	answer := "[labour-act-ch-28-01] Section 12 of the Act requires 30 days notice."
	result := gate.Evaluate(context.Background(), answer, testContext())

	if result.Passed {
		t.Fatal("expected gate to fail on low coherence")
	}
	if result.Confidence != 0.3 {
		t.Fatalf("expected confidence pinned to lower coherence score, got %.2f", result.Confidence)
	}
}

func TestGate_Evaluate_DegradesGracefullyOnModelFailure(t *testing.T) {
	small := &fakeSmallModel{err: context.DeadlineExceeded}
	gate := NewGate(NewCoherenceChecker(small))

	answer := "[labour-act-ch-28-01] Section 12 of the Act requires notice."
	result := gate.Evaluate(context.Background(), answer, testContext())

	found := false
	for _, issue := range result.Issues {
		if issue == "coherence check unavailable" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected degraded-coherence issue noted, got %v", result.Issues)
	}
}
