package quality

import (
	"testing"

	"github.com/lunexa/zimlaw-orchestrator/internal/model"
)

func testContext() []model.BundledContextItem {
	return []model.BundledContextItem{
		{ChunkID: "c1", ParentDocID: "labour-act-ch-28-01", Title: "Labour Act", Excerpt: "text", SourceType: model.DocTypeAct},
	}
}

func TestCheckAttribution_WellCitedAnswerPassesDensityThreshold(t *testing.T) {
	answer := "[labour-act-ch-28-01] Section 12 of the Act requires 30 days notice for termination."
	result := CheckAttribution(answer, testContext())
	if result.Density != 1.0 {
		t.Fatalf("expected full density, got %.2f", result.Density)
	}
	if len(result.Issues) != 0 {
		t.Fatalf("expected no issues, got %v", result.Issues)
	}
}

func TestCheckAttribution_UncitedSubstantiveSentenceLowersDensity(t *testing.T) {
	answer := "The court shall determine liability. This is a general statement about courts."
	result := CheckAttribution(answer, testContext())
	if result.Density >= attributionThreshold {
		t.Fatalf("expected density below threshold, got %.2f", result.Density)
	}
}

func TestCheckAttribution_UnresolvedCitationKeyFlagged(t *testing.T) {
	answer := "[unknown-doc] The Act requires notice."
	result := CheckAttribution(answer, testContext())
	found := false
	for _, issue := range result.Issues {
		if containsSubstring(issue, "unknown-doc") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected unresolved citation issue, got %v", result.Issues)
	}
}

func TestCheckAttribution_NoSubstantiveSentencesDefaultsToFullDensity(t *testing.T) {
	result := CheckAttribution("Hello there. How can I help?", testContext())
	if result.Density != 1.0 {
		t.Fatalf("expected density 1.0 for no substantive sentences, got %.2f", result.Density)
	}
}

func containsSubstring(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
