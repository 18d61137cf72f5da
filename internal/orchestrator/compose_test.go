package orchestrator

import (
	"strings"
	"testing"

	"github.com/lunexa/zimlaw-orchestrator/internal/model"
)

func TestFrameworkFor_MapsKnownIntents(t *testing.T) {
	cases := map[model.Intent]model.ReasoningFramework{
		model.IntentConversational:               model.FrameworkConversational,
		model.IntentConstitutionalInterpretation: model.FrameworkConstitutionalInterpretation,
		model.IntentStatutoryAnalysis:            model.FrameworkStatutoryInterpretation,
		model.IntentCaseLawResearch:              model.FrameworkPrecedentAnalysis,
		model.IntentRAGQA:                        model.FrameworkIRAC,
		model.IntentProceduralInquiry:            model.FrameworkIRAC,
	}
	for intent, want := range cases {
		if got := frameworkFor(intent); got != want {
			t.Errorf("frameworkFor(%s) = %s, want %s", intent, got, want)
		}
	}
}

func TestExtractCitations_ResolvesKnownKeysOnly(t *testing.T) {
	bundled := []model.BundledContextItem{
		{ParentDocID: "labour-act-ch-28-01", Confidence: 0.9},
	}
	answer := "Termination requires notice [labour-act-ch-28-01]. See also [unknown-key] for context."

	citations := extractCitations(answer, bundled)
	if len(citations) != 1 {
		t.Fatalf("expected 1 resolved citation, got %d: %+v", len(citations), citations)
	}
	if citations[0].DocKey != "labour-act-ch-28-01" || citations[0].Confidence != 0.9 {
		t.Fatalf("unexpected citation: %+v", citations[0])
	}
}

func TestExtractCitations_DedupesRepeatedKeys(t *testing.T) {
	bundled := []model.BundledContextItem{{ParentDocID: "k1", Confidence: 0.8}}
	answer := "[k1] says X. Later, [k1] says Y."

	citations := extractCitations(answer, bundled)
	if len(citations) != 1 {
		t.Fatalf("expected dedup to 1 citation, got %d", len(citations))
	}
}

func TestNeedsAdvisory_LowConfidenceTriggers(t *testing.T) {
	if !needsAdvisory(0.3, nil) {
		t.Fatal("expected advisory for low confidence")
	}
}

func TestNeedsAdvisory_InsufficientSourcesWarningTriggers(t *testing.T) {
	if !needsAdvisory(0.9, []string{"insufficient sources cited"}) {
		t.Fatal("expected advisory when warnings mention insufficient sources")
	}
}

func TestNeedsAdvisory_HighConfidenceNoWarningsDoesNotTrigger(t *testing.T) {
	if needsAdvisory(0.95, []string{"minor stylistic issue"}) {
		t.Fatal("did not expect advisory")
	}
}

func TestWithAdvisoryIfNeeded_DoesNotDuplicate(t *testing.T) {
	answer := "Some answer."
	once := withAdvisoryIfNeeded(answer, model.IntentRAGQA, 0.2, nil)
	twice := withAdvisoryIfNeeded(once, model.IntentRAGQA, 0.2, nil)
	if once != twice {
		t.Fatal("advisory should not be appended twice")
	}
}

func TestWithAdvisoryIfNeeded_AdviceSeekingIntentAlwaysGetsEducationalDisclaimer(t *testing.T) {
	answer := "You have a right to a fair hearing."
	got := withAdvisoryIfNeeded(answer, model.IntentRightsInquiry, 0.95, nil)
	if !strings.Contains(got, educationalDisclaimer) {
		t.Fatal("expected educational disclaimer for an advice-seeking intent even at high confidence")
	}
	if strings.Contains(got, professionalAdvisory) {
		t.Fatal("did not expect the low-confidence advisory alongside a high-confidence answer")
	}
}

func TestWithAdvisoryIfNeeded_ResearchIntentNoEducationalDisclaimer(t *testing.T) {
	answer := "The Constitution establishes three arms of government."
	got := withAdvisoryIfNeeded(answer, model.IntentConstitutionalInterpretation, 0.95, nil)
	if strings.Contains(got, educationalDisclaimer) {
		t.Fatal("did not expect the educational disclaimer for a non-advice-seeking intent")
	}
}

func TestIsAdviceSeekingIntent(t *testing.T) {
	for _, i := range []model.Intent{
		model.IntentProceduralInquiry, model.IntentRightsInquiry,
		model.IntentContractAnalysis, model.IntentLegalDrafting,
	} {
		if !isAdviceSeekingIntent(i) {
			t.Errorf("expected %s to be advice-seeking", i)
		}
	}
	for _, i := range []model.Intent{
		model.IntentRAGQA, model.IntentCaseLawResearch, model.IntentSummarization,
	} {
		if isAdviceSeekingIntent(i) {
			t.Errorf("did not expect %s to be advice-seeking", i)
		}
	}
}

func TestConversationalReply_GreetingGetsGreeting(t *testing.T) {
	reply := conversationalReply("Hello there")
	if reply == "" {
		t.Fatal("expected non-empty reply")
	}
}
