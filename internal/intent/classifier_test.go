package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/lunexa/zimlaw-orchestrator/internal/model"
)

type fakeSmallModel struct {
	response string
	err      error
}

func (f *fakeSmallModel) Complete(_ context.Context, _, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestClassifyHeuristic_Conversational(t *testing.T) {
	r := classifyHeuristic("Hello, how are you?")
	if r.intent != model.IntentConversational {
		t.Fatalf("expected conversational intent, got %q", r.intent)
	}
	if r.confidence < heuristicAcceptThreshold {
		t.Fatalf("expected high confidence for conversational marker, got %f", r.confidence)
	}
}

func TestClassifyHeuristic_ConstitutionalKeyword(t *testing.T) {
	r := classifyHeuristic("What does the constitution say about freedom of expression?")
	if r.intent != model.IntentConstitutionalInterpretation {
		t.Fatalf("expected constitutional-interpretation intent, got %q", r.intent)
	}
}

func TestComplexityHeuristic_ScalesWithSignals(t *testing.T) {
	simple := complexityHeuristic("What is theft?")
	if simple != model.ComplexitySimple {
		t.Fatalf("expected simple complexity for short query, got %q", simple)
	}

	complex := complexityHeuristic(
		"Whereas the Labour Act provides for unfair dismissal remedies, compared to the common law " +
			"position on wrongful termination, what liability and jurisdiction issues arise for an " +
			"employer operating across multiple provinces with a unionized workforce under a collective " +
			"bargaining agreement that references both statutory instruments and customary law precedent?")
	if complex != model.ComplexityExpert && complex != model.ComplexityComplex {
		t.Fatalf("expected a higher complexity tier for a long, legally dense, comparative query, got %q", complex)
	}
}

func TestClassifier_Classify_UsesHeuristicWhenConfident(t *testing.T) {
	c := NewClassifier(&fakeSmallModel{err: errors.New("should not be called")}, nil)
	result := c.Classify(context.Background(), "Hello there", model.LongTermProfile{})
	if result.Intent != model.IntentConversational {
		t.Fatalf("expected conversational, got %q", result.Intent)
	}
	if !result.UsedHeuristic {
		t.Fatal("expected heuristic to be used for a confident match")
	}
}

func TestClassifier_Classify_FallsBackToModel(t *testing.T) {
	small := &fakeSmallModel{response: `{"intent": "contract-analysis", "complexity": "moderate"}`}
	c := NewClassifier(small, nil)
	result := c.Classify(context.Background(), "Tell me about this", model.LongTermProfile{})
	if result.Intent != model.IntentContractAnalysis {
		t.Fatalf("expected model-classified intent, got %q", result.Intent)
	}
	if result.Complexity != model.ComplexityModerate {
		t.Fatalf("expected model-classified complexity, got %q", result.Complexity)
	}
}

func TestClassifier_Classify_ModelFailureFallsBackToHeuristicGuess(t *testing.T) {
	small := &fakeSmallModel{err: errors.New("model down")}
	c := NewClassifier(small, nil)
	result := c.Classify(context.Background(), "Tell me about this", model.LongTermProfile{})
	if result.Intent != model.IntentRAGQA {
		t.Fatalf("expected catch-all heuristic intent on model failure, got %q", result.Intent)
	}
}

func TestClassifier_ReturningUserOverride_KeepsConversationalIntent(t *testing.T) {
	c := NewClassifier(&fakeSmallModel{}, nil)
	profile := model.LongTermProfile{QueryCount: 10, TypicalComplexity: model.ComplexityComplex}
	result := c.Classify(context.Background(), "Hello", profile)
	// The returning-user override only adjusts complexity; the heuristic's
	// conversational intent passes through unchanged.
	if result.Intent != model.IntentConversational {
		t.Fatalf("expected conversational intent unaffected by override, got %q", result.Intent)
	}
}

func TestComplexityRank_Monotonic(t *testing.T) {
	order := []model.Complexity{model.ComplexitySimple, model.ComplexityModerate, model.ComplexityComplex, model.ComplexityExpert}
	for i := 1; i < len(order); i++ {
		if complexityRank(order[i]) <= complexityRank(order[i-1]) {
			t.Fatalf("expected strictly increasing rank, got %v", order)
		}
	}
}
