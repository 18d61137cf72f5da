package selfcritic

import (
	"context"
	"errors"
	"testing"
)

type fakeSmall struct {
	response string
	err      error
}

func (f *fakeSmall) Complete(_ context.Context, _, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestCritique_ParsesStructuredResponse(t *testing.T) {
	c := NewCritic(&fakeSmall{response: `{"refinement_instructions": ["a", "b", "c"], "priority_fixes": ["a"], "suggested_additions": ["d"]}`})
	result := c.Critique(context.Background(), "answer", []string{"low density"}, 0)

	if len(result.RefinementInstructions) < minRefinementInstructions {
		t.Fatalf("expected at least %d instructions, got %d", minRefinementInstructions, len(result.RefinementInstructions))
	}
	if result.RefinementIteration != 1 {
		t.Fatalf("expected iteration incremented to 1, got %d", result.RefinementIteration)
	}
}

func TestCritique_ModelErrorFallsBackToTemplate(t *testing.T) {
	c := NewCritic(&fakeSmall{err: errors.New("unavailable")})
	result := c.Critique(context.Background(), "answer", []string{"citation density 0.5 below required 0.8"}, 1)

	if len(result.RefinementInstructions) < minRefinementInstructions {
		t.Fatalf("expected fallback instructions, got %d", len(result.RefinementInstructions))
	}
	if result.RefinementIteration != 2 {
		t.Fatalf("expected iteration incremented to 2, got %d", result.RefinementIteration)
	}
}

func TestCritique_MalformedResponseFallsBackToTemplate(t *testing.T) {
	c := NewCritic(&fakeSmall{response: "not json"})
	result := c.Critique(context.Background(), "answer", []string{"incoherent conclusion"}, 0)

	if len(result.RefinementInstructions) < minRefinementInstructions {
		t.Fatalf("expected fallback instructions, got %d", len(result.RefinementInstructions))
	}
}

func TestCritique_TooFewModelInstructionsToppedUpByTemplate(t *testing.T) {
	c := NewCritic(&fakeSmall{response: `{"refinement_instructions": ["only one"]}`})
	result := c.Critique(context.Background(), "answer", []string{"issue one"}, 0)

	if len(result.RefinementInstructions) < minRefinementInstructions {
		t.Fatalf("expected topped-up instructions, got %d", len(result.RefinementInstructions))
	}
}
