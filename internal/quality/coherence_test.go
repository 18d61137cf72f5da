package quality

import (
	"context"
	"errors"
	"testing"
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

func TestCoherenceChecker_Check_ParsesStructuredAssessment(t *testing.T) {
	c := NewCoherenceChecker(&fakeSmallModel{response: `{"coherence_score": 0.92, "issues": []}`})
	result, err := c.Check(context.Background(), "some answer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Score != 0.92 {
		t.Fatalf("expected score 0.92, got %.2f", result.Score)
	}
}

func TestCoherenceChecker_Check_StripsMarkdownFences(t *testing.T) {
	c := NewCoherenceChecker(&fakeSmallModel{response: "```json\n{\"coherence_score\": 0.7, \"issues\": [\"minor gap\"]}\n```"})
	result, err := c.Check(context.Background(), "some answer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Score != 0.7 || len(result.Issues) != 1 {
		t.Fatalf("expected parsed fenced JSON, got %+v", result)
	}
}

func TestCoherenceChecker_Check_MalformedResponseDegradesToNeutral(t *testing.T) {
	c := NewCoherenceChecker(&fakeSmallModel{response: "not json at all"})
	result, err := c.Check(context.Background(), "some answer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Score != 0.5 {
		t.Fatalf("expected neutral degraded score, got %.2f", result.Score)
	}
}

func TestCoherenceChecker_Check_ModelErrorPropagates(t *testing.T) {
	c := NewCoherenceChecker(&fakeSmallModel{err: errors.New("timeout")})
	_, err := c.Check(context.Background(), "some answer")
	if err == nil {
		t.Fatal("expected error to propagate")
	}
}

func TestVerifyQuote_FindsNormalizedMatch(t *testing.T) {
	excerpts := []string{"Every employee   is entitled to a minimum of thirty days' notice."}
	if !VerifyQuote("is entitled to a minimum of thirty days", excerpts) {
		t.Fatal("expected fuzzy quote match")
	}
}

func TestVerifyQuote_NoMatch(t *testing.T) {
	excerpts := []string{"Entirely unrelated text."}
	if VerifyQuote("is entitled to a minimum of thirty days", excerpts) {
		t.Fatal("expected no match")
	}
}
