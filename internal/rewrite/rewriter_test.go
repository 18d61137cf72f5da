package rewrite

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lunexa/zimlaw-orchestrator/internal/model"
)

type fakeSmall struct {
	response string
	err      error
	calls    int
}

func (f *fakeSmall) Complete(_ context.Context, _, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestExpandAbbreviations(t *testing.T) {
	out := expandAbbreviations("What does the SI say about the LRA?")
	if !strings.Contains(out, "Statutory Instrument") || !strings.Contains(out, "Labour Relations Act") {
		t.Fatalf("expected abbreviations expanded, got %q", out)
	}
}

func TestExpandAbbreviations_LeavesUnknownWordsAlone(t *testing.T) {
	out := expandAbbreviations("What is the penalty for murder?")
	if out != "What is the penalty for murder?" {
		t.Fatalf("expected unchanged text for non-abbreviation words, got %q", out)
	}
}

func TestIsFollowUp_PronounOpener(t *testing.T) {
	if !isFollowUp("That rule also applies to residential tenants?") {
		t.Fatal("expected pronoun-opening query to be detected as follow-up")
	}
}

func TestIsFollowUp_ShortQuery(t *testing.T) {
	if !isFollowUp("and the penalty?") {
		t.Fatal("expected short query to be detected as follow-up")
	}
}

func TestIsFollowUp_SelfContainedQuestionIsNot(t *testing.T) {
	if isFollowUp("What is the minimum notice period for terminating an employment contract in Zimbabwe?") {
		t.Fatal("expected long self-contained question to not be flagged as follow-up")
	}
}

func TestResolveReference_NoHistoryReturnsUnchanged(t *testing.T) {
	small := &fakeSmall{err: errors.New("should not be called")}
	out, err := resolveReference(context.Background(), small, "what about it", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "what about it" {
		t.Fatalf("expected unchanged query with no history, got %q", out)
	}
}

func TestResolveReference_WithHistory(t *testing.T) {
	small := &fakeSmall{response: "What is the penalty for late rent payment under the Labour Act?"}
	history := []model.ShortTermRecord{{Role: "user", Content: "Tell me about the Labour Act"}}
	out, err := resolveReference(context.Background(), small, "what about the penalty?", history)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != small.response {
		t.Fatalf("expected resolved query, got %q", out)
	}
}

func TestGenerateHypotheticalDocs_RespectsCountAndCharLimit(t *testing.T) {
	small := &fakeSmall{response: strings.Repeat("x", maxHypotheticalChars+200)}
	variants := generateHypotheticalDocs(context.Background(), small, "query", 2)
	if len(variants) != 2 {
		t.Fatalf("expected 2 hypothetical variants, got %d", len(variants))
	}
	if len(variants[0].Text) != maxHypotheticalChars {
		t.Fatalf("expected truncated hypothetical text, got length %d", len(variants[0].Text))
	}
}

func TestGenerateSubQuestions_CapsAtMax(t *testing.T) {
	small := &fakeSmall{response: "one\ntwo\nthree\nfour\nfive"}
	variants := generateSubQuestions(context.Background(), small, "query")
	if len(variants) != maxSubQuestions {
		t.Fatalf("expected %d sub-questions, got %d", maxSubQuestions, len(variants))
	}
}

func TestRewriter_Rewrite_SimpleComplexityGeneratesNoVariants(t *testing.T) {
	small := &fakeSmall{response: "variant"}
	r := NewRewriter(small)
	result, err := r.Rewrite(context.Background(), "What is theft?", nil, "ZW", "", model.ComplexitySimple)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Variants) != 0 {
		t.Fatalf("expected no variants for simple complexity, got %d", len(result.Variants))
	}
}

func TestRewriter_Rewrite_ExpertComplexityGeneratesVariantsWithinCap(t *testing.T) {
	small := &fakeSmall{response: "a generated variant line"}
	r := NewRewriter(small)
	result, err := r.Rewrite(context.Background(), "What is the standard for constitutional review?", nil, "ZW", "2026", model.ComplexityExpert)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.AllTexts()) > maxTotalVariants {
		t.Fatalf("expected at most %d total texts, got %d", maxTotalVariants, len(result.AllTexts()))
	}
	if !strings.Contains(result.Canonical, "ZW") {
		t.Fatalf("expected jurisdiction context injected, got %q", result.Canonical)
	}
}

func TestInjectContext_NoHintsReturnsUnchanged(t *testing.T) {
	if got := injectContext("query", "", ""); got != "query" {
		t.Fatalf("expected unchanged query, got %q", got)
	}
}
