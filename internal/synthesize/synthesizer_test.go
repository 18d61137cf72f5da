package synthesize

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lunexa/zimlaw-orchestrator/internal/model"
)

type fakeLargeModel struct {
	chunks  []string
	streamErr error
	completeErr error
}

func (f *fakeLargeModel) Complete(_ context.Context, _, _ string, _ int, _ float64) (string, error) {
	if f.completeErr != nil {
		return "", f.completeErr
	}
	return strings.Join(f.chunks, ""), nil
}

func (f *fakeLargeModel) StreamComplete(_ context.Context, _, _ string, _ int, _ float64) (<-chan string, <-chan error) {
	textCh := make(chan string, len(f.chunks))
	errCh := make(chan error, 1)
	for _, c := range f.chunks {
		textCh <- c
	}
	close(textCh)
	errCh <- f.streamErr
	close(errCh)
	return textCh, errCh
}

func testRequest() Request {
	return Request{
		RewrittenQuery: "What is the notice period for unlawful termination?",
		BundledContext: []model.BundledContextItem{
			{ChunkID: "c1", ParentDocID: "labour-act-ch-28-01", Title: "Labour Act", Excerpt: "Section 12 requires notice.", Confidence: 0.9, SourceType: model.DocTypeAct},
		},
		UserType:           model.UserCitizen,
		Complexity:         model.ComplexityModerate,
		ReasoningFramework: model.FrameworkIRAC,
	}
}

func TestSynthesizer_Synthesize_AccumulatesStreamedTokens(t *testing.T) {
	fake := &fakeLargeModel{chunks: []string{"The notice period is ", "30 days. TL;DR: 30 days notice required."}}
	s := NewSynthesizer(fake)

	var streamed strings.Builder
	result, err := s.Synthesize(context.Background(), testRequest(), func(chunk string) {
		streamed.WriteString(chunk)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.FinalAnswer != streamed.String() {
		t.Fatalf("expected streamed tokens to match accumulated answer")
	}
	if result.Meta.TLDR != "30 days notice required." {
		t.Fatalf("expected extracted TLDR, got %q", result.Meta.TLDR)
	}
}

func TestSynthesizer_Synthesize_PropagatesStreamError(t *testing.T) {
	fake := &fakeLargeModel{streamErr: errors.New("model unavailable")}
	s := NewSynthesizer(fake)

	_, err := s.Synthesize(context.Background(), testRequest(), nil)
	if err == nil {
		t.Fatal("expected error to propagate")
	}
}

func TestExtractTLDR_MissingMarkerReturnsEmpty(t *testing.T) {
	if got := extractTLDR("no marker here"); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}

func TestSectionsFor_ComplexGetsExtendedSections(t *testing.T) {
	sections := sectionsFor(model.ComplexityComplex)
	found := false
	for _, s := range sections {
		if s == "Adversarial Analysis" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected extended sections for complex tier")
	}
}

func TestSectionsFor_SimpleGetsBaseSectionsOnly(t *testing.T) {
	sections := sectionsFor(model.ComplexitySimple)
	for _, s := range sections {
		if s == "Adversarial Analysis" {
			t.Fatal("did not expect extended sections for simple tier")
		}
	}
}

func TestRefinedSynthesizer_Refine_SetsRefinementMeta(t *testing.T) {
	fake := &fakeLargeModel{chunks: []string{"Revised answer. TL;DR: revised."}}
	s := NewSynthesizer(fake)
	rs := NewRefinedSynthesizer(s)

	refinement := RefinementInput{
		OriginalAnswer:         "Old answer text.",
		RefinementInstructions: []string{"add a citation for the notice period", "clarify the applicable chapter", "address the missing case law"},
		IterationCount:         1,
	}

	result, err := rs.Refine(context.Background(), testRequest(), refinement, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Meta.RefinementApplied {
		t.Fatal("expected RefinementApplied to be true")
	}
	if result.Meta.IterationCount != 1 {
		t.Fatalf("expected iteration count 1, got %d", result.Meta.IterationCount)
	}
}

func TestPreviousAnswerBlock_TruncatesLongAnswer(t *testing.T) {
	original := strings.Repeat("x", refinedAnswerExcerptChars+100)
	block := previousAnswerBlock(original)
	if len(block)-len("Previous answer (truncated):\n") != refinedAnswerExcerptChars {
		t.Fatalf("expected excerpt truncated to %d chars", refinedAnswerExcerptChars)
	}
}
