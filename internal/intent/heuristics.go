package intent

import (
	"regexp"
	"strings"

	"github.com/lunexa/zimlaw-orchestrator/internal/model"
)

// conversationalMarkers catch small talk and meta-questions that never need
// retrieval.
var conversationalMarkers = []string{
	"hello", "hi ", "hey", "how are you", "who are you", "what can you do",
	"thank you", "thanks", "good morning", "good afternoon",
}

// intentKeywords maps each non-conversational intent to its strongest
// lexical markers, checked in the listed order so more specific intents
// are tried before the catch-all rag-qa.
var intentKeywords = []struct {
	intent   model.Intent
	patterns []string
}{
	{model.IntentConstitutionalInterpretation, []string{"constitution", "section 56", "bill of rights", "constitutional"}},
	{model.IntentRightsInquiry, []string{"my rights", "am i entitled", "can i be", "right to"}},
	{model.IntentCaseLawResearch, []string{"case law", "precedent", "supreme court ruled", "judgment", "v.", "versus"}},
	{model.IntentStatutoryAnalysis, []string{"act says", "section", "statutory instrument", "chapter "}},
	{model.IntentProceduralInquiry, []string{"how do i file", "what is the procedure", "how long does it take", "process for"}},
	{model.IntentContractAnalysis, []string{"contract", "agreement", "clause", "breach of"}},
	{model.IntentLegalDrafting, []string{"draft a", "write a contract", "draft an agreement", "template for"}},
	{model.IntentSummarization, []string{"summarize", "summarise", "tldr", "in brief"}},
}

// legalTermPattern flags the presence of legal-register vocabulary, one
// signal feeding the complexity heuristic.
var legalTermPattern = regexp.MustCompile(`(?i)\b(statute|provision|jurisdiction|precedent|tort|liability|plaintiff|defendant|injunction|affidavit|common law|customary law)\b`)

// comparativeConnectivePattern flags multi-clause comparative questions,
// which tend to require more reasoning depth than a single-fact lookup.
var comparativeConnectivePattern = regexp.MustCompile(`(?i)\b(whereas|however|compared to|versus|as opposed to|in contrast|on the other hand)\b`)

// heuristicResult carries the heuristic layer's intent/complexity guess
// plus a confidence score reflecting how unambiguous the signal was.
type heuristicResult struct {
	intent     model.Intent
	complexity model.Complexity
	confidence float64
}

// classifyHeuristic applies the lexical-marker cascade and returns its best
// guess with a confidence score. If no marker matched at all it returns the
// catch-all rag-qa intent with confidence 0.5, below the accept threshold,
// so the caller falls back to the model.
func classifyHeuristic(query string) heuristicResult {
	lower := strings.ToLower(query)

	for _, marker := range conversationalMarkers {
		if strings.Contains(lower, marker) {
			return heuristicResult{intent: model.IntentConversational, complexity: model.ComplexitySimple, confidence: 0.95}
		}
	}

	for _, ik := range intentKeywords {
		for _, pattern := range ik.patterns {
			if strings.Contains(lower, pattern) {
				return heuristicResult{
					intent:     ik.intent,
					complexity: complexityHeuristic(query),
					confidence: 0.9,
				}
			}
		}
	}

	return heuristicResult{intent: model.IntentRAGQA, complexity: complexityHeuristic(query), confidence: 0.5}
}

// complexityHeuristic scores query complexity from word count, legal-term
// density, and the presence of comparative connectives.
func complexityHeuristic(query string) model.Complexity {
	words := strings.Fields(query)
	wordCount := len(words)
	legalHits := len(legalTermPattern.FindAllString(query, -1))
	hasComparative := comparativeConnectivePattern.MatchString(query)

	score := 0
	switch {
	case wordCount > 40:
		score += 3
	case wordCount > 20:
		score += 2
	case wordCount > 10:
		score += 1
	}
	score += legalHits
	if hasComparative {
		score += 2
	}

	switch {
	case score >= 6:
		return model.ComplexityExpert
	case score >= 4:
		return model.ComplexityComplex
	case score >= 2:
		return model.ComplexityModerate
	default:
		return model.ComplexitySimple
	}
}
