package orchestrator

import (
	"regexp"
	"strings"

	"github.com/lunexa/zimlaw-orchestrator/internal/model"
)

// citationKeyPattern mirrors the quality package's bracketed citation marker
// so the orchestrator can resolve the same keys into model.Citation records
// without exporting quality's internal regex.
var citationKeyPattern = regexp.MustCompile(`\[([a-zA-Z0-9._-]+)\]`)

// frameworkFor derives the reasoning framework the synthesizer should use
// for a given intent, per the fixed intent-to-framework mapping.
func frameworkFor(i model.Intent) model.ReasoningFramework {
	switch i {
	case model.IntentConversational:
		return model.FrameworkConversational
	case model.IntentConstitutionalInterpretation:
		return model.FrameworkConstitutionalInterpretation
	case model.IntentStatutoryAnalysis:
		return model.FrameworkStatutoryInterpretation
	case model.IntentCaseLawResearch:
		return model.FrameworkPrecedentAnalysis
	default:
		return model.FrameworkIRAC
	}
}

// extractCitations resolves every bracketed citation key in answer against
// bundledContext, returning one Citation per distinct key that resolves.
func extractCitations(answer string, bundledContext []model.BundledContextItem) []model.Citation {
	byKey := make(map[string]model.BundledContextItem, len(bundledContext))
	for _, item := range bundledContext {
		byKey[item.ParentDocID] = item
	}

	seen := make(map[string]bool)
	var citations []model.Citation
	for _, m := range citationKeyPattern.FindAllStringSubmatch(answer, -1) {
		key := m[1]
		if seen[key] {
			continue
		}
		item, ok := byKey[key]
		if !ok {
			continue
		}
		seen[key] = true
		citations = append(citations, model.Citation{
			DocKey:     key,
			Confidence: item.Confidence,
		})
	}
	return citations
}

// lowConfidenceDisclaimerThreshold is the confidence floor below which the
// composed answer must carry an explicit professional-consultation notice.
const lowConfidenceDisclaimerThreshold = 0.5

// professionalAdvisory is appended to low-confidence or source-starved
// answers so a reader knows to seek qualified legal counsel before relying
// on the answer.
const professionalAdvisory = "\n\n---\nThis answer is generated from available legal sources and may be incomplete. " +
	"For a matter with real consequences, consult a qualified Zimbabwean legal practitioner."

// educationalDisclaimer closes every answer to an advice-seeking query,
// regardless of confidence or warnings, since the system produces legal
// information rather than legal advice.
const educationalDisclaimer = "\n\n---\nThis response provides general legal information for educational purposes " +
	"and is not a substitute for legal advice. For guidance on your specific situation, consult a qualified " +
	"Zimbabwean legal practitioner."

// needsAdvisory reports whether the low-confidence/insufficient-sources
// disclaimer must be appended to the final answer.
func needsAdvisory(confidence float64, warnings []string) bool {
	if confidence < lowConfidenceDisclaimerThreshold {
		return true
	}
	for _, w := range warnings {
		if strings.Contains(strings.ToLower(w), "insufficient") {
			return true
		}
	}
	return false
}

// isAdviceSeekingIntent reports whether intent's answers bear on the
// asker's own situation — rights, procedure, a contract, or a drafted
// document — as opposed to general legal research.
func isAdviceSeekingIntent(i model.Intent) bool {
	switch i {
	case model.IntentProceduralInquiry, model.IntentRightsInquiry,
		model.IntentContractAnalysis, model.IntentLegalDrafting:
		return true
	default:
		return false
	}
}

func withAdvisoryIfNeeded(answer string, intent model.Intent, confidence float64, warnings []string) string {
	if needsAdvisory(confidence, warnings) && !strings.Contains(answer, professionalAdvisory) {
		answer += professionalAdvisory
	}
	if isAdviceSeekingIntent(intent) && !strings.Contains(answer, educationalDisclaimer) {
		answer += educationalDisclaimer
	}
	return answer
}

// conversationalReply produces a direct, non-legal response for small-talk
// and meta queries, bypassing retrieval and synthesis entirely.
func conversationalReply(rawQuery string) string {
	lower := strings.ToLower(strings.TrimSpace(rawQuery))
	switch {
	case strings.Contains(lower, "thank"):
		return "You're welcome. Let me know if you have another legal question about Zimbabwean law."
	case strings.HasPrefix(lower, "hi") || strings.HasPrefix(lower, "hello") || strings.HasPrefix(lower, "hey"):
		return "Hello. I can help answer questions about Zimbabwean law — what would you like to know?"
	case strings.Contains(lower, "who are you") || strings.Contains(lower, "what are you"):
		return "I'm a legal research assistant for Zimbabwean law. Ask me about legislation, case law, or legal procedure."
	default:
		return "I'm here to help with questions about Zimbabwean law. Could you rephrase that as a legal question?"
	}
}
