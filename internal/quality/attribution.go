package quality

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/lunexa/zimlaw-orchestrator/internal/model"
)

// citationPattern matches a bracketed citation key, e.g. "[labour-act-ch-28-01]".
var citationPattern = regexp.MustCompile(`\[([a-zA-Z0-9._-]+)\]`)

// legalTermMarkers flag a sentence as carrying a substantive legal
// proposition worth requiring a citation for.
var legalTermMarkers = []string{
	"section", "act", "statute", "provision", "shall", "court", "judgment",
	"precedent", "constitution", "regulation", "clause", "liable", "entitled",
	"offence", "penalty", "right to", "duty to",
}

// declarativeVerbMarkers flag sentences that assert something as fact,
// rather than merely describing or asking.
var declarativeVerbMarkers = []string{"is", "are", "must", "requires", "prohibits", "permits", "establishes"}

func isSubstantive(sentence string) bool {
	lower := strings.ToLower(sentence)
	for _, marker := range legalTermMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	for _, verb := range declarativeVerbMarkers {
		if strings.Contains(lower, " "+verb+" ") {
			return true
		}
	}
	return false
}

// splitSentences is a lightweight sentence splitter: break on sentence
// terminators, keep non-empty trimmed results.
func splitSentences(text string) []string {
	raw := regexp.MustCompile(`(?s)([^.!?]+[.!?])`).FindAllString(text, -1)
	sentences := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// AttributionResult is the outcome of the citation-density check.
type AttributionResult struct {
	Density float64
	Issues  []string
}

// CheckAttribution partitions answer into paragraphs, and within each
// identifies substantive sentences. A substantive sentence passes if a
// citation marker appears in an earlier sentence of its own paragraph or
// anywhere in the sentence itself. It also
// verifies every cited key resolves to a document present in bundledContext.
func CheckAttribution(answer string, bundledContext []model.BundledContextItem) AttributionResult {
	knownKeys := make(map[string]bool, len(bundledContext))
	for _, item := range bundledContext {
		knownKeys[item.ParentDocID] = true
	}

	paragraphs := strings.Split(answer, "\n\n")

	var total, passing int
	var issues []string
	seenUnresolved := make(map[string]bool)

	for _, paragraph := range paragraphs {
		sentences := splitSentences(paragraph)
		citedSoFar := false
		for _, sentence := range sentences {
			matches := citationPattern.FindAllStringSubmatch(sentence, -1)
			for _, m := range matches {
				key := m[1]
				if !knownKeys[key] && !seenUnresolved[key] {
					seenUnresolved[key] = true
					issues = append(issues, fmt.Sprintf("citation key %q does not resolve to any source in context", key))
				}
			}
			if len(matches) > 0 {
				citedSoFar = true
			}
			if isSubstantive(sentence) {
				total++
				if citedSoFar {
					passing++
				}
			}
		}
	}

	density := 1.0
	if total > 0 {
		density = float64(passing) / float64(total)
	}
	if density < attributionThreshold {
		issues = append(issues, fmt.Sprintf("citation density %.2f below required %.2f", density, attributionThreshold))
	}

	return AttributionResult{Density: density, Issues: issues}
}
