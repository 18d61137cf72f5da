// Package synthesize produces the final grounded answer text from bundled
// retrieval context, streaming tokens as the large model generates them.
package synthesize

import "github.com/lunexa/zimlaw-orchestrator/internal/model"

// priorTurnLimit bounds how many short-term exchanges are folded into the
// synthesis prompt as conversational context.
const priorTurnLimit = 2

// refinedAnswerExcerptChars bounds how much of the original answer the
// refined synthesizer is shown when asked to improve it.
const refinedAnswerExcerptChars = 500

// Request carries everything the synthesizer needs to produce one answer.
type Request struct {
	RewrittenQuery     string
	BundledContext     []model.BundledContextItem
	UserType           model.UserType
	Complexity         model.Complexity
	ReasoningFramework model.ReasoningFramework
	ShortTermContext   []model.ShortTermRecord
}

// Result is the synthesizer's full output: accumulated answer text plus
// metadata. Citations are parsed from the answer text by the caller (the
// quality gate owns citation-key resolution).
type Result struct {
	FinalAnswer string
	Meta        model.SynthesisMeta
}
