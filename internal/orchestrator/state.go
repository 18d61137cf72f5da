// Package orchestrator drives the query-answering state machine: intent
// classification, rewriting, hybrid retrieval, reranking, speculative
// parent fetch, streaming synthesis, and the bounded self-correction loop.
package orchestrator

import "github.com/lunexa/zimlaw-orchestrator/internal/model"

// stateVersion is the constant carried on every AgentState for a given
// build of the pipeline, surfaced for tracing/debugging.
const stateVersion = "v1"

// AgentState is the single carrier of one request's orchestration. Every
// field is a scalar or an identifier/value list — no heavy objects are
// threaded through state beyond what a single request needs in memory.
type AgentState struct {
	StateVersion string
	TraceID      string
	UserID       string
	SessionID    string

	RawQuery     string
	Jurisdiction string
	DateContext  string

	Intent                   model.Intent
	Complexity               model.Complexity
	UserType                 model.UserType
	ReasoningFramework       model.ReasoningFramework
	ClassificationConfidence float64
	RetrievalTopK            int
	RerankTopK               int
	LegalAreas               []string

	RewrittenQuery   string
	HypotheticalDocs []string
	SubQuestions     []string

	CombinedResults  []model.RetrievalResult
	RerankedResults  []model.RetrievalResult
	RerankedChunkIDs []string
	TopKResults      []model.RetrievalResult

	ParentDocCache map[string]model.ParentDocument
	BundledContext []model.BundledContextItem
	ContextTokens  int

	FinalAnswer  string
	CitedSources []model.Citation
	Synthesis    model.SynthesisMeta

	QualityPassed     bool
	QualityConfidence float64
	QualityIssues     []string

	RefinementIteration    int
	RefinementInstructions []string
	PriorityFixes          []string
	SuggestedAdditions     []string

	ShortTermContext   []model.ShortTermRecord
	LongTermProfile    model.LongTermProfile
	MemoryTokensUsed    int
	ConversationTopics []string

	FromCache bool

	Warnings  []string
	PerNodeMs map[string]int64
}

// NewAgentState initializes an AgentState for a fresh request.
func NewAgentState(traceID, userID, sessionID, rawQuery, jurisdiction, dateContext string) AgentState {
	if jurisdiction == "" {
		jurisdiction = "ZW"
	}
	return AgentState{
		StateVersion:   stateVersion,
		TraceID:        traceID,
		UserID:         userID,
		SessionID:      sessionID,
		RawQuery:       rawQuery,
		Jurisdiction:   jurisdiction,
		DateContext:    dateContext,
		ParentDocCache: make(map[string]model.ParentDocument),
		PerNodeMs:      make(map[string]int64),
	}
}

// addWarning appends msg if it is not already present, keeping Warnings
// free of duplicates across loop iterations.
func (s *AgentState) addWarning(msg string) {
	for _, w := range s.Warnings {
		if w == msg {
			return
		}
	}
	s.Warnings = append(s.Warnings, msg)
}
