package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Tangerg/lynx/flow"
	"github.com/google/uuid"

	"github.com/lunexa/zimlaw-orchestrator/internal/cache"
	"github.com/lunexa/zimlaw-orchestrator/internal/intent"
	"github.com/lunexa/zimlaw-orchestrator/internal/iterative"
	"github.com/lunexa/zimlaw-orchestrator/internal/llm"
	"github.com/lunexa/zimlaw-orchestrator/internal/memory"
	"github.com/lunexa/zimlaw-orchestrator/internal/model"
	"github.com/lunexa/zimlaw-orchestrator/internal/parentfetch"
	"github.com/lunexa/zimlaw-orchestrator/internal/quality"
	"github.com/lunexa/zimlaw-orchestrator/internal/rerank"
	"github.com/lunexa/zimlaw-orchestrator/internal/retrieval"
	"github.com/lunexa/zimlaw-orchestrator/internal/rewrite"
	"github.com/lunexa/zimlaw-orchestrator/internal/selfcritic"
	"github.com/lunexa/zimlaw-orchestrator/internal/synthesize"
)

// memoryTokenBudget bounds the combined short-term + long-term context
// handed to the memory coordinator for one request.
const memoryTokenBudget = 1200

// cacheLookupDeadline bounds the best-effort cache lookup that precedes the
// main graph; a slow embedding call here must never stall the request.
const cacheLookupDeadline = 300 * time.Millisecond

// Orchestrator wires every stage of the answering pipeline and drives one
// request end to end: cache lookup, conversational short-circuit,
// classification, the linear retrieval/synthesis graph, and the bounded
// self-correction loop.
type Orchestrator struct {
	semanticCache *cache.SemanticCache
	embedder      llm.Embedder

	memory    *memory.Coordinator
	shortTerm *memory.ShortTermStore
	longTerm  *memory.LongTermStore

	classifier *intent.Classifier
	rewriter   *rewrite.Rewriter
	retrieval  *retrieval.Engine
	reranker   *rerank.Reranker
	parents    *parentfetch.Fetcher
	synth      *synthesize.Synthesizer
	refiner    *synthesize.RefinedSynthesizer
	gate       *quality.Gate
	critic     *selfcritic.Critic
	more       *iterative.Retriever

	graph flow.Node[any, any]
}

// Deps bundles every collaborator the orchestrator needs; constructed once
// at process startup and passed to NewOrchestrator.
type Deps struct {
	SemanticCache *cache.SemanticCache
	Embedder      llm.Embedder
	Memory        *memory.Coordinator
	ShortTerm     *memory.ShortTermStore
	LongTerm      *memory.LongTermStore
	Classifier    *intent.Classifier
	Rewriter      *rewrite.Rewriter
	Retrieval     *retrieval.Engine
	Reranker      *rerank.Reranker
	Parents       *parentfetch.Fetcher
	Synthesizer   *synthesize.Synthesizer
	Refiner       *synthesize.RefinedSynthesizer
	Gate          *quality.Gate
	Critic        *selfcritic.Critic
	More          *iterative.Retriever
}

// NewOrchestrator builds an Orchestrator and compiles its linear node graph.
func NewOrchestrator(deps Deps) (*Orchestrator, error) {
	o := &Orchestrator{
		semanticCache: deps.SemanticCache,
		embedder:      deps.Embedder,
		memory:        deps.Memory,
		shortTerm:     deps.ShortTerm,
		longTerm:      deps.LongTerm,
		classifier:    deps.Classifier,
		rewriter:      deps.Rewriter,
		retrieval:     deps.Retrieval,
		reranker:      deps.Reranker,
		parents:       deps.Parents,
		synth:         deps.Synthesizer,
		refiner:       deps.Refiner,
		gate:          deps.Gate,
		critic:        deps.Critic,
		more:          deps.More,
	}
	graph, err := o.buildGraph()
	if err != nil {
		return nil, fmt.Errorf("orchestrator.NewOrchestrator: %w", err)
	}
	o.graph = graph
	return o, nil
}

// Request is one inbound question.
type Request struct {
	TraceID      string
	UserID       string
	SessionID    string
	RawQuery     string
	Jurisdiction string
	DateContext  string
}

// RunQuery drives the full pipeline for req, emitting events to emitter. It
// emits exactly one meta event first and exactly one final event at
// termination, regardless of which path the request took.
func (o *Orchestrator) RunQuery(ctx context.Context, req Request, emitter Emitter) {
	start := time.Now()

	traceID := req.TraceID
	if traceID == "" {
		traceID = uuid.NewString()
	}
	state := NewAgentState(traceID, req.UserID, req.SessionID, req.RawQuery, req.Jurisdiction, req.DateContext)

	profile, err := o.longTerm.Get(ctx, req.UserID)
	if err != nil {
		slog.Warn("[ORCH] long-term profile fetch failed, treating as new user", "error", err, "trace_id", traceID)
		profile = model.DefaultLongTermProfile(req.UserID)
	}

	classification := o.classifier.Classify(ctx, req.RawQuery, profile)
	state.Intent = classification.Intent
	state.Complexity = classification.Complexity
	state.ClassificationConfidence = classification.HeuristicScore
	state.RetrievalTopK = classification.Adaptive.RetrievalTopK
	state.RerankTopK = classification.Adaptive.RerankTopK
	state.ReasoningFramework = frameworkFor(classification.Intent)
	state.UserType = profile.Expertise
	state.LongTermProfile = profile
	state.LegalAreas = profile.TopLegalInterests(5)

	emitter.Emit(Event{
		Type: EventMeta,
		Meta: &MetaPayload{
			TraceID:       traceID,
			Route:         string(state.Intent),
			RetrievalTopK: state.RetrievalTopK,
			RerankTopK:    state.RerankTopK,
			RequestBudget: model.RequestBudgetFor(state.Complexity).Milliseconds(),
		},
	})

	if state.Intent == model.IntentConversational {
		o.finishConversational(&state, emitter, start)
		return
	}

	if o.tryCacheShortCircuit(ctx, &state, emitter, start) {
		return
	}

	memCtx, err := o.memory.Assemble(ctx, req.SessionID, req.UserID, memoryTokenBudget)
	if err != nil {
		state.addWarning("memory assembly failed, continuing without conversational context")
		slog.Warn("[ORCH] memory assemble failed", "error", err, "trace_id", traceID)
	} else {
		state.ShortTermContext = memCtx.RecentTurns
		state.ConversationTopics = memCtx.TopLegalInterests
	}

	o.runGraphAndCorrect(ctx, &state, emitter)
	o.finish(ctx, &state, req, emitter, start)
}

// finishConversational composes and emits a direct reply for conversational
// intent, bypassing retrieval, reranking, parent fetch, synthesis and the
// quality gate entirely.
func (o *Orchestrator) finishConversational(state *AgentState, emitter Emitter, start time.Time) {
	state.FinalAnswer = conversationalReply(state.RawQuery)
	state.QualityPassed = true
	state.QualityConfidence = 1.0
	elapsed := time.Since(start)
	state.PerNodeMs["conversational"] = elapsed.Milliseconds()
	emitter.Emit(Event{
		Type: EventFinal,
		Final: &FinalPayload{
			Answer:     state.FinalAnswer,
			Confidence: state.QualityConfidence,
			Synthesis:  model.SynthesisMeta{},
			PerNodeMs:  state.PerNodeMs,
			TotalMs:    elapsed.Milliseconds(),
			FromCache:  false,
			Warnings:   state.Warnings,
		},
	})
}

// tryCacheShortCircuit attempts the semantic cache lookup that must precede
// the rest of the graph. On a hit it emits the final event itself and
// returns true; on a miss, or any failure along the way, it returns false
// and the caller proceeds with the full pipeline.
func (o *Orchestrator) tryCacheShortCircuit(ctx context.Context, state *AgentState, emitter Emitter, start time.Time) bool {
	lookupCtx, cancel := context.WithTimeout(ctx, cacheLookupDeadline)
	defer cancel()

	embeddings, err := o.embedder.Embed(lookupCtx, []string{state.RawQuery})
	if err != nil || len(embeddings) == 0 {
		if err != nil {
			slog.Warn("[ORCH] cache-lookup embedding failed, skipping cache", "error", err, "trace_id", state.TraceID)
		}
		return false
	}

	entry, ok := o.semanticCache.Lookup(lookupCtx, state.UserType, state.RawQuery, embeddings[0])
	if !ok {
		return false
	}

	state.FromCache = true
	state.FinalAnswer = entry.Answer
	state.CitedSources = entry.Citations
	state.QualityConfidence = entry.Confidence
	state.QualityPassed = true
	state.Synthesis = entry.Synthesis

	elapsed := time.Since(start)
	state.PerNodeMs["cache_lookup"] = elapsed.Milliseconds()
	emitter.Emit(Event{
		Type: EventFinal,
		Final: &FinalPayload{
			Answer:     entry.Answer,
			Citations:  entry.Citations,
			Confidence: entry.Confidence,
			Synthesis:  entry.Synthesis,
			PerNodeMs:  state.PerNodeMs,
			TotalMs:    elapsed.Milliseconds(),
			FromCache:  true,
			Warnings:   nil,
		},
	})
	return true
}

// runGraphAndCorrect runs the compiled linear graph once, then drives the
// bounded self-correction loop (refine / retrieve_more / pass) until the
// quality gate passes or the iteration cap is reached.
func (o *Orchestrator) runGraphAndCorrect(ctx context.Context, state *AgentState, emitter Emitter) {
	if err := o.runGraph(ctx, state, emitter); err != nil {
		state.addWarning("synthesis pipeline failed: " + err.Error())
		state.FinalAnswer = "I wasn't able to produce a grounded answer for this question right now. Please try again shortly."
		state.QualityPassed = false
		state.QualityConfidence = 0
		return
	}

	requestBudget := model.RequestBudgetFor(state.Complexity)
	loopStart := time.Now()

	for {
		decision := Decide(*state)
		if decision == DecisionPass {
			break
		}
		if time.Since(loopStart) > requestBudget {
			state.addWarning("request budget exceeded, returning best-effort answer")
			break
		}

		switch decision {
		case DecisionRefine:
			o.refineOnce(ctx, state)
		case DecisionRetrieveMore:
			o.retrieveMoreOnce(ctx, state, emitter)
		}
		state.RefinementIteration++
	}
}

// refineOnce asks the critic for refinement guidance and re-synthesizes
// with it, then re-evaluates the quality gate.
func (o *Orchestrator) refineOnce(ctx context.Context, state *AgentState) {
	critique := o.critic.Critique(ctx, state.FinalAnswer, state.QualityIssues, state.RefinementIteration)
	state.RefinementInstructions = critique.RefinementInstructions
	state.PriorityFixes = critique.PriorityFixes
	state.SuggestedAdditions = critique.SuggestedAdditions

	req := o.synthesisRequest(state)
	result, err := o.refiner.Refine(ctx, req, synthesize.RefinementInput{
		OriginalAnswer:         state.FinalAnswer,
		RefinementInstructions: critique.RefinementInstructions,
		PriorityFixes:          critique.PriorityFixes,
		SuggestedAdditions:     critique.SuggestedAdditions,
		IterationCount:         state.RefinementIteration + 1,
	}, func(string) {})
	if err != nil {
		state.addWarning("refinement synthesis failed, keeping prior answer: " + err.Error())
		return
	}

	state.FinalAnswer = result.FinalAnswer
	state.Synthesis = result.Meta
	gateResult := o.gate.Evaluate(ctx, state.FinalAnswer, state.BundledContext)
	state.QualityPassed = gateResult.Passed
	state.QualityConfidence = gateResult.Confidence
	state.QualityIssues = gateResult.Issues
}

// retrieveMoreOnce fetches additional candidates targeted at the quality
// gate's reported gaps, merges them into the result set, reranks, re-fetches
// parents, and re-synthesizes from the enlarged context.
func (o *Orchestrator) retrieveMoreOnce(ctx context.Context, state *AgentState, emitter Emitter) {
	existing := make(map[string]bool, len(state.TopKResults))
	for _, r := range state.TopKResults {
		existing[r.Chunk.ID] = true
	}

	fresh, err := o.more.Retrieve(ctx, state.RewrittenQuery, state.QualityIssues, existing)
	if err != nil {
		state.addWarning("iterative retrieval failed: " + err.Error())
		return
	}

	state.CombinedResults = iterative.Merge(state.CombinedResults, fresh)
	state.RerankedResults = o.reranker.Rerank(ctx, state.RewrittenQuery, state.CombinedResults, state.RerankTopK)
	state.TopKResults = state.RerankedResults

	parents := o.parents.FetchBatch(ctx, state.TopKResults)
	for id, doc := range parents {
		state.ParentDocCache[id] = doc
	}
	state.BundledContext = parentfetch.BuildBundledContext(state.TopKResults, state.ParentDocCache)

	req := o.synthesisRequest(state)
	result, err := o.synth.Synthesize(ctx, req, func(tok string) {
		emitter.Emit(Event{Type: EventToken, Token: tok})
	})
	if err != nil {
		state.addWarning("re-synthesis after iterative retrieval failed: " + err.Error())
		return
	}

	state.FinalAnswer = result.FinalAnswer
	state.Synthesis = result.Meta
	gateResult := o.gate.Evaluate(ctx, state.FinalAnswer, state.BundledContext)
	state.QualityPassed = gateResult.Passed
	state.QualityConfidence = gateResult.Confidence
	state.QualityIssues = gateResult.Issues
}

// runGraph runs the compiled linear flow.Node chain once.
func (o *Orchestrator) runGraph(ctx context.Context, state *AgentState, emitter Emitter) error {
	stageStart := time.Now()
	_, err := o.graph.Run(ctx, &pipelineCarrier{state: state, emitter: emitter})
	state.PerNodeMs["graph"] = time.Since(stageStart).Milliseconds()
	return err
}

// finish composes citations, applies the low-confidence advisory, emits the
// final event, and performs the best-effort cache write and memory update.
func (o *Orchestrator) finish(ctx context.Context, state *AgentState, req Request, emitter Emitter, start time.Time) {
	state.CitedSources = extractCitations(state.FinalAnswer, state.BundledContext)
	state.FinalAnswer = withAdvisoryIfNeeded(state.FinalAnswer, state.Intent, state.QualityConfidence, state.Warnings)
	state.Synthesis.IterationCount = state.RefinementIteration

	totalMs := time.Since(start).Milliseconds()
	emitter.Emit(Event{
		Type: EventFinal,
		Final: &FinalPayload{
			Answer:     state.FinalAnswer,
			Citations:  state.CitedSources,
			Confidence: state.QualityConfidence,
			Synthesis:  state.Synthesis,
			PerNodeMs:  state.PerNodeMs,
			TotalMs:    totalMs,
			FromCache:  false,
			Warnings:   state.Warnings,
		},
	})

	o.persistBestEffort(ctx, state, req)
}

// persistBestEffort writes the cache entry and updates memory after a
// successful response. Failures here are logged, never surfaced to the
// caller — the response has already been delivered.
func (o *Orchestrator) persistBestEffort(ctx context.Context, state *AgentState, req Request) {
	if embeddings, err := o.embedder.Embed(ctx, []string{state.RawQuery}); err == nil && len(embeddings) > 0 {
		o.semanticCache.Store(ctx, state.UserType, state.RawQuery, embeddings[0], model.CacheEntry{
			Answer:     state.FinalAnswer,
			Citations:  state.CitedSources,
			Confidence: state.QualityConfidence,
			Synthesis:  state.Synthesis,
			CachedAt:   time.Now().UTC(),
		}, model.CacheTTLFor(state.Complexity))
	} else if err != nil {
		slog.Warn("[ORCH] cache write skipped, embedding failed", "error", err, "trace_id", state.TraceID)
	}

	if err := o.shortTerm.Append(ctx, req.SessionID, model.ShortTermRecord{
		Role:      "user",
		Content:   state.RawQuery,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		slog.Warn("[ORCH] short-term append (user turn) failed", "error", err, "trace_id", state.TraceID)
	}
	if err := o.shortTerm.Append(ctx, req.SessionID, model.ShortTermRecord{
		Role:      "assistant",
		Content:   state.FinalAnswer,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		slog.Warn("[ORCH] short-term append (assistant turn) failed", "error", err, "trace_id", state.TraceID)
	}

	legalArea := ""
	if len(state.LegalAreas) > 0 {
		legalArea = state.LegalAreas[0]
	}
	if err := o.longTerm.RecordQuery(ctx, req.UserID, legalArea, state.Complexity); err != nil {
		slog.Warn("[ORCH] long-term profile update failed", "error", err, "trace_id", state.TraceID)
	}
}
