package orchestrator

import (
	"context"
	"fmt"

	"github.com/Tangerg/lynx/flow"

	"github.com/lunexa/zimlaw-orchestrator/internal/parentfetch"
	"github.com/lunexa/zimlaw-orchestrator/internal/retrieval"
	"github.com/lunexa/zimlaw-orchestrator/internal/synthesize"
)

// pipelineCarrier is the value threaded through the compiled flow.Node
// chain: flow's nodes are typed Node[any, any], so the request's state and
// its emitter travel together as a single boxed value between node
// boundaries.
type pipelineCarrier struct {
	state   *AgentState
	emitter Emitter
}

// buildGraph compiles the linear, pre-correction-loop node sequence —
// rewrite, retrieve, rerank, parent-fetch, synthesize, quality-gate — as a
// flow.Node chain. The bounded self-correction back-edge (refine /
// retrieve_more) is not expressible as a single flow.Loop stop condition
// (it needs a three-way branch, not a single predicate), so it is driven by
// an explicit bounded loop in RunQuery instead; this graph covers exactly
// the straight-line prefix, which runs once per request. Iterative-retrieval
// rounds call the rerank, parent-fetch, synthesize and quality-gate steps
// directly rather than through this graph.
func (o *Orchestrator) buildGraph() (flow.Node[any, any], error) {
	compiled, err := flow.NewFlow().
		Sequence().WithProcessor(o.rewriteStage).Then().
		Sequence().WithProcessor(o.retrieveStage).Then().
		Sequence().WithProcessor(o.rerankStage).Then().
		Sequence().WithProcessor(o.parentFetchStage).Then().
		Sequence().WithProcessor(o.synthesizeStage).Then().
		Sequence().WithProcessor(o.qualityGateStage).Then().
		Compile()
	if err != nil {
		return nil, fmt.Errorf("orchestrator.buildGraph: %w", err)
	}
	return compiled, nil
}

func asCarrier(input any) (*pipelineCarrier, error) {
	carrier, ok := input.(*pipelineCarrier)
	if !ok {
		return nil, fmt.Errorf("orchestrator: unexpected flow input type %T", input)
	}
	return carrier, nil
}

func (o *Orchestrator) rewriteStage(ctx context.Context, input any) (any, error) {
	c, err := asCarrier(input)
	if err != nil {
		return nil, err
	}
	s := c.state
	result, err := o.rewriter.Rewrite(ctx, s.RawQuery, s.ShortTermContext, s.Jurisdiction, s.DateContext, s.Complexity)
	if err != nil {
		s.addWarning("query rewrite failed, falling back to raw query: " + err.Error())
		s.RewrittenQuery = s.RawQuery
		return c, nil
	}
	s.RewrittenQuery = result.Canonical
	for _, v := range result.Variants {
		switch v.Kind {
		case "hypothetical":
			s.HypotheticalDocs = append(s.HypotheticalDocs, v.Text)
		case "sub-question":
			s.SubQuestions = append(s.SubQuestions, v.Text)
		}
	}
	return c, nil
}

func (o *Orchestrator) retrieveStage(ctx context.Context, input any) (any, error) {
	c, err := asCarrier(input)
	if err != nil {
		return nil, err
	}
	s := c.state

	queries := append([]string{s.RewrittenQuery}, s.HypotheticalDocs...)
	queries = append(queries, s.SubQuestions...)

	results, err := o.retrieval.RetrieveMulti(ctx, queries, s.RetrievalTopK, s.RetrievalTopK, s.RetrievalTopK, retrieval.Filters{})
	if err != nil {
		return nil, fmt.Errorf("orchestrator.retrieveStage: %w", err)
	}
	s.CombinedResults = results
	return c, nil
}

func (o *Orchestrator) rerankStage(ctx context.Context, input any) (any, error) {
	c, err := asCarrier(input)
	if err != nil {
		return nil, err
	}
	s := c.state
	reranked := o.reranker.Rerank(ctx, s.RewrittenQuery, s.CombinedResults, s.RerankTopK)
	s.RerankedResults = reranked
	s.TopKResults = reranked
	s.RerankedChunkIDs = make([]string, 0, len(reranked))
	for _, r := range reranked {
		s.RerankedChunkIDs = append(s.RerankedChunkIDs, r.Chunk.ID)
	}
	return c, nil
}

func (o *Orchestrator) parentFetchStage(ctx context.Context, input any) (any, error) {
	c, err := asCarrier(input)
	if err != nil {
		return nil, err
	}
	s := c.state
	parents := o.parents.FetchBatch(ctx, s.TopKResults)
	for id, doc := range parents {
		s.ParentDocCache[id] = doc
	}
	s.BundledContext = parentfetch.BuildBundledContext(s.TopKResults, s.ParentDocCache)
	return c, nil
}

func (o *Orchestrator) synthesizeStage(ctx context.Context, input any) (any, error) {
	c, err := asCarrier(input)
	if err != nil {
		return nil, err
	}
	s := c.state

	req := o.synthesisRequest(s)
	result, err := o.synth.Synthesize(ctx, req, func(tok string) {
		c.emitter.Emit(Event{Type: EventToken, Token: tok})
	})
	if err != nil {
		return nil, fmt.Errorf("orchestrator.synthesizeStage: %w", err)
	}
	s.FinalAnswer = result.FinalAnswer
	s.Synthesis = result.Meta
	s.Synthesis.IterationCount = s.RefinementIteration
	return c, nil
}

func (o *Orchestrator) qualityGateStage(ctx context.Context, input any) (any, error) {
	c, err := asCarrier(input)
	if err != nil {
		return nil, err
	}
	s := c.state
	result := o.gate.Evaluate(ctx, s.FinalAnswer, s.BundledContext)
	s.QualityPassed = result.Passed
	s.QualityConfidence = result.Confidence
	s.QualityIssues = result.Issues
	return c, nil
}

// synthesisRequest builds the synthesize.Request for the current state.
func (o *Orchestrator) synthesisRequest(s *AgentState) synthesize.Request {
	return synthesize.Request{
		RewrittenQuery:     s.RewrittenQuery,
		BundledContext:     s.BundledContext,
		UserType:           s.UserType,
		Complexity:         s.Complexity,
		ReasoningFramework: s.ReasoningFramework,
		ShortTermContext:   s.ShortTermContext,
	}
}
