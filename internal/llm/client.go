// Package llm wraps the external large-language-model, small-language-model,
// and embedding-model collaborators behind narrow interfaces so the rest of
// the orchestrator depends only on contracts, never on a specific provider SDK.
package llm

import "context"

// LargeModel is the synthesis-tier model: Vertex AI Gemini in this
// implementation. Streaming is the primary contract; Complete is used by
// callers (e.g. VertexLarge.HealthCheck) that do not need token-by-token
// delivery.
type LargeModel interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error)
	StreamComplete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (<-chan string, <-chan error)
}

// SmallModel is the fast tier used for intent classification, query
// rewriting's reference resolution, self-critique, and coherence assessment.
// Every call is expected to return quickly and is given a strict JSON-output
// contract by its caller.
type SmallModel interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Embedder produces dense vector embeddings for a batch of strings.
type Embedder interface {
	Embed(ctx context.Context, batch []string) ([][]float32, error)
}
