// Package intent classifies a raw query into an Intent and Complexity tier
// via a fast heuristic pass, falling back to a small-model call only when
// the heuristic is not confident.
package intent

import "github.com/lunexa/zimlaw-orchestrator/internal/model"

// heuristicAcceptThreshold is the minimum heuristic confidence required to
// skip the model fallback entirely.
const heuristicAcceptThreshold = 0.9

// Classification is the classifier's full output: intent, complexity, the
// derived adaptive retrieval/rerank parameters, and whether the heuristic
// layer alone produced it.
type Classification struct {
	Intent         model.Intent
	Complexity     model.Complexity
	Adaptive       model.AdaptiveParams
	UsedHeuristic  bool
	HeuristicScore float64
}
