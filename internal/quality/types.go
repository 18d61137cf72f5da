// Package quality evaluates a synthesized answer's grounding and
// coherence before it is released to the caller.
package quality

// attributionThreshold is the minimum citation density required to pass the
// attribution check.
const attributionThreshold = 0.8

// Result is the quality gate's combined verdict.
type Result struct {
	Passed     bool
	Confidence float64
	Issues     []string
}
