package orchestrator

import "github.com/lunexa/zimlaw-orchestrator/internal/model"

// EventType discriminates the typed events emitted during run_query.
type EventType string

const (
	EventMeta     EventType = "meta"
	EventToken    EventType = "token"
	EventCitation EventType = "citation"
	EventWarning  EventType = "warning"
	EventFinal    EventType = "final"
)

// Event is one item in the orchestrator's output stream. Exactly one field
// group is populated, matching Type.
type Event struct {
	Type EventType

	Meta     *MetaPayload
	Token    string
	Citation *model.Citation
	Warning  string
	Final    *FinalPayload
}

// MetaPayload is emitted first on every request: trace id, the route taken,
// and the budgets in force for this complexity tier.
type MetaPayload struct {
	TraceID       string
	Route         string
	RetrievalTopK int
	RerankTopK    int
	RequestBudget int64 // milliseconds
}

// FinalPayload is the terminal event's full payload, emitted exactly once
// per request regardless of how the request was resolved.
type FinalPayload struct {
	Answer     string
	Citations  []model.Citation
	Confidence float64
	Synthesis  model.SynthesisMeta
	PerNodeMs  map[string]int64
	TotalMs    int64
	FromCache  bool
	Warnings   []string
}

// Emitter receives events as the orchestrator produces them. The transport
// layer implements this to push events over SSE; tests may implement it to
// record events for assertions.
type Emitter interface {
	Emit(Event)
}

// EmitterFunc adapts a plain function to Emitter.
type EmitterFunc func(Event)

func (f EmitterFunc) Emit(e Event) { f(e) }

// collectingEmitter records every event for assertions and composing the
// final payload; used internally and by tests.
type collectingEmitter struct {
	events []Event
}

func (c *collectingEmitter) Emit(e Event) {
	c.events = append(c.events, e)
}
