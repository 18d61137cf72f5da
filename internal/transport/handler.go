package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/Tangerg/lynx/sse"
	"github.com/go-chi/chi/v5"

	"github.com/lunexa/zimlaw-orchestrator/internal/orchestrator"
)

// sseHeartbeat keeps the connection alive across slow synthesis streams and
// proxy idle timeouts.
const sseHeartbeat = 15 * time.Second

// Handler serves the query endpoint, turning orchestrator.Event values into
// the wire-level SSE event contract.
type Handler struct {
	orch *orchestrator.Orchestrator
}

// NewHandler creates a Handler.
func NewHandler(orch *orchestrator.Orchestrator) *Handler {
	return &Handler{orch: orch}
}

// Routes mounts the handler's endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/v1/query", h.handleQuery)
}

// handleQuery decodes the request, opens an SSE stream, and drives
// RunQuery, translating each emitted Event into an SSE message as it
// happens so the client sees meta first, then a token stream, then final.
func (h *Handler) handleQuery(w http.ResponseWriter, r *http.Request) {
	req, err := decodeQueryRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writer, err := sse.NewWriter(&sse.WriterConfig{
		Context:        r.Context(),
		ResponseWriter: w,
		HeartBeat:      sseHeartbeat,
	})
	if err != nil {
		http.Error(w, "stream unavailable: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer writer.Close()

	emitter := orchestrator.EmitterFunc(func(ev orchestrator.Event) {
		if sendErr := emitSSE(writer, ev); sendErr != nil {
			slog.Warn("[TRANSPORT] sse send failed", "error", sendErr, "trace_id", req.TraceID)
		}
	})

	h.orch.RunQuery(r.Context(), req.toOrchestratorRequest(), emitter)
}

// emitSSE encodes one orchestrator Event as the matching SSE message. Token
// events are sent as raw text for minimal per-token overhead; every other
// event carries a JSON payload.
func emitSSE(writer *sse.Writer, ev orchestrator.Event) error {
	switch ev.Type {
	case orchestrator.EventMeta:
		return sendJSON(writer, "meta", ev.Meta)
	case orchestrator.EventToken:
		return writer.Send(&sse.Message{Event: "token", Data: []byte(ev.Token)})
	case orchestrator.EventCitation:
		return sendJSON(writer, "citation", ev.Citation)
	case orchestrator.EventWarning:
		return writer.Send(&sse.Message{Event: "warning", Data: []byte(ev.Warning)})
	case orchestrator.EventFinal:
		return sendJSON(writer, "final", ev.Final)
	default:
		return nil
	}
}

func sendJSON(writer *sse.Writer, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return writer.Send(&sse.Message{Event: event, Data: data})
}
