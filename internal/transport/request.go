// Package transport exposes the orchestrator over HTTP: a single streaming
// query endpoint that pushes typed Server-Sent Events as the pipeline runs.
package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/lunexa/zimlaw-orchestrator/internal/orchestrator"
)

// defaultJurisdiction is applied when a request omits jurisdiction.
const defaultJurisdiction = "ZW"

// queryRequest is the inbound JSON body for POST /v1/query.
type queryRequest struct {
	TraceID      string `json:"trace_id,omitempty"`
	UserID       string `json:"user_id"`
	SessionID    string `json:"session_id"`
	RawQuery     string `json:"raw_query"`
	Jurisdiction string `json:"jurisdiction,omitempty"`
	DateContext  string `json:"date_context,omitempty"`
}

var (
	errMissingUserID    = errors.New("user_id is required")
	errMissingSessionID = errors.New("session_id is required")
	errMissingQuery     = errors.New("raw_query is required")
)

func decodeQueryRequest(r *http.Request) (queryRequest, error) {
	var req queryRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return queryRequest{}, fmt.Errorf("transport: decode request body: %w", err)
	}

	if req.UserID == "" {
		return queryRequest{}, errMissingUserID
	}
	if req.SessionID == "" {
		return queryRequest{}, errMissingSessionID
	}
	if req.RawQuery == "" {
		return queryRequest{}, errMissingQuery
	}
	if req.Jurisdiction == "" {
		req.Jurisdiction = defaultJurisdiction
	}
	return req, nil
}

func (q queryRequest) toOrchestratorRequest() orchestrator.Request {
	return orchestrator.Request{
		TraceID:      q.TraceID,
		UserID:       q.UserID,
		SessionID:    q.SessionID,
		RawQuery:     q.RawQuery,
		Jurisdiction: q.Jurisdiction,
		DateContext:  q.DateContext,
	}
}
