package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPCrossEncoder calls an externally hosted cross-encoder scoring service
// over REST. The service is expected to accept a query plus a batch of
// passages and return one relevance score per passage, in input order.
type HTTPCrossEncoder struct {
	httpClient *http.Client
	endpoint   string
}

// NewHTTPCrossEncoder creates an HTTPCrossEncoder bound to endpoint, with
// requests bounded by timeout.
func NewHTTPCrossEncoder(endpoint string, timeout time.Duration) *HTTPCrossEncoder {
	return &HTTPCrossEncoder{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
	}
}

var _ CrossEncoder = (*HTTPCrossEncoder)(nil)

type scoreRequest struct {
	Query    string   `json:"query"`
	Passages []string `json:"passages"`
}

type scoreResponse struct {
	Scores []float64 `json:"scores"`
}

// Score returns one relevance score per passage, in input order.
func (h *HTTPCrossEncoder) Score(ctx context.Context, query string, passages []string) ([]float64, error) {
	if len(passages) == 0 {
		return nil, nil
	}

	bodyBytes, err := json.Marshal(scoreRequest{Query: query, Passages: passages})
	if err != nil {
		return nil, fmt.Errorf("rerank.HTTPCrossEncoder.Score: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", h.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("rerank.HTTPCrossEncoder.Score: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank.HTTPCrossEncoder.Score: call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("rerank.HTTPCrossEncoder.Score: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rerank.HTTPCrossEncoder.Score: status %d: %s", resp.StatusCode, respBody)
	}

	var scoreResp scoreResponse
	if err := json.Unmarshal(respBody, &scoreResp); err != nil {
		return nil, fmt.Errorf("rerank.HTTPCrossEncoder.Score: decode: %w", err)
	}
	if len(scoreResp.Scores) != len(passages) {
		return nil, fmt.Errorf("rerank.HTTPCrossEncoder.Score: expected %d scores, got %d", len(passages), len(scoreResp.Scores))
	}
	return scoreResp.Scores, nil
}
