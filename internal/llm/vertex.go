package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/iterator"
)

// VertexLarge wraps the Vertex AI Gemini client to implement LargeModel.
// Supports both regional endpoints (via the Go SDK) and the global endpoint
// (via the REST API, since the SDK does not support it).
type VertexLarge struct {
	client     *genai.Client // nil when using the global endpoint
	httpClient *http.Client  // used for global-endpoint REST calls
	project    string
	location   string
	model      string
	useREST    bool
}

// NewVertexLarge creates a VertexLarge adapter. For location "global", it
// uses the REST API directly.
func NewVertexLarge(ctx context.Context, project, location, model string) (*VertexLarge, error) {
	if location == "global" {
		httpClient, err := google.DefaultClient(ctx, "https://www.googleapis.com/auth/cloud-platform")
		if err != nil {
			return nil, fmt.Errorf("llm.NewVertexLarge: default credentials: %w", err)
		}
		return &VertexLarge{
			httpClient: httpClient,
			project:    project,
			location:   location,
			model:      model,
			useREST:    true,
		}, nil
	}

	client, err := genai.NewClient(ctx, project, location)
	if err != nil {
		return nil, fmt.Errorf("llm.NewVertexLarge: %w", err)
	}
	return &VertexLarge{client: client, project: project, location: location, model: model}, nil
}

var _ LargeModel = (*VertexLarge)(nil)

// Complete sends a prompt to Gemini and returns the full text response.
// Retries up to 3 times on 429/RESOURCE_EXHAUSTED with 500ms->1s->2s backoff.
func (a *VertexLarge) Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error) {
	return withRetry(ctx, "llm.VertexLarge.Complete", func() (string, error) {
		if a.useREST {
			return a.completeREST(ctx, systemPrompt, userPrompt, maxTokens, temperature)
		}
		return a.completeSDK(ctx, systemPrompt, userPrompt, maxTokens, temperature)
	})
}

func (a *VertexLarge) completeSDK(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error) {
	model := a.client.GenerativeModel(a.model)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}
	t := float32(temperature)
	model.Temperature = &t
	mt := int32(maxTokens)
	model.MaxOutputTokens = &mt

	resp, err := model.GenerateContent(ctx, genai.Text(userPrompt))
	if err != nil {
		return "", fmt.Errorf("llm.VertexLarge.Complete: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("llm.VertexLarge.Complete: empty response from model")
	}

	var parts []string
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			parts = append(parts, string(t))
		}
	}
	return strings.Join(parts, ""), nil
}

type restGenerateRequest struct {
	Contents          []restContent         `json:"contents"`
	SystemInstruction *restContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *restGenerationConfig `json:"generationConfig,omitempty"`
}

type restContent struct {
	Role  string     `json:"role"`
	Parts []restPart `json:"parts"`
}

type restPart struct {
	Text string `json:"text"`
}

type restGenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens *int     `json:"maxOutputTokens,omitempty"`
}

type restGenerateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (a *VertexLarge) completeREST(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error) {
	url := fmt.Sprintf(
		"https://aiplatform.googleapis.com/v1/projects/%s/locations/global/publishers/google/models/%s:generateContent",
		a.project, a.model,
	)

	reqBody := restGenerateRequest{
		Contents:         []restContent{{Role: "user", Parts: []restPart{{Text: userPrompt}}}},
		GenerationConfig: &restGenerationConfig{Temperature: &temperature, MaxOutputTokens: &maxTokens},
	}
	if systemPrompt != "" {
		reqBody.SystemInstruction = &restContent{Role: "user", Parts: []restPart{{Text: systemPrompt}}}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("llm.VertexLarge.Complete: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("llm.VertexLarge.Complete: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm.VertexLarge.Complete: call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("llm.VertexLarge.Complete: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm.VertexLarge.Complete: status %d: %s", resp.StatusCode, respBody)
	}

	var genResp restGenerateResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return "", fmt.Errorf("llm.VertexLarge.Complete: decode: %w", err)
	}
	if genResp.Error != nil {
		return "", fmt.Errorf("llm.VertexLarge.Complete: API error %d: %s", genResp.Error.Code, genResp.Error.Message)
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("llm.VertexLarge.Complete: empty response from model")
	}

	var parts []string
	for _, p := range genResp.Candidates[0].Content.Parts {
		if p.Text != "" {
			parts = append(parts, p.Text)
		}
	}
	return strings.Join(parts, ""), nil
}

// StreamComplete sends a prompt and returns a channel of text chunks. The
// caller reads tokens as they arrive; both channels close when generation
// completes.
func (a *VertexLarge) StreamComplete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (<-chan string, <-chan error) {
	textCh := make(chan string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(textCh)
		defer close(errCh)

		var err error
		if a.useREST {
			err = a.streamREST(ctx, systemPrompt, userPrompt, maxTokens, temperature, textCh)
		} else {
			err = a.streamSDK(ctx, systemPrompt, userPrompt, maxTokens, temperature, textCh)
		}
		if err != nil {
			errCh <- err
		}
	}()

	return textCh, errCh
}

func (a *VertexLarge) streamSDK(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64, textCh chan<- string) error {
	model := a.client.GenerativeModel(a.model)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}
	t := float32(temperature)
	model.Temperature = &t
	mt := int32(maxTokens)
	model.MaxOutputTokens = &mt

	iter := model.GenerateContentStream(ctx, genai.Text(userPrompt))
	for {
		resp, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("llm.VertexLarge.StreamComplete: %w", err)
		}
		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					textCh <- string(t)
				}
			}
		}
	}
	return nil
}

func (a *VertexLarge) streamREST(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64, textCh chan<- string) error {
	url := fmt.Sprintf(
		"https://aiplatform.googleapis.com/v1/projects/%s/locations/global/publishers/google/models/%s:streamGenerateContent?alt=sse",
		a.project, a.model,
	)

	reqBody := restGenerateRequest{
		Contents:         []restContent{{Role: "user", Parts: []restPart{{Text: userPrompt}}}},
		GenerationConfig: &restGenerationConfig{Temperature: &temperature, MaxOutputTokens: &maxTokens},
	}
	if systemPrompt != "" {
		reqBody.SystemInstruction = &restContent{Role: "user", Parts: []restPart{{Text: systemPrompt}}}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("llm.VertexLarge.StreamComplete: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("llm.VertexLarge.StreamComplete: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("llm.VertexLarge.StreamComplete: call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("llm.VertexLarge.StreamComplete: status %d: %s", resp.StatusCode, body)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			break
		}
		var chunk restGenerateResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		for _, cand := range chunk.Candidates {
			for _, part := range cand.Content.Parts {
				if part.Text != "" {
					textCh <- part.Text
				}
			}
		}
	}
	return scanner.Err()
}

// Close releases the underlying SDK client, if any.
func (a *VertexLarge) Close() {
	if a.client != nil {
		a.client.Close()
	}
}

// VertexEmbedder wraps the Vertex AI embedding endpoint to implement
// Embedder. Uses the REST predict endpoint directly since the retired
// vertexai/genai SDK does not expose the embedding models used here.
type VertexEmbedder struct {
	httpClient *http.Client
	project    string
	location   string
	model      string
}

// NewVertexEmbedder creates a VertexEmbedder.
func NewVertexEmbedder(ctx context.Context, project, location, model string) (*VertexEmbedder, error) {
	httpClient, err := google.DefaultClient(ctx, "https://www.googleapis.com/auth/cloud-platform")
	if err != nil {
		return nil, fmt.Errorf("llm.NewVertexEmbedder: default credentials: %w", err)
	}
	return &VertexEmbedder{httpClient: httpClient, project: project, location: location, model: model}, nil
}

var _ Embedder = (*VertexEmbedder)(nil)

type embedPredictRequest struct {
	Instances []embedInstance `json:"instances"`
}

type embedInstance struct {
	Content string `json:"content"`
}

type embedPredictResponse struct {
	Predictions []struct {
		Embeddings struct {
			Values []float32 `json:"values"`
		} `json:"embeddings"`
	} `json:"predictions"`
}

// Embed returns one vector per input string, in input order.
func (e *VertexEmbedder) Embed(ctx context.Context, batch []string) ([][]float32, error) {
	if len(batch) == 0 {
		return nil, nil
	}

	url := fmt.Sprintf(
		"https://%s-aiplatform.googleapis.com/v1/projects/%s/locations/%s/publishers/google/models/%s:predict",
		e.location, e.project, e.location, e.model,
	)

	reqBody := embedPredictRequest{Instances: make([]embedInstance, len(batch))}
	for i, s := range batch {
		reqBody.Instances[i] = embedInstance{Content: s}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("llm.VertexEmbedder.Embed: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("llm.VertexEmbedder.Embed: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("llm.VertexEmbedder.Embed: call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("llm.VertexEmbedder.Embed: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("llm.VertexEmbedder.Embed: status %d: %s", resp.StatusCode, respBody)
	}

	var predictResp embedPredictResponse
	if err := json.Unmarshal(respBody, &predictResp); err != nil {
		return nil, fmt.Errorf("llm.VertexEmbedder.Embed: decode: %w", err)
	}
	if len(predictResp.Predictions) != len(batch) {
		return nil, fmt.Errorf("llm.VertexEmbedder.Embed: expected %d predictions, got %d", len(batch), len(predictResp.Predictions))
	}

	vectors := make([][]float32, len(predictResp.Predictions))
	for i, p := range predictResp.Predictions {
		vectors[i] = p.Embeddings.Values
	}
	return vectors, nil
}

// HealthCheck validates the Vertex AI connection with a minimal call.
func (a *VertexLarge) HealthCheck(ctx context.Context) error {
	resp, err := a.Complete(ctx, "", "Reply with only: OK", 8, 0)
	if err != nil {
		return fmt.Errorf("vertex AI health check failed (model: %s, location: %s): %w", a.model, a.location, err)
	}
	if resp == "" {
		return fmt.Errorf("vertex AI returned empty response (model: %s)", a.model)
	}
	slog.Info("vertex ai health check passed", "model", a.model, "location", a.location)
	return nil
}
