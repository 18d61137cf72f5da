package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicSmall wraps the Anthropic SDK to implement SmallModel. It backs
// intent classification, query-rewrite reference resolution, self-critique,
// and coherence assessment — call sites that need a fast, cheap model with a
// strict JSON-output contract rather than streamed prose.
type AnthropicSmall struct {
	client *anthropic.Client
	model  anthropic.Model
}

// NewAnthropicSmall creates an AnthropicSmall adapter for the given model
// name (e.g. "claude-haiku-4-5").
func NewAnthropicSmall(apiKey, model string) *AnthropicSmall {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicSmall{client: &client, model: anthropic.Model(model)}
}

var _ SmallModel = (*AnthropicSmall)(nil)

// Complete sends a single-turn request and returns the concatenated text of
// the response. Retries on rate-limit errors using the same backoff schedule
// as the large-model tier.
func (a *AnthropicSmall) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return withRetry(ctx, "llm.AnthropicSmall.Complete", func() (string, error) {
		msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     a.model,
			MaxTokens: 1024,
			System: []anthropic.TextBlockParam{
				{Text: systemPrompt},
			},
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
			},
		})
		if err != nil {
			return "", fmt.Errorf("llm.AnthropicSmall.Complete: %w", err)
		}

		var out string
		for _, block := range msg.Content {
			if block.Type == "text" {
				out += block.Text
			}
		}
		if out == "" {
			return "", fmt.Errorf("llm.AnthropicSmall.Complete: empty response from model")
		}
		return out, nil
	})
}
