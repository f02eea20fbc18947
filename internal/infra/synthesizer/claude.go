package synthesizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"wiki-quiz/internal/resilience/circuitbreaker"
)

// Claude implements ModelProvider using Anthropic's Messages API.
type Claude struct {
	client         anthropic.Client
	model          string
	circuitBreaker *circuitbreaker.CircuitBreaker
}

// NewClaude creates a Claude provider. SDK-level retries are disabled so a
// failed call fails the request.
func NewClaude(apiKey, model string, opts ...option.RequestOption) *Claude {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}, opts...)

	slog.Info("Initialized Claude model provider", slog.String("model", model))

	return &Claude{
		client:         anthropic.NewClient(opts...),
		model:          model,
		circuitBreaker: circuitbreaker.New(modelBreakerConfig("claude")),
	}
}

// Complete sends prompt as a single user message and concatenates the text blocks of the reply.
func (c *Claude) Complete(ctx context.Context, prompt string, params CompletionParams) (string, error) {
	result, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return c.doComplete(ctx, prompt, params)
	})
	if err != nil {
		if circuitbreaker.IsRejected(err) {
			slog.WarnContext(ctx, "claude api circuit breaker open, request rejected",
				slog.String("service", c.circuitBreaker.Name()),
				slog.String("state", c.circuitBreaker.State().String()))
			return "", fmt.Errorf("claude api unavailable: %w", err)
		}
		return "", err
	}
	return result.(string), nil
}

func (c *Claude) doComplete(ctx context.Context, prompt string, params CompletionParams) (string, error) {
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   int64(params.MaxTokens),
		Temperature: anthropic.Float(params.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("claude api error: %w", err)
	}

	var b strings.Builder
	for _, block := range message.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(tb.Text)
		}
	}
	return b.String(), nil
}
