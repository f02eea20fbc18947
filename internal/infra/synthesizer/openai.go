package synthesizer

import (
	"context"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"

	"wiki-quiz/internal/resilience/circuitbreaker"
)

// OpenAI implements ModelProvider using the Chat Completions API.
type OpenAI struct {
	client         *openai.Client
	model          string
	circuitBreaker *circuitbreaker.CircuitBreaker
}

// NewOpenAI creates an OpenAI provider for the public API.
func NewOpenAI(apiKey, model string) *OpenAI {
	return NewOpenAIWithConfig(openai.DefaultConfig(apiKey), model)
}

// NewOpenAIWithConfig creates an OpenAI provider with a custom client configuration,
// e.g. a compatible endpoint behind BaseURL.
func NewOpenAIWithConfig(cfg openai.ClientConfig, model string) *OpenAI {
	slog.Info("Initialized OpenAI model provider", slog.String("model", model))

	return &OpenAI{
		client:         openai.NewClientWithConfig(cfg),
		model:          model,
		circuitBreaker: circuitbreaker.New(modelBreakerConfig("openai")),
	}
}

// Complete sends prompt as a single user message and returns the first choice.
func (o *OpenAI) Complete(ctx context.Context, prompt string, params CompletionParams) (string, error) {
	result, err := o.circuitBreaker.Execute(func() (interface{}, error) {
		return o.doComplete(ctx, prompt, params)
	})
	if err != nil {
		if circuitbreaker.IsRejected(err) {
			slog.WarnContext(ctx, "openai api circuit breaker open, request rejected",
				slog.String("service", o.circuitBreaker.Name()),
				slog.String("state", o.circuitBreaker.State().String()))
			return "", fmt.Errorf("openai api unavailable: %w", err)
		}
		return "", err
	}
	return result.(string), nil
}

func (o *OpenAI) doComplete(ctx context.Context, prompt string, params CompletionParams) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt,
		}},
		Temperature: float32(params.Temperature),
		MaxTokens:   params.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("openai api error: %w", err)
	}

	// Safety check to prevent panic on array access
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
