package synthesizer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"wiki-quiz/internal/resilience/circuitbreaker"
)

// Ollama implements ModelProvider against a local Ollama server through langchaingo.
type Ollama struct {
	llm            llms.Model
	model          string
	circuitBreaker *circuitbreaker.CircuitBreaker
}

// NewOllama creates an Ollama provider for the server at serverURL.
func NewOllama(serverURL, model string) (*Ollama, error) {
	llm, err := ollama.New(ollama.WithServerURL(serverURL), ollama.WithModel(model))
	if err != nil {
		return nil, fmt.Errorf("create ollama client: %w", err)
	}

	slog.Info("Initialized Ollama model provider",
		slog.String("model", model),
		slog.String("server_url", serverURL))

	return &Ollama{
		llm:            llm,
		model:          model,
		circuitBreaker: circuitbreaker.New(modelBreakerConfig("ollama")),
	}, nil
}

// Complete runs prompt as a single-turn generation.
func (o *Ollama) Complete(ctx context.Context, prompt string, params CompletionParams) (string, error) {
	result, err := o.circuitBreaker.Execute(func() (interface{}, error) {
		out, err := llms.GenerateFromSinglePrompt(ctx, o.llm, prompt,
			llms.WithTemperature(params.Temperature),
			llms.WithMaxTokens(params.MaxTokens))
		if err != nil {
			return "", fmt.Errorf("ollama error: %w", err)
		}
		return out, nil
	})
	if err != nil {
		if circuitbreaker.IsRejected(err) {
			slog.WarnContext(ctx, "ollama circuit breaker open, request rejected",
				slog.String("service", o.circuitBreaker.Name()),
				slog.String("model", o.model))
			return "", fmt.Errorf("ollama unavailable: %w", err)
		}
		return "", err
	}
	return result.(string), nil
}
