package synthesizer

import (
	"context"
	"errors"
	"fmt"

	"wiki-quiz/internal/config"
	"wiki-quiz/internal/resilience/circuitbreaker"
)

// NewProvider builds the ModelProvider selected by cfg.Provider.
func NewProvider(cfg config.ModelConfig) (ModelProvider, error) {
	switch cfg.Provider {
	case config.ProviderAnthropic:
		return NewClaude(cfg.APIKey, cfg.Model), nil
	case config.ProviderOpenAI:
		return NewOpenAI(cfg.APIKey, cfg.Model), nil
	case config.ProviderOllama:
		return NewOllama(cfg.ServerURL, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}

// ConfigFromModel derives the synthesizer settings from the model configuration.
func ConfigFromModel(cfg config.ModelConfig) Config {
	return Config{
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.Timeout,
		RateLimit:   cfg.RateLimit,
	}
}

// modelBreakerConfig trips on provider faults only; a caller abandoning the
// request is not held against the provider.
func modelBreakerConfig(name string) circuitbreaker.Config {
	cfg := circuitbreaker.ModelAPIConfig(name)
	cfg.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, context.Canceled)
	}
	return cfg
}
