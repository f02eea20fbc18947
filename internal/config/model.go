// Package config loads service-level configuration that spans several components.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	pkgconfig "wiki-quiz/pkg/config"
)

// Supported model providers.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
)

var defaultModels = map[string]string{
	ProviderAnthropic: "claude-sonnet-4-5-20250929",
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderOllama:    "llama3.1",
}

// maxTemperature is the highest sampling temperature each provider accepts.
var maxTemperature = map[string]float64{
	ProviderAnthropic: 1,
	ProviderOpenAI:    2,
	ProviderOllama:    2,
}

// ModelConfig configures the language model used for quiz synthesis.
//
// Values are resolved in this order: built-in defaults, the YAML file named by
// MODEL_CONFIG_FILE (if any), then individual environment variables.
// API keys are only ever read from the environment.
type ModelConfig struct {
	// Provider is one of anthropic, openai or ollama. Default: anthropic
	Provider string `yaml:"provider"`
	// Model is the provider-specific model identifier. Default depends on Provider.
	Model string `yaml:"model"`
	// ServerURL is the Ollama endpoint. Default: http://localhost:11434
	ServerURL string `yaml:"server_url"`
	// Temperature for every completion. Default: 0.7
	Temperature float64 `yaml:"temperature"`
	// MaxTokens caps the completion length. Default: 2048
	MaxTokens int `yaml:"max_tokens"`
	// Timeout bounds a single completion call. Default: 60s
	Timeout time.Duration `yaml:"timeout"`
	// RateLimit is the sustained completion rate in calls per second. Default: 2
	RateLimit float64 `yaml:"rate_limit"`

	APIKey string `yaml:"-"`
}

// DefaultModelConfig returns the built-in model configuration.
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		Provider:    ProviderAnthropic,
		ServerURL:   "http://localhost:11434",
		Temperature: 0.7,
		MaxTokens:   2048,
		Timeout:     60 * time.Second,
		RateLimit:   2,
	}
}

// LoadModelConfig resolves the model configuration and validates it.
func LoadModelConfig() (*ModelConfig, error) {
	cfg := DefaultModelConfig()

	if path := os.Getenv("MODEL_CONFIG_FILE"); path != "" {
		if err := overlayFile(&cfg, path); err != nil {
			return nil, err
		}
	}

	cfg.Provider = strings.ToLower(pkgconfig.GetEnvString("MODEL_PROVIDER", cfg.Provider))
	cfg.Model = pkgconfig.GetEnvString("MODEL_NAME", cfg.Model)
	cfg.ServerURL = pkgconfig.GetEnvString("OLLAMA_SERVER_URL", cfg.ServerURL)
	cfg.Temperature = pkgconfig.GetEnvFloat("MODEL_TEMPERATURE", cfg.Temperature)
	cfg.MaxTokens = pkgconfig.GetEnvInt("MODEL_MAX_TOKENS", cfg.MaxTokens)
	cfg.Timeout = pkgconfig.GetEnvDuration("MODEL_TIMEOUT", cfg.Timeout)
	cfg.RateLimit = pkgconfig.GetEnvFloat("MODEL_RATE_LIMIT", cfg.RateLimit)

	if cfg.Model == "" {
		cfg.Model = defaultModels[cfg.Provider]
	}

	switch cfg.Provider {
	case ProviderAnthropic:
		cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	case ProviderOpenAI:
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model configuration: %w", err)
	}

	return &cfg, nil
}

// overlayFile applies the non-zero fields of a YAML file on top of cfg.
// The path parameter is expected to come from a trusted source (operator-set environment).
func overlayFile(cfg *ModelConfig, path string) error {
	// #nosec G304 -- path is set by the operator, not by request input
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read model config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse model config file: %w", err)
	}

	return nil
}

// Validate checks configuration correctness.
func (c *ModelConfig) Validate() error {
	if _, ok := defaultModels[c.Provider]; !ok {
		return fmt.Errorf("MODEL_PROVIDER must be one of anthropic, openai, ollama, got %q", c.Provider)
	}

	if c.Model == "" {
		return fmt.Errorf("MODEL_NAME cannot be empty")
	}

	switch c.Provider {
	case ProviderAnthropic:
		if c.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for provider anthropic")
		}
	case ProviderOpenAI:
		if c.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for provider openai")
		}
	case ProviderOllama:
		if c.ServerURL == "" {
			return fmt.Errorf("OLLAMA_SERVER_URL cannot be empty for provider ollama")
		}
	}

	if limit := maxTemperature[c.Provider]; c.Temperature < 0 || c.Temperature > limit {
		return fmt.Errorf("MODEL_TEMPERATURE must be between 0.0 and %.1f for provider %s", limit, c.Provider)
	}

	if c.MaxTokens <= 0 || c.MaxTokens > 32000 {
		return fmt.Errorf("MODEL_MAX_TOKENS must be between 1 and 32000")
	}

	if err := pkgconfig.ValidatePositiveDuration(c.Timeout); err != nil {
		return fmt.Errorf("MODEL_TIMEOUT: %w", err)
	}

	if c.RateLimit <= 0 {
		return fmt.Errorf("MODEL_RATE_LIMIT must be positive")
	}

	return nil
}
