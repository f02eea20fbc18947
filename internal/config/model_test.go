package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearModelEnvVars(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"MODEL_CONFIG_FILE", "MODEL_PROVIDER", "MODEL_NAME", "OLLAMA_SERVER_URL",
		"MODEL_TEMPERATURE", "MODEL_MAX_TOKENS", "MODEL_TIMEOUT", "MODEL_RATE_LIMIT",
		"ANTHROPIC_API_KEY", "OPENAI_API_KEY",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadModelConfig_Defaults(t *testing.T) {
	clearModelEnvVars(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")

	cfg, err := LoadModelConfig()
	require.NoError(t, err)

	assert.Equal(t, ProviderAnthropic, cfg.Provider)
	assert.Equal(t, "claude-sonnet-4-5-20250929", cfg.Model)
	assert.Equal(t, 0.7, cfg.Temperature)
	assert.Equal(t, 2048, cfg.MaxTokens)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.Equal(t, 2.0, cfg.RateLimit)
	assert.Equal(t, "sk-ant-test", cfg.APIKey)
}

func TestLoadModelConfig_MissingAPIKey(t *testing.T) {
	clearModelEnvVars(t)

	_, err := LoadModelConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ANTHROPIC_API_KEY")

	t.Setenv("MODEL_PROVIDER", "openai")
	_, err = LoadModelConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestLoadModelConfig_OllamaNeedsNoKey(t *testing.T) {
	clearModelEnvVars(t)
	t.Setenv("MODEL_PROVIDER", "Ollama")
	t.Setenv("OLLAMA_SERVER_URL", "http://ollama:11434")

	cfg, err := LoadModelConfig()
	require.NoError(t, err)

	assert.Equal(t, ProviderOllama, cfg.Provider)
	assert.Equal(t, "llama3.1", cfg.Model)
	assert.Equal(t, "http://ollama:11434", cfg.ServerURL)
	assert.Empty(t, cfg.APIKey)
}

func TestLoadModelConfig_EnvOverrides(t *testing.T) {
	clearModelEnvVars(t)
	t.Setenv("MODEL_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("MODEL_NAME", "gpt-4o")
	t.Setenv("MODEL_TEMPERATURE", "0.2")
	t.Setenv("MODEL_MAX_TOKENS", "4096")
	t.Setenv("MODEL_TIMEOUT", "30s")
	t.Setenv("MODEL_RATE_LIMIT", "0.5")

	cfg, err := LoadModelConfig()
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.Equal(t, 0.2, cfg.Temperature)
	assert.Equal(t, 4096, cfg.MaxTokens)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 0.5, cfg.RateLimit)
}

func TestLoadModelConfig_FileOverlay(t *testing.T) {
	clearModelEnvVars(t)

	path := filepath.Join(t.TempDir(), "model.yaml")
	content := `provider: ollama
model: qwen3:8b
temperature: 0.3
timeout: 90s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("MODEL_CONFIG_FILE", path)
	t.Setenv("MODEL_TEMPERATURE", "0.9")

	cfg, err := LoadModelConfig()
	require.NoError(t, err)

	assert.Equal(t, ProviderOllama, cfg.Provider)
	assert.Equal(t, "qwen3:8b", cfg.Model)
	assert.Equal(t, 90*time.Second, cfg.Timeout)
	assert.Equal(t, 2048, cfg.MaxTokens, "fields absent from the file keep their defaults")
	assert.Equal(t, 0.9, cfg.Temperature, "environment wins over the file")
}

func TestLoadModelConfig_FileErrors(t *testing.T) {
	clearModelEnvVars(t)

	t.Setenv("MODEL_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := LoadModelConfig()
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider: [unclosed"), 0o600))
	t.Setenv("MODEL_CONFIG_FILE", path)
	_, err = LoadModelConfig()
	assert.Error(t, err)
}

func TestModelConfig_Validate(t *testing.T) {
	valid := func() ModelConfig {
		cfg := DefaultModelConfig()
		cfg.Model = "m"
		cfg.APIKey = "k"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(c *ModelConfig)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *ModelConfig) {}},
		{name: "unknown provider", mutate: func(c *ModelConfig) { c.Provider = "gemini" }, wantErr: true},
		{name: "empty model", mutate: func(c *ModelConfig) { c.Model = "" }, wantErr: true},
		{name: "temperature too high", mutate: func(c *ModelConfig) { c.Temperature = 2.5 }, wantErr: true},
		{name: "negative temperature", mutate: func(c *ModelConfig) { c.Temperature = -0.1 }, wantErr: true},
		{name: "anthropic temperature above 1", mutate: func(c *ModelConfig) { c.Provider = ProviderAnthropic; c.Temperature = 1.5 }, wantErr: true},
		{name: "anthropic temperature at 1", mutate: func(c *ModelConfig) { c.Provider = ProviderAnthropic; c.Temperature = 1 }},
		{name: "openai temperature 1.5", mutate: func(c *ModelConfig) { c.Provider = ProviderOpenAI; c.Temperature = 1.5 }},
		{name: "openai temperature above 2", mutate: func(c *ModelConfig) { c.Provider = ProviderOpenAI; c.Temperature = 2.1 }, wantErr: true},
		{name: "zero max tokens", mutate: func(c *ModelConfig) { c.MaxTokens = 0 }, wantErr: true},
		{name: "zero timeout", mutate: func(c *ModelConfig) { c.Timeout = 0 }, wantErr: true},
		{name: "zero rate", mutate: func(c *ModelConfig) { c.RateLimit = 0 }, wantErr: true},
		{name: "ollama without url", mutate: func(c *ModelConfig) { c.Provider = ProviderOllama; c.ServerURL = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadModelConfig_AnthropicTemperatureCap(t *testing.T) {
	clearModelEnvVars(t)
	t.Setenv("MODEL_PROVIDER", ProviderAnthropic)
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
	t.Setenv("MODEL_TEMPERATURE", "1.5")

	_, err := LoadModelConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MODEL_TEMPERATURE")
}
