package fetcher_test

import (
	"strings"
	"testing"
	"time"

	"wiki-quiz/internal/infra/fetcher"
)

func TestDefaultConfig(t *testing.T) {
	cfg := fetcher.DefaultConfig()

	if cfg.Timeout != 10*time.Second {
		t.Errorf("expected Timeout=10s, got %v", cfg.Timeout)
	}
	if cfg.MaxBodySize != 10*1024*1024 {
		t.Errorf("expected MaxBodySize=10MB, got %d", cfg.MaxBodySize)
	}
	if cfg.MaxRedirects != 5 {
		t.Errorf("expected MaxRedirects=5, got %d", cfg.MaxRedirects)
	}
	if !strings.HasPrefix(cfg.UserAgent, "Mozilla/5.0") {
		t.Errorf("expected browser-like User-Agent, got %q", cfg.UserAgent)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid, got error: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *fetcher.ContentFetchConfig)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *fetcher.ContentFetchConfig) {}, wantErr: false},
		{name: "zero timeout", mutate: func(c *fetcher.ContentFetchConfig) { c.Timeout = 0 }, wantErr: true},
		{name: "negative timeout", mutate: func(c *fetcher.ContentFetchConfig) { c.Timeout = -time.Second }, wantErr: true},
		{name: "timeout too long", mutate: func(c *fetcher.ContentFetchConfig) { c.Timeout = 10 * time.Minute }, wantErr: true},
		{name: "body too small", mutate: func(c *fetcher.ContentFetchConfig) { c.MaxBodySize = 512 }, wantErr: true},
		{name: "body too large", mutate: func(c *fetcher.ContentFetchConfig) { c.MaxBodySize = 200 * 1024 * 1024 }, wantErr: true},
		{name: "no redirects", mutate: func(c *fetcher.ContentFetchConfig) { c.MaxRedirects = 0 }, wantErr: false},
		{name: "negative redirects", mutate: func(c *fetcher.ContentFetchConfig) { c.MaxRedirects = -1 }, wantErr: true},
		{name: "too many redirects", mutate: func(c *fetcher.ContentFetchConfig) { c.MaxRedirects = 11 }, wantErr: true},
		{name: "empty user agent", mutate: func(c *fetcher.ContentFetchConfig) { c.UserAgent = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := fetcher.DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	t.Setenv("CONTENT_FETCH_TIMEOUT", "")
	t.Setenv("CONTENT_FETCH_MAX_BODY_SIZE", "")
	t.Setenv("CONTENT_FETCH_MAX_REDIRECTS", "")
	t.Setenv("CONTENT_FETCH_USER_AGENT", "")

	cfg, err := fetcher.LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv() error = %v", err)
	}
	if cfg != fetcher.DefaultConfig() {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadConfigFromEnv_CustomValues(t *testing.T) {
	t.Setenv("CONTENT_FETCH_TIMEOUT", "3s")
	t.Setenv("CONTENT_FETCH_MAX_BODY_SIZE", "2048")
	t.Setenv("CONTENT_FETCH_MAX_REDIRECTS", "2")
	t.Setenv("CONTENT_FETCH_USER_AGENT", "quiz-test/1.0")

	cfg, err := fetcher.LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv() error = %v", err)
	}
	if cfg.Timeout != 3*time.Second {
		t.Errorf("expected Timeout=3s, got %v", cfg.Timeout)
	}
	if cfg.MaxBodySize != 2048 {
		t.Errorf("expected MaxBodySize=2048, got %d", cfg.MaxBodySize)
	}
	if cfg.MaxRedirects != 2 {
		t.Errorf("expected MaxRedirects=2, got %d", cfg.MaxRedirects)
	}
	if cfg.UserAgent != "quiz-test/1.0" {
		t.Errorf("expected custom User-Agent, got %q", cfg.UserAgent)
	}
}

func TestLoadConfigFromEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "timeout not a duration", key: "CONTENT_FETCH_TIMEOUT", value: "ten"},
		{name: "body size not a number", key: "CONTENT_FETCH_MAX_BODY_SIZE", value: "big"},
		{name: "redirects not a number", key: "CONTENT_FETCH_MAX_REDIRECTS", value: "many"},
		{name: "redirects out of range", key: "CONTENT_FETCH_MAX_REDIRECTS", value: "50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			if _, err := fetcher.LoadConfigFromEnv(); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestConfigValidate_ReportsEveryField(t *testing.T) {
	cfg := fetcher.ContentFetchConfig{}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected an error for the zero config")
	}
	for _, field := range []string{"timeout", "max body size", "user agent"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error %q does not mention %s", err, field)
		}
	}
}
