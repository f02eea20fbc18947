package fetcher

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	pkgconfig "wiki-quiz/pkg/config"
)

// DefaultUserAgent looks like a desktop browser; Wikipedia throttles or
// rejects some library default agents.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// Bounds enforced by Validate.
const (
	minTimeout     = 100 * time.Millisecond
	maxTimeout     = 2 * time.Minute
	minBodySize    = 1 << 10
	maxBodySize    = 100 << 20
	maxRedirectCap = 10
)

// ContentFetchConfig controls how one article page is downloaded.
type ContentFetchConfig struct {
	// Timeout covers the whole request including the body read. Default 10s.
	Timeout time.Duration
	// MaxBodySize is checked while reading, whatever Content-Length says. Default 10 MiB.
	MaxBodySize int64
	// MaxRedirects is how many hops to follow; every hop must stay on
	// en.wikipedia.org. Default 5.
	MaxRedirects int
	UserAgent    string
}

// DefaultConfig returns the settings used when no environment overrides are present.
func DefaultConfig() ContentFetchConfig {
	return ContentFetchConfig{
		Timeout:      10 * time.Second,
		MaxBodySize:  10 << 20,
		MaxRedirects: 5,
		UserAgent:    DefaultUserAgent,
	}
}

// Validate reports every out-of-range field at once.
func (c *ContentFetchConfig) Validate() error {
	var errs []error
	if err := pkgconfig.ValidateDurationRange(c.Timeout, minTimeout, maxTimeout); err != nil {
		errs = append(errs, fmt.Errorf("timeout: %w", err))
	}
	if c.MaxBodySize < minBodySize || c.MaxBodySize > maxBodySize {
		errs = append(errs, fmt.Errorf("max body size: %d is outside [%d, %d] bytes", c.MaxBodySize, minBodySize, maxBodySize))
	}
	if c.MaxRedirects < 0 || c.MaxRedirects > maxRedirectCap {
		errs = append(errs, fmt.Errorf("max redirects: %d is outside [0, %d]", c.MaxRedirects, maxRedirectCap))
	}
	if c.UserAgent == "" {
		errs = append(errs, errors.New("user agent: must not be empty"))
	}
	return errors.Join(errs...)
}

// LoadConfigFromEnv overlays CONTENT_FETCH_TIMEOUT, CONTENT_FETCH_MAX_BODY_SIZE,
// CONTENT_FETCH_MAX_REDIRECTS and CONTENT_FETCH_USER_AGENT on DefaultConfig.
// Unlike the pkg/config getters, a malformed value is an error here: a fetcher
// silently running with a different limit is hard to notice.
func LoadConfigFromEnv() (ContentFetchConfig, error) {
	cfg := DefaultConfig()

	overrides := []struct {
		key   string
		apply func(string) error
	}{
		{"CONTENT_FETCH_TIMEOUT", func(v string) (err error) {
			cfg.Timeout, err = time.ParseDuration(v)
			return err
		}},
		{"CONTENT_FETCH_MAX_BODY_SIZE", func(v string) (err error) {
			cfg.MaxBodySize, err = strconv.ParseInt(v, 10, 64)
			return err
		}},
		{"CONTENT_FETCH_MAX_REDIRECTS", func(v string) (err error) {
			cfg.MaxRedirects, err = strconv.Atoi(v)
			return err
		}},
		{"CONTENT_FETCH_USER_AGENT", func(v string) error {
			cfg.UserAgent = v
			return nil
		}},
	}
	for _, o := range overrides {
		v := os.Getenv(o.key)
		if v == "" {
			continue
		}
		if err := o.apply(v); err != nil {
			return DefaultConfig(), fmt.Errorf("invalid %s=%q: %w", o.key, v, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("content fetch config: %w", err)
	}
	return cfg, nil
}
