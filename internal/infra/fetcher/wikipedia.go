// Package fetcher downloads English Wikipedia article pages.
package fetcher

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"wiki-quiz/internal/domain/entity"
	"wiki-quiz/internal/resilience/circuitbreaker"
	"wiki-quiz/internal/resilience/retry"
)

const wikipediaHost = "en.wikipedia.org"

// Causes wrapped by the fetch QuizError. Use errors.Is to inspect them.
var (
	ErrTooManyRedirects = errors.New("too many redirects")
	ErrRedirectOffSite  = errors.New("redirect left en.wikipedia.org")
	ErrBodyTooLarge     = errors.New("response body too large")
	ErrTimeout          = errors.New("request timed out")
)

// StatusError reports a non-2xx response from Wikipedia.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d", e.StatusCode)
}

// HTTPStatus lets retry.IsRetryable classify the response.
func (e *StatusError) HTTPStatus() int { return e.StatusCode }

// Option customizes a WikipediaFetcher.
type Option func(*WikipediaFetcher)

// WithTransport replaces the HTTP transport used for page requests.
func WithTransport(rt http.RoundTripper) Option {
	return func(f *WikipediaFetcher) {
		f.client.Transport = rt
	}
}

// WithBreakerConfig replaces the circuit breaker settings.
// The failure classification is always the fetcher's own.
func WithBreakerConfig(cfg circuitbreaker.Config) Option {
	return func(f *WikipediaFetcher) {
		f.breakerConfig = cfg
	}
}

// WithRetry retries transient failures (transport errors, timeouts, 429 and
// 5xx) using cfg's backoff. The default makes a single attempt.
func WithRetry(cfg retry.Config) Option {
	return func(f *WikipediaFetcher) {
		f.retryConfig = cfg
	}
}

// WikipediaFetcher retrieves raw article HTML.
//
// Every request goes through a circuit breaker. Only upstream faults
// (transport errors, timeouts, 5xx) count toward tripping it.
//
// Thread safety: WikipediaFetcher is safe for concurrent use.
type WikipediaFetcher struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	breakerConfig  circuitbreaker.Config
	retryConfig    retry.Config
	config         ContentFetchConfig
}

// NewWikipediaFetcher creates a fetcher with the given configuration.
func NewWikipediaFetcher(config ContentFetchConfig, opts ...Option) *WikipediaFetcher {
	f := &WikipediaFetcher{
		config:        config,
		breakerConfig: circuitbreaker.WikipediaFetchConfig(),
		retryConfig:   retry.NoRetry(),
	}

	f.client = &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > f.config.MaxRedirects {
				return fmt.Errorf("%w: %d redirects", ErrTooManyRedirects, len(via))
			}
			if req.URL.Scheme != "https" || req.URL.Hostname() != wikipediaHost {
				return fmt.Errorf("%w: %s", ErrRedirectOffSite, req.URL.Host)
			}
			return nil
		},
	}

	for _, opt := range opts {
		opt(f)
	}

	f.breakerConfig.IsSuccessful = countsAsSuccess
	f.circuitBreaker = circuitbreaker.New(f.breakerConfig)
	f.retryConfig.Retryable = retryable
	return f
}

// Fetch returns the raw HTML of the article at articleURL.
//
// The URL is validated before any network activity; a bad URL yields a
// validation QuizError. Every other failure is a fetch QuizError whose cause
// is reachable through errors.Unwrap.
func (f *WikipediaFetcher) Fetch(ctx context.Context, articleURL string) (string, error) {
	if err := entity.ValidateArticleURL(articleURL); err != nil {
		return "", err
	}

	start := time.Now()
	var html string
	err := retry.WithBackoff(ctx, f.retryConfig, func() error {
		result, cbErr := f.circuitBreaker.Execute(func() (interface{}, error) {
			return f.doFetch(ctx, articleURL)
		})
		if cbErr != nil {
			return cbErr
		}
		html = result.(string)
		return nil
	})
	if err != nil {
		slog.WarnContext(ctx, "wikipedia fetch failed",
			slog.String("url", articleURL),
			slog.Duration("duration", time.Since(start)),
			slog.Any("error", err))
		return "", entity.NewError(entity.KindFetch, fetchDetail(err), err)
	}

	slog.DebugContext(ctx, "wikipedia page fetched",
		slog.String("url", articleURL),
		slog.Int("bytes", len(html)),
		slog.Duration("duration", time.Since(start)))
	return html, nil
}

func (f *WikipediaFetcher) doFetch(ctx context.Context, articleURL string) (interface{}, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, articleURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", f.classify(ctx, reqCtx, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{StatusCode: resp.StatusCode}
	}

	// Read one byte past the limit so an oversized body is detected
	// regardless of Content-Length.
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBodySize+1))
	if err != nil {
		return "", f.classify(ctx, reqCtx, err)
	}
	if int64(len(body)) > f.config.MaxBodySize {
		return "", fmt.Errorf("%w: limit %d bytes", ErrBodyTooLarge, f.config.MaxBodySize)
	}

	return string(body), nil
}

// classify turns a client error into one of the package causes when the
// request context explains it.
func (f *WikipediaFetcher) classify(parent, reqCtx context.Context, err error) error {
	if parent.Err() == nil && errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: exceeded %v", ErrTimeout, f.config.Timeout)
	}
	return fmt.Errorf("http request: %w", err)
}

func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode < 500
	}
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, ErrTooManyRedirects) ||
		errors.Is(err, ErrRedirectOffSite) ||
		errors.Is(err, ErrBodyTooLarge)
}

// retryable reports whether another attempt could succeed. An open breaker
// is not retried; the request fails fast instead.
func retryable(err error) bool {
	switch {
	case circuitbreaker.IsRejected(err), errors.Is(err, context.Canceled):
		return false
	case errors.Is(err, ErrTimeout), retry.IsRetryable(err):
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return false
	}
	return !countsAsSuccess(err)
}

// fetchDetail renders a user-facing description of a fetch failure.
func fetchDetail(err error) string {
	var se *StatusError
	switch {
	case circuitbreaker.IsRejected(err):
		return "wikipedia is temporarily unavailable, try again later"
	case errors.As(err, &se):
		return fmt.Sprintf("wikipedia returned HTTP %d", se.StatusCode)
	case errors.Is(err, ErrTimeout):
		return "timed out fetching the article"
	case errors.Is(err, ErrBodyTooLarge):
		return "article page exceeds the size limit"
	case errors.Is(err, ErrTooManyRedirects):
		return "too many redirects fetching the article"
	case errors.Is(err, ErrRedirectOffSite):
		return "article redirected away from en.wikipedia.org"
	case errors.Is(err, context.Canceled):
		return "request was cancelled"
	default:
		return "could not reach wikipedia"
	}
}
