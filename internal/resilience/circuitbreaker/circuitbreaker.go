// Package circuitbreaker guards calls to Wikipedia and the model providers
// with sony/gobreaker, so a failing upstream is given time to recover instead
// of receiving every queued request.
package circuitbreaker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"wiki-quiz/internal/observability/metrics"
)

// Config describes one breaker. The breaker trips once at least MinRequests
// calls were made in the current Interval and the failure ratio reaches
// FailureThreshold. After Timeout it lets MaxRequests trial calls through.
type Config struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32

	// IsSuccessful classifies errors returned by the wrapped call; returning
	// true keeps an error from counting as a failure. Nil counts every error.
	IsSuccessful func(err error) bool
}

// DefaultConfig trips at 60% failures over at least 5 calls and probes again after a minute.
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          time.Minute,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// WikipediaFetchConfig is more tolerant than DefaultConfig and recovers
// faster: Wikipedia outages are rare and short.
func WikipediaFetchConfig() Config {
	cfg := DefaultConfig("wikipedia-fetch")
	cfg.MaxRequests = 5
	cfg.Interval = time.Minute
	cfg.Timeout = 30 * time.Second
	cfg.FailureThreshold = 0.7
	return cfg
}

// ModelAPIConfig is DefaultConfig named after provider, with fewer trial calls
// since each one costs tokens.
func ModelAPIConfig(provider string) Config {
	cfg := DefaultConfig(provider + "-api")
	cfg.MaxRequests = 2
	return cfg
}

// CircuitBreaker is a named gobreaker instance that logs transitions and
// exports its state to Prometheus.
type CircuitBreaker struct {
	breaker *gobreaker.CircuitBreaker
	name    string
}

// New builds a breaker from cfg. Its state gauge starts at closed.
func New(cfg Config) *CircuitBreaker {
	cb := &CircuitBreaker{name: cfg.Name}
	cb.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:         cfg.Name,
		MaxRequests:  cfg.MaxRequests,
		Interval:     cfg.Interval,
		Timeout:      cfg.Timeout,
		ReadyToTrip:  tripAt(cfg.MinRequests, cfg.FailureThreshold),
		IsSuccessful: cfg.IsSuccessful,
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.SetBreakerState(name, stateValue(to))
			level := slog.LevelWarn
			if to == gobreaker.StateClosed {
				level = slog.LevelInfo
			}
			slog.Log(context.Background(), level, "circuit breaker state changed",
				slog.String("circuit", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})
	metrics.SetBreakerState(cfg.Name, stateValue(gobreaker.StateClosed))
	return cb
}

func tripAt(minRequests uint32, threshold float64) func(gobreaker.Counts) bool {
	return func(c gobreaker.Counts) bool {
		if c.Requests == 0 || c.Requests < minRequests {
			return false
		}
		return float64(c.TotalFailures)/float64(c.Requests) >= threshold
	}
}

func stateValue(s gobreaker.State) int {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// Execute runs fn unless the breaker is open, in which case it returns
// gobreaker.ErrOpenState without calling fn.
func (cb *CircuitBreaker) Execute(fn func() (interface{}, error)) (interface{}, error) {
	v, err := cb.breaker.Execute(fn)
	if IsRejected(err) {
		metrics.RecordBreakerRejection(cb.name)
	}
	return v, err
}

func (cb *CircuitBreaker) State() gobreaker.State { return cb.breaker.State() }

func (cb *CircuitBreaker) Name() string { return cb.name }

// IsOpen reports whether calls are currently being refused outright.
func (cb *CircuitBreaker) IsOpen() bool { return cb.State() == gobreaker.StateOpen }

// IsRejected reports whether err was produced by a breaker rather than by the
// wrapped call. Wrapped errors are recognized.
func IsRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
