// Package retry repeats an operation after transient failures, waiting an
// exponentially growing, jittered delay between attempts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"syscall"
	"time"
)

// Config controls WithBackoff.
type Config struct {
	// MaxAttempts includes the first call; 1 disables retrying.
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	// JitterFraction adds up to this share of the delay at random (0 to 1).
	JitterFraction float64

	// Retryable decides whether an error is worth another attempt.
	// Nil means IsRetryable.
	Retryable func(err error) bool
}

// DefaultConfig suits background work that can afford to wait.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialDelay:   time.Second,
		MaxDelay:       30 * time.Second,
		Multiplier:     2,
		JitterFraction: 0.1,
	}
}

// WikipediaFetchConfig keeps the total wait short: a generate request is
// blocked on the fetch.
func WikipediaFetchConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialDelay:   300 * time.Millisecond,
		MaxDelay:       2 * time.Second,
		Multiplier:     2,
		JitterFraction: 0.1,
	}
}

// NoRetry makes exactly one attempt.
func NoRetry() Config {
	return Config{MaxAttempts: 1}
}

// delays yields the wait before each retry.
type delays struct {
	cfg  Config
	next time.Duration
}

func (d *delays) advance() time.Duration {
	wait := d.next
	grown := time.Duration(float64(d.next) * d.cfg.Multiplier)
	if d.cfg.MaxDelay > 0 && grown > d.cfg.MaxDelay {
		grown = d.cfg.MaxDelay
	}
	d.next = addJitter(grown, d.cfg.JitterFraction)
	return wait
}

// WithBackoff calls fn until it succeeds, fails with an error the classifier
// rejects, or MaxAttempts is used up. A rejected error is returned unchanged;
// exhausting the attempts wraps the last error. Cancelling ctx during a wait
// returns both ctx.Err() and the last error.
func WithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	retryable := cfg.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}
	attempts := max(cfg.MaxAttempts, 1)
	backoff := &delays{cfg: cfg, next: cfg.InitialDelay}

	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil {
			if attempt > 1 {
				slog.InfoContext(ctx, "operation succeeded after retry", slog.Int("attempt", attempt))
			}
			return nil
		}
		if !retryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}

		wait := backoff.advance()
		slog.WarnContext(ctx, "operation failed, retrying",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
			slog.Duration("delay", wait),
			slog.Any("error", err))

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry aborted: %w", errors.Join(ctx.Err(), err))
		}
	}

	if attempts == 1 {
		return err
	}
	return fmt.Errorf("max retry attempts (%d) exceeded: %w", attempts, err)
}

// StatusCoder is implemented by errors that carry an HTTP response status.
type StatusCoder interface {
	HTTPStatus() int
}

// IsRetryable reports whether err looks transient: network timeouts,
// refused, reset or unreachable connections, and errors carrying HTTP 408,
// 429 or 5xx. Context cancellation and deadlines are final.
func IsRetryable(err error) bool {
	switch {
	case err == nil,
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ETIMEDOUT),
		errors.Is(err, syscall.ENETUNREACH):
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var sc StatusCoder
	if errors.As(err, &sc) {
		return RetryableStatus(sc.HTTPStatus())
	}
	return false
}

// RetryableStatus reports whether an HTTP status is worth retrying.
func RetryableStatus(code int) bool {
	return code >= 500 && code < 600 ||
		code == http.StatusTooManyRequests ||
		code == http.StatusRequestTimeout
}

func addJitter(d time.Duration, fraction float64) time.Duration {
	if fraction <= 0 || d <= 0 {
		return d
	}
	fraction = min(fraction, 1)
	// #nosec G404 -- jitter does not need cryptographic randomness
	return d + time.Duration(rand.Float64()*float64(d)*fraction)
}
