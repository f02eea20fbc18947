package retry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusErr int

func (e statusErr) Error() string   { return fmt.Sprintf("HTTP %d", int(e)) }
func (e statusErr) HTTPStatus() int { return int(e) }

func fastConfig(attempts int) Config {
	return Config{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
	}
}

func TestWithBackoff_Success(t *testing.T) {
	calls := 0
	err := WithBackoff(context.Background(), fastConfig(3), func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithBackoff_SuccessAfterRetry(t *testing.T) {
	calls := 0
	err := WithBackoff(context.Background(), fastConfig(3), func() error {
		calls++
		if calls < 3 {
			return statusErr(http.StatusServiceUnavailable)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithBackoff_MaxAttemptsExceeded(t *testing.T) {
	cause := statusErr(http.StatusBadGateway)
	calls := 0
	err := WithBackoff(context.Background(), fastConfig(3), func() error {
		calls++
		return cause
	})

	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "max retry attempts (3) exceeded")
}

func TestWithBackoff_NonRetryableReturnedAsIs(t *testing.T) {
	cause := statusErr(http.StatusNotFound)
	calls := 0
	err := WithBackoff(context.Background(), fastConfig(3), func() error {
		calls++
		return cause
	})

	assert.Equal(t, 1, calls)
	assert.Equal(t, cause, err)
}

func TestWithBackoff_NoRetry(t *testing.T) {
	cause := statusErr(http.StatusBadGateway)
	calls := 0
	err := WithBackoff(context.Background(), NoRetry(), func() error {
		calls++
		return cause
	})

	assert.Equal(t, 1, calls)
	assert.Equal(t, cause, err)
}

func TestWithBackoff_CustomClassifier(t *testing.T) {
	sentinel := errors.New("flaky")
	cfg := fastConfig(4)
	cfg.Retryable = func(err error) bool { return errors.Is(err, sentinel) }

	calls := 0
	err := WithBackoff(context.Background(), cfg, func() error {
		calls++
		return fmt.Errorf("attempt %d: %w", calls, sentinel)
	})

	assert.Equal(t, 4, calls)
	assert.ErrorIs(t, err, sentinel)
}

func TestWithBackoff_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig(5)
	cfg.InitialDelay = time.Hour

	cause := statusErr(http.StatusServiceUnavailable)
	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- WithBackoff(ctx, cfg, func() error {
			calls++
			return cause
		})
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, 1, calls)
	case <-time.After(time.Second):
		t.Fatal("WithBackoff did not return after cancel")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "canceled", err: context.Canceled, want: false},
		{name: "deadline", err: fmt.Errorf("wrap: %w", context.DeadlineExceeded), want: false},
		{name: "conn refused", err: syscall.ECONNREFUSED, want: true},
		{name: "conn reset", err: fmt.Errorf("read: %w", syscall.ECONNRESET), want: true},
		{name: "503", err: statusErr(503), want: true},
		{name: "429", err: statusErr(429), want: true},
		{name: "408", err: statusErr(408), want: true},
		{name: "404", err: statusErr(404), want: false},
		{name: "plain", err: errors.New("bad input"), want: false},
		{name: "wrapped 502", err: fmt.Errorf("fetch: %w", statusErr(502)), want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestDelays_GrowAndCap(t *testing.T) {
	d := &delays{cfg: Config{Multiplier: 2, MaxDelay: 300 * time.Millisecond}, next: 100 * time.Millisecond}

	assert.Equal(t, 100*time.Millisecond, d.advance())
	assert.Equal(t, 200*time.Millisecond, d.advance())
	assert.Equal(t, 300*time.Millisecond, d.advance())
	assert.Equal(t, 300*time.Millisecond, d.advance())
}

func TestAddJitter(t *testing.T) {
	base := 100 * time.Millisecond
	for i := 0; i < 50; i++ {
		d := addJitter(base, 0.5)
		assert.GreaterOrEqual(t, d, base)
		assert.LessOrEqual(t, d, base+base/2)
	}
	assert.Equal(t, base, addJitter(base, 0))
}
