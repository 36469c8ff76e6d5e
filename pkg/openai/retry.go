package openai

import (
	"context"
	"log/slog"
	"time"

	"formautofill/models"
)

// RetryPolicy bounds how an inference call is retried: a fixed attempt count
// with exponential backoff between attempts, no jitter. On exhaustion the
// last error propagates; falling back to a placeholder plan is the
// orchestrator's decision, not this layer's.
type RetryPolicy struct {
	Attempts     int
	InitialDelay time.Duration
	MaxDelay     time.Duration

	// sleep is replaceable in tests; nil means a context-aware wait.
	sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy matches the shipped tuning: 4 attempts, 500ms doubling
// up to 16s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:     4,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     16 * time.Second,
	}
}

// Do runs fn up to Attempts times. Waits respect context cancellation; a
// cancelled context returns the last error immediately.
func (p RetryPolicy) Do(ctx context.Context, logger *slog.Logger, fn func(ctx context.Context) (models.FillPlan, error)) (models.FillPlan, error) {
	if logger == nil {
		logger = slog.Default()
	}
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = waitCtx
	}

	delay := p.InitialDelay
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil || attempt == attempts {
			break
		}

		logger.Warn("inference attempt failed, retrying",
			"attempt", attempt,
			"max_attempts", attempts,
			"backoff_ms", delay.Milliseconds(),
			"error", err)

		if err := sleep(ctx, delay); err != nil {
			break
		}
		delay *= 2
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
	return models.FillPlan{}, lastErr
}

func waitCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
