package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	defaultRetryAttempts = 3
	defaultRetryBase     = 1 * time.Second
)

// RetryPolicy is bounded exponential backoff: up to MaxAttempts attempts
// total, sleeping Base, 2*Base, 4*Base, ... between them. Only errors marked
// rate-limited or transient are retried; permanent failures surface
// immediately.
type RetryPolicy struct {
	MaxAttempts int
	Base        time.Duration
	Sleep       func(time.Duration) // overridable in tests
}

// DefaultRetryPolicy matches the discipline applied to every completion
// call: three attempts with a one second base delay.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: defaultRetryAttempts,
		Base:        defaultRetryBase,
		Sleep:       time.Sleep,
	}
}

// Do runs fn under the policy. After the final failed attempt it returns an
// ErrExhausted-tagged error carrying the last underlying message.
func (p RetryPolicy) Do(ctx context.Context, logger *slog.Logger, op string, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = defaultRetryAttempts
	}
	base := p.Base
	if base <= 0 {
		base = defaultRetryBase
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if !Retryable(lastErr) {
			return lastErr
		}

		if attempt == attempts-1 {
			break
		}

		delay := base << attempt
		logger.Warn("Retrying after transient failure",
			slog.String("operation", op),
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", attempts),
			slog.Duration("delay", delay),
			slog.String("error", lastErr.Error()),
		)
		sleep(delay)
	}

	logger.Error("Retries exhausted",
		slog.String("operation", op),
		slog.Int("attempts", attempts),
		slog.String("error", lastErr.Error()),
	)

	return fmt.Errorf("%w: %s: %v", ErrExhausted, op, lastErr)
}

// RetryingCompleter decorates a Completer with the backoff policy. It is the
// single path through which the script generator and the question answerer
// issue completion calls.
type RetryingCompleter struct {
	next   Completer
	policy RetryPolicy
	logger *slog.Logger
}

// NewRetryingCompleter wraps next with policy.
func NewRetryingCompleter(next Completer, policy RetryPolicy, logger *slog.Logger) *RetryingCompleter {
	return &RetryingCompleter{next: next, policy: policy, logger: logger}
}

// Complete runs the underlying call with retries.
func (r *RetryingCompleter) Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error) {
	var result CompletionResult
	err := r.policy.Do(ctx, r.logger, "completion", func() error {
		var callErr error
		result, callErr = r.next.Complete(ctx, req)
		return callErr
	})
	if err != nil {
		return CompletionResult{}, err
	}
	return result, nil
}
