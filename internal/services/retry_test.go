package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestRetryPolicy_TransientThenSuccess(t *testing.T) {
	var slept []time.Duration
	policy := RetryPolicy{
		MaxAttempts: 3,
		Base:        1 * time.Second,
		Sleep:       func(d time.Duration) { slept = append(slept, d) },
	}

	calls := 0
	err := policy.Do(context.Background(), testLogger(), "completion", func() error {
		calls++
		if calls < 3 {
			return Wrap(ErrTransient, "completion", errors.New("connection reset"))
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	// Two failed attempts cost 1s + 2s of backoff.
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, slept)
}

func TestRetryPolicy_RateLimitExhaustion(t *testing.T) {
	var slept []time.Duration
	policy := RetryPolicy{
		MaxAttempts: 3,
		Base:        1 * time.Second,
		Sleep:       func(d time.Duration) { slept = append(slept, d) },
	}

	calls := 0
	err := policy.Do(context.Background(), testLogger(), "completion", func() error {
		calls++
		return Wrap(ErrRateLimited, "completion", errors.New("429 too many requests"))
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Contains(t, err.Error(), "429 too many requests")
	assert.Equal(t, 3, calls)
	assert.Len(t, slept, 2)
}

func TestRetryPolicy_PermanentNoRetry(t *testing.T) {
	policy := RetryPolicy{
		MaxAttempts: 3,
		Base:        1 * time.Second,
		Sleep: func(time.Duration) {
			t.Fatal("permanent errors must not sleep")
		},
	}

	calls := 0
	err := policy.Do(context.Background(), testLogger(), "completion", func() error {
		calls++
		return Wrap(ErrPermanent, "completion", errors.New("invalid api key"))
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPermanent)
	assert.NotErrorIs(t, err, ErrExhausted)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicy_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	policy := DefaultRetryPolicy()
	err := policy.Do(ctx, testLogger(), "completion", func() error {
		t.Fatal("must not call fn on canceled context")
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
}

type scriptedCompleter struct {
	errs  []error
	text  string
	calls int
}

func (s *scriptedCompleter) Complete(_ context.Context, _ CompletionRequest) (CompletionResult, error) {
	s.calls++
	if s.calls <= len(s.errs) && s.errs[s.calls-1] != nil {
		return CompletionResult{}, s.errs[s.calls-1]
	}
	return CompletionResult{Text: s.text}, nil
}

func TestRetryingCompleter(t *testing.T) {
	transient := fmt.Errorf("%w: completion: %s", ErrTransient, "timeout")

	tests := []struct {
		name     string
		errs     []error
		wantErr  error
		wantText string
	}{
		{
			name:     "succeeds after transient failures",
			errs:     []error{transient, transient},
			wantText: "Host: hello",
		},
		{
			name:    "permanent fails immediately",
			errs:    []error{Wrap(ErrPermanent, "completion", errors.New("bad request"))},
			wantErr: ErrPermanent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := &scriptedCompleter{errs: tt.errs, text: tt.wantText}
			policy := RetryPolicy{MaxAttempts: 3, Base: time.Second, Sleep: func(time.Duration) {}}
			completer := NewRetryingCompleter(next, policy, testLogger())

			result, err := completer.Complete(context.Background(), CompletionRequest{Prompt: "hi"})
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantText, result.Text)
			}
		})
	}
}
