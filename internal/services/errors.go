package services

import (
	"errors"
	"fmt"
)

// Sentinel markers for the external-service error taxonomy. Adapters tag
// every provider error with exactly one of these so the retry layer and the
// HTTP surface can classify failures without knowing the provider.
var (
	// ErrRateLimited marks a provider rate-limit response. Retryable.
	ErrRateLimited = errors.New("rate limited")

	// ErrTransient marks a network failure, timeout, or provider-side
	// outage. Retryable.
	ErrTransient = errors.New("transient service failure")

	// ErrPermanent marks a malformed request, invalid credentials, or any
	// other condition a retry cannot fix.
	ErrPermanent = errors.New("permanent service failure")

	// ErrInvalidInput marks bad caller input. Never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrQuality marks empty or structurally unusable generated output.
	// Retrying the same prompt will not help.
	ErrQuality = errors.New("generation quality failure")

	// ErrExhausted is the normalized error raised after retries run out.
	// It wraps the last underlying failure.
	ErrExhausted = errors.New("retries exhausted")
)

// Wrap tags err with marker and an operation label. A nil marker defaults to
// ErrTransient.
func Wrap(marker error, op string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, op, err)
	}
	return fmt.Errorf("%w: %s", marker, op)
}

// Retryable reports whether err is worth retrying under the backoff policy.
func Retryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTransient)
}
