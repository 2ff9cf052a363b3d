package types

import (
	"errors"
	"fmt"
)

var (
	// ErrRetriesExhausted is returned when the provider keeps failing with a retryable status.
	ErrRetriesExhausted = errors.New("retries exhausted")

	// ErrNoLegs is returned when a stake calculation receives no legs.
	ErrNoLegs = errors.New("no legs")

	// ErrInvalidOdds is returned for decimal odds <= 1.0.
	ErrInvalidOdds = errors.New("invalid odds")

	// ErrInvalidStake is returned for a non-positive or non-finite total stake.
	ErrInvalidStake = errors.New("invalid stake")

	// ErrLegCount is returned when an operation needs a specific number of legs.
	ErrLegCount = errors.New("unexpected leg count")

	// ErrUnknownChannel is returned for an unsupported notification channel.
	ErrUnknownChannel = errors.New("unknown notification channel")
)

// ProviderError represents a non-2xx response from the odds provider.
type ProviderError struct {
	StatusCode int
	Endpoint   string
	Body       string
}

func (e *ProviderError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("provider %s returned status %d: %s", e.Endpoint, e.StatusCode, e.Body)
	}

	return fmt.Sprintf("provider %s returned status %d", e.Endpoint, e.StatusCode)
}

// Retryable reports whether the status is worth retrying (rate limit or server error).
func (e *ProviderError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
