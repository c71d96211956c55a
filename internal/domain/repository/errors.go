package repository

import "errors"

// Provider-level error taxonomy. Fetch implementations wrap these so the
// scheduler can decide between retry, skip and surfacing.
var (
	ErrTimeout      = errors.New("provider timeout")
	ErrAuthRejected = errors.New("provider rejected credentials")
	ErrRateLimited  = errors.New("provider rate limited")

	// ErrQuotaExceeded is returned by the vault before any network call
	// when a provider's token budget for the current window is spent.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrProviderDegraded is returned by the vault while a provider is
	// backing off after repeated consecutive failures.
	ErrProviderDegraded = errors.New("provider degraded")

	// ErrUnrepresentable marks a single record the normalizer cannot map
	// into a canonical form. Per-record, never fatal.
	ErrUnrepresentable = errors.New("record unrepresentable")

	// ErrAllProvidersFailed means no provider for a data kind contributed
	// anything to a cycle.
	ErrAllProvidersFailed = errors.New("all providers failed")

	ErrNotFound = errors.New("not found")

	// ErrDeliveryFailed wraps a delivery collaborator failure after the
	// attempt ceiling is reached.
	ErrDeliveryFailed = errors.New("delivery failed")
)
