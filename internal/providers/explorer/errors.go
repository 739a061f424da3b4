package explorer

import (
	"errors"
)

var (
	// ErrConnectivity is returned when the explorer could not be reached or answered with a non-2xx status
	ErrConnectivity = errors.New("block explorer unreachable")
	// ErrInvalidAPIKey is returned when the explorer rejects the configured API key
	ErrInvalidAPIKey = errors.New("block explorer rejected the API key")
	// ErrRateLimited is returned when the explorer (or the local limiter) throttles the request
	ErrRateLimited = errors.New("block explorer rate limit reached")
	// ErrProviderFailure is returned for any other soft error reported by the explorer
	ErrProviderFailure = errors.New("block explorer returned an error")
	// ErrTransactionNotFound is returned when the explorer has no record of the transaction
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrTransactionPending is returned when the transaction has not been included in a block yet
	ErrTransactionPending = errors.New("transaction not yet confirmed")
)

// UserMessage returns the user-facing text for an explorer error
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrTransactionNotFound):
		return "Transaction not found. Please check the transaction link and try again."
	case errors.Is(err, ErrTransactionPending):
		return "Transaction is not yet confirmed. Please wait for it to be included in a block and try again."
	case errors.Is(err, ErrRateLimited):
		return "Transaction validation is temporarily busy. Please wait a moment and try again."
	case errors.Is(err, ErrInvalidAPIKey):
		return "Transaction validation is misconfigured. Please contact an event administrator."
	case errors.Is(err, ErrConnectivity):
		return "Could not reach the block explorer. Please try again later."
	default:
		return "Could not validate the transaction. Please try again later."
	}
}

// IsRetryable reports whether resubmitting the same transaction later may succeed
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransactionNotFound) ||
		errors.Is(err, ErrTransactionPending) ||
		IsUpstream(err)
}

// IsUpstream reports whether err is a provider-side failure rather than a fact about the transaction
func IsUpstream(err error) bool {
	return errors.Is(err, ErrConnectivity) ||
		errors.Is(err, ErrInvalidAPIKey) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrProviderFailure)
}
