package service

import "errors"

// Error kinds shared across the provider clients. Handlers and retry policies
// dispatch on these with errors.Is; the wrapped message is what the user sees.
var (
	// ErrNotConfigured means a required API key is missing. Never retried and
	// reported without any network attempt.
	ErrNotConfigured = errors.New("service is not configured")

	// ErrUnauthorized maps provider 401 responses. Never retried.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited maps provider 429 responses.
	ErrRateLimited = errors.New("rate limited")

	// ErrInsufficientCredits maps provider 402 responses and the providers'
	// "not enough credits" variants. Never retried.
	ErrInsufficientCredits = errors.New("insufficient provider credits")

	// ErrInsufficientTokens means the user's token balance does not cover the
	// operation's cost. Raised before any external call.
	ErrInsufficientTokens = errors.New("insufficient tokens")

	// ErrTimeout covers connection aborts and polling ceilings. Reported
	// distinctly and never retried.
	ErrTimeout = errors.New("operation timed out")
)
