package domain

import "errors"

var (
	// ErrProviderUnavailable means no wallet capability is present at all.
	ErrProviderUnavailable = errors.New("wallet provider unavailable")
	// ErrConnectionRejected means the user declined the connection prompt.
	ErrConnectionRejected = errors.New("wallet connection rejected")
	// ErrConnectionFailed covers every other provider-level connect failure.
	ErrConnectionFailed = errors.New("wallet connection failed")
	// ErrNotConnected is returned when an operation requires a connected
	// wallet and none is present.
	ErrNotConnected = errors.New("wallet not connected")
	// ErrInvalidOrder means the order request failed structural validation.
	ErrInvalidOrder = errors.New("invalid order parameters")
	// ErrPositionActive enforces the single-active-position rule.
	ErrPositionActive = errors.New("existing position is still active")
	// ErrGateway means the submission failed at the execution venue.
	ErrGateway = errors.New("gateway submission failed")
	// ErrSigningFailed wraps provider signing failures.
	ErrSigningFailed = errors.New("signing failed")
	// ErrNotFound is the generic missing-record error for stores and caches.
	ErrNotFound = errors.New("not found")
)
