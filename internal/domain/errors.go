package domain

import "errors"

// Error kinds surfaced by the ledger. Callers match with errors.Is; detail is
// wrapped on top with fmt.Errorf("%w: ...").
var (
	ErrInsufficientQuotas = errors.New("Insufficient quotas for withdrawal")
	ErrValidationFailed   = errors.New("Validation failed")
	ErrNotFound           = errors.New("Not found")
	ErrNotAuthorized      = errors.New("Not authorized to manage this portfolio")

	// ErrConcurrentUpdate is returned when the holding version moved under a
	// transaction. The withdrawal services retry on it; it never reaches handlers
	// unless retries are exhausted.
	ErrConcurrentUpdate = errors.New("Holding was modified concurrently")
)
