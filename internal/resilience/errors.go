package resilience

import "errors"

// Error taxonomy for the registration write path
var (
	// ErrAdmissionRejected is returned when a caller exceeds its rate budget.
	// Reported immediately, never retried internally.
	ErrAdmissionRejected = errors.New("admission rejected: rate budget exceeded")

	// ErrCircuitOpen is returned when a downstream is known-bad and the call
	// was fast-failed without being attempted.
	ErrCircuitOpen = errors.New("circuit open: downstream unavailable")

	// ErrWriteTimeout is returned when a tier's write exceeded its budget.
	// The underlying call is not cancelled; a late result is discarded.
	ErrWriteTimeout = errors.New("write timed out")

	errNoHandler = errors.New("no handler registered for job type")
)
