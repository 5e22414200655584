package tenant

import "errors"

var (
	// ErrTenantNotFound is returned when a signal matches no registry entry.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrTenantInactive is returned when the entry exists but is deactivated.
	ErrTenantInactive = errors.New("tenant is inactive")

	// ErrInvalidIdentifier is returned when the signal value is malformed.
	ErrInvalidIdentifier = errors.New("invalid tenant identifier")

	// ErrEmptySignal is returned when Resolve is called without an identifier.
	ErrEmptySignal = errors.New("empty tenant signal")

	// ErrRegistryUnavailable wraps registry failures other than not-found.
	ErrRegistryUnavailable = errors.New("tenant registry unavailable")

	// ErrSecretReveal wraps failures turning a stored reference into a connection string.
	ErrSecretReveal = errors.New("failed to reveal tenant connection string")
)

// IsClientError reports whether err is caused by the caller's signal rather than
// by the platform; HTTP callers map these to 4xx, job orchestration skips and logs.
func IsClientError(err error) bool {
	return errors.Is(err, ErrTenantNotFound) ||
		errors.Is(err, ErrTenantInactive) ||
		errors.Is(err, ErrInvalidIdentifier) ||
		errors.Is(err, ErrEmptySignal)
}
