package dbconn

import "errors"

var (
	// ErrConnectionUnavailable is returned when no tenant context is available to
	// route a data access call. It never falls back to a shared database.
	ErrConnectionUnavailable = errors.New("tenant connection unavailable")

	// ErrOpenFailed wraps failures opening a tenant handle after retries.
	ErrOpenFailed = errors.New("failed to open tenant connection")

	// ErrNilOpener is returned by New when no opener is supplied.
	ErrNilOpener = errors.New("connection opener cannot be nil")
)
