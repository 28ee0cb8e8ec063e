package stopsearch

import "errors"

// Sentinel errors for common failures.

var (
	// ErrSourceNotFound is returned when a stop source is not registered.
	// Usually means you forgot to import the source package with an underscore.
	ErrSourceNotFound = errors.New("stop source not found")

	// ErrInvalidSourceConfig is returned by source factories when the
	// configuration has the wrong type or misses required fields.
	ErrInvalidSourceConfig = errors.New("invalid source configuration")

	// ErrDataUnavailable is returned when the stop dataset could not be read
	// or parsed. Callers should treat it as a server-side failure, distinct
	// from a query that matched nothing.
	ErrDataUnavailable = errors.New("stop data unavailable")
)
