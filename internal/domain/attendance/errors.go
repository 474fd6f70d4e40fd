package attendance

import "errors"

// Attendance domain errors
var (
	// ErrUnresolvedSchema is returned when a query built from a literal column
	// fallback references a column the upstream table does not have.
	ErrUnresolvedSchema = errors.New("upstream schema could not be resolved")

	// ErrUnsupportedEventVariant means no IN/OUT encoding strategy matched the
	// event tables. Report operations absorb it into zeroed results.
	ErrUnsupportedEventVariant = errors.New("unsupported event variant")

	// ErrUpstreamUnavailable wraps connectivity failures against the access-control
	// database. Callers may retry.
	ErrUpstreamUnavailable = errors.New("attendance database is unavailable")

	// ErrMalformedInput is returned for date, month, year or card values that do not parse.
	ErrMalformedInput = errors.New("malformed input")
)
