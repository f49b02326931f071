package apperrors

import "errors"

// Error classes surfaced at the invocation boundary. Wrap them with
// fmt.Errorf("...: %w", ErrX) so handlers can map them with errors.Is.
var (
	// ErrConfiguration covers missing env vars, unreadable secrets and
	// secrets missing required fields.
	ErrConfiguration = errors.New("configuration error")

	// ErrConnectivity means the database could not be reached in time.
	ErrConnectivity = errors.New("database unavailable")

	// ErrInvalidPayload is a malformed or incomplete request body.
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrConflict is a uniqueness violation on write.
	ErrConflict = errors.New("conflict")
)

// Code returns a short machine-readable label for err's class.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "configuration_error"
	case errors.Is(err, ErrConnectivity):
		return "database_unavailable"
	case errors.Is(err, ErrInvalidPayload):
		return "invalid_payload"
	case errors.Is(err, ErrConflict):
		return "conflict"
	default:
		return "internal_error"
	}
}
