package shared

import "errors"

// Error kinds shared across domain services. Callers distinguish them with
// errors.Is; the HTTP layer maps each kind to a status code.
var (
	// ErrNotFound indicates a referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates the operation would violate a uniqueness or
	// already-effective-state invariant.
	ErrConflict = errors.New("conflict")
	// ErrInvalidArgument indicates a caller-supplied value is unusable,
	// e.g. an expiration timestamp in the past.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnauthorized is surfaced by callers of the authorization resolver;
	// the resolver itself reports facts and never raises it.
	ErrUnauthorized = errors.New("unauthorized")
)

// UserSafeMessage returns a message suitable for end users. Infrastructure
// errors are collapsed so internals never leak into responses.
func UserSafeMessage(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "The requested record was not found."
	case errors.Is(err, ErrConflict):
		return "The operation conflicts with the current state."
	case errors.Is(err, ErrInvalidArgument):
		return "One or more supplied values are invalid."
	case errors.Is(err, ErrUnauthorized):
		return "You are not authorized to perform this action."
	default:
		return "An unexpected error occurred. Please try again."
	}
}
