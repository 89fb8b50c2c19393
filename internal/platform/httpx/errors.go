// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/voyage-res/voyage-res/internal/shared"
)

// Stable machine-readable codes attached to problem responses.
const (
	CodeNotFound        = "not_found"
	CodeConflict        = "conflict"
	CodeInvalidArgument = "invalid_argument"
	CodeUnauthorized    = "unauthorized"
	CodeInternal        = "internal_error"
)

// RespondError maps domain error kinds to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		ProblemCode(w, http.StatusNotFound, "Not Found", shared.UserSafeMessage(err), CodeNotFound)
	case errors.Is(err, shared.ErrConflict):
		ProblemCode(w, http.StatusConflict, "Conflict", shared.UserSafeMessage(err), CodeConflict)
	case errors.Is(err, shared.ErrInvalidArgument):
		ProblemCode(w, http.StatusBadRequest, "Invalid Argument", shared.UserSafeMessage(err), CodeInvalidArgument)
	case errors.Is(err, shared.ErrUnauthorized):
		ProblemCode(w, http.StatusUnauthorized, "Unauthorized", shared.UserSafeMessage(err), CodeUnauthorized)
	default:
		ProblemCode(w, http.StatusInternalServerError, "Internal Error", "", CodeInternal)
	}
}
