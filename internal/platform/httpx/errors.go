package httpx

import (
	"errors"
	"net/http"
)

// Boundary errors shared across handlers.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// RespondError maps boundary errors to envelope responses. Domain errors are
// mapped by their own handlers before falling back here; anything unknown is
// surfaced generically so internals never leak.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnauthorized):
		Fail(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, ErrForbidden):
		Fail(w, http.StatusForbidden, "forbidden")
	default:
		Fail(w, http.StatusInternalServerError, "internal error")
	}
}
