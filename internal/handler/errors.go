package handler

import (
	"errors"

	"uptask/internal/apperr"
)

// notFoundOr turns sentinel into a NotFound with msg and anything else into
// an internal error for operation.
func notFoundOr(err, sentinel error, msg, operation string) error {
	if errors.Is(err, sentinel) {
		return apperr.NotFound(msg)
	}
	return apperr.Internal(err, operation)
}
