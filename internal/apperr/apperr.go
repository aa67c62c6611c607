// Package apperr defines the closed set of error kinds the API can answer
// with and maps them onto HTTP responses.
//
// User-facing errors are oops errors whose message is exactly what the client
// sees. Anything else is treated as internal: it is logged and answered with a
// generic message.
package apperr

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"

	"uptask/internal/logging"
)

// Error codes.
const (
	CodeNotFound      = "NOT_FOUND"
	CodeConflict      = "CONFLICT"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeInvalidAction = "INVALID_ACTION"
	CodeInternal      = "INTERNAL"
)

// InternalMessage is the body sent for every unexpected failure.
const InternalMessage = "Hubo un error"

func NotFound(msg string) error      { return oops.Code(CodeNotFound).Errorf("%s", msg) }
func Conflict(msg string) error      { return oops.Code(CodeConflict).Errorf("%s", msg) }
func Unauthorized(msg string) error  { return oops.Code(CodeUnauthorized).Errorf("%s", msg) }
func InvalidAction(msg string) error { return oops.Code(CodeInvalidAction).Errorf("%s", msg) }

// Internal wraps an unexpected failure, recording the operation that failed.
func Internal(err error, operation string) error {
	return oops.Code(CodeInternal).With("operation", operation).Wrap(err)
}

// Code returns the error's code, or CodeInternal for errors that carry none.
func Code(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return CodeInternal
	}
	switch oopsErr.Code() {
	case CodeNotFound:
		return CodeNotFound
	case CodeConflict:
		return CodeConflict
	case CodeUnauthorized:
		return CodeUnauthorized
	case CodeInvalidAction:
		return CodeInvalidAction
	}
	return CodeInternal
}

// Status maps an error to its HTTP status and the message safe to show.
func Status(err error) (int, string) {
	switch Code(err) {
	case CodeNotFound:
		return http.StatusNotFound, err.Error()
	case CodeConflict:
		return http.StatusConflict, err.Error()
	case CodeUnauthorized:
		return http.StatusUnauthorized, err.Error()
	case CodeInvalidAction:
		return http.StatusBadRequest, err.Error()
	}
	return http.StatusInternalServerError, InternalMessage
}

// Respond writes err as a JSON error body and aborts the request.
func Respond(c *gin.Context, logger *slog.Logger, err error) {
	status, msg := Status(err)
	if status == http.StatusInternalServerError && logger != nil {
		logging.LogError(logger, "request failed", err, "method", c.Request.Method, "path", c.FullPath())
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// FieldError is one per-field validation failure. Validation errors are
// always answered per field.
type FieldError struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

// RespondFields answers 400 with the per-field validation failures.
func RespondFields(c *gin.Context, fields ...FieldError) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"errors": fields})
}
