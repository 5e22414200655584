package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrymomot/bizsuite/pkg/dbconn"
	"github.com/dmitrymomot/bizsuite/pkg/scope"
	"github.com/dmitrymomot/bizsuite/pkg/tenant"
)

var (
	ErrNilResponse = errors.New("handler returned nil response")

	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrInvalidJSON          = errors.New("invalid JSON")
	ErrMissingContentType   = errors.New("missing content type")
)

// HTTPError is an error with a fixed status and machine-readable key.
type HTTPError struct {
	Code    int
	Key     string
	Message string
}

func (e HTTPError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.Code)
}

func NewHTTPError(code int, key, message string) HTTPError {
	return HTTPError{Code: code, Key: key, Message: message}
}

func BadRequest(message string) HTTPError {
	return NewHTTPError(http.StatusBadRequest, "bad_request", message)
}

func NotFound(message string) HTTPError {
	return NewHTTPError(http.StatusNotFound, "not_found", message)
}

func Conflict(message string) HTTPError {
	return NewHTTPError(http.StatusConflict, "conflict", message)
}

// classify maps an error to a status code and key. Tenant routing failures
// are server errors: a handler reached data access without a usable tenant.
func classify(err error) (int, string) {
	var httpErr HTTPError
	switch {
	case errors.As(err, &httpErr):
		return httpErr.Code, httpErr.Key
	case errors.Is(err, ErrMissingContentType), errors.Is(err, ErrInvalidJSON):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType, "unsupported_media_type"
	case errors.Is(err, dbconn.ErrOpenFailed):
		return http.StatusServiceUnavailable, "tenant_database_unavailable"
	case errors.Is(err, dbconn.ErrConnectionUnavailable), errors.Is(err, scope.ErrTenantContextMissing):
		return http.StatusInternalServerError, "tenant_context_missing"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded),
		tenant.IsClientError(err), errors.Is(err, tenant.ErrRegistryUnavailable):
		return scope.StatusCode(err), "tenant_resolution_failed"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
