package input

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError represents a mapping failure as an HTTP status code and message
type HTTPError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
	Err        error  `json:"-"`
}

// Error implements the error interface
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// Unwrap returns the mapping error
func (e *HTTPError) Unwrap() error {
	return e.Err
}

// NewHTTPError creates a new HTTPError with the given status code and message
func NewHTTPError(statusCode int, message string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
	}
}

// HTTPErrorFrom translates a mapping error: entity not found is 404, invalid input and
// type mismatches are 422, everything else is 500. An *HTTPError is returned as is.
func HTTPErrorFrom(err error) *HTTPError {
	if err == nil {
		return nil
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	out := &HTTPError{Err: err, Message: err.Error()}
	var fieldErr *FieldError
	if errors.As(err, &fieldErr) {
		out.Details = map[string]string{"field": fieldErr.Field}
	}

	switch {
	case errors.Is(err, ErrEntityNotFound):
		out.StatusCode = http.StatusNotFound
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrTypeMismatch):
		out.StatusCode = http.StatusUnprocessableEntity
	default:
		out.StatusCode = http.StatusInternalServerError
		out.Message = http.StatusText(http.StatusInternalServerError)
	}
	return out
}
