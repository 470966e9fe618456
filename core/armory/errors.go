package armory

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for HTTP status code classification.
// Use errors.Is(err, armory.ErrNotFound) to detect a confirmed remote absence.
var (
	ErrNotFound     = errors.New("armory: not found")
	ErrUnauthorized = errors.New("armory: unauthorized")
	ErrForbidden    = errors.New("armory: forbidden")
	ErrThrottled    = errors.New("armory: throttled")
	ErrServerError  = errors.New("armory: server error")
	ErrUnexpected   = errors.New("armory: unexpected status")
)

// APIError wraps a sentinel error with the HTTP status code, request path and
// the response body for debugging.
type APIError struct {
	StatusCode int
	Path       string
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("armory: HTTP %d for %s: %s", e.StatusCode, e.Path, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a confirmed remote absence.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// classifyStatus maps an HTTP status code to a sentinel error.
func classifyStatus(code int) error {
	switch code {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusTooManyRequests:
		return ErrThrottled
	default:
		if code >= http.StatusInternalServerError {
			return ErrServerError
		}
		return ErrUnexpected
	}
}

// isRetryable reports whether the given HTTP status code should be retried.
func isRetryable(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
