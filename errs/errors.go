// Package errs defines the error taxonomy shared across the SDK's API
// surfaces: validation, authentication, authorization, not-found,
// transient, and generic provider failures.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrValidation marks malformed input caught before any network activity.
	ErrValidation = errors.New("validation failed")
	// ErrAuthentication marks a 401 from any endpoint.
	ErrAuthentication = errors.New("authentication failed")
	// ErrAuthorization marks a 403 from any endpoint.
	ErrAuthorization = errors.New("forbidden")
	// ErrNotFound marks a 404, e.g. an unknown snapshot id.
	ErrNotFound = errors.New("not found")
	// ErrBadRequest marks a 400 rejected by the API.
	ErrBadRequest = errors.New("bad request")
	// ErrTransient marks a retryable failure that persisted through the
	// whole retry budget.
	ErrTransient = errors.New("transient failure")
	// ErrAPI marks any other non-2xx response.
	ErrAPI = errors.New("api error")
)

// StatusError carries the HTTP status code and response body of a
// failed API call, wrapping the sentinel that classifies it.
type StatusError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: %d, body: %s", e.Err, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// FromStatus classifies a non-2xx response by status code.
func FromStatus(statusCode int, body string) error {
	var sentinel error
	switch statusCode {
	case http.StatusBadRequest:
		sentinel = ErrBadRequest
	case http.StatusUnauthorized:
		sentinel = ErrAuthentication
	case http.StatusForbidden:
		sentinel = ErrAuthorization
	case http.StatusNotFound:
		sentinel = ErrNotFound
	default:
		sentinel = ErrAPI
	}

	return &StatusError{
		StatusCode: statusCode,
		Body:       body,
		Err:        sentinel,
	}
}
