package client

import (
	"errors"
	"fmt"
	"net/http"

	apperrors "github.com/jrsteele09/go-care-client/internal/errors"
)

var (
	// ErrSessionEnded marks failures after which the session's credentials
	// have been cleared: the refresh was rejected or no refresh token existed.
	ErrSessionEnded = apperrors.ErrSessionEnded

	// ErrRefreshFailed marks failures caused by the refresh call itself
	// rather than by the original request.
	ErrRefreshFailed = apperrors.ErrRefreshFailed

	// ErrResponseTooLarge is returned for a 2xx response whose body exceeds
	// the client's read limit.
	ErrResponseTooLarge = errors.New("response body too large")
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *StatusError) Unwrap() error {
	return apperrors.ErrUnexpectedStatus
}

// Unauthorized reports whether the server rejected the call's credential.
func (e *StatusError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// RefreshError is delivered to every call that was waiting on a refresh
// that failed. It matches both ErrRefreshFailed and ErrSessionEnded.
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrSessionEnded, ErrRefreshFailed, e.Err)
}

func (e *RefreshError) Unwrap() []error {
	return []error{ErrRefreshFailed, ErrSessionEnded, e.Err}
}
