// Package refresh talks to the credential-issuance endpoint. Refreshers use
// their own plain HTTP client and never attach the (expired) access token.
package refresh

import (
	"context"
	"fmt"
	"net/http"

	apperrors "github.com/jrsteele09/go-care-client/internal/errors"
)

// ErrRejected is matched by errors from an issuer that refused the refresh
// token with an authorization failure.
var ErrRejected = apperrors.ErrRefreshRejected

// Result is the outcome of a successful refresh. Refresh is empty when the
// issuer did not rotate the refresh token.
type Result struct {
	Access  string
	Refresh string
}

// Refresher exchanges a refresh token for a new access token.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (Result, error)
}

// StatusError is returned when the issuer answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("issuer returned status %d", e.StatusCode)
}

// Unwrap exposes ErrRejected for authorization failures. An OAuth2
// invalid_grant (400) is the same rejection expressed per RFC 6749.
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusBadRequest:
		return ErrRejected
	}
	return apperrors.ErrUnexpectedStatus
}

// NewHTTPClient returns the unauthenticated client refreshers use.
func NewHTTPClient() *http.Client {
	return &http.Client{Transport: http.DefaultTransport}
}
