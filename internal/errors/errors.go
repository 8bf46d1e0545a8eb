package errors

import (
	"errors"
	"fmt"
)

// Common error types for the care client
var (
	// Session errors
	ErrSessionEnded  = errors.New("session ended")
	ErrRefreshFailed = errors.New("credential refresh failed")

	// Credential issuance errors
	ErrRefreshRejected     = errors.New("refresh token rejected")
	ErrNoRefreshToken      = errors.New("no refresh token")
	ErrInvalidTokenPayload = errors.New("invalid token payload")

	// Call errors
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrInvalidRequest   = errors.New("invalid request")

	// General errors
	ErrUnsupported = errors.New("unsupported operation")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
