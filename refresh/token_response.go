package refresh

import (
	"strings"

	"github.com/jrsteele09/go-care-client/internal/utils"
)

// tokenResponse is the issuer's refresh response body. Both the
// djangorestframework-simplejwt field names ("access", "refresh") and the
// RFC 6749 names ("access_token", "refresh_token") are accepted.
type tokenResponse struct {
	// Access is the new short-lived token (simplejwt naming).
	Access *string `json:"access,omitempty"`

	// Refresh is only present when the issuer rotates refresh tokens.
	Refresh *string `json:"refresh,omitempty"`

	// AccessToken is the RFC 6749 name for Access.
	AccessToken *string `json:"access_token,omitempty"`

	// RefreshToken is the RFC 6749 name for Refresh.
	RefreshToken *string `json:"refresh_token,omitempty"`

	TokenType string `json:"token_type,omitempty"`
	ExpiresIn int    `json:"expires_in,omitempty"`
}

func (r tokenResponse) result() Result {
	return Result{
		Access:  strings.TrimSpace(utils.FirstNonBlank(utils.Value(r.Access), utils.Value(r.AccessToken))),
		Refresh: strings.TrimSpace(utils.FirstNonBlank(utils.Value(r.Refresh), utils.Value(r.RefreshToken))),
	}
}
