package refresh

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	apperrors "github.com/jrsteele09/go-care-client/internal/errors"
	"golang.org/x/oauth2"
)

var _ Refresher = (*OAuth2Refresher)(nil)

// OAuth2Refresher performs the RFC 6749 refresh_token grant.
type OAuth2Refresher struct {
	config     *oauth2.Config
	httpClient *http.Client
}

// NewOAuth2 creates a refresher for a known token endpoint
func NewOAuth2(clientID, clientSecret, tokenURL string, httpClient *http.Client) *OAuth2Refresher {
	return newOAuth2(clientID, clientSecret, oauth2.Endpoint{TokenURL: tokenURL}, httpClient)
}

func newOAuth2(clientID, clientSecret string, endpoint oauth2.Endpoint, httpClient *http.Client) *OAuth2Refresher {
	if httpClient == nil {
		httpClient = NewHTTPClient()
	}

	// Auto-detection retries a rejected request with the other auth style,
	// which would issue two refresh calls for one refresh.
	endpoint.AuthStyle = oauth2.AuthStyleInParams
	if clientSecret != "" {
		endpoint.AuthStyle = oauth2.AuthStyleInHeader
	}

	return &OAuth2Refresher{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     endpoint,
		},
		httpClient: httpClient,
	}
}

// TokenURL returns the endpoint the grant is sent to
func (r *OAuth2Refresher) TokenURL() string {
	return r.config.Endpoint.TokenURL
}

func (r *OAuth2Refresher) Refresh(ctx context.Context, refreshToken string) (Result, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return Result{}, apperrors.ErrNoRefreshToken
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, r.httpClient)
	token, err := r.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			return Result{}, fmt.Errorf("[OAuth2Refresher Refresh] %s: %w", retrieveErr.ErrorCode, &StatusError{
				StatusCode: retrieveErr.Response.StatusCode,
				Body:       string(retrieveErr.Body),
			})
		}
		return Result{}, fmt.Errorf("[OAuth2Refresher Refresh] %w", err)
	}

	if strings.TrimSpace(token.AccessToken) == "" {
		return Result{}, apperrors.Wrapf(apperrors.ErrInvalidTokenPayload, "[OAuth2Refresher Refresh] response has no access token")
	}

	// The oauth2 package carries the old refresh token forward when the
	// issuer does not rotate it; report only a genuinely new one.
	result := Result{Access: token.AccessToken}
	if token.RefreshToken != refreshToken {
		result.Refresh = token.RefreshToken
	}
	return result, nil
}
