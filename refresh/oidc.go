package refresh

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
)

// NewOIDC discovers the issuer's token endpoint from its
// /.well-known/openid-configuration document and returns a refresh_token
// grant refresher bound to it.
func NewOIDC(ctx context.Context, issuer, clientID, clientSecret string, httpClient *http.Client) (*OAuth2Refresher, error) {
	if httpClient == nil {
		httpClient = NewHTTPClient()
	}

	provider, err := oidc.NewProvider(oidc.ClientContext(ctx, httpClient), issuer)
	if err != nil {
		return nil, fmt.Errorf("[refresh NewOIDC] failed to discover issuer %s: %w", issuer, err)
	}

	endpoint := provider.Endpoint()
	if endpoint.TokenURL == "" {
		return nil, fmt.Errorf("[refresh NewOIDC] issuer %s advertises no token endpoint", issuer)
	}
	return newOAuth2(clientID, clientSecret, endpoint, httpClient), nil
}
