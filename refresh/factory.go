package refresh

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-care-client/internal/config"
	apperrors "github.com/jrsteele09/go-care-client/internal/errors"
)

// New creates the Refresher selected by the issuer mode in cfg.
func New(ctx context.Context, cfg config.Config, httpClient *http.Client) (Refresher, error) {
	switch mode := cfg.GetIssuerMode(); mode {
	case config.SimpleJWTIssuer:
		return NewSimpleJWT(cfg.GetBaseURL()+cfg.GetRefreshPath(), httpClient), nil

	case config.OAuth2Issuer:
		if cfg.GetTokenURL() == "" {
			return nil, apperrors.Wrapf(apperrors.ErrInvalidRequest, "[refresh New] %s mode needs CARE_TOKEN_URL", mode)
		}
		return NewOAuth2(cfg.GetOAuthClientID(), cfg.GetOAuthClientSecret(), cfg.GetTokenURL(), httpClient), nil

	case config.OIDCIssuer:
		if cfg.GetOIDCIssuer() == "" {
			return nil, apperrors.Wrapf(apperrors.ErrInvalidRequest, "[refresh New] %s mode needs CARE_OIDC_ISSUER", mode)
		}
		r, err := NewOIDC(ctx, cfg.GetOIDCIssuer(), cfg.GetOAuthClientID(), cfg.GetOAuthClientSecret(), httpClient)
		if err != nil {
			return nil, err
		}
		return r, nil

	default:
		return nil, fmt.Errorf("[refresh New] issuer mode %q: %w", mode, apperrors.ErrUnsupported)
	}
}
