package config

// Issuer modes understood by GetIssuerMode.
const (
	SimpleJWTIssuer = "simplejwt" // POST {"refresh": ...} -> {"access": ...}
	OAuth2Issuer    = "oauth2"    // RFC 6749 refresh_token grant against CARE_TOKEN_URL
	OIDCIssuer      = "oidc"      // refresh_token grant against the discovered token endpoint
)

type IssuerConfig interface {
	GetIssuerMode() string
	GetOAuthClientID() string
	GetOAuthClientSecret() string
	GetTokenURL() string
	GetOIDCIssuer() string
}

type Issuer struct{}

var _ IssuerConfig = Issuer{}

func (Issuer) GetIssuerMode() string {
	return GetEnv("CARE_ISSUER_MODE", SimpleJWTIssuer)
}

func (Issuer) GetOAuthClientID() string {
	return GetEnv("CARE_OAUTH_CLIENT_ID", "")
}

func (Issuer) GetOAuthClientSecret() string {
	return GetEnv("CARE_OAUTH_CLIENT_SECRET", "")
}

func (Issuer) GetTokenURL() string {
	return GetEnv("CARE_TOKEN_URL", "")
}

func (Issuer) GetOIDCIssuer() string {
	return GetEnv("CARE_OIDC_ISSUER", "")
}
