package config_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-care-client/internal/config"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	for _, v := range []string{"CARE_BASE_URL", "CARE_REFRESH_PATH", "CARE_REQUEST_TIMEOUT", "CARE_REFRESH_TIMEOUT", "CARE_RATE_LIMIT", "CARE_STORE", "CARE_ISSUER_MODE", "ENV"} {
		t.Setenv(v, "")
	}
	c := config.New()

	require.Equal(t, "http://localhost:8000", c.GetBaseURL())
	require.Equal(t, "/api/auth/token/refresh/", c.GetRefreshPath())
	require.Equal(t, 30*time.Second, c.GetRequestTimeout())
	require.Zero(t, c.GetRefreshTimeout())
	require.Zero(t, c.GetRateLimit())
	require.Equal(t, config.FileStore, c.GetStoreKind())
	require.Equal(t, config.SimpleJWTIssuer, c.GetIssuerMode())
	require.Equal(t, "DEV", c.GetEnv())
}

func TestConfig_FromEnvironment(t *testing.T) {
	t.Setenv("CARE_BASE_URL", "https://care.example.com/")
	t.Setenv("CARE_REFRESH_TIMEOUT", "5s")
	t.Setenv("CARE_REQUEST_TIMEOUT", "not-a-duration")
	t.Setenv("CARE_RATE_LIMIT", "2.5")
	t.Setenv("CARE_ISSUER_MODE", config.OIDCIssuer)
	c := config.New()

	require.Equal(t, "https://care.example.com", c.GetBaseURL())
	require.Equal(t, 5*time.Second, c.GetRefreshTimeout())
	require.Equal(t, 30*time.Second, c.GetRequestTimeout(), "malformed values fall back to the default")
	require.Equal(t, 2.5, c.GetRateLimit())
	require.Equal(t, config.OIDCIssuer, c.GetIssuerMode())
}
