package config

import "time"

// Store kinds understood by GetStoreKind.
const (
	MemoryStore = "memory"
	FileStore   = "file"
)

type ClientConfig interface {
	GetRefreshPath() string
	GetRequestTimeout() time.Duration
	GetRefreshTimeout() time.Duration
	GetRateLimit() float64
	GetUserAgent() string
	GetStoreKind() string
	GetSessionName() string
}

type Client struct{}

var _ ClientConfig = Client{}

func (Client) GetRefreshPath() string {
	return GetEnv("CARE_REFRESH_PATH", "/api/auth/token/refresh/")
}

func (Client) GetRequestTimeout() time.Duration {
	return GetDurationEnv("CARE_REQUEST_TIMEOUT", 30*time.Second)
}

// GetRefreshTimeout bounds the refresh call. Zero means no timeout.
func (Client) GetRefreshTimeout() time.Duration {
	return GetDurationEnv("CARE_REFRESH_TIMEOUT", 0)
}

// GetRateLimit is the outbound requests-per-second ceiling. Zero disables it.
func (Client) GetRateLimit() float64 {
	return GetFloatEnv("CARE_RATE_LIMIT", 0)
}

func (Client) GetUserAgent() string {
	return GetEnv("CARE_USER_AGENT", "go-care-client")
}

func (Client) GetStoreKind() string {
	return GetEnv("CARE_STORE", FileStore)
}

func (Client) GetSessionName() string {
	return GetEnv("CARE_SESSION", "session")
}
