package config

type Config interface {
	EnvConfig
	ClientConfig
	IssuerConfig
}

type EnvConfig interface {
	GetAppName() string
	GetBaseURL() string
	GetDataFolder() string
	GetLogLevel() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
	Client
	Issuer
}

func New() Config {
	return mainConfig{}
}
