package config

import "time"

type Config interface {
	EnvConfig
	CorsConfig
	AppConfig
	StoreConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

// AppConfig describes the Shopify app the service authenticates as.
type AppConfig interface {
	GetAPIKey() string
	GetAPISecretKey() string
	GetAPIVersion() string
	GetCheckSessionExpiryDate() bool
	GetOnlineTokenConfigured() bool
	GetSessionTokenLeeway() time.Duration
	GetSessionTokenIssuer() string
	GetSessionTokenJWKSURL() string
	GetTokenURL() string
	GetAdminBaseURL() string
}

// StoreConfig selects and configures the session store.
type StoreConfig interface {
	GetSessionStore() string
	GetRedisURL() string
	GetDatabaseURL() string
	GetTokenEncryptionKey() string
	GetSessionTTL() time.Duration
}

type mainConfig struct {
	EnvVars
	Cors
	App
	Store
}

func New() Config {
	return mainConfig{}
}
