package config

import "time"

const (
	SessionStoreMemory   = "memory"
	SessionStoreRedis    = "redis"
	SessionStorePostgres = "postgres"
)

type Store struct{}

var _ StoreConfig = Store{}

// GetSessionStore returns one of memory, redis or postgres.
func (Store) GetSessionStore() string {
	return GetEnv("SESSION_STORE", SessionStoreMemory)
}

func (Store) GetRedisURL() string {
	return GetEnv("REDIS_URL", "redis://localhost:6379/0")
}

func (Store) GetDatabaseURL() string {
	return GetEnv("DATABASE_URL", "")
}

// GetTokenEncryptionKey is a base64 key for encrypting access tokens at rest. Empty disables encryption.
func (Store) GetTokenEncryptionKey() string {
	return GetEnv("TOKEN_ENCRYPTION_KEY", "")
}

// GetSessionTTL bounds how long redis keeps a session. Zero keeps it until deleted.
func (Store) GetSessionTTL() time.Duration {
	return GetEnvDuration("SESSION_TTL", 0)
}
