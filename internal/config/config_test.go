package config_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-shop-session/internal/config"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	for _, name := range []string{"PORT", "ENV", "LOG_LEVEL", "SESSION_STORE", "CHECK_SESSION_EXPIRY_DATE", "ONLINE_TOKEN_CONFIGURED", "SESSION_TOKEN_LEEWAY", "ALLOWED_ORIGINS", "SESSION_TTL"} {
		t.Setenv(name, "")
	}
	c := config.New()

	require.Equal(t, ":8080", c.GetPort())
	require.Equal(t, "DEV", c.GetEnv())
	require.Equal(t, "debug", c.GetLogLevel())
	require.Equal(t, config.SessionStoreMemory, c.GetSessionStore())
	require.False(t, c.GetCheckSessionExpiryDate())
	require.False(t, c.GetOnlineTokenConfigured())
	require.Equal(t, 5*time.Second, c.GetSessionTokenLeeway())
	require.Zero(t, c.GetSessionTTL())
	require.True(t, c.GetAllowedOrigins().IsAllowedOrigin("https://admin.shopify.com"))
}

func TestConfig_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", ":9090")
	t.Setenv("ENV", "PROD")
	t.Setenv("SESSION_STORE", "redis")
	t.Setenv("CHECK_SESSION_EXPIRY_DATE", "true")
	t.Setenv("ONLINE_TOKEN_CONFIGURED", "1")
	t.Setenv("SESSION_TOKEN_LEEWAY", "30s")
	t.Setenv("SESSION_TTL", "not-a-duration")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("LOG_LEVEL", "")
	c := config.New()

	require.Equal(t, ":9090", c.GetPort())
	require.Equal(t, "info", c.GetLogLevel())
	require.Equal(t, config.SessionStoreRedis, c.GetSessionStore())
	require.True(t, c.GetCheckSessionExpiryDate())
	require.True(t, c.GetOnlineTokenConfigured())
	require.Equal(t, 30*time.Second, c.GetSessionTokenLeeway())
	require.Zero(t, c.GetSessionTTL())
	require.Equal(t, "https://a.example, https://b.example", c.GetAllowedOrigins().String())
}
