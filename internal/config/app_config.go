package config

import "time"

type App struct{}

var _ AppConfig = App{}

func (App) GetAPIKey() string {
	return GetEnv("SHOPIFY_API_KEY", "")
}

func (App) GetAPISecretKey() string {
	return GetEnv("SHOPIFY_API_SECRET", "")
}

func (App) GetAPIVersion() string {
	return GetEnv("SHOPIFY_API_VERSION", "2024-10")
}

// GetCheckSessionExpiryDate re-exchanges the session token when a stored session has expired.
func (App) GetCheckSessionExpiryDate() bool {
	return GetEnvBool("CHECK_SESSION_EXPIRY_DATE", false)
}

// GetOnlineTokenConfigured activates user-bound sessions instead of the shop's offline session.
func (App) GetOnlineTokenConfigured() bool {
	return GetEnvBool("ONLINE_TOKEN_CONFIGURED", false)
}

func (App) GetSessionTokenLeeway() time.Duration {
	return GetEnvDuration("SESSION_TOKEN_LEEWAY", 5*time.Second)
}

// GetSessionTokenIssuer and GetSessionTokenJWKSURL switch session token verification from the
// shared API secret to an OIDC key set when both are set.
func (App) GetSessionTokenIssuer() string {
	return GetEnv("SESSION_TOKEN_ISSUER", "")
}

func (App) GetSessionTokenJWKSURL() string {
	return GetEnv("SESSION_TOKEN_JWKS_URL", "")
}

// GetTokenURL overrides the per-shop token endpoint, mostly for local development.
func (App) GetTokenURL() string {
	return GetEnv("SHOPIFY_TOKEN_URL", "")
}

// GetAdminBaseURL overrides the per-shop Admin API base URL, mostly for local development.
func (App) GetAdminBaseURL() string {
	return GetEnv("SHOPIFY_ADMIN_BASE_URL", "")
}
