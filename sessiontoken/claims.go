package sessiontoken

import (
	"context"
	"errors"
	"net/url"
	"strings"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidSessionToken = errors.New("invalid session token")
	ErrShopMismatch        = errors.New("session token shop does not match request shop")
)

// Claims are the claims carried by an embedded app's session token.
type Claims struct {
	Dest      string `json:"dest"` // Shop URL, e.g. "https://my-shop.myshopify.com"
	SessionID string `json:"sid,omitempty"`
	jwtlib.RegisteredClaims
}

// ShopDomain returns the host of the dest claim.
func (c *Claims) ShopDomain() string {
	return hostOf(c.Dest)
}

// UserID returns the subject, the id of the user the token was issued for.
func (c *Claims) UserID() string {
	return c.Subject
}

// Decoder verifies a raw session token and returns its claims.
type Decoder interface {
	Decode(ctx context.Context, rawToken string) (*Claims, error)
}

func hostOf(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(rawURL, "/")
	}
	return u.Hostname()
}
