package sessiontoken

import (
	"context"
	"fmt"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
)

var _ Decoder = (*OIDCDecoder)(nil)

// OIDCDecoder verifies asymmetrically signed session tokens against a remote JWKS,
// for deployments where session tokens are minted by an OIDC provider.
type OIDCDecoder struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCDecoder builds a verifier for tokens issued by issuer for clientID. Keys are fetched
// lazily from jwksURL using the HTTP client carried by ctx (see oidc.ClientContext).
func NewOIDCDecoder(ctx context.Context, issuer, jwksURL, clientID string, nowTime func() time.Time) *OIDCDecoder {
	if nowTime == nil {
		nowTime = time.Now
	}
	keySet := oidc.NewRemoteKeySet(ctx, jwksURL)
	return &OIDCDecoder{
		verifier: oidc.NewVerifier(issuer, keySet, &oidc.Config{
			ClientID: clientID,
			Now:      nowTime,
		}),
	}
}

func (d *OIDCDecoder) Decode(ctx context.Context, rawToken string) (*Claims, error) {
	idToken, err := d.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, fmt.Errorf("[OIDCDecoder.Decode] %w: %w", ErrInvalidSessionToken, err)
	}

	claims := &Claims{}
	if err := idToken.Claims(claims); err != nil {
		return nil, fmt.Errorf("[OIDCDecoder.Decode] %w: %w", ErrInvalidSessionToken, err)
	}
	if claims.ShopDomain() == "" {
		return nil, fmt.Errorf("[OIDCDecoder.Decode] %w: missing dest claim", ErrInvalidSessionToken)
	}
	return claims, nil
}
