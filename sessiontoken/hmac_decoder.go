package sessiontoken

import (
	"context"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

const defaultLeeway = 5 * time.Second

var _ Decoder = (*HMACDecoder)(nil)

// HMACDecoder verifies HS256 session tokens signed with the app's API secret.
type HMACDecoder struct {
	apiKey    string
	apiSecret []byte
	leeway    time.Duration
	nowTime   func() time.Time
}

// HMACDecoderOption configures an HMACDecoder.
type HMACDecoderOption func(*HMACDecoder)

// WithLeeway tolerates clock skew when checking exp/nbf/iat.
func WithLeeway(leeway time.Duration) HMACDecoderOption {
	return func(d *HMACDecoder) {
		d.leeway = leeway
	}
}

// WithNowTime sets the clock (primarily for testing).
func WithNowTime(nowFunc func() time.Time) HMACDecoderOption {
	return func(d *HMACDecoder) {
		d.nowTime = nowFunc
	}
}

// NewHMACDecoder returns a decoder that expects the token audience to be apiKey.
func NewHMACDecoder(apiKey, apiSecret string, options ...HMACDecoderOption) *HMACDecoder {
	d := &HMACDecoder{
		apiKey:    apiKey,
		apiSecret: []byte(apiSecret),
		leeway:    defaultLeeway,
		nowTime:   time.Now,
	}
	for _, opt := range options {
		opt(d)
	}
	return d
}

func (d *HMACDecoder) Decode(_ context.Context, rawToken string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwtlib.ParseWithClaims(rawToken, claims, func(*jwtlib.Token) (any, error) {
		return d.apiSecret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithAudience(d.apiKey),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithLeeway(d.leeway),
		jwtlib.WithTimeFunc(d.nowTime),
	)
	if err != nil {
		return nil, fmt.Errorf("[HMACDecoder.Decode] %w: %w", ErrInvalidSessionToken, err)
	}

	if claims.ShopDomain() == "" {
		return nil, fmt.Errorf("[HMACDecoder.Decode] %w: missing dest claim", ErrInvalidSessionToken)
	}
	// The issuer is the shop's admin URL and must point at the same shop as dest.
	if hostOf(claims.Issuer) != claims.ShopDomain() {
		return nil, fmt.Errorf("[HMACDecoder.Decode] %w: issuer and dest differ", ErrInvalidSessionToken)
	}
	return claims, nil
}
