package sessiontoken_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-shop-session/sessiontoken"
	"github.com/stretchr/testify/require"
)

const (
	testAPIKey    = "api-key"
	testAPISecret = "api-secret"
	testShop      = "my-shop.myshopify.com"
	testUserID    = "42"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func sessionTokenClaims() sessiontoken.Claims {
	return sessiontoken.Claims{
		Dest:      "https://" + testShop,
		SessionID: "sid-1",
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    "https://" + testShop + "/admin",
			Subject:   testUserID,
			Audience:  jwtlib.ClaimStrings{testAPIKey},
			ExpiresAt: jwtlib.NewNumericDate(testNow.Add(time.Minute)),
			NotBefore: jwtlib.NewNumericDate(testNow.Add(-time.Minute)),
			IssuedAt:  jwtlib.NewNumericDate(testNow.Add(-time.Minute)),
		},
	}
}

func signHMAC(t *testing.T, claims sessiontoken.Claims, secret string) string {
	t.Helper()
	raw, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return raw
}

func newHMACDecoder() *sessiontoken.HMACDecoder {
	return sessiontoken.NewHMACDecoder(testAPIKey, testAPISecret,
		sessiontoken.WithNowTime(func() time.Time { return testNow }))
}

func TestHMACDecoder_Decode(t *testing.T) {
	d := newHMACDecoder()
	ctx := context.Background()

	t.Run("valid token", func(t *testing.T) {
		claims, err := d.Decode(ctx, signHMAC(t, sessionTokenClaims(), testAPISecret))
		require.NoError(t, err)
		require.Equal(t, testShop, claims.ShopDomain())
		require.Equal(t, testUserID, claims.UserID())
		require.Equal(t, "sid-1", claims.SessionID)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := d.Decode(ctx, signHMAC(t, sessionTokenClaims(), "other-secret"))
		require.ErrorIs(t, err, sessiontoken.ErrInvalidSessionToken)
	})

	t.Run("wrong audience", func(t *testing.T) {
		claims := sessionTokenClaims()
		claims.Audience = jwtlib.ClaimStrings{"someone-else"}
		_, err := d.Decode(ctx, signHMAC(t, claims, testAPISecret))
		require.ErrorIs(t, err, sessiontoken.ErrInvalidSessionToken)
	})

	t.Run("expired token", func(t *testing.T) {
		claims := sessionTokenClaims()
		claims.ExpiresAt = jwtlib.NewNumericDate(testNow.Add(-time.Minute))
		_, err := d.Decode(ctx, signHMAC(t, claims, testAPISecret))
		require.ErrorIs(t, err, sessiontoken.ErrInvalidSessionToken)
		require.ErrorIs(t, err, jwtlib.ErrTokenExpired)
	})

	t.Run("issuer for another shop", func(t *testing.T) {
		claims := sessionTokenClaims()
		claims.Issuer = "https://evil-shop.myshopify.com/admin"
		_, err := d.Decode(ctx, signHMAC(t, claims, testAPISecret))
		require.ErrorIs(t, err, sessiontoken.ErrInvalidSessionToken)
	})

	t.Run("not a jwt", func(t *testing.T) {
		_, err := d.Decode(ctx, "garbage")
		require.ErrorIs(t, err, sessiontoken.ErrInvalidSessionToken)
	})
}

func TestKeyResolver_SessionKey(t *testing.T) {
	r := sessiontoken.NewKeyResolver(newHMACDecoder())
	ctx := context.Background()
	token := signHMAC(t, sessionTokenClaims(), testAPISecret)

	t.Run("offline key", func(t *testing.T) {
		key, ok, err := r.SessionKey(ctx, token, "", false)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "offline_"+testShop, key)
	})

	t.Run("online key", func(t *testing.T) {
		key, ok, err := r.SessionKey(ctx, token, testShop, true)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, testShop+"_"+testUserID, key)
	})

	t.Run("no token", func(t *testing.T) {
		key, ok, err := r.SessionKey(ctx, "", testShop, true)
		require.NoError(t, err)
		require.False(t, ok)
		require.Empty(t, key)
	})

	t.Run("request shop differs from token shop", func(t *testing.T) {
		_, _, err := r.SessionKey(ctx, token, "other-shop.myshopify.com", false)
		require.ErrorIs(t, err, sessiontoken.ErrShopMismatch)
	})

	t.Run("online mode without subject", func(t *testing.T) {
		claims := sessionTokenClaims()
		claims.Subject = ""
		_, _, err := r.SessionKey(ctx, signHMAC(t, claims, testAPISecret), "", true)
		require.ErrorIs(t, err, sessiontoken.ErrInvalidSessionToken)
	})
}

func TestOIDCDecoder_Decode(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	jwks := map[string]any{
		"keys": []map[string]string{{
			"kty": "RSA",
			"kid": "k1",
			"alg": "RS256",
			"use": "sig",
			"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(jwks)
	}))
	defer srv.Close()

	issuer := "https://issuer.example.com"
	ctx := context.Background()
	d := sessiontoken.NewOIDCDecoder(ctx, issuer, srv.URL, testAPIKey, func() time.Time { return testNow })

	sign := func(claims sessiontoken.Claims) string {
		token := jwtlib.NewWithClaims(jwtlib.SigningMethodRS256, claims)
		token.Header["kid"] = "k1"
		raw, err := token.SignedString(key)
		require.NoError(t, err)
		return raw
	}

	t.Run("valid token", func(t *testing.T) {
		claims := sessionTokenClaims()
		claims.Issuer = issuer
		decoded, err := d.Decode(ctx, sign(claims))
		require.NoError(t, err)
		require.Equal(t, testShop, decoded.ShopDomain())
		require.Equal(t, testUserID, decoded.UserID())
	})

	t.Run("wrong issuer", func(t *testing.T) {
		_, err := d.Decode(ctx, sign(sessionTokenClaims()))
		require.ErrorIs(t, err, sessiontoken.ErrInvalidSessionToken)
	})
}
