package sessiontoken

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-shop-session/sessions"
)

// KeyResolver derives the session store key for a request from its session token.
type KeyResolver struct {
	decoder Decoder
}

func NewKeyResolver(decoder Decoder) *KeyResolver {
	return &KeyResolver{decoder: decoder}
}

// SessionKey returns the online key (shop + user) when online is set, else the shop's offline key.
// An empty token yields no key. A non-empty shop must match the shop the token was issued for.
func (r *KeyResolver) SessionKey(ctx context.Context, bearerToken, shop string, online bool) (string, bool, error) {
	if bearerToken == "" {
		return "", false, nil
	}

	claims, err := r.decoder.Decode(ctx, bearerToken)
	if err != nil {
		return "", false, err
	}

	tokenShop := claims.ShopDomain()
	if shop != "" && shop != tokenShop {
		return "", false, fmt.Errorf("[KeyResolver.SessionKey] %w: %q != %q", ErrShopMismatch, shop, tokenShop)
	}

	if online {
		if claims.UserID() == "" {
			return "", false, fmt.Errorf("[KeyResolver.SessionKey] %w: missing sub claim", ErrInvalidSessionToken)
		}
		return sessions.OnlineID(tokenShop, claims.UserID()), true, nil
	}
	return sessions.OfflineID(tokenShop), true, nil
}
