package sessions_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-shop-session/sessions"
	"github.com/stretchr/testify/require"
)

func oldSession() *sessions.Session {
	expires := time.Now().Add(-time.Hour)
	return &sessions.Session{
		ID:                  "my-shop.myshopify.com_1",
		Shop:                "my-shop.myshopify.com",
		State:               "aaa",
		AccessToken:         "old-token",
		Scope:               "read_products,read_themes",
		AssociatedUserScope: "read_products",
		Expires:             &expires,
		AssociatedUser:      &sessions.AssociatedUser{ID: 1, FirstName: "Hello", LastName: "World"},
		IsOnline:            true,
		ExternalSessionID:   "123",
	}
}

func newSession() *sessions.Session {
	expires := time.Now().Add(24 * time.Hour)
	return &sessions.Session{
		ID:                  "some-other-id",
		Shop:                "my-shop.myshopify.com",
		AccessToken:         "new-token",
		Scope:               "write_products,read_themes",
		AssociatedUserScope: "write_products",
		Expires:             &expires,
		AssociatedUser:      &sessions.AssociatedUser{ID: 1, FirstName: "Hello", LastName: "Again"},
		IsOnline:            false,
		ExternalSessionID:   "456",
	}
}

func TestSession_Expired(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("no expiry never expires", func(t *testing.T) {
		s := &sessions.Session{ID: sessions.OfflineID("shop")}
		require.False(t, s.Expired(now))
	})

	t.Run("expiry in the past", func(t *testing.T) {
		past := now.Add(-time.Second)
		s := &sessions.Session{Expires: &past}
		require.True(t, s.Expired(now))
	})

	t.Run("expiry in the future", func(t *testing.T) {
		future := now.Add(time.Minute)
		s := &sessions.Session{Expires: &future}
		require.False(t, s.Expired(now))
	})
}

func TestSession_CopyAttributes(t *testing.T) {
	t.Run("overwrites credentials and keeps identity", func(t *testing.T) {
		to := oldSession()
		from := newSession()

		to.CopyAttributes(from)

		require.Equal(t, "my-shop.myshopify.com_1", to.ID)
		require.True(t, to.IsOnline)
		require.Equal(t, from.Shop, to.Shop)
		require.Empty(t, to.State)
		require.Equal(t, from.AccessToken, to.AccessToken)
		require.Equal(t, from.Scope, to.Scope)
		require.Equal(t, from.AssociatedUserScope, to.AssociatedUserScope)
		require.Equal(t, *from.Expires, *to.Expires)
		require.Equal(t, *from.AssociatedUser, *to.AssociatedUser)
		require.Equal(t, from.ExternalSessionID, to.ExternalSessionID)
	})

	t.Run("does not alias the source", func(t *testing.T) {
		to := oldSession()
		from := newSession()

		to.CopyAttributes(from)
		from.AssociatedUser.FirstName = "Changed"
		*from.Expires = from.Expires.Add(time.Hour)

		require.Equal(t, "Hello", to.AssociatedUser.FirstName)
		require.NotEqual(t, *from.Expires, *to.Expires)
	})

	t.Run("copying twice equals copying once", func(t *testing.T) {
		once := oldSession()
		twice := oldSession()
		from := newSession()

		once.CopyAttributes(from)
		twice.CopyAttributes(from)
		twice.CopyAttributes(from)

		require.Equal(t, once, twice)
	})

	t.Run("nil pointers are copied as nil", func(t *testing.T) {
		to := oldSession()
		to.CopyAttributes(&sessions.Session{Shop: "my-shop.myshopify.com", AccessToken: "offline"})

		require.Nil(t, to.Expires)
		require.Nil(t, to.AssociatedUser)
		require.Equal(t, "offline", to.AccessToken)
	})
}

func TestSessionIDs(t *testing.T) {
	require.Equal(t, "offline_my-shop.myshopify.com", sessions.OfflineID("my-shop.myshopify.com"))
	require.Equal(t, "my-shop.myshopify.com_42", sessions.OnlineID("my-shop.myshopify.com", "42"))
}

func TestSession_Scopes(t *testing.T) {
	s := &sessions.Session{Scope: "read_products, write_orders,,read_themes"}
	require.Equal(t, []string{"read_products", "write_orders", "read_themes"}, s.Scopes())
}
