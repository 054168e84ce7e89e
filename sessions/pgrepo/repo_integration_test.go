package pgrepo_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jrsteele09/go-shop-session/sessions"
	"github.com/jrsteele09/go-shop-session/sessions/pgrepo"
	"github.com/stretchr/testify/require"
)

// Integration tests are enabled when DATABASE_URL is set.

func TestRepo_Integration(t *testing.T) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL is not set; skipping Postgres integration test")
	}

	ctx := context.Background()
	pool, err := pgrepo.Connect(ctx, dbURL)
	require.NoError(t, err)
	defer pool.Close()

	repo := pgrepo.New(pool)
	require.NoError(t, repo.Migrate(ctx))

	shop := "pgrepo-" + time.Now().Format("150405.000000") + ".myshopify.com"
	offline := &sessions.Session{
		ID:          sessions.OfflineID(shop),
		Shop:        shop,
		AccessToken: "offline-token",
		Scope:       "read_products",
	}
	t.Cleanup(func() { _ = repo.Delete(context.Background(), offline.ID) })

	_, err = repo.Load(ctx, offline.ID)
	require.ErrorIs(t, err, sessions.ErrSessionNotFound)

	require.NoError(t, repo.Store(ctx, offline))

	loaded, err := repo.Load(ctx, offline.ID)
	require.NoError(t, err)
	require.Equal(t, offline, loaded)

	offline.AccessToken = "rotated-token"
	require.NoError(t, repo.Store(ctx, offline))

	loaded, err = repo.Load(ctx, offline.ID)
	require.NoError(t, err)
	require.Equal(t, "rotated-token", loaded.AccessToken)

	require.NoError(t, repo.Delete(ctx, offline.ID))
	_, err = repo.Load(ctx, offline.ID)
	require.ErrorIs(t, err, sessions.ErrSessionNotFound)
}
