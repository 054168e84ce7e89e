package pgrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jrsteele09/go-shop-session/internal/tokencipher"
	"github.com/jrsteele09/go-shop-session/sessions"
)

// Schema creates the sessions table. It is safe to run repeatedly.
const Schema = `
CREATE TABLE IF NOT EXISTS shop_sessions (
	id                    TEXT PRIMARY KEY,
	shop                  TEXT NOT NULL,
	state                 TEXT NOT NULL DEFAULT '',
	access_token          TEXT NOT NULL,
	scope                 TEXT NOT NULL DEFAULT '',
	associated_user_scope TEXT NOT NULL DEFAULT '',
	expires_at            TIMESTAMPTZ NULL,
	associated_user       JSONB NULL,
	is_online             BOOLEAN NOT NULL DEFAULT FALSE,
	external_session_id   TEXT NOT NULL DEFAULT '',
	updated_at            TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS shop_sessions_shop_idx ON shop_sessions (shop);
`

var _ sessions.Repo = (*Repo)(nil)

// Repo implements sessions.Repo on PostgreSQL (shop_sessions).
type Repo struct {
	pool   *pgxpool.Pool
	cipher *tokencipher.Cipher
}

// Option configures a Repo.
type Option func(*Repo)

// WithCipher encrypts access tokens at rest.
func WithCipher(c *tokencipher.Cipher) Option {
	return func(r *Repo) {
		r.cipher = c
	}
}

func New(pool *pgxpool.Pool, options ...Option) *Repo {
	r := &Repo{pool: pool}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Connect opens a pool for databaseURL and verifies it.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("[pgrepo.Connect] %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("[pgrepo.Connect] ping: %w", err)
	}
	return pool, nil
}

// Migrate applies Schema.
func (r *Repo) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("[pgrepo.Migrate] %w", err)
	}
	return nil
}

func (r *Repo) Load(ctx context.Context, id string) (*sessions.Session, error) {
	var (
		session  sessions.Session
		expires  *time.Time
		userJSON []byte
	)

	err := r.pool.QueryRow(ctx, `
		SELECT
			id, shop, state, access_token, scope, associated_user_scope,
			expires_at, associated_user, is_online, external_session_id
		FROM shop_sessions
		WHERE id = $1
	`, id).Scan(
		&session.ID,
		&session.Shop,
		&session.State,
		&session.AccessToken,
		&session.Scope,
		&session.AssociatedUserScope,
		&expires,
		&userJSON,
		&session.IsOnline,
		&session.ExternalSessionID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sessions.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("[pgrepo.Load] %s: %w", id, err)
	}

	session.Expires = expires
	if len(userJSON) > 0 {
		var user sessions.AssociatedUser
		if err := json.Unmarshal(userJSON, &user); err != nil {
			return nil, fmt.Errorf("[pgrepo.Load] decode associated user %s: %w", id, err)
		}
		session.AssociatedUser = &user
	}

	if r.cipher != nil {
		token, err := r.cipher.Open(session.Shop, session.AccessToken)
		if err != nil {
			return nil, fmt.Errorf("[pgrepo.Load] open token %s: %w", id, err)
		}
		session.AccessToken = token
	}
	return &session, nil
}

func (r *Repo) Store(ctx context.Context, session *sessions.Session) error {
	accessToken := session.AccessToken
	if r.cipher != nil {
		sealed, err := r.cipher.Seal(session.Shop, accessToken)
		if err != nil {
			return fmt.Errorf("[pgrepo.Store] seal token %s: %w", session.ID, err)
		}
		accessToken = sealed
	}

	var userJSON []byte
	if session.AssociatedUser != nil {
		var err error
		if userJSON, err = json.Marshal(session.AssociatedUser); err != nil {
			return fmt.Errorf("[pgrepo.Store] encode associated user %s: %w", session.ID, err)
		}
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO shop_sessions (
			id, shop, state, access_token, scope, associated_user_scope,
			expires_at, associated_user, is_online, external_session_id, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		ON CONFLICT (id) DO UPDATE SET
			shop = EXCLUDED.shop,
			state = EXCLUDED.state,
			access_token = EXCLUDED.access_token,
			scope = EXCLUDED.scope,
			associated_user_scope = EXCLUDED.associated_user_scope,
			expires_at = EXCLUDED.expires_at,
			associated_user = EXCLUDED.associated_user,
			is_online = EXCLUDED.is_online,
			external_session_id = EXCLUDED.external_session_id,
			updated_at = now()
	`,
		session.ID,
		session.Shop,
		session.State,
		accessToken,
		session.Scope,
		session.AssociatedUserScope,
		session.Expires,
		userJSON,
		session.IsOnline,
		session.ExternalSessionID,
	)

	if err != nil {
		return fmt.Errorf("[pgrepo.Store] %s: %w", session.ID, err)
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM shop_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("[pgrepo.Delete] %s: %w", id, err)
	}
	return nil
}
