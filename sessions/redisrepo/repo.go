package redisrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/go-shop-session/internal/tokencipher"
	"github.com/jrsteele09/go-shop-session/sessions"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "shop_session:"

var _ sessions.Repo = (*Repo)(nil)

// Repo stores sessions as JSON documents in Redis.
type Repo struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
	cipher    *tokencipher.Cipher
}

// Option configures a Repo.
type Option func(*Repo)

// WithKeyPrefix namespaces the Redis keys.
func WithKeyPrefix(prefix string) Option {
	return func(r *Repo) {
		r.keyPrefix = prefix
	}
}

// WithTTL expires stored sessions after ttl. Zero keeps them until deleted.
func WithTTL(ttl time.Duration) Option {
	return func(r *Repo) {
		r.ttl = ttl
	}
}

// WithCipher encrypts access tokens at rest.
func WithCipher(c *tokencipher.Cipher) Option {
	return func(r *Repo) {
		r.cipher = c
	}
}

func New(client redis.UniversalClient, options ...Option) *Repo {
	r := &Repo{
		client:    client,
		keyPrefix: defaultKeyPrefix,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// NewFromURL parses a redis:// URL and verifies the connection.
func NewFromURL(ctx context.Context, url string, options ...Option) (*Repo, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("[redisrepo.NewFromURL] parse url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("[redisrepo.NewFromURL] ping: %w", err)
	}
	return New(client, options...), nil
}

func (r *Repo) Load(ctx context.Context, id string) (*sessions.Session, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sessions.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("[redisrepo.Load] get %s: %w", id, err)
	}

	var session sessions.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("[redisrepo.Load] decode %s: %w", id, err)
	}

	if r.cipher != nil && session.AccessToken != "" {
		token, err := r.cipher.Open(session.Shop, session.AccessToken)
		if err != nil {
			return nil, fmt.Errorf("[redisrepo.Load] open token %s: %w", id, err)
		}
		session.AccessToken = token
	}
	return &session, nil
}

func (r *Repo) Store(ctx context.Context, session *sessions.Session) error {
	stored := session.Clone()
	if r.cipher != nil && stored.AccessToken != "" {
		sealed, err := r.cipher.Seal(stored.Shop, stored.AccessToken)
		if err != nil {
			return fmt.Errorf("[redisrepo.Store] seal token %s: %w", session.ID, err)
		}
		stored.AccessToken = sealed
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("[redisrepo.Store] encode %s: %w", session.ID, err)
	}

	if err := r.client.Set(ctx, r.key(session.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("[redisrepo.Store] set %s: %w", session.ID, err)
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("[redisrepo.Delete] del %s: %w", id, err)
	}
	return nil
}

// Close releases the underlying client.
func (r *Repo) Close() error {
	return r.client.Close()
}

func (r *Repo) key(id string) string {
	return r.keyPrefix + id
}
