package auth

import (
	"context"

	"github.com/jrsteele09/go-shop-session/sessions"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeySession stores the active session for the current request
	ContextKeySession ContextKey = "shop_session"
)

// WithSession returns a context in which session is the active session.
func WithSession(ctx context.Context, session *sessions.Session) context.Context {
	return context.WithValue(ctx, ContextKeySession, session)
}

// SessionFromContext returns the active session, if one has been activated for ctx.
func SessionFromContext(ctx context.Context) (*sessions.Session, bool) {
	session, ok := ctx.Value(ContextKeySession).(*sessions.Session)
	return session, ok && session != nil
}
