package auth

import (
	"context"

	"github.com/jrsteele09/go-shop-session/sessions"
)

// ExchangeReason says why a token exchange was performed.
type ExchangeReason string

const (
	ExchangeReasonMissing      ExchangeReason = "missing"      // No session stored for the request
	ExchangeReasonExpired      ExchangeReason = "expired"      // Stored session past its expiry
	ExchangeReasonUnauthorized ExchangeReason = "unauthorized" // Admin API rejected the access token
)

// Observer is notified of session lifecycle events, e.g. for metrics.
type Observer interface {
	Activated(ctx context.Context, session *sessions.Session)
	Deactivated(ctx context.Context, session *sessions.Session)
	Exchanged(ctx context.Context, reason ExchangeReason)
	SessionDeleted(ctx context.Context, session *sessions.Session)
}

type noopObserver struct{}

func (noopObserver) Activated(context.Context, *sessions.Session)      {}
func (noopObserver) Deactivated(context.Context, *sessions.Session)    {}
func (noopObserver) Exchanged(context.Context, ExchangeReason)         {}
func (noopObserver) SessionDeleted(context.Context, *sessions.Session) {}
