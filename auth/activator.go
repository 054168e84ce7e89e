package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-shop-session/adminapi"
	"github.com/jrsteele09/go-shop-session/sessions"
	"github.com/rs/zerolog/log"
)

// KeyResolver derives the store key of the session a request should use.
// ok is false when the request does not identify any session.
type KeyResolver interface {
	SessionKey(ctx context.Context, bearerToken, shop string, online bool) (key string, ok bool, err error)
}

// Request is the part of an inbound request needed to resolve its session.
type Request struct {
	Authorization string // Raw Authorization header, "Bearer <session token>"
	Shop          string // Shop named by the request (e.g. ?shop=), may be empty
}

// NewRequest extracts a Request from an HTTP request. An invalid ?shop= is ignored.
func NewRequest(r *http.Request) Request {
	return Request{
		Authorization: r.Header.Get("Authorization"),
		Shop:          SanitizeShopDomain(r.URL.Query().Get("shop")),
	}
}

// BearerToken returns the token of a "Bearer <token>" header.
func BearerToken(authorization string) (string, bool) {
	token, found := strings.CutPrefix(authorization, "Bearer ")
	token = strings.TrimSpace(token)
	return token, found && token != ""
}

// Activator resolves the session for a request, exchanging the session token when no usable
// session is stored, and runs protected operations with that session active.
type Activator struct {
	repo               sessions.Repo
	resolver           KeyResolver
	exchanger          Exchanger
	refetcher          *Refetcher
	observer           Observer
	checkSessionExpiry bool
	onlineTokens       bool
	nowTime            func() time.Time
}

// ActivatorOption defines a function type to modify the Activator instance.
type ActivatorOption func(*Activator)

// WithCheckSessionExpiry exchanges the token again when the stored session has expired.
// When disabled a stored session is reused regardless of its expiry.
func WithCheckSessionExpiry(check bool) ActivatorOption {
	return func(a *Activator) {
		a.checkSessionExpiry = check
	}
}

// WithOnlineTokens resolves user-bound (online) sessions instead of the shop's offline session.
func WithOnlineTokens(online bool) ActivatorOption {
	return func(a *Activator) {
		a.onlineTokens = online
	}
}

// WithObserver registers an observer of session lifecycle events.
func WithObserver(observer Observer) ActivatorOption {
	return func(a *Activator) {
		if observer != nil {
			a.observer = observer
		}
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ActivatorOption {
	return func(a *Activator) {
		a.nowTime = nowFunc
	}
}

// NewActivator initializes an Activator with its required collaborators.
func NewActivator(repo sessions.Repo, resolver KeyResolver, exchanger Exchanger, options ...ActivatorOption) (*Activator, error) {
	if repo == nil {
		return nil, errors.New("[NewActivator] session repo is required")
	}
	if resolver == nil {
		return nil, errors.New("[NewActivator] key resolver is required")
	}
	if exchanger == nil {
		return nil, errors.New("[NewActivator] exchanger is required")
	}

	a := &Activator{
		repo:      repo,
		resolver:  resolver,
		exchanger: exchanger,
		observer:  noopObserver{},
		nowTime:   time.Now,
	}
	for _, opt := range options {
		opt(a)
	}
	a.refetcher = NewRefetcher(exchanger, a.observer)
	return a, nil
}

// Run is Activate for operations without a result.
func (a *Activator) Run(ctx context.Context, req Request, op func(ctx context.Context) error) error {
	_, err := Activate(ctx, a, req, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// Activate resolves the request's session and runs op with it active in op's context
// (see SessionFromContext). A 401 from op on a stored session is recovered once by token exchange.
// If it persists, or the session was just exchanged, the session is deleted from the store and
// the 401 is returned.
func Activate[T any](ctx context.Context, a *Activator, req Request, op Operation[T]) (T, error) {
	var zero T

	bearerToken, ok := BearerToken(req.Authorization)
	if !ok {
		return zero, MissingSessionTokenErr
	}

	rs := &requestSession{activator: a, bearerToken: bearerToken, shop: req.Shop}
	session, err := rs.current(ctx)
	if err != nil {
		return zero, err
	}

	// A request makes at most one token exchange: once the session comes from an exchange,
	// a 401 from op is terminal.
	attempts := maxAttempts
	switch {
	case session == nil:
		session, err = rs.exchange(ctx, ExchangeReasonMissing)
		attempts = 1
	case a.checkSessionExpiry && session.Expired(a.nowTime()):
		session, err = rs.exchange(ctx, ExchangeReasonExpired)
		attempts = 1
	}
	if err != nil {
		return zero, err
	}
	if session == nil {
		return zero, SessionUnavailableErr
	}

	return runActivated(ctx, a, session, bearerToken, op, attempts)
}

func runActivated[T any](ctx context.Context, a *Activator, session *sessions.Session, bearerToken string, op Operation[T], attempts int) (result T, err error) {
	logger := log.Ctx(ctx).With().Str("session_id", session.ID).Logger()

	logger.Debug().Msg("Activating session")
	ctx = WithSession(ctx, session)
	a.observer.Activated(ctx, session)
	defer func() {
		logger.Debug().Msg("Deactivating session")
		a.observer.Deactivated(ctx, session)
	}()

	result, err = withTokenRefetch(ctx, a.refetcher, session, bearerToken, op, attempts)
	if err != nil && adminapi.IsUnauthorized(err) {
		logger.Debug().Msg("Admin API returned a 401 Unauthorized error, deleting current session")
		if deleteErr := a.repo.Delete(ctx, session.ID); deleteErr != nil {
			return result, errors.Join(err, fmt.Errorf("[Activate] delete session %s: %w", session.ID, deleteErr))
		}
		a.observer.SessionDeleted(ctx, session)
	}
	return result, err
}

// requestSession memoizes the session key and session resolved for one request.
type requestSession struct {
	activator   *Activator
	bearerToken string
	shop        string
	key         string
	session     *sessions.Session
}

// current returns the memoized session, resolving and loading it on first use.
// A nil session with a nil error means nothing is stored for the request.
func (rs *requestSession) current(ctx context.Context) (*sessions.Session, error) {
	if rs.session != nil {
		return rs.session, nil
	}

	if rs.key == "" {
		key, ok, err := rs.activator.resolver.SessionKey(ctx, rs.bearerToken, rs.shop, rs.activator.onlineTokens)
		if err != nil {
			return nil, fmt.Errorf("[Activate] resolve session key: %w", err)
		}
		if !ok {
			return nil, nil
		}
		rs.key = key
	}

	session, err := rs.activator.repo.Load(ctx, rs.key)
	if errors.Is(err, sessions.ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[Activate] load session %s: %w", rs.key, err)
	}
	rs.session = session
	return session, nil
}

// exchange drops the memoized session and key, performs a token exchange (which stores the
// resulting sessions) and resolves again.
func (rs *requestSession) exchange(ctx context.Context, reason ExchangeReason) (*sessions.Session, error) {
	rs.session = nil
	rs.key = ""

	log.Ctx(ctx).Debug().Str("reason", string(reason)).Msg("Retrieving session from token exchange")
	if _, err := rs.activator.exchanger.Exchange(ctx, rs.bearerToken); err != nil {
		return nil, err
	}
	rs.activator.observer.Exchanged(ctx, reason)
	return rs.current(ctx)
}
