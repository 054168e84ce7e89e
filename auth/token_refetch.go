package auth

import (
	"context"
	"errors"

	"github.com/jrsteele09/go-shop-session/adminapi"
	"github.com/jrsteele09/go-shop-session/sessions"
	"github.com/rs/zerolog/log"
)

// maxAttempts bounds an operation to its first run plus one retry after a token exchange.
const maxAttempts = 2

// Operation is a protected call made with the active session, e.g. an Admin API request.
type Operation[T any] func(ctx context.Context) (T, error)

// Exchanger trades a session token for a fresh session, persisting the result.
type Exchanger interface {
	Exchange(ctx context.Context, bearerToken string) (*sessions.Session, error)
}

// Refetcher recovers from a rejected access token by exchanging the session token once and
// retrying the operation with the refreshed session.
type Refetcher struct {
	exchanger Exchanger
	observer  Observer
}

// NewRefetcher returns a Refetcher. A nil observer is allowed.
func NewRefetcher(exchanger Exchanger, observer Observer) *Refetcher {
	if observer == nil {
		observer = noopObserver{}
	}
	return &Refetcher{exchanger: exchanger, observer: observer}
}

// WithTokenRefetch runs op. If op fails with an Admin API 401 on its first attempt, bearerToken is
// exchanged, the fresh credentials are copied onto session in place and op runs once more.
// Any other failure, a second 401, or a failed exchange is returned unchanged.
// WithTokenRefetch never deletes sessions.
func WithTokenRefetch[T any](ctx context.Context, r *Refetcher, session *sessions.Session, bearerToken string, op Operation[T]) (T, error) {
	return withTokenRefetch(ctx, r, session, bearerToken, op, maxAttempts)
}

// withTokenRefetch bounds op to attempts runs. With a single attempt a 401 is terminal.
func withTokenRefetch[T any](ctx context.Context, r *Refetcher, session *sessions.Session, bearerToken string, op Operation[T], attempts int) (T, error) {
	var (
		zero T
		err  error
	)
	logger := log.Ctx(ctx)

	for attempt := 1; attempt <= attempts; attempt++ {
		var result T
		if result, err = op(ctx); err == nil {
			return result, nil
		}

		if attempt == attempts || !adminapi.IsUnauthorized(err) {
			var httpErr *adminapi.HTTPResponseError
			if errors.As(err, &httpErr) {
				logger.Debug().Int("code", httpErr.Code).Str("body", httpErr.Body).Msg("Encountered error, re-raising")
			} else {
				logger.Debug().Err(err).Msg("Encountered error, re-raising")
			}
			return zero, err
		}

		logger.Debug().Msg("Encountered 401 error, exchanging token and retrying with new access token")
		fresh, exchangeErr := r.exchanger.Exchange(ctx, bearerToken)
		if exchangeErr != nil {
			return zero, exchangeErr
		}
		if fresh == nil {
			return zero, SessionUnavailableErr
		}
		r.observer.Exchanged(ctx, ExchangeReasonUnauthorized)
		session.CopyAttributes(fresh)
	}
	return zero, err
}
