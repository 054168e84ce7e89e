package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jrsteele09/go-shop-session/adminapi"
	"github.com/jrsteele09/go-shop-session/auth"
	"github.com/jrsteele09/go-shop-session/sessions"
	"github.com/jrsteele09/go-shop-session/sessiontoken"
	"github.com/jrsteele09/go-shop-session/tokenexchange"
	"github.com/rs/zerolog/log"
)

// AdminQuery is an Admin API call made on behalf of the request's active session.
type AdminQuery func(ctx context.Context, session *sessions.Session) (json.RawMessage, error)

// RequireSession runs query with the session of the request's session token active and writes its
// result. Nothing is written before query's final attempt, so a retried query leaves no partial
// response behind.
func (s *Server) RequireSession(query AdminQuery) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := auth.Activate(r.Context(), s.activator, auth.NewRequest(r), func(ctx context.Context) (json.RawMessage, error) {
			session, ok := auth.SessionFromContext(ctx)
			if !ok {
				return nil, auth.SessionUnavailableErr
			}
			return query(ctx, session)
		})
		if err != nil {
			writeAuthError(r.Context(), w, err)
			return
		}

		w.Header().Set("Content-Type", contentTypeJSON)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(result)
	}
}

// writeAuthError maps a failed activation onto a response. Failures the client can fix with a new
// session token are 401s carrying the retry header.
func writeAuthError(ctx context.Context, w http.ResponseWriter, err error) {
	logger := log.Ctx(ctx)

	var exchangeErr *tokenexchange.ExchangeError
	switch {
	case errors.Is(err, auth.MissingSessionTokenErr),
		errors.Is(err, sessiontoken.ErrInvalidSessionToken),
		errors.Is(err, sessiontoken.ErrShopMismatch):
		logger.Debug().Err(err).Msg("Rejected session token")
		w.Header().Set(RetryInvalidSessionHeader, "1")
		writeJSONError(w, "invalid_token", err.Error(), http.StatusUnauthorized)

	case adminapi.IsUnauthorized(err):
		logger.Warn().Err(err).Msg("Admin API rejected the access token after token exchange")
		w.Header().Set(RetryInvalidSessionHeader, "1")
		writeJSONError(w, "invalid_token", "access token rejected by the Admin API", http.StatusUnauthorized)

	case errors.As(err, &exchangeErr):
		if exchangeErr.Code == http.StatusBadRequest || exchangeErr.Code == http.StatusUnauthorized {
			logger.Warn().Err(err).Msg("Token exchange rejected the session token")
			w.Header().Set(RetryInvalidSessionHeader, "1")
			writeJSONError(w, "invalid_token", "session token rejected by token exchange", http.StatusUnauthorized)
			return
		}
		logger.Error().Err(err).Msg("Token exchange failed")
		writeJSONError(w, "bad_gateway", "token exchange failed", http.StatusBadGateway)

	default:
		if code, ok := adminapi.StatusCode(err); ok {
			logger.Error().Err(err).Int("code", code).Msg("Admin API request failed")
			writeJSONError(w, "bad_gateway", "admin api request failed", http.StatusBadGateway)
			return
		}
		logger.Error().Err(err).Msg("Failed to serve session request")
		writeJSONError(w, "server_error", "internal server error", http.StatusInternalServerError)
	}
}

func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             errorCode,
		"error_description": description,
	})
}
