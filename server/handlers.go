package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/go-shop-session/sessions"
)

const shopQuery = `{
  shop {
    name
    myshopifyDomain
  }
}`

// ShopHandler returns the active shop's name and domain from the Admin API.
func (s *Server) ShopHandler() http.HandlerFunc {
	return s.RequireSession(func(ctx context.Context, session *sessions.Session) (json.RawMessage, error) {
		return s.admin.Query(ctx, session, shopQuery, nil)
	})
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentTypeJSON)
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}
