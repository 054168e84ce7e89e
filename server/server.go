package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-shop-session/auth"
	"github.com/jrsteele09/go-shop-session/internal/config"
	"github.com/jrsteele09/go-shop-session/sessions"
	"github.com/rs/zerolog/log"
)

// AdminAPI issues Admin API GraphQL queries with a session's access token.
type AdminAPI interface {
	Query(ctx context.Context, session *sessions.Session, query string, variables map[string]any) (json.RawMessage, error)
}

type Server struct {
	env       string // Environment (e.g., "DEV", "PROD")
	mux       *http.ServeMux
	routes    []string
	config    config.Config
	activator *auth.Activator
	admin     AdminAPI
	metrics   http.Handler
}

// ServerOption defines a function type to modify the Server instance.
type ServerOption func(*Server)

// WithMetricsHandler serves handler on /metrics.
func WithMetricsHandler(handler http.Handler) ServerOption {
	return func(s *Server) {
		s.metrics = handler
	}
}

func New(config config.Config, activator *auth.Activator, admin AdminAPI, options ...ServerOption) (*Server, error) {
	if activator == nil {
		return nil, errors.New("[Server New] activator is required")
	}
	if admin == nil {
		return nil, errors.New("[Server New] admin api client is required")
	}

	s := &Server{
		env:       config.GetEnv(),
		mux:       http.NewServeMux(),
		config:    config,
		activator: activator,
		admin:     admin,
	}
	for _, opt := range options {
		opt(s)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Info().Msgf("[%-19s] %s", colourMethod(method), path)
}

func colourMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		return color + paddedMethod + ResetColor
	}
	return Gray + paddedMethod + ResetColor
}
