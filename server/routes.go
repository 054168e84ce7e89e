package server

import (
	"net/http"
)

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.LoggingMiddleware))
	if s.metrics != nil {
		s.RegisterRouteHandler("GET "+RouteMetrics, s.metrics)
	}

	// Admin API routes authenticated by the embedded app's session token
	s.RegisterRouteFunc("GET "+RouteAPIShop, ChainMiddleware(s.ShopHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("OPTIONS "+RouteAPIShop, ChainMiddleware(s.preflightHandler(), s.APIMiddleware()...))
}

// preflightHandler lets CorsMiddleware answer OPTIONS requests.
func (s *Server) preflightHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}
