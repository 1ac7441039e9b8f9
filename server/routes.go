package server

import (
	"net/http"

	"github.com/jrsteele09/creator-relay/trending"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) initRoutes() {
	// OAuth token routes
	s.RegisterRouteHandler("POST "+RouteToken, ChainMiddleware(s.Token(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteRefresh, ChainMiddleware(s.Refresh(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteQRCodeGet, ChainMiddleware(s.QRCodeGet(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteQRCodeCheck, ChainMiddleware(s.QRCodeCheck(), s.APIMiddleware()...))

	// Everything else under the namespace is passed through
	s.RegisterRouteHandler("GET "+RouteProxy, ChainMiddleware(s.Proxy(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteProxy, ChainMiddleware(s.Proxy(), s.APIMiddleware()...))

	s.RegisterRouteHandler("GET "+RouteTrendingHashtags, ChainMiddleware(s.Trending(trending.KindHashtags), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteTrendingSongs, ChainMiddleware(s.Trending(trending.KindSongs), s.APIMiddleware()...))

	s.RegisterRouteHandler("GET "+RouteHealth, ChainMiddleware(s.Health(), s.CorsMiddleware))
	s.RegisterRouteHandler("OPTIONS "+RoutePreflight, ChainMiddleware(s.Preflight(), s.CorsMiddleware))

	if s.config.GetMetricsEnabled() {
		s.RegisterRouteHandler("GET "+RouteMetrics, promhttp.Handler())
	}
}

// Preflight gives OPTIONS requests a route. CorsMiddleware answers them.
func (s *Server) Preflight() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}
}
