package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/creator-relay/internal/config"
	"github.com/jrsteele09/creator-relay/provider"
	"github.com/jrsteele09/creator-relay/trending"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const contentTypeJSON = "application/json; charset=utf-8"

type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	upstream *provider.Client
	trends   *trending.Service
	validate *validator.Validate
	limiter  *rate.Limiter
}

// New builds the relay HTTP handler. upstream is the only component that
// talks to the provider; trends serves the cached trend lists.
func New(cfg config.Config, upstream *provider.Client, trends *trending.Service) (*Server, error) {
	if upstream == nil || trends == nil {
		return nil, fmt.Errorf("[Server New] upstream client and trend service are required")
	}
	s := &Server{
		env:      cfg.GetEnv(),
		mux:      http.NewServeMux(),
		config:   cfg,
		upstream: upstream,
		trends:   trends,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	if cfg.GetEnableRateLimiting() {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.GetRateLimitRPS()), cfg.GetRateLimitBurst())
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

func (s *Server) logRoutes() {
	if s.env != config.DevEnv {
		return
	}
	for _, route := range s.routes {
		method, path, ok := strings.Cut(route, " ")
		if !ok {
			method, path = "", route
		}
		log.Debug().Msgf("[%s] %s", colourMethod(method), path)
	}
}

func colourMethod(method string) string {
	padded := fmt.Sprintf("%-7s", method)
	if colour, ok := methodColors[method]; ok {
		return colour + padded + ResetColor
	}
	return Gray + padded + ResetColor
}
