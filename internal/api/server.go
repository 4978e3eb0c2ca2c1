// Package api provides the HTTP API server and handlers for the book club
// display layer.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/bookclubapp/bookclub-server/internal/config"
	"github.com/bookclubapp/bookclub-server/internal/ratelimit"
	"github.com/bookclubapp/bookclub-server/internal/service"
)

const apiVersion = "1.0.0"

// Server holds dependencies for HTTP handlers.
type Server struct {
	cfg     *config.Config
	club    *service.ClubService
	router  *chi.Mux
	api     huma.API
	limiter *ratelimit.KeyedRateLimiter
	logger  *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(cfg *config.Config, club *service.ClubService, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	humaConfig := huma.DefaultConfig(cfg.Server.Name, apiVersion)
	api := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	// Refresh re-runs the whole pipeline, so it is rate limited per IP.
	rps := float64(cfg.Server.RefreshPerMinute) / 60.0
	limiter := ratelimit.New(rps, cfg.Server.RefreshBurst)

	s := &Server{
		cfg:     cfg,
		club:    club,
		router:  router,
		api:     api,
		limiter: limiter,
		logger:  logger,
	}

	s.registerHealthRoutes()
	s.registerBookRoutes()
	s.registerClubRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Stop releases server-owned background resources.
func (s *Server) Stop() {
	s.limiter.Stop()
}
