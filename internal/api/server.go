// Package api provides the HTTP API server and handlers for the
// presentation configurator backend.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/lisashushakova/PresentationConfigurator/internal/config"
	"github.com/lisashushakova/PresentationConfigurator/internal/service"
	"github.com/lisashushakova/PresentationConfigurator/internal/store/sqlite"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Auth  *service.AuthService
	Files *service.FileService
	Sync  *service.SyncService
	Tag   *service.TagService
	Slide *service.SlideService
	Build *service.BuildService
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	db       *sqlite.Store
	services *Services
	cfg      *config.Config
	router   *chi.Mux
	api      huma.API
	logger   *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(db *sqlite.Store, services *Services, cfg *config.Config, logger *slog.Logger) *Server {
	s := &Server{
		db:       db,
		services: services,
		cfg:      cfg,
		router:   chi.NewRouter(),
		logger:   logger,
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("Presentation Configurator API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"session": {
			Type: "apiKey",
			In:   "cookie",
			Name: cfg.Auth.CookieName,
		},
	}
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerFileRoutes()
	s.registerDeckRoutes()
	s.registerSlideRoutes()
	s.registerTagRoutes()
	s.registerBuildRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures middleware stack. The web client lives on a
// different origin and authenticates with a cookie, so CORS must allow
// credentials for exactly that origin.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.cfg.Server.FrontendOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Tags:        []string{"System"},
	}, s.handleHealthCheck)
}

// HealthResponse contains server health status.
type HealthResponse struct {
	Status string `json:"status" doc:"Server health status"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(_ context.Context, _ *struct{}) (*HealthOutput, error) {
	return &HealthOutput{Body: HealthResponse{Status: "healthy"}}, nil
}
