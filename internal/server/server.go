package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/zballl/vibecheck-app/internal/ailink"
	"github.com/zballl/vibecheck-app/internal/config"
	apperrors "github.com/zballl/vibecheck-app/internal/errors"
	"github.com/zballl/vibecheck-app/internal/observability"
	"github.com/zballl/vibecheck-app/internal/server/handlers"
	servermw "github.com/zballl/vibecheck-app/internal/server/middleware"
)

// Server is the vibecheck HTTP API.
type Server struct {
	router    *chi.Mux
	cfg       *config.Config
	service   handlers.Recommender
	health    *handlers.HealthManager
	recommend *handlers.RecommendHandler

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// New creates a server for the given configuration and pipeline service.
func New(cfg *config.Config, service handlers.Recommender) *Server {
	if cfg == nil {
		cfg = &config.Config{}
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)

	// RequestID → Metrics → Recovery; metrics observe the 500 a panic becomes
	r.Use(servermw.RequestID)
	r.Use(servermw.RequestMetrics)
	r.Use(servermw.Recovery)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		HandleError(w, req, apperrors.NewNotFoundError("The requested resource was not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		HandleError(w, req, apperrors.NewMethodNotAllowedError("The requested method is not allowed for this resource"))
	})

	s := &Server{
		router:    r,
		cfg:       cfg,
		service:   service,
		health:    handlers.NewHealthManager(handlers.AppVersion),
		recommend: handlers.NewRecommendHandler(service),
	}

	handlers.SetHTTPErrorResponder(HandleError)
	s.registerChecks()
	s.registerRoutes()

	return s
}

// Addr is the configured listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
}

// Start listens on the configured address and serves until Shutdown.
// It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.Addr(), err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln.
func (s *Server) Serve(ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	s.mu.Lock()
	s.server = srv
	s.listener = ln
	s.mu.Unlock()

	if logger := observability.ServerLogger; logger != nil {
		logger.Info("Starting HTTP server",
			zap.String("addr", ln.Addr().String()),
			zap.Bool("rate_limit", s.cfg.RateLimit.Enabled))
	}

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAddr returns the bound address once serving, or "".
func (s *Server) ListenAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	if logger := observability.ServerLogger; logger != nil {
		logger.Info("Shutting down HTTP server")
	}
	return srv.Shutdown(ctx)
}

// Handler exposes the underlying router for testing and instrumentation
func (s *Server) Handler() http.Handler {
	return s.router
}

// registerChecks wires the pipeline's readiness into the health manager.
func (s *Server) registerChecks() {
	ai := s.cfg.AILink
	s.health.RegisterChecker("credential", handlers.CredentialChecker(func() bool {
		return ai.APIKey != ""
	}))
	s.health.RegisterChecker("endpoints", handlers.EndpointsChecker(func() int {
		// Discovery resolves per call; only a fully empty static list is fatal here
		if ai.Strategy == ailink.StrategyDiscovery {
			return 1
		}
		return len(ai.Endpoints) + len(ai.Models) + boolToInt(ai.DefaultModel != "")
	}))
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
