package server

import (
	"os"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zballl/vibecheck-app/internal/config"
	"github.com/zballl/vibecheck-app/internal/observability"
	"github.com/zballl/vibecheck-app/internal/server/handlers"
)

// AdminTokenEnv enables POST /admin/signal when set.
const AdminTokenEnv = config.EnvPrefix + "_ADMIN_TOKEN"

// registerRoutes registers all HTTP routes
func (s *Server) registerRoutes() {
	if s.cfg.Health.Enabled {
		s.router.Get("/health", s.health.HealthHandler)
		s.router.Get("/health/live", s.health.LivenessHandler)
		s.router.Get("/health/ready", s.health.ReadinessHandler)
		s.router.Get("/health/startup", s.health.StartupHandler)
	}

	s.router.Get("/version", handlers.VersionHandler)

	if s.cfg.Metrics.Enabled {
		s.router.Get("/metrics", MetricsHandler)
	}

	s.router.Route("/v1", func(r chi.Router) {
		if s.cfg.RateLimit.Enabled {
			r.Use(rateLimit(s.cfg.RateLimit.RequestsPerMinute))
		}
		r.Post("/recommendations", s.recommend.Recommend)
		r.Post("/recommendations/surprise", s.recommend.Surprise)
		r.Post("/recommendations/quiz", s.recommend.Quiz)
		r.Get("/models", s.recommend.Models)
	})

	s.registerAdminEndpoint()
}

// registerAdminEndpoint optionally registers the admin signal endpoint
func (s *Server) registerAdminEndpoint() {
	adminToken := os.Getenv(AdminTokenEnv)
	logger := observability.ServerLogger

	if adminToken == "" {
		if logger != nil {
			logger.Debug("Admin signal endpoint disabled (no " + AdminTokenEnv + " set)")
		}
		return
	}

	handler := signals.NewHTTPHandler(signals.HTTPConfig{
		TokenAuth: adminToken,
		RateLimit: 10,
		RateBurst: 5,
		Manager:   nil, // default global manager
	})
	s.router.Post("/admin/signal", handler.ServeHTTP)

	if logger != nil {
		logger.Info("Admin signal endpoint enabled",
			zap.String("path", "/admin/signal"),
			zap.String("rate_limit", "10/min, burst 5"))
		logger.Warn("Admin endpoint enabled - ensure this server is not exposed to public internet")
	}
}
