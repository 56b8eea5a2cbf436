package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zballl/vibecheck-app/internal/ailink"
	"github.com/zballl/vibecheck-app/internal/config"
	"github.com/zballl/vibecheck-app/internal/metrics"
	"github.com/zballl/vibecheck-app/internal/observability"
	"github.com/zballl/vibecheck-app/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the recommendation HTTP server with graceful shutdown support.

Routes:
  POST /v1/recommendations           {"mood": "..."}
  POST /v1/recommendations/surprise
  POST /v1/recommendations/quiz      {"physical","emotional","mental"}
  GET  /v1/models
  GET  /health, /health/live, /health/ready, /health/startup, /version

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Config reload (validated; restart to apply pipeline changes)`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "", "server host (default from config)")
	serveCmd.Flags().IntP("port", "p", 0, "server port (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadedConfig()
	if err != nil {
		return err
	}

	observability.InitServerLogger(config.AppName, cfg.Logging.Level, cfg.Logging.Profile)
	logger := observability.ServerLogger

	if cfg.Metrics.Enabled {
		if err := observability.InitMetrics(config.AppName, cfg.Metrics.Port); err != nil {
			logger.Error("Failed to initialize metrics", zap.Error(err))
			return fmt.Errorf("metrics initialization failed: %w", err)
		}
	}
	metrics.SetServerStartTime(time.Now().Unix())

	logger.Info("Initializing server",
		zap.String("service", config.AppName),
		zap.String("version", versionInfo.Version),
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.Bool("metrics_enabled", cfg.Metrics.Enabled),
		zap.Int("metrics_port", observability.GetMetricsPort()),
		zap.String("strategy", cfg.AILink.Strategy),
		zap.Bool("api_key_set", cfg.AILink.APIKey != ""))

	srv := server.New(cfg, ailink.NewService(cfg.AILink, nil, logger))

	// Shutdown handlers run LIFO: HTTP server first, logger flush last
	signals.OnShutdown(func(ctx context.Context) error {
		logger.Info("Flushing logger...")
		if err := logger.Sync(); err != nil {
			// Sync errors are often benign (stdout/stderr already closed)
			logger.Warn("Logger sync returned error (may be benign)", zap.Error(err))
		}
		return nil
	})
	signals.OnShutdown(func(ctx context.Context) error {
		logger.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		logger.Info("HTTP server stopped gracefully")
		return nil
	})

	signals.OnReload(func(ctx context.Context) error {
		logger.Info("Received SIGHUP: attempting config reload")
		reloaded, err := config.Load(config.LoadOptions{ConfigFile: cfgFile, Overrides: flagOverrides(cmd)})
		if err != nil {
			logger.Error("Failed to reload config", zap.Error(err))
			return err
		}
		logger.Info("Configuration reloaded successfully",
			zap.String("file", config.ConfigFileUsed(cfgFile)),
			zap.String("strategy", reloaded.AILink.Strategy),
			zap.Strings("models", reloaded.AILink.Models))
		return nil
	})

	if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
		Window:  2 * time.Second,
		Message: "Press Ctrl+C again within 2 seconds to force quit",
	}); err != nil {
		logger.Warn("Failed to enable double-tap force quit", zap.Error(err))
	}

	errChan := make(chan error, 2)
	go func() {
		if err := srv.Start(); err != nil {
			errChan <- err
			return
		}
		errChan <- nil
	}()

	go func() {
		if err := signals.Listen(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Signal handler error", zap.Error(err))
			errChan <- err
		}
	}()

	if err := <-errChan; err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
