package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/zballl/vibecheck-app/internal/ailink"
)

// Config represents the complete application configuration.
// Layer 1: built-in defaults
// Layer 2: YAML config file (--config, ./config/vibecheck.yaml, ~/.vibecheck.yaml)
// Layer 3: Environment variables and runtime overrides
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	AILink    ailink.Config   `mapstructure:"ailink"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Health    HealthConfig    `mapstructure:"health"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level"`

	// Profile selects the logging complexity level
	// Valid values: simple, structured
	Profile string `mapstructure:"profile"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	// Enabled controls whether metrics are exposed
	Enabled bool `mapstructure:"enabled"`

	// Port is the dedicated metrics endpoint port (Prometheus format)
	Port int `mapstructure:"port"`
}

// HealthConfig contains health check configuration
type HealthConfig struct {
	// Enabled controls whether health endpoints are exposed
	Enabled bool `mapstructure:"enabled"`
}

// RateLimitConfig bounds inbound recommendation requests per client IP.
type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
}

// Validate reports configuration values the application cannot run with.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config is nil")
	}

	switch strings.ToLower(strings.TrimSpace(c.AILink.Strategy)) {
	case "", ailink.StrategyStatic, ailink.StrategyDiscovery:
	default:
		return fmt.Errorf("ailink.strategy must be %q or %q, got %q", ailink.StrategyStatic, ailink.StrategyDiscovery, c.AILink.Strategy)
	}

	switch strings.ToLower(strings.TrimSpace(c.AILink.CredentialMode)) {
	case "", "header", "query":
	default:
		return fmt.Errorf("ailink.credential_mode must be \"header\" or \"query\", got %q", c.AILink.CredentialMode)
	}

	for i, ep := range c.AILink.Endpoints {
		if strings.TrimSpace(ep.Model) == "" {
			return fmt.Errorf("ailink.endpoints[%d].model is required", i)
		}
	}

	if t := c.AILink.SearchURLTemplate; t != "" && !strings.Contains(t, "{query}") {
		return fmt.Errorf("ailink.search_url_template must contain {query}")
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMinute <= 0 {
		return fmt.Errorf("rate_limit.requests_per_minute must be positive when rate limiting is enabled")
	}
	return nil
}
