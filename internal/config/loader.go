// Package config provides centralized configuration management for vibecheck.
// It layers built-in defaults, an optional YAML file and VIBECHECK_*
// environment variables using viper, then decodes the merged settings into
// a typed Config with mapstructure.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/zballl/vibecheck-app/internal/ailink"
)

const (
	// AppName is the binary and config name.
	AppName = "vibecheck"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "VIBECHECK"
)

var (
	// appConfig holds the current application configuration
	appConfig *Config
	configMu  sync.RWMutex
)

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// ConfigFile, when set, must exist. Otherwise the default search paths
	// are tried and a missing file is not an error.
	ConfigFile string

	// Overrides are applied last, keyed by dotted path (e.g. "ailink.models").
	Overrides map[string]any
}

// envBinding maps a config key to extra environment variable names checked
// in order, in addition to the automatic VIBECHECK_<KEY> form.
type envBinding struct {
	Key string
	Env []string
}

// Load builds the configuration and stores it for GetConfig.
//
// This function is safe to call multiple times (e.g., for config reload)
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, b := range envBindings() {
		if err := v.BindEnv(append([]string{b.Key}, b.Env...)...); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", b.Key, err)
		}
	}

	path, err := resolveConfigFile(opts.ConfigFile)
	if err != nil {
		return nil, err
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	for key, value := range opts.Overrides {
		v.Set(key, value)
	}

	cfg, err := decode(v.AllSettings())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	setConfig(cfg)
	return cfg, nil
}

// ConfigFileUsed returns the file Load would read with the given flag value,
// or "" when only defaults and environment apply.
func ConfigFileUsed(flagValue string) string {
	path, err := resolveConfigFile(flagValue)
	if err != nil {
		return ""
	}
	return path
}

func decode(settings map[string]any) (*Config, error) {
	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.StringToFloat64HookFunc(),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// resolveConfigFile returns the explicit path (which must exist) or the first
// default search path that exists.
func resolveConfigFile(explicit string) (string, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %w", err)
		}
		return explicit, nil
	}

	for _, candidate := range DefaultConfigPaths() {
		st, err := os.Stat(candidate)
		if err == nil && !st.IsDir() {
			return candidate, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("stat config file %s: %w", candidate, err)
		}
	}
	return "", nil
}

// DefaultConfigPaths returns the config file search paths in priority order.
func DefaultConfigPaths() []string {
	paths := []string{filepath.Join("config", AppName+".yaml")}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		paths = append(paths, filepath.Join(home, "."+AppName+".yaml"))
	}
	return paths
}

// GetConfig returns the current application configuration (thread-safe)
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

// setConfig updates the current configuration (thread-safe)
func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.profile", "structured")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	// Health check defaults
	v.SetDefault("health.enabled", true)

	// Inbound rate limit defaults
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_minute", 30)

	// Pipeline defaults
	d := ailink.DefaultConfig()
	v.SetDefault("ailink.api_key", "")
	v.SetDefault("ailink.base_url", d.BaseURL)
	v.SetDefault("ailink.credential_mode", d.CredentialMode)
	v.SetDefault("ailink.strategy", d.Strategy)
	v.SetDefault("ailink.endpoints", []map[string]any{})
	v.SetDefault("ailink.models", d.Models)
	v.SetDefault("ailink.url_template", d.URLTemplate)
	v.SetDefault("ailink.default_model", d.DefaultModel)
	v.SetDefault("ailink.request_timeout", d.RequestTimeout.String())
	v.SetDefault("ailink.discovery_timeout", d.DiscoveryTimeout.String())
	v.SetDefault("ailink.bad_request_recoverable", d.BadRequestRecoverable)
	v.SetDefault("ailink.fast_marker", d.FastMarker)
	v.SetDefault("ailink.general_marker", d.GeneralMarker)
	v.SetDefault("ailink.exclude_markers", d.ExcludeMarkers)
	v.SetDefault("ailink.search_url_template", d.SearchURLTemplate)
	v.SetDefault("ailink.debug.capture_raw_enabled", d.Debug.CaptureRawEnabled)
	v.SetDefault("ailink.debug.capture_raw_max_bytes", d.Debug.CaptureRawMaxBytes)
}

// envBindings returns the short-form and third-party environment names.
func envBindings() []envBinding {
	prefix := EnvPrefix + "_"
	return []envBinding{
		// Server config
		{Key: "server.host", Env: []string{prefix + "SERVER_HOST", prefix + "HOST"}},
		{Key: "server.port", Env: []string{prefix + "SERVER_PORT", prefix + "PORT"}},

		// Logging config
		{Key: "logging.level", Env: []string{prefix + "LOGGING_LEVEL", prefix + "LOG_LEVEL"}},
		{Key: "logging.profile", Env: []string{prefix + "LOGGING_PROFILE", prefix + "LOG_PROFILE"}},

		// Credential: the service's conventional variable is honored last
		{Key: "ailink.api_key", Env: []string{prefix + "AILINK_API_KEY", prefix + "API_KEY", "GEMINI_API_KEY"}},
	}
}
