package ailink

import (
	"strings"
	"time"
)

// Endpoint resolution strategies.
const (
	StrategyStatic    = "static"
	StrategyDiscovery = "discovery"
)

// DefaultModels is the static endpoint order, highest free-tier quota first.
var DefaultModels = []string{
	"gemini-2.0-flash",
	"gemini-1.5-flash",
	"gemini-1.5-flash-8b",
	"gemini-1.5-pro",
	"gemini-pro",
}

// DefaultSearchURLTemplate builds a video search link for a track without one.
const DefaultSearchURLTemplate = "https://www.youtube.com/results?search_query={query}"

// Config defines the recommendation pipeline configuration.
//
// It is read once at startup and never mutated by the pipeline.
type Config struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`

	// CredentialMode is "header" (x-goog-api-key) or "query" (?key=).
	CredentialMode string `mapstructure:"credential_mode"`

	// Strategy is "static" or "discovery".
	Strategy string `mapstructure:"strategy"`

	// Endpoints, when set, is used verbatim by the static strategy.
	Endpoints []EndpointConfig `mapstructure:"endpoints"`

	// Models is expanded through URLTemplate when Endpoints is empty.
	Models []string `mapstructure:"models"`

	// URLTemplate may contain {base_url} and {model}.
	URLTemplate string `mapstructure:"url_template"`

	// DefaultModel is the single fallback when discovery yields nothing.
	DefaultModel string `mapstructure:"default_model"`

	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
	DiscoveryTimeout time.Duration `mapstructure:"discovery_timeout"`

	// BadRequestRecoverable moves on to the next endpoint after a 400.
	// When false a 400 ends the dispatch.
	BadRequestRecoverable bool `mapstructure:"bad_request_recoverable"`

	FastMarker     string   `mapstructure:"fast_marker"`
	GeneralMarker  string   `mapstructure:"general_marker"`
	ExcludeMarkers []string `mapstructure:"exclude_markers"`

	SearchURLTemplate string `mapstructure:"search_url_template"`

	// Debug controls optional diagnostics like raw payload capture.
	Debug DebugConfig `mapstructure:"debug"`
}

type DebugConfig struct {
	CaptureRawEnabled  bool `mapstructure:"capture_raw_enabled"`
	CaptureRawMaxBytes int  `mapstructure:"capture_raw_max_bytes"`
}

// EndpointConfig is one statically configured endpoint.
type EndpointConfig struct {
	Model string `mapstructure:"model"`
	URL   string `mapstructure:"url"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		BaseURL:               "https://generativelanguage.googleapis.com/v1beta",
		CredentialMode:        "header",
		Strategy:              StrategyStatic,
		Models:                append([]string(nil), DefaultModels...),
		URLTemplate:           "{base_url}/models/{model}:generateContent",
		DefaultModel:          "gemini-1.5-flash",
		RequestTimeout:        20 * time.Second,
		DiscoveryTimeout:      10 * time.Second,
		BadRequestRecoverable: true,
		FastMarker:            "flash",
		GeneralMarker:         "pro",
		ExcludeMarkers:        []string{"vision", "image", "tts", "audio", "embedding", "aqa"},
		SearchURLTemplate:     DefaultSearchURLTemplate,
		Debug: DebugConfig{
			CaptureRawEnabled:  true,
			CaptureRawMaxBytes: 2048,
		},
	}
}

// withDefaults fills empty string, list and duration fields from DefaultConfig.
// Boolean fields are taken as given.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if strings.TrimSpace(c.BaseURL) == "" {
		c.BaseURL = d.BaseURL
	}
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if strings.TrimSpace(c.CredentialMode) == "" {
		c.CredentialMode = d.CredentialMode
	}
	if strings.TrimSpace(c.Strategy) == "" {
		c.Strategy = d.Strategy
	}
	if len(c.Endpoints) == 0 && len(c.Models) == 0 {
		c.Models = d.Models
	}
	if strings.TrimSpace(c.URLTemplate) == "" {
		c.URLTemplate = d.URLTemplate
	}
	if strings.TrimSpace(c.DefaultModel) == "" {
		c.DefaultModel = d.DefaultModel
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = d.RequestTimeout
	}
	if c.DiscoveryTimeout <= 0 {
		c.DiscoveryTimeout = d.DiscoveryTimeout
	}
	if strings.TrimSpace(c.FastMarker) == "" {
		c.FastMarker = d.FastMarker
	}
	if strings.TrimSpace(c.GeneralMarker) == "" {
		c.GeneralMarker = d.GeneralMarker
	}
	if c.ExcludeMarkers == nil {
		c.ExcludeMarkers = d.ExcludeMarkers
	}
	if strings.TrimSpace(c.SearchURLTemplate) == "" {
		c.SearchURLTemplate = d.SearchURLTemplate
	}
	return c
}

// EndpointURL expands the URL template for model.
func (c Config) EndpointURL(model string) string {
	c = c.withDefaults()
	model = strings.TrimPrefix(strings.TrimSpace(model), "models/")
	out := strings.ReplaceAll(c.URLTemplate, "{base_url}", c.BaseURL)
	return strings.ReplaceAll(out, "{model}", model)
}
