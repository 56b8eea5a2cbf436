package ailink

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zballl/vibecheck-app/internal/ailink/driver"
	"github.com/zballl/vibecheck-app/internal/core"
)

func modelNames(eps []core.ModelEndpoint) []string {
	out := make([]string, 0, len(eps))
	for _, ep := range eps {
		out = append(out, ep.Model)
	}
	return out
}

func generative(name string) driver.Model {
	return driver.Model{Name: name, SupportedGenerationMethods: []string{"generateContent", "countTokens"}}
}

func TestResolveStaticDefaults(t *testing.T) {
	r := NewResolver(DefaultConfig(), nil, nil)
	eps, err := r.Resolve(context.Background(), "k")
	require.NoError(t, err)
	require.Equal(t, DefaultModels, modelNames(eps))
	require.Equal(t, "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent", eps[0].URL)
}

func TestResolveStaticExplicitEndpoints(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Endpoints = []EndpointConfig{
		{Model: "custom", URL: "https://proxy.example.com/{model}/generate"},
		{Model: "gemini-1.5-pro"},
	}
	eps, err := NewResolver(cfg, nil, nil).Resolve(context.Background(), "k")
	require.NoError(t, err)
	require.Equal(t, []core.ModelEndpoint{
		{Model: "custom", URL: "https://proxy.example.com/custom/generate"},
		{Model: "gemini-1.5-pro", URL: "https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-pro:generateContent"},
	}, eps)
}

func TestResolveStaticModelsWithTemplate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseURL = "http://localhost:9999/v1/"
	cfg.Models = []string{"m1", " ", "models/m2"}
	eps, err := NewResolver(cfg, nil, nil).Resolve(context.Background(), "k")
	require.NoError(t, err)
	require.Equal(t, []string{"m1", "models/m2"}, modelNames(eps))
	require.Equal(t, "http://localhost:9999/v1/models/m1:generateContent", eps[0].URL)
	require.Equal(t, "http://localhost:9999/v1/models/m2:generateContent", eps[1].URL)
}

func TestResolveDiscoveryOrdersAndFilters(t *testing.T) {
	drv := newFakeDriver(nil)
	drv.models = []driver.Model{
		generative("gemini-1.0-pro"),
		generative("gemini-1.5-flash"),
		generative("gemini-pro-vision"),
		{Name: "text-embedding-004", SupportedGenerationMethods: []string{"embedContent"}},
		generative("gemini-2.0-flash"),
		generative("gemma-3-27b-it"),
		generative("gemini-2.0-flash-exp-image-generation"),
		generative("aqa"),
		generative("gemini-1.5-pro"),
	}

	cfg := DefaultConfig()
	cfg.Strategy = StrategyDiscovery
	eps, err := NewResolver(cfg, drv, nil).Resolve(context.Background(), "k")
	require.NoError(t, err)
	require.Equal(t, []string{
		"gemini-1.5-flash",
		"gemini-2.0-flash",
		"gemini-1.0-pro",
		"gemini-1.5-pro",
		"gemma-3-27b-it",
	}, modelNames(eps))
}

func TestResolveDiscoveryEmptyFallsBackToDefaultModel(t *testing.T) {
	drv := newFakeDriver(nil)
	drv.models = []driver.Model{{Name: "text-embedding-004", SupportedGenerationMethods: []string{"embedContent"}}}

	cfg := DefaultConfig()
	cfg.Strategy = StrategyDiscovery
	eps, err := NewResolver(cfg, drv, nil).Resolve(context.Background(), "k")
	require.NoError(t, err)
	require.Equal(t, []string{"gemini-1.5-flash"}, modelNames(eps))
}

func TestResolveDiscoveryAuthFailure(t *testing.T) {
	drv := newFakeDriver(nil)
	drv.listErr = &driver.ProviderError{Provider: "fake", StatusCode: 403, Message: "denied"}

	cfg := DefaultConfig()
	cfg.Strategy = StrategyDiscovery
	_, err := NewResolver(cfg, drv, nil).Resolve(context.Background(), "k")

	var aerr *AuthError
	require.True(t, errors.As(err, &aerr))
	require.Equal(t, 403, aerr.StatusCode)
}

func TestResolveDiscoveryErrorFallsBackToStatic(t *testing.T) {
	drv := newFakeDriver(nil)
	drv.listErr = &driver.ProviderError{Provider: "fake", StatusCode: 503, Message: "unavailable"}

	cfg := DefaultConfig()
	cfg.Strategy = StrategyDiscovery
	eps, err := NewResolver(cfg, drv, nil).Resolve(context.Background(), "k")
	require.NoError(t, err)
	require.Equal(t, DefaultModels, modelNames(eps))
}

func TestResolveUnknownStrategy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Strategy = "random"
	_, err := NewResolver(cfg, nil, nil).Resolve(context.Background(), "k")
	require.Error(t, err)
	require.Contains(t, err.Error(), "random")
}
