package ailink

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/zballl/vibecheck-app/internal/ailink/driver"
	"github.com/zballl/vibecheck-app/internal/core"
)

// Resolver produces the ordered endpoint list for one request.
type Resolver struct {
	Config Config
	Driver driver.Driver
	Logger *logging.Logger
}

// NewResolver returns a resolver for cfg.
func NewResolver(cfg Config, drv driver.Driver, logger *logging.Logger) *Resolver {
	return &Resolver{Config: cfg.withDefaults(), Driver: drv, Logger: logger}
}

// Resolve returns a non-empty endpoint list in priority order.
//
// With the discovery strategy a rejected credential is returned as *AuthError;
// any other discovery failure falls back to the static list.
func (r *Resolver) Resolve(ctx context.Context, credential string) ([]core.ModelEndpoint, error) {
	cfg := r.Config.withDefaults()

	switch strings.ToLower(strings.TrimSpace(cfg.Strategy)) {
	case StrategyStatic:
		return r.static(cfg), nil
	case StrategyDiscovery:
		endpoints, err := r.discover(ctx, cfg, credential)
		if err == nil {
			return endpoints, nil
		}
		var aerr *AuthError
		if errors.As(err, &aerr) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, &DispatchError{Err: ctx.Err()}
		}
		if r.Logger != nil {
			r.Logger.Warn("Model discovery failed, using static endpoints", zap.Error(err))
		}
		return r.static(cfg), nil
	default:
		return nil, fmt.Errorf("unknown endpoint strategy %q", cfg.Strategy)
	}
}

func (r *Resolver) static(cfg Config) []core.ModelEndpoint {
	var out []core.ModelEndpoint
	if len(cfg.Endpoints) > 0 {
		for _, ep := range cfg.Endpoints {
			model := strings.TrimSpace(ep.Model)
			target := strings.TrimSpace(ep.URL)
			if target == "" {
				target = cfg.EndpointURL(model)
			} else {
				target = strings.ReplaceAll(target, "{model}", model)
			}
			out = append(out, core.ModelEndpoint{Model: model, URL: target})
		}
	} else {
		for _, model := range cfg.Models {
			model = strings.TrimSpace(model)
			if model == "" {
				continue
			}
			out = append(out, core.ModelEndpoint{Model: model, URL: cfg.EndpointURL(model)})
		}
	}
	if len(out) == 0 {
		return []core.ModelEndpoint{r.fallback(cfg)}
	}
	return out
}

func (r *Resolver) discover(ctx context.Context, cfg Config, credential string) ([]core.ModelEndpoint, error) {
	if r.Driver == nil {
		return nil, fmt.Errorf("no driver configured for discovery")
	}

	dctx, cancel := context.WithTimeout(ctx, cfg.DiscoveryTimeout)
	defer cancel()

	models, err := r.Driver.ListModels(dctx, credential)
	if err != nil {
		if perr, ok := isAuthFailure(err); ok {
			return nil, &AuthError{StatusCode: perr.StatusCode, Message: safeOneLine(perr.Message)}
		}
		return nil, err
	}

	var fast, general, rest []core.ModelEndpoint
	for _, m := range models {
		if !m.Supports("generateContent") {
			continue
		}
		name := strings.ToLower(m.Name)
		if excluded(name, cfg.ExcludeMarkers) {
			continue
		}
		ep := core.ModelEndpoint{Model: m.Name, URL: cfg.EndpointURL(m.Name)}
		switch {
		case strings.Contains(name, strings.ToLower(cfg.FastMarker)):
			fast = append(fast, ep)
		case strings.Contains(name, strings.ToLower(cfg.GeneralMarker)):
			general = append(general, ep)
		default:
			rest = append(rest, ep)
		}
	}

	out := append(append(fast, general...), rest...)
	if len(out) == 0 {
		if r.Logger != nil {
			r.Logger.Info("Discovery returned no usable models, using default model",
				zap.String("model", cfg.DefaultModel))
		}
		return []core.ModelEndpoint{r.fallback(cfg)}, nil
	}
	if r.Logger != nil {
		r.Logger.Debug("Discovered endpoints", zap.Int("count", len(out)), zap.String("first", out[0].Model))
	}
	return out, nil
}

func (r *Resolver) fallback(cfg Config) core.ModelEndpoint {
	return core.ModelEndpoint{Model: cfg.DefaultModel, URL: cfg.EndpointURL(cfg.DefaultModel)}
}

func excluded(name string, markers []string) bool {
	for _, marker := range markers {
		marker = strings.ToLower(strings.TrimSpace(marker))
		if marker != "" && strings.Contains(name, marker) {
			return true
		}
	}
	return false
}
