package ailink

import (
	"context"
	"errors"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/zballl/vibecheck-app/internal/ailink/driver"
	"github.com/zballl/vibecheck-app/internal/core"
	"github.com/zballl/vibecheck-app/internal/metrics"
)

var errNoEndpoints = errors.New("no endpoints configured")

// RawResponse is the body of the first 200 response of a dispatch.
type RawResponse struct {
	Endpoint core.ModelEndpoint
	Body     []byte

	// Attempts includes the failed contacts before the success and the
	// successful one last.
	Attempts []core.Attempt
}

// Dispatcher tries endpoints one at a time, in order, until one returns 200.
//
// It holds no state between calls and never contacts an endpoint twice in
// one call. There is no backoff between attempts.
type Dispatcher struct {
	Driver driver.Driver

	// Timeout bounds each attempt.
	Timeout time.Duration

	BadRequestRecoverable bool

	Logger *logging.Logger
}

// NewDispatcher returns a dispatcher configured from cfg.
func NewDispatcher(cfg Config, drv driver.Driver, logger *logging.Logger) *Dispatcher {
	cfg = cfg.withDefaults()
	return &Dispatcher{
		Driver:                drv,
		Timeout:               cfg.RequestTimeout,
		BadRequestRecoverable: cfg.BadRequestRecoverable,
		Logger:                logger,
	}
}

// Dispatch sends prompt to each endpoint in turn.
//
// It returns *AuthError when the credential is rejected and *DispatchError
// when every endpoint failed or the caller's context ended.
func (d *Dispatcher) Dispatch(ctx context.Context, endpoints []core.ModelEndpoint, prompt, apiKey string) (*RawResponse, error) {
	if len(endpoints) == 0 {
		return nil, &DispatchError{Err: errNoEndpoints}
	}
	if d.Driver == nil {
		return nil, &DispatchError{Err: errors.New("no driver configured")}
	}

	var attempts []core.Attempt
	seen := make(map[string]struct{}, len(endpoints))

	for _, ep := range endpoints {
		if err := ctx.Err(); err != nil {
			return nil, &DispatchError{Failures: attempts, Err: err}
		}

		key := ep.Model + "|" + ep.URL
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		start := time.Now()
		resp, err := d.attempt(ctx, ep, prompt, apiKey)
		elapsed := time.Since(start)
		if err == nil && resp == nil {
			err = errors.New("driver returned no response")
		}

		if err == nil {
			attempts = append(attempts, core.Attempt{
				Model:      ep.Model,
				URL:        ep.URL,
				StatusCode: resp.StatusCode,
				Reason:     core.ReasonOK,
				DurationMs: elapsed.Milliseconds(),
			})
			metrics.RecordEndpointAttempt(ep.Model, core.ReasonOK, elapsed)
			d.debug("Endpoint succeeded", zap.String("model", ep.Model), zap.Duration("duration", elapsed))
			return &RawResponse{Endpoint: ep, Body: resp.Body, Attempts: attempts}, nil
		}

		c := classifyAttempt(ctx, err, d.BadRequestRecoverable)
		attempts = append(attempts, core.Attempt{
			Model:      ep.Model,
			URL:        ep.URL,
			StatusCode: c.StatusCode,
			Reason:     c.Reason,
			Detail:     c.Detail,
			DurationMs: elapsed.Milliseconds(),
		})
		metrics.RecordEndpointAttempt(ep.Model, c.Reason, elapsed)
		d.debug("Endpoint failed",
			zap.String("model", ep.Model),
			zap.String("reason", c.Reason),
			zap.Int("status", c.StatusCode),
			zap.Duration("duration", elapsed))

		switch c.Action {
		case stopAuth:
			return nil, &AuthError{Endpoint: ep, StatusCode: c.StatusCode, Message: c.Detail, Attempts: attempts}
		case stopFatal:
			cause := ctx.Err()
			if cause == nil {
				cause = err
			}
			return nil, &DispatchError{Failures: attempts, Err: cause}
		}
	}

	if d.Logger != nil {
		d.Logger.Warn("All endpoints failed", zap.Int("attempts", len(attempts)))
	}
	return nil, &DispatchError{Failures: attempts}
}

func (d *Dispatcher) attempt(ctx context.Context, ep core.ModelEndpoint, prompt, apiKey string) (*driver.Response, error) {
	actx := ctx
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}
	return d.Driver.Generate(actx, &driver.Request{Endpoint: ep, Prompt: prompt, APIKey: apiKey})
}

func (d *Dispatcher) debug(msg string, fields ...zap.Field) {
	if d.Logger != nil {
		d.Logger.Debug(msg, fields...)
	}
}
