package ailink

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/zballl/vibecheck-app/internal/ailink/driver"
	"github.com/zballl/vibecheck-app/internal/ailink/driver/gemini"
	"github.com/zballl/vibecheck-app/internal/core"
	"github.com/zballl/vibecheck-app/internal/metrics"
)

// Service is the recommendation pipeline facade.
//
// It holds only read-only configuration and is safe for concurrent use.
type Service struct {
	Config     Config
	Driver     driver.Driver
	Resolver   *Resolver
	Dispatcher *Dispatcher
	Logger     *logging.Logger

	now func() time.Time
}

// NewDriver returns the Gemini driver configured from cfg.
func NewDriver(cfg Config) driver.Driver {
	cfg = cfg.withDefaults()
	client := gemini.NewClient(cfg.BaseURL, cfg.APIKey)
	if strings.EqualFold(cfg.CredentialMode, gemini.CredentialQuery) {
		client.CredentialMode = gemini.CredentialQuery
	}
	return client
}

// NewService wires a pipeline around drv. A nil drv uses NewDriver(cfg).
func NewService(cfg Config, drv driver.Driver, logger *logging.Logger) *Service {
	cfg = cfg.withDefaults()
	if drv == nil {
		drv = NewDriver(cfg)
	}
	return &Service{
		Config:     cfg,
		Driver:     drv,
		Resolver:   NewResolver(cfg, drv, logger),
		Dispatcher: NewDispatcher(cfg, drv, logger),
		Logger:     logger,
		now:        time.Now,
	}
}

// Endpoints resolves the endpoint list the next call would use.
func (s *Service) Endpoints(ctx context.Context, credential string) ([]core.ModelEndpoint, error) {
	key := s.credential(credential)
	if key == "" && strings.EqualFold(s.Config.Strategy, StrategyDiscovery) {
		return nil, &AuthError{Message: "no api key configured"}
	}
	return s.Resolver.Resolve(ctx, key)
}

// GetRecommendations runs one pass of the pipeline for mood.
//
// An empty credential falls back to the configured API key. The returned
// outcome is never nil.
func (s *Service) GetRecommendations(ctx context.Context, mood, credential string) *core.Outcome {
	start := s.clock()
	out := &core.Outcome{Mood: mood, RequestedAt: start}
	defer func() {
		out.Duration = s.clock().Sub(start)
		metrics.RecordRecommendation(string(out.Status), out.Duration)
		s.log(out)
	}()

	key := s.credential(credential)
	if key == "" {
		return failed(out, &AuthError{Message: "no api key configured"})
	}

	endpoints, err := s.Resolver.Resolve(ctx, key)
	if err != nil {
		var aerr *AuthError
		var derr *DispatchError
		if !errors.As(err, &aerr) && !errors.As(err, &derr) {
			err = &DispatchError{Err: err}
		}
		return failed(out, err)
	}

	raw, err := s.Dispatcher.Dispatch(ctx, endpoints, BuildPrompt(mood), key)
	if err != nil {
		out.Attempts = attemptsFrom(err)
		return failed(out, err)
	}
	out.Attempts = raw.Attempts
	out.Model = raw.Endpoint.Model

	opts := ExtractOptionsFromConfig(s.Config)
	text, err := s.Driver.ReplyText(raw.Body)
	if err != nil {
		return failed(out, &ExtractError{Err: err, Raw: truncateText(string(raw.Body), opts.RawMaxBytes)})
	}

	playlist, err := Extract(text, opts)
	switch {
	case errors.Is(err, ErrInvalidMood):
		out.Status = core.StatusInvalidMood
		return out
	case err != nil:
		return failed(out, err)
	}

	out.Status = core.StatusSuccess
	out.Playlist = playlist
	return out
}

func failed(out *core.Outcome, err error) *core.Outcome {
	out.Status = core.StatusFailed
	out.Playlist = nil
	out.Err = err
	return out
}

func (s *Service) credential(override string) string {
	if key := strings.TrimSpace(override); key != "" {
		return key
	}
	return strings.TrimSpace(s.Config.APIKey)
}

func (s *Service) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

func (s *Service) log(out *core.Outcome) {
	if s.Logger == nil {
		return
	}
	fields := []zap.Field{
		zap.String("status", string(out.Status)),
		zap.Int("attempts", len(out.Attempts)),
		zap.Duration("duration", out.Duration),
	}
	if out.Model != "" {
		fields = append(fields, zap.String("model", out.Model))
	}
	if out.Err != nil {
		s.Logger.Warn("Recommendation failed", append(fields, zap.Error(out.Err))...)
		return
	}
	s.Logger.Info("Recommendation completed", append(fields, zap.Int("tracks", out.Playlist.Len()))...)
}
