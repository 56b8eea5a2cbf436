package ailink

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zballl/vibecheck-app/internal/ailink/driver"
)

type fakeReply struct {
	status int
	body   string
	err    error
	delay  time.Duration
}

// fakeDriver answers generation calls by model name and records call order.
// The reply body is returned verbatim as the reply text.
type fakeDriver struct {
	mu      sync.Mutex
	replies map[string]fakeReply
	calls   []string
	keys    []string

	models  []driver.Model
	listErr error
}

func newFakeDriver(replies map[string]fakeReply) *fakeDriver {
	return &fakeDriver{replies: replies}
}

func (f *fakeDriver) Name() string { return "fake" }

func (f *fakeDriver) Generate(ctx context.Context, req *driver.Request) (*driver.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req.Endpoint.Model)
	f.keys = append(f.keys, req.APIKey)
	reply, ok := f.replies[req.Endpoint.Model]
	f.mu.Unlock()

	if !ok {
		return nil, &driver.ProviderError{Provider: "fake", Model: req.Endpoint.Model, StatusCode: 404, Message: "model not found"}
	}
	if reply.delay > 0 {
		select {
		case <-time.After(reply.delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("request failed: %w", ctx.Err())
		}
	}
	if reply.err != nil {
		return nil, reply.err
	}
	if reply.status != 200 {
		return nil, &driver.ProviderError{Provider: "fake", Model: req.Endpoint.Model, StatusCode: reply.status, Message: reply.body}
	}
	return &driver.Response{StatusCode: 200, Body: []byte(reply.body)}, nil
}

func (f *fakeDriver) ReplyText(body []byte) (string, error) {
	return string(body), nil
}

func (f *fakeDriver) ListModels(ctx context.Context, apiKey string) ([]driver.Model, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.models, nil
}

func (f *fakeDriver) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

const fiveTracks = `[
  {"title": "Happy", "artist": "Pharrell Williams", "link": "https://www.youtube.com/watch?v=ZbZSe6N_BXs", "reason": "Pure joy."},
  {"title": "Walking on Sunshine", "artist": "Katrina and the Waves", "link": "https://www.youtube.com/watch?v=iPUmE-tne5U", "reason": "Bright."},
  {"title": "Good as Hell", "artist": "Lizzo", "link": "https://www.youtube.com/watch?v=SmbmeOgWsqE", "reason": "Confidence."},
  {"title": "Uptown Funk", "artist": "Mark Ronson ft. Bruno Mars", "link": "https://www.youtube.com/watch?v=OPf0YbXqDm0", "reason": "Dance."},
  {"title": "Can't Stop the Feeling!", "artist": "Justin Timberlake", "link": "https://www.youtube.com/watch?v=ru0K8uYEZWw", "reason": "Upbeat."}
]`
