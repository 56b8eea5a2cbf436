package integration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zballl/vibecheck-app/internal/ailink"
	"github.com/zballl/vibecheck-app/internal/config"
	"github.com/zballl/vibecheck-app/internal/core"
	"github.com/zballl/vibecheck-app/internal/observability"
	"github.com/zballl/vibecheck-app/internal/server"
	"github.com/zballl/vibecheck-app/internal/server/handlers"
)

// cleanupMetrics tears down global telemetry state so each test starts clean.
// This matters in sandboxes where lingering exporters can block future binds.
func cleanupMetrics(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		if observability.PrometheusExporter != nil {
			_ = observability.PrometheusExporter.Stop()
			observability.PrometheusExporter = nil
		}
		observability.TelemetrySystem = nil
	})
}

// isPermissionError normalizes OS-specific permission errors (macOS/Linux/BSD)
// so we can gracefully skip when loopback sockets are blocked.
func isPermissionError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, os.ErrPermission) || errors.Is(err, syscall.EACCES) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, fragment := range []string{"permission denied", "operation not permitted", "not permitted"} {
		if strings.Contains(msg, fragment) {
			return true
		}
	}

	return false
}

// initMetricsOrSkip attempts to start the metrics exporter; if the environment
// forbids network binds we skip instead of failing the entire suite.
func initMetricsOrSkip(t *testing.T) {
	t.Helper()

	if err := observability.InitMetrics("test", 0); err != nil {
		if isPermissionError(err) {
			t.Skipf("skipping metrics tests due to sandbox permissions: %v", err)
		}
		require.NoError(t, err)
	}

	cleanupMetrics(t)
}

// listenOrSkip binds IPv4 loopback explicitly (avoiding IPv6-only defaults)
// and skips when the sandbox refuses to open sockets.
func listenOrSkip(t *testing.T) net.Listener {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		if isPermissionError(err) {
			t.Skipf("skipping server setup: %v", err)
		}
		require.NoError(t, err)
	}
	return listener
}

const playlistReply = "Here you go:\n```json\n[\n" +
	`{"title":"Weightless","artist":"Marconi Union","link":"https://example.com/weightless","reason":"slow tempo"},` +
	`{"title":"Holocene","artist":"Bon Iver","link":"not a url"},` +
	`{"title":"Teardrop","artist":"Massive Attack","link":"https://example.com/teardrop"},` +
	`{"title":"Avril 14th","artist":"Aphex Twin","link":"https://example.com/avril"},` +
	`{"title":"Night Owl","artist":"Galimatias","link":"https://example.com/owl"},` +
	`{"title":"Extra","artist":"Ignored","link":"https://example.com/extra"}` +
	"\n]\n```"

// fakeUpstream rate-limits the first model and answers with a playlist on the second.
func fakeUpstream(t *testing.T) (*httptest.Server, *sync.Map) {
	t.Helper()
	var calls sync.Map
	upstream := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n, _ := calls.LoadOrStore(r.URL.Path, new(int))
		*(n.(*int))++

		if r.Header.Get("x-goog-api-key") != "integration-key" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`))
			return
		}

		switch {
		case strings.Contains(r.URL.Path, "/models/gemini-2.0-flash:"):
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`))
		case strings.Contains(r.URL.Path, "/models/gemini-1.5-flash:"):
			reply, _ := json.Marshal(map[string]any{
				"candidates": []any{map[string]any{
					"content": map[string]any{"parts": []any{map[string]any{"text": playlistReply}}},
				}},
			})
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(reply)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	upstream.Listener.Close()
	upstream.Listener = listenOrSkip(t)
	upstream.Start()
	t.Cleanup(upstream.Close)
	return upstream, &calls
}

func pipelineConfig(baseURL string) *config.Config {
	cfg := &config.Config{AILink: ailink.DefaultConfig()}
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Health.Enabled = true
	cfg.Metrics.Enabled = true
	cfg.AILink.BaseURL = baseURL
	cfg.AILink.APIKey = "integration-key"
	cfg.AILink.Models = []string{"gemini-2.0-flash", "gemini-1.5-flash", "gemini-pro"}
	cfg.AILink.RequestTimeout = 5 * time.Second
	return cfg
}

// startServer serves srv on a real loopback listener.
func startServer(t *testing.T, cfg *config.Config) (string, *http.Client) {
	t.Helper()
	srv := server.New(cfg, ailink.NewService(cfg.AILink, nil, observability.ServerLogger))
	ln := listenOrSkip(t)

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ln) }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		require.NoError(t, srv.Shutdown(ctx))
		require.NoError(t, <-done)
	})
	return "http://" + ln.Addr().String(), &http.Client{Timeout: 10 * time.Second}
}

func TestRecommendationPipeline_FallsBackAcrossEndpoints(t *testing.T) {
	observability.InitServerLogger("test", "info", "structured")
	initMetricsOrSkip(t)

	upstream, calls := fakeUpstream(t)
	baseURL, client := startServer(t, pipelineConfig(upstream.URL))

	resp, err := client.Post(baseURL+"/v1/recommendations", "application/json", strings.NewReader(`{"mood":"rainy and reflective"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body handlers.RecommendResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, core.StatusSuccess, body.Status)
	assert.Equal(t, "gemini-1.5-flash", body.Model)
	require.Len(t, body.Tracks, core.MaxTracks)
	assert.Equal(t, "Weightless", body.Tracks[0].Title)
	assert.True(t, body.Tracks[1].LinkSynthesized, "unusable link should be replaced by a search link")
	require.Len(t, body.Attempts, 2)
	assert.Equal(t, core.ReasonRateLimited, body.Attempts[0].Reason)
	assert.Equal(t, core.ReasonOK, body.Attempts[1].Reason)

	_, reachedThird := calls.Load("/models/gemini-pro:generateContent")
	assert.False(t, reachedThird, "dispatch must stop at the first usable response")

	resp, err = client.Get(baseURL + "/metrics")
	require.NoError(t, err)
	metricsBody, readErr := io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, readErr)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(metricsBody), "test_http_requests_total")
	assert.Contains(t, string(metricsBody), "test_recommendations_total")
	assert.Contains(t, string(metricsBody), "test_endpoint_attempts_total")
}

func TestRecommendationPipeline_RejectedCredential(t *testing.T) {
	observability.InitServerLogger("test", "info", "structured")

	upstream, calls := fakeUpstream(t)
	baseURL, client := startServer(t, pipelineConfig(upstream.URL))

	req, err := http.NewRequest(http.MethodPost, baseURL+"/v1/recommendations", strings.NewReader(`{"mood":"tense"}`))
	require.NoError(t, err)
	req.Header.Set(handlers.CredentialHeader, "wrong-key")
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var body struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "auth", body.Error.Details["failure"])

	count := 0
	calls.Range(func(_, v any) bool {
		count += *(v.(*int))
		return true
	})
	assert.Equal(t, 1, count, "a rejected credential must not be tried against other endpoints")
}

func TestMetricsEndpoint_Integration(t *testing.T) {
	observability.InitServerLogger("test", "info", "structured")
	initMetricsOrSkip(t)

	upstream, _ := fakeUpstream(t)
	baseURL, client := startServer(t, pipelineConfig(upstream.URL))

	const numRequests = 40
	const numWorkers = 8

	requestChan := make(chan int, numRequests)
	for i := 0; i < numRequests; i++ {
		requestChan <- i
	}
	close(requestChan)

	start := time.Now()

	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go func() {
			defer wg.Done()
			for reqNum := range requestChan {
				var path string
				switch reqNum % 4 {
				case 0:
					path = "/health/live"
				case 1:
					path = "/version"
				case 2:
					path = "/does-not-exist"
				default:
					path = "/health"
				}

				resp, err := client.Get(baseURL + path)
				if err == nil {
					_ = resp.Body.Close()
				}
			}
		}()
	}
	wg.Wait()

	elapsed := time.Since(start)

	resp, err := client.Get(baseURL + "/metrics")
	require.NoError(t, err)
	contentType := resp.Header.Get("Content-Type")
	body, readErr := io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, readErr)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(contentType, "text/plain"), "Expected Prometheus content type, got: %s", contentType)

	metricsContent := string(body)
	assert.Contains(t, metricsContent, "test_http_requests_total", "Should have HTTP request metrics")
	assert.Contains(t, metricsContent, "test_http_request_duration_ms", "Should have duration metrics")
	assert.Contains(t, metricsContent, "test_app_health_check_total", "Should have health check metrics")

	metricLines := 0
	for _, line := range strings.Split(strings.TrimSpace(metricsContent), "\n") {
		if !strings.HasPrefix(line, "#") && strings.TrimSpace(line) != "" {
			metricLines++
		}
	}
	assert.Greater(t, metricLines, 0, "Should have actual metric values")
	assert.True(t, elapsed < 5*time.Second, "Load test should complete in reasonable time")
	t.Logf("Load test completed: %d requests in %v (%.2f req/s)", numRequests, elapsed, float64(numRequests)/elapsed.Seconds())
}

func TestMetricsEndpoint_WithExporterStopped(t *testing.T) {
	observability.InitServerLogger("test", "info", "structured")

	originalExporter := observability.PrometheusExporter
	originalTelemetry := observability.TelemetrySystem
	observability.PrometheusExporter = nil
	observability.TelemetrySystem = nil
	t.Cleanup(func() {
		observability.PrometheusExporter = originalExporter
		observability.TelemetrySystem = originalTelemetry
	})

	upstream, _ := fakeUpstream(t)
	baseURL, client := startServer(t, pipelineConfig(upstream.URL))

	resp, err := client.Get(baseURL + "/version")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.Get(baseURL + "/metrics")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestMetricsRouteDisabledByConfig(t *testing.T) {
	observability.InitServerLogger("test", "info", "structured")

	upstream, _ := fakeUpstream(t)
	cfg := pipelineConfig(upstream.URL)
	cfg.Metrics.Enabled = false
	baseURL, client := startServer(t, cfg)

	resp, err := client.Get(fmt.Sprintf("%s/metrics", baseURL))
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
