package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/zballl/vibecheck-app/internal/ailink/driver"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// GenerateMethod is the generation method a model must list to be usable.
	GenerateMethod = "generateContent"

	// CredentialHeader sends the key in the x-goog-api-key header.
	CredentialHeader = "header"
	// CredentialQuery sends the key as the "key" query parameter.
	CredentialQuery = "query"

	apiKeyHeader       = "x-goog-api-key"
	maxModelPages      = 10
	defaultListRetries = 2
)

// Client implements the Gemini generateContent driver via direct HTTP.
type Client struct {
	BaseURL        string
	APIKey         string
	CredentialMode string
	HTTPClient     *http.Client

	// Timeout bounds a single call when the caller's context has no deadline.
	Timeout time.Duration

	// ListRetries is the retry budget for the model listing call only.
	// Generation calls are never retried by the driver.
	ListRetries int
}

// NewClient returns a client with defaults applied.
func NewClient(baseURL, apiKey string) *Client {
	u := strings.TrimSpace(baseURL)
	if u == "" {
		u = defaultBaseURL
	}

	return &Client{
		BaseURL:        strings.TrimRight(u, "/"),
		APIKey:         strings.TrimSpace(apiKey),
		CredentialMode: CredentialHeader,
		ListRetries:    defaultListRetries,
	}
}

// Name returns the driver identifier.
func (c *Client) Name() string {
	return "gemini"
}

// GenerateURL returns the generateContent URL for model.
func (c *Client) GenerateURL(model string) string {
	model = strings.TrimPrefix(strings.TrimSpace(model), "models/")
	return strings.TrimRight(c.BaseURL, "/") + "/models/" + model + ":" + GenerateMethod
}

// Generate sends one generateContent request. It does not retry.
func (c *Client) Generate(ctx context.Context, req *driver.Request) (*driver.Response, error) {
	if c == nil {
		return nil, fmt.Errorf("gemini client not configured")
	}
	payload, err := buildGenerateRequest(req)
	if err != nil {
		return nil, err
	}
	apiKey := c.keyFor(req.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	ctx, cancel := withTimeout(ctx, c.Timeout)
	if cancel != nil {
		defer cancel()
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	target := strings.TrimSpace(req.Endpoint.URL)
	if target == "" {
		target = c.GenerateURL(req.Endpoint.Model)
	}
	target, err = c.withCredential(target, apiKey)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.CredentialMode != CredentialQuery {
		httpReq.Header.Set(apiKeyHeader, apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient().Do(httpReq)
	duration := time.Since(start)
	if err != nil {
		driver.Trace(driver.TraceEntry{
			Driver:      c.Name(),
			Method:      http.MethodPost,
			URL:         target,
			Model:       req.Endpoint.Model,
			RequestBody: body,
			Error:       err.Error(),
			DurationMs:  duration.Milliseconds(),
		})
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	driver.Trace(driver.TraceEntry{
		Driver:      c.Name(),
		Method:      http.MethodPost,
		URL:         target,
		Model:       req.Endpoint.Model,
		RequestBody: body,
		StatusCode:  resp.StatusCode,
		Response:    respBody,
		DurationMs:  duration.Milliseconds(),
	})

	if resp.StatusCode != http.StatusOK {
		return nil, &driver.ProviderError{
			Provider:    c.Name(),
			Model:       req.Endpoint.Model,
			StatusCode:  resp.StatusCode,
			Message:     errorMessage(respBody),
			RawResponse: respBody,
		}
	}

	return &driver.Response{StatusCode: resp.StatusCode, Body: respBody}, nil
}

// ReplyText returns the first candidate's first text part.
func (c *Client) ReplyText(body []byte) (string, error) {
	return replyText(body)
}

// ListModels returns every model in the capability listing, following page tokens.
func (c *Client) ListModels(ctx context.Context, apiKey string) ([]driver.Model, error) {
	if c == nil {
		return nil, fmt.Errorf("gemini client not configured")
	}
	apiKey = c.keyFor(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	ctx, cancel := withTimeout(ctx, c.Timeout)
	if cancel != nil {
		defer cancel()
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = c.ListRetries
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = nil
	if c.HTTPClient != nil {
		rc.HTTPClient = c.HTTPClient
	}

	var models []driver.Model
	pageToken := ""
	for page := 0; page < maxModelPages; page++ {
		listURL := strings.TrimRight(c.BaseURL, "/") + "/models"
		if pageToken != "" {
			listURL += "?pageToken=" + url.QueryEscape(pageToken)
		}
		target, err := c.withCredential(listURL, apiKey)
		if err != nil {
			return nil, err
		}

		req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		if c.CredentialMode != CredentialQuery {
			req.Header.Set(apiKeyHeader, apiKey)
		}

		start := time.Now()
		resp, err := rc.Do(req)
		if err != nil {
			driver.Trace(driver.TraceEntry{
				Driver:     c.Name(),
				Method:     http.MethodGet,
				URL:        target,
				Error:      err.Error(),
				DurationMs: time.Since(start).Milliseconds(),
			})
			return nil, fmt.Errorf("list models: %w", err)
		}
		respBody, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}

		driver.Trace(driver.TraceEntry{
			Driver:     c.Name(),
			Method:     http.MethodGet,
			URL:        target,
			StatusCode: resp.StatusCode,
			Response:   respBody,
			DurationMs: time.Since(start).Milliseconds(),
		})

		if resp.StatusCode != http.StatusOK {
			return nil, &driver.ProviderError{
				Provider:    c.Name(),
				StatusCode:  resp.StatusCode,
				Message:     errorMessage(respBody),
				RawResponse: respBody,
			}
		}

		var parsed listModelsResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return nil, fmt.Errorf("decode model list: %w", err)
		}
		for _, m := range parsed.Models {
			models = append(models, driver.Model{
				Name:                       strings.TrimPrefix(m.Name, "models/"),
				DisplayName:                m.DisplayName,
				SupportedGenerationMethods: m.SupportedGenerationMethods,
			})
		}

		pageToken = strings.TrimSpace(parsed.NextPageToken)
		if pageToken == "" {
			break
		}
	}

	return models, nil
}

func (c *Client) keyFor(override string) string {
	if key := strings.TrimSpace(override); key != "" {
		return key
	}
	return c.APIKey
}

func (c *Client) withCredential(target, apiKey string) (string, error) {
	if c.CredentialMode != CredentialQuery {
		return target, nil
	}
	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("parse endpoint url: %w", err)
	}
	q := u.Query()
	q.Set("key", apiKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, nil
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, nil
	}
	return context.WithTimeout(ctx, timeout)
}
