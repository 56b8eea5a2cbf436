package driver

import (
	"context"

	"github.com/zballl/vibecheck-app/internal/core"
)

// Driver defines the interface for generative-text services.
type Driver interface {
	// Generate sends one generation request to a single endpoint.
	// Any status other than 200 is returned as a *ProviderError.
	Generate(ctx context.Context, req *Request) (*Response, error)
	// ReplyText extracts the model's text reply from a 200 response body.
	ReplyText(body []byte) (string, error)
	// ListModels queries the service's capability listing.
	ListModels(ctx context.Context, apiKey string) ([]Model, error)
	// Name returns the driver identifier (e.g., "gemini").
	Name() string
}

// Request is a single generation call against one endpoint.
type Request struct {
	Endpoint core.ModelEndpoint
	Prompt   string
	// APIKey overrides the driver's configured key when set.
	APIKey string
}

// Response is the raw result of a successful generation call.
type Response struct {
	StatusCode int
	Body       []byte
}

// Model describes one entry of the capability listing.
type Model struct {
	Name                       string   `json:"name"`
	DisplayName                string   `json:"displayName,omitempty"`
	SupportedGenerationMethods []string `json:"supportedGenerationMethods,omitempty"`
}

// Supports reports whether the model lists the given generation method.
func (m Model) Supports(method string) bool {
	for _, v := range m.SupportedGenerationMethods {
		if v == method {
			return true
		}
	}
	return false
}
