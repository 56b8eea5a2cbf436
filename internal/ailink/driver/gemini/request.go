package gemini

import (
	"fmt"
	"strings"

	"github.com/zballl/vibecheck-app/internal/ailink/driver"
)

type generateContentRequest struct {
	Contents []requestContent `json:"contents"`
}

type requestContent struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

func buildGenerateRequest(req *driver.Request) (*generateContentRequest, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	if strings.TrimSpace(req.Endpoint.Model) == "" && strings.TrimSpace(req.Endpoint.URL) == "" {
		return nil, fmt.Errorf("endpoint model or url is required")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("prompt is required")
	}

	return &generateContentRequest{
		Contents: []requestContent{{Parts: []part{{Text: req.Prompt}}}},
	}, nil
}
