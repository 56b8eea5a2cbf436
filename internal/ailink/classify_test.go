package ailink

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zballl/vibecheck-app/internal/ailink/driver"
	"github.com/zballl/vibecheck-app/internal/core"
)

func TestClassifyStatusCodes(t *testing.T) {
	cases := []struct {
		name       string
		statusCode int
		message    string
		wantReason string
		wantAction disposition
	}{
		{"auth", 401, "boom", core.ReasonAuth, stopAuth},
		{"forbidden", 403, "boom", core.ReasonAuth, stopAuth},
		{"invalid key", 400, "API key not valid (API_KEY_INVALID)", core.ReasonAuth, stopAuth},
		{"bad", 400, "boom", core.ReasonBadRequest, continueNext},
		{"missing", 404, "boom", core.ReasonNotFound, continueNext},
		{"request timeout", 408, "boom", core.ReasonTimeout, continueNext},
		{"rate", 429, "boom", core.ReasonRateLimited, continueNext},
		{"conflict", 409, "boom", core.ReasonClientError, continueNext},
		{"unavail", 503, "boom", core.ReasonUnavailable, continueNext},
		{"redirect", 302, "boom", core.ReasonUnexpected, continueNext},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := &driver.ProviderError{Provider: "gemini", StatusCode: tc.statusCode, Message: tc.message}
			c := classifyAttempt(context.Background(), err, true)
			require.Equal(t, tc.wantReason, c.Reason)
			require.Equal(t, tc.wantAction, c.Action)
			require.Equal(t, tc.statusCode, c.StatusCode)
		})
	}
}

func TestClassifyBadRequestFatal(t *testing.T) {
	err := &driver.ProviderError{Provider: "gemini", StatusCode: 400, Message: "bad"}
	c := classifyAttempt(context.Background(), err, false)
	require.Equal(t, core.ReasonBadRequest, c.Reason)
	require.Equal(t, stopFatal, c.Action)
}

func TestClassifyInvalidKeyInRawBody(t *testing.T) {
	err := &driver.ProviderError{
		Provider:    "gemini",
		StatusCode:  400,
		Message:     "API key not valid.",
		RawResponse: []byte(`{"error":{"details":[{"reason":"API_KEY_INVALID"}]}}`),
	}
	c := classifyAttempt(context.Background(), err, true)
	require.Equal(t, stopAuth, c.Action)
}

func TestClassifyTransportAndTimeout(t *testing.T) {
	c := classifyAttempt(context.Background(), fmt.Errorf("request failed: %w", context.DeadlineExceeded), true)
	require.Equal(t, core.ReasonTimeout, c.Reason)
	require.Equal(t, continueNext, c.Action)

	c = classifyAttempt(context.Background(), fmt.Errorf("dial tcp\nrefused"), true)
	require.Equal(t, core.ReasonTransport, c.Reason)
	require.Equal(t, "dial tcp refused", c.Detail)
}

func TestClassifyParentCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := classifyAttempt(ctx, &driver.ProviderError{StatusCode: 503}, true)
	require.Equal(t, core.ReasonCanceled, c.Reason)
	require.Equal(t, stopFatal, c.Action)
}
