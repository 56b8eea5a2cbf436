package ailink

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/zballl/vibecheck-app/internal/ailink/driver"
	"github.com/zballl/vibecheck-app/internal/core"
)

// apiKeyInvalidReason is the error detail the service attaches to a 400
// when the key itself is malformed or unknown.
const apiKeyInvalidReason = "API_KEY_INVALID"

type disposition int

const (
	// continueNext records the failure and moves to the next endpoint.
	continueNext disposition = iota
	// stopAuth ends the dispatch with an AuthError.
	stopAuth
	// stopFatal ends the dispatch with a DispatchError.
	stopFatal
)

type classification struct {
	Reason     string
	StatusCode int
	Detail     string
	Action     disposition
}

// classifyAttempt maps one failed endpoint contact to a reason and what the
// dispatcher does next. parent is the caller's context, not the attempt's.
func classifyAttempt(parent context.Context, err error, badRequestRecoverable bool) classification {
	if parent.Err() != nil {
		return classification{Reason: core.ReasonCanceled, Detail: parent.Err().Error(), Action: stopFatal}
	}

	var perr *driver.ProviderError
	if errors.As(err, &perr) && perr != nil {
		status := perr.StatusCode
		details := safeOneLine(perr.Message)
		out := classification{StatusCode: status, Detail: details}
		if _, auth := isAuthFailure(perr); auth {
			out.Reason, out.Action = core.ReasonAuth, stopAuth
			return out
		}
		switch {
		case status == http.StatusBadRequest:
			out.Reason = core.ReasonBadRequest
			if !badRequestRecoverable {
				out.Action = stopFatal
			}
		case status == http.StatusTooManyRequests:
			out.Reason = core.ReasonRateLimited
		case status == http.StatusNotFound:
			out.Reason = core.ReasonNotFound
		case status == http.StatusRequestTimeout:
			out.Reason = core.ReasonTimeout
		case status >= 400 && status <= 499:
			out.Reason = core.ReasonClientError
		case status >= 500 && status <= 599:
			out.Reason = core.ReasonUnavailable
		default:
			out.Reason = core.ReasonUnexpected
		}
		return out
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return classification{Reason: core.ReasonTimeout, Detail: "request timed out"}
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return classification{Reason: core.ReasonTimeout, Detail: safeOneLine(nerr.Error())}
	}

	detail := "request failed"
	if err != nil {
		detail = safeOneLine(err.Error())
	}
	return classification{Reason: core.ReasonTransport, Detail: detail}
}

// isAuthFailure reports whether err is a credential rejection from the service.
func isAuthFailure(err error) (*driver.ProviderError, bool) {
	var perr *driver.ProviderError
	if !errors.As(err, &perr) || perr == nil {
		return nil, false
	}
	switch {
	case perr.StatusCode == http.StatusUnauthorized || perr.StatusCode == http.StatusForbidden:
		return perr, true
	case perr.StatusCode == http.StatusBadRequest && strings.Contains(perr.Message+string(perr.RawResponse), apiKeyInvalidReason):
		return perr, true
	}
	return perr, false
}
