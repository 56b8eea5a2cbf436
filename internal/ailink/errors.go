package ailink

import (
	"errors"
	"fmt"

	"github.com/zballl/vibecheck-app/internal/core"
)

// ErrInvalidMood is returned when the model classified the input as not a mood.
// It is a classification, not a malfunction.
var ErrInvalidMood = errors.New("input was not recognized as a mood")

// AuthError reports a rejected or missing credential. It is never retried
// against another endpoint because every endpoint shares the credential.
type AuthError struct {
	Endpoint   core.ModelEndpoint
	StatusCode int
	Message    string

	// Attempts holds the endpoint contacts made before the rejection.
	Attempts []core.Attempt
}

func (e *AuthError) Error() string {
	if e == nil {
		return "authentication failed"
	}
	msg := "authentication failed"
	if e.Endpoint.Model != "" {
		msg += " for " + e.Endpoint.Model
	}
	if e.StatusCode > 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// DispatchError reports that no endpoint produced a usable response.
//
// Failures lists every attempted endpoint in the order it was contacted.
// Err is set when the dispatch ended early (cancellation or a fatal 400).
type DispatchError struct {
	Failures []core.Attempt
	Err      error
}

func (e *DispatchError) Error() string {
	if e == nil {
		return "dispatch failed"
	}
	if e.Err != nil {
		return fmt.Sprintf("dispatch stopped after %d attempt(s): %v", len(e.Failures), e.Err)
	}
	if len(e.Failures) == 0 {
		return "dispatch failed: no endpoints to try"
	}
	return fmt.Sprintf("all %d endpoint(s) failed; last: %s %s", len(e.Failures), e.Failures[len(e.Failures)-1].Model, e.Failures[len(e.Failures)-1].Reason)
}

func (e *DispatchError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ExtractError wraps a 200 response whose payload could not be turned into
// a playlist. Raw holds the (possibly truncated) model text for debugging.
type ExtractError struct {
	Err error
	Raw string
}

func (e *ExtractError) Error() string {
	if e == nil || e.Err == nil {
		return "could not extract playlist"
	}
	return "could not extract playlist: " + e.Err.Error()
}

func (e *ExtractError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// attemptsFrom returns the attempt log carried by a pipeline error.
func attemptsFrom(err error) []core.Attempt {
	var derr *DispatchError
	if errors.As(err, &derr) {
		return derr.Failures
	}
	var aerr *AuthError
	if errors.As(err, &aerr) {
		return aerr.Attempts
	}
	return nil
}
