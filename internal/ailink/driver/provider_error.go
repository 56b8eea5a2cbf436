package driver

import "fmt"

// ProviderError is returned when the service responds with a status other than 200.
//
// RawResponse holds the response body bytes and must never include API keys.
type ProviderError struct {
	Provider    string
	Model       string
	StatusCode  int
	Message     string
	RawResponse []byte
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "provider error"
	}
	name := e.Provider
	if e.Model != "" {
		name += "/" + e.Model
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s request failed: status %d: %s", name, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s request failed: %s", name, e.Message)
}
