package output

import (
	"encoding/json"

	"github.com/zballl/vibecheck-app/internal/core"
)

// JSONFormatter renders results as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatOutcome renders an outcome as JSON.
func (f *JSONFormatter) FormatOutcome(out *core.Outcome) (string, error) {
	if out == nil {
		return "", nil
	}
	return f.marshal(NewOutcomeView(out))
}

// FormatEndpoints renders the endpoint list as a JSON array.
func (f *JSONFormatter) FormatEndpoints(endpoints []core.ModelEndpoint) (string, error) {
	if endpoints == nil {
		endpoints = []core.ModelEndpoint{}
	}
	return f.marshal(endpoints)
}

func (f *JSONFormatter) marshal(v any) (string, error) {
	var (
		data []byte
		err  error
	)
	if f.Indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}
