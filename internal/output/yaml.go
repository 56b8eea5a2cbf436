package output

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zballl/vibecheck-app/internal/core"
)

// YAMLFormatter renders results as YAML.
type YAMLFormatter struct{}

// FormatOutcome renders an outcome as YAML.
func (f *YAMLFormatter) FormatOutcome(out *core.Outcome) (string, error) {
	if out == nil {
		return "", nil
	}
	return marshalYAML(NewOutcomeView(out))
}

// FormatEndpoints renders the endpoint list as a YAML sequence.
func (f *YAMLFormatter) FormatEndpoints(endpoints []core.ModelEndpoint) (string, error) {
	type endpointView struct {
		Model string `yaml:"model"`
		URL   string `yaml:"url"`
	}
	views := make([]endpointView, 0, len(endpoints))
	for _, ep := range endpoints {
		views = append(views, endpointView(ep))
	}
	return marshalYAML(views)
}

func marshalYAML(v any) (string, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\n"), nil
}
