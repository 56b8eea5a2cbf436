package output

import (
	"fmt"
	"strings"

	"github.com/zballl/vibecheck-app/internal/core"
)

// Format represents an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatYAML     Format = "yaml"
)

// InvalidMoodMessage is shown when the model did not recognize a mood.
const InvalidMoodMessage = "That doesn't look like a mood. Try describing how you feel, e.g. \"restless but hopeful\"."

// Formatter renders pipeline results.
type Formatter interface {
	FormatOutcome(out *core.Outcome) (string, error)
	FormatEndpoints(endpoints []core.ModelEndpoint) (string, error)
}

// Options tune what formatters include.
type Options struct {
	// Verbose adds the per-endpoint attempt log.
	Verbose bool
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatMarkdown), "md":
		return FormatMarkdown, nil
	case string(FormatYAML), "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format, opts Options) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatMarkdown:
		return &MarkdownFormatter{Options: opts}
	case FormatYAML:
		return &YAMLFormatter{}
	default:
		return &TableFormatter{Options: opts}
	}
}

// OutcomeView is the serializable shape of an outcome for JSON and YAML.
type OutcomeView struct {
	Status     core.Status    `json:"status" yaml:"status"`
	Mood       string         `json:"mood" yaml:"mood"`
	Model      string         `json:"model,omitempty" yaml:"model,omitempty"`
	Tracks     []core.Track   `json:"tracks,omitempty" yaml:"tracks,omitempty"`
	Message    string         `json:"message,omitempty" yaml:"message,omitempty"`
	Error      string         `json:"error,omitempty" yaml:"error,omitempty"`
	Attempts   []core.Attempt `json:"attempts,omitempty" yaml:"attempts,omitempty"`
	DurationMs int64          `json:"duration_ms" yaml:"duration_ms"`
}

// NewOutcomeView flattens an outcome. Attempts are always included so
// machine-readable output carries the full diagnostic trail.
func NewOutcomeView(out *core.Outcome) OutcomeView {
	if out == nil {
		return OutcomeView{}
	}
	view := OutcomeView{
		Status:     out.Status,
		Mood:       out.Mood,
		Model:      out.Model,
		Error:      out.ErrorMessage(),
		Attempts:   out.Attempts,
		DurationMs: out.Duration.Milliseconds(),
	}
	if out.Playlist != nil {
		view.Tracks = out.Playlist.Tracks
	}
	if out.Status == core.StatusInvalidMood {
		view.Message = InvalidMoodMessage
	}
	return view
}

func attemptNote(a core.Attempt) string {
	parts := []string{a.Reason}
	if a.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("HTTP %d", a.StatusCode))
	}
	if a.Detail != "" {
		parts = append(parts, a.Detail)
	}
	return strings.Join(parts, " · ")
}
