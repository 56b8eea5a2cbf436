package output

import (
	"fmt"
	"strings"

	"github.com/zballl/vibecheck-app/internal/core"
)

// MarkdownFormatter renders results as markdown.
type MarkdownFormatter struct {
	Options Options
}

// FormatOutcome renders an outcome as a markdown section.
func (f *MarkdownFormatter) FormatOutcome(out *core.Outcome) (string, error) {
	if out == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Playlist for %s\n\n", escapeMarkdownCell(out.Mood)))

	switch out.Status {
	case core.StatusSuccess:
		sb.WriteString("| # | Title | Artist | Why |\n")
		sb.WriteString("|---|-------|--------|-----|\n")
		if out.Playlist != nil {
			for i, tr := range out.Playlist.Tracks {
				sb.WriteString(fmt.Sprintf("| %d | [%s](%s) | %s | %s |\n",
					i+1,
					escapeMarkdownLink(tr.Title),
					tr.Link,
					escapeMarkdownCell(tr.Artist),
					escapeMarkdownCell(tr.Reason),
				))
			}
		}
		if out.Model != "" {
			sb.WriteString(fmt.Sprintf("\n_Generated by %s in %dms._\n", out.Model, out.Duration.Milliseconds()))
		}
	case core.StatusInvalidMood:
		sb.WriteString("> " + InvalidMoodMessage + "\n")
	default:
		sb.WriteString("**Error**: " + escapeMarkdownCell(out.ErrorMessage()) + "\n")
	}

	if f.Options.Verbose && len(out.Attempts) > 0 {
		sb.WriteString("\n### Endpoint attempts\n\n")
		sb.WriteString("| # | Model | Result | Duration |\n")
		sb.WriteString("|---|-------|--------|----------|\n")
		for i, a := range out.Attempts {
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %dms |\n",
				i+1, escapeMarkdownCell(a.Model), escapeMarkdownCell(attemptNote(a)), a.DurationMs))
		}
	}
	return sb.String(), nil
}

// FormatEndpoints renders endpoints as a markdown table.
func (f *MarkdownFormatter) FormatEndpoints(endpoints []core.ModelEndpoint) (string, error) {
	var sb strings.Builder
	sb.WriteString("| Priority | Model | URL |\n")
	sb.WriteString("|----------|-------|-----|\n")
	for i, ep := range endpoints {
		sb.WriteString(fmt.Sprintf("| %d | %s | %s |\n", i+1, escapeMarkdownCell(ep.Model), ep.URL))
	}
	return sb.String(), nil
}

func escapeMarkdownCell(value string) string {
	value = strings.ReplaceAll(value, "\n", " ")
	return strings.ReplaceAll(value, "|", "\\|")
}

func escapeMarkdownLink(value string) string {
	r := strings.NewReplacer("[", "\\[", "]", "\\]")
	return r.Replace(escapeMarkdownCell(value))
}
