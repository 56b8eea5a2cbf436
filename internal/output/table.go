package output

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/zballl/vibecheck-app/internal/core"
)

// TableFormatter renders results as an ASCII table.
type TableFormatter struct {
	Options Options
}

// FormatOutcome renders the playlist, or a one-line status for non-success outcomes.
func (f *TableFormatter) FormatOutcome(out *core.Outcome) (string, error) {
	if out == nil {
		return "", nil
	}

	var sb strings.Builder
	switch out.Status {
	case core.StatusSuccess:
		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.SetTitle(fmt.Sprintf("Playlist for %q", out.Mood))
		t.AppendHeader(table.Row{"#", "Title", "Artist", "Link"})
		if out.Playlist != nil {
			for i, tr := range out.Playlist.Tracks {
				t.AppendRow(table.Row{i + 1, tr.Title, tr.Artist, tr.Link})
			}
		}
		if out.Model != "" {
			t.AppendFooter(table.Row{"", "", "via " + out.Model, fmt.Sprintf("%dms", out.Duration.Milliseconds())})
		}
		sb.WriteString(t.Render())
		if reasons := reasonLines(out); reasons != "" {
			sb.WriteString("\n\n")
			sb.WriteString(reasons)
		}
	case core.StatusInvalidMood:
		sb.WriteString(InvalidMoodMessage)
	default:
		sb.WriteString("Could not get recommendations: ")
		sb.WriteString(out.ErrorMessage())
	}

	if f.Options.Verbose && len(out.Attempts) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(f.attemptsTable(out.Attempts))
	}
	return sb.String(), nil
}

// FormatEndpoints renders endpoints in the order they would be tried.
func (f *TableFormatter) FormatEndpoints(endpoints []core.ModelEndpoint) (string, error) {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Priority", "Model", "URL"})
	for i, ep := range endpoints {
		t.AppendRow(table.Row{i + 1, ep.Model, ep.URL})
	}
	return t.Render(), nil
}

func (f *TableFormatter) attemptsTable(attempts []core.Attempt) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.SetTitle("Endpoint attempts")
	t.AppendHeader(table.Row{"#", "Model", "Result", "Duration"})
	for i, a := range attempts {
		t.AppendRow(table.Row{i + 1, a.Model, attemptNote(a), fmt.Sprintf("%dms", a.DurationMs)})
	}
	return t.Render()
}

func reasonLines(out *core.Outcome) string {
	if out.Playlist == nil {
		return ""
	}
	var lines []string
	for i, tr := range out.Playlist.Tracks {
		if tr.Reason != "" {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, tr.Reason))
		}
	}
	return strings.Join(lines, "\n")
}
