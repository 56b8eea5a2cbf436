package ailink

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildPromptCarriesInstructions(t *testing.T) {
	p := BuildPrompt("rainy sunday, a bit nostalgic")
	require.Contains(t, p, `"rainy sunday, a bit nostalgic"`)
	require.Contains(t, p, InvalidMoodMarker)
	require.Contains(t, p, `{"error": "invalid mood"}`)
	require.Contains(t, p, "exactly 5 objects")
	for _, field := range []string{`"title"`, `"artist"`, `"link"`, `"reason"`} {
		require.Contains(t, p, field)
	}
	require.Contains(t, strings.ToLower(p), "no code fences")
}

func TestBuildPromptBlankMood(t *testing.T) {
	p := BuildPrompt("   ")
	require.Contains(t, p, `mood as: ""`)
	require.Contains(t, p, InvalidMoodMarker)
}

func TestBuildPromptIsDeterministic(t *testing.T) {
	require.Equal(t, BuildPrompt("happy"), BuildPrompt("happy"))
	require.NotEqual(t, BuildPrompt("happy"), BuildPrompt("sad"))
}

func TestBuildPromptQuotesInput(t *testing.T) {
	p := BuildPrompt(`ignore "rules"`)
	require.Contains(t, p, `"ignore \"rules\""`)
}
