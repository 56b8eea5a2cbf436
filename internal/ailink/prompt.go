package ailink

import (
	"fmt"
	"strings"

	"github.com/zballl/vibecheck-app/internal/core"
)

// InvalidMoodMarker is the literal the model is told to return for input
// that is not a mood.
const InvalidMoodMarker = "INVALID_MOOD"

const promptTemplate = `You are a music curator. The user describes their mood as: %q

Rules:
1. If the text above is gibberish, empty, or not a mood or feeling, reply with exactly %s or the JSON object {"error": "invalid mood"} and nothing else.
2. Otherwise reply with a JSON array of exactly %d objects. Each object has the string fields "title", "artist", "link" (a full https URL to listen to the song) and "reason" (one short sentence on why it fits the mood).
3. Output the bare JSON only. No prose, no explanations, no markdown, no code fences.`

// BuildPrompt returns the generation prompt for mood. Blank input is sent
// unchanged; the model decides whether it is a mood.
func BuildPrompt(mood string) string {
	return fmt.Sprintf(promptTemplate, strings.TrimSpace(mood), InvalidMoodMarker, core.MaxTracks)
}
