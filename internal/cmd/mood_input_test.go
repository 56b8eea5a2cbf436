package cmd

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zballl/vibecheck-app/internal/mood"
)

func TestResolveMoodPositional(t *testing.T) {
	got, err := resolveMood(moodSources{Positional: []string{"rainy", " sunday "}})
	require.NoError(t, err)
	assert.Equal(t, "rainy  sunday", got)
}

func TestResolveMoodStdin(t *testing.T) {
	in := strings.NewReader("# how are you\n\nwired\nbut tired\n")
	got, err := resolveMood(moodSources{Positional: []string{"-"}, Stdin: in})
	require.NoError(t, err)
	assert.Equal(t, "wired but tired", got)

	got, err = resolveMood(moodSources{Positional: []string{"-"}, Stdin: strings.NewReader("# only comments\n")})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestResolveMoodSurprise(t *testing.T) {
	got, err := resolveMood(moodSources{Surprise: true, Rand: rand.New(rand.NewSource(1))})
	require.NoError(t, err)
	assert.Contains(t, []string{mood.Energetic, mood.Chill, mood.Melancholy, mood.Dreamy}, got)
}

func TestResolveMoodQuiz(t *testing.T) {
	got, err := resolveMood(moodSources{Quiz: "physical=Tired,emotional=Sad,mental=Calm"})
	require.NoError(t, err)
	assert.Equal(t, mood.Melancholy, got)

	_, err = resolveMood(moodSources{Quiz: "Tired,Sad"})
	require.Error(t, err)
}

func TestResolveMoodRejectsAmbiguousOrMissing(t *testing.T) {
	_, err := resolveMood(moodSources{Positional: []string{"happy"}, Surprise: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only one")

	_, err = resolveMood(moodSources{})
	require.Error(t, err)
}

func TestResolveMoodPassesBlankArgument(t *testing.T) {
	got, err := resolveMood(moodSources{Positional: []string{"   "}})
	require.NoError(t, err)
	assert.Empty(t, got)
}
