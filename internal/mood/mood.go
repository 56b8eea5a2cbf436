// Package mood holds the built-in mood presets and the "not sure how I feel"
// quiz that maps three answers onto a preset.
package mood

import (
	"fmt"
	"math/rand"
	"strings"
)

// Built-in moods.
const (
	Energetic   = "Energetic"
	Melancholy  = "Melancholy"
	Chill       = "Chill"
	Heartbroken = "Heartbroken"
	Dreamy      = "Dreamy"
	Neutral     = "Neutral"
)

// Presets are the one-tap moods offered to users.
var Presets = []string{Energetic, Melancholy, Chill, Heartbroken}

// surprisePool is what Surprise picks from.
var surprisePool = []string{Energetic, Chill, Melancholy, Dreamy}

// Surprise returns a random mood. A nil rng uses the global source.
func Surprise(rng *rand.Rand) string {
	if rng == nil {
		return surprisePool[rand.Intn(len(surprisePool))]
	}
	return surprisePool[rng.Intn(len(surprisePool))]
}

// Quiz answer options.
var (
	PhysicalOptions  = []string{"Energetic", "Tired", "Neutral", "Weak"}
	EmotionalOptions = []string{"Happy", "Sad", "Anxious", "Relaxed"}
	MentalOptions    = []string{"Focused", "Distracted", "Overwhelmed", "Calm"}
)

// QuizAnswers are the three quiz responses.
type QuizAnswers struct {
	Physical  string `json:"physical" mapstructure:"physical"`
	Emotional string `json:"emotional" mapstructure:"emotional"`
	Mental    string `json:"mental" mapstructure:"mental"`
}

// FromQuiz maps quiz answers to a mood. Answers are matched case-insensitively.
func FromQuiz(a QuizAnswers) (string, error) {
	physical, err := pick("physical", a.Physical, PhysicalOptions)
	if err != nil {
		return "", err
	}
	emotional, err := pick("emotional", a.Emotional, EmotionalOptions)
	if err != nil {
		return "", err
	}
	mental, err := pick("mental", a.Mental, MentalOptions)
	if err != nil {
		return "", err
	}

	switch {
	case physical == "Energetic" && emotional == "Happy" && mental == "Focused":
		return Energetic, nil
	case physical == "Tired" && emotional == "Sad":
		return Melancholy, nil
	case emotional == "Relaxed" && mental == "Calm":
		return Chill, nil
	default:
		return Neutral, nil
	}
}

// ParseQuiz parses "physical=Tired,emotional=Sad,mental=Calm".
func ParseQuiz(raw string) (QuizAnswers, error) {
	var a QuizAnswers
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return QuizAnswers{}, fmt.Errorf("invalid quiz answer %q (expected key=value)", pair)
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "physical":
			a.Physical = value
		case "emotional":
			a.Emotional = value
		case "mental":
			a.Mental = value
		default:
			return QuizAnswers{}, fmt.Errorf("unknown quiz question %q", key)
		}
	}
	return a, nil
}

func pick(question, answer string, options []string) (string, error) {
	answer = strings.TrimSpace(answer)
	for _, opt := range options {
		if strings.EqualFold(opt, answer) {
			return opt, nil
		}
	}
	return "", fmt.Errorf("invalid %s answer %q (expected one of %s)", question, answer, strings.Join(options, ", "))
}
