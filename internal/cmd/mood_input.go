package cmd

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"strings"

	"github.com/zballl/vibecheck-app/internal/mood"
)

// moodSources are the mutually exclusive ways to pick a mood.
type moodSources struct {
	Positional []string
	Surprise   bool
	Quiz       string
	Stdin      io.Reader
	Rand       *rand.Rand
}

// resolveMood returns the mood text to send. "-" as the only argument reads stdin.
func resolveMood(src moodSources) (string, error) {
	used := 0
	if len(src.Positional) > 0 {
		used++
	}
	if src.Surprise {
		used++
	}
	if strings.TrimSpace(src.Quiz) != "" {
		used++
	}
	if used > 1 {
		return "", fmt.Errorf("use only one of: a mood argument, --surprise, --quiz")
	}

	switch {
	case src.Surprise:
		return mood.Surprise(src.Rand), nil
	case strings.TrimSpace(src.Quiz) != "":
		answers, err := mood.ParseQuiz(src.Quiz)
		if err != nil {
			return "", err
		}
		return mood.FromQuiz(answers)
	case len(src.Positional) == 1 && src.Positional[0] == "-":
		return readMood(src.Stdin)
	}

	if len(src.Positional) == 0 {
		return "", fmt.Errorf("a mood is required (or use --surprise or --quiz)")
	}
	// A blank argument is sent as-is; the model classifies it.
	return strings.TrimSpace(strings.Join(src.Positional, " ")), nil
}

// readMood joins the non-comment lines of r into one mood description.
// Input with no such lines yields an empty mood.
func readMood(r io.Reader) (string, error) {
	if r == nil {
		return "", fmt.Errorf("no input to read mood from")
	}

	var parts []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts = append(parts, line)
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return strings.Join(parts, " "), nil
}
