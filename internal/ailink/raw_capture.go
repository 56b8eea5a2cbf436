package ailink

import (
	"strings"
	"unicode/utf8"
)

func truncateText(input string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(input) <= max {
		return input
	}
	out := input[:max]
	for len(out) > 0 && !utf8.ValidString(out) {
		out = out[:len(out)-1]
	}
	return out
}

func isRawCaptureEnabled(cfg Config) bool {
	return cfg.Debug.CaptureRawEnabled
}

func rawLimit(cfg Config) int {
	if cfg.Debug.CaptureRawMaxBytes <= 0 {
		return 0
	}
	return cfg.Debug.CaptureRawMaxBytes
}

func safeOneLine(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
}
