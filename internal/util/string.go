package util

import "strings"

// TruncateString truncates a string to maxRunes characters (rune-based, not byte-based)
// If truncated, appends "..." to the result
func TruncateString(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes]) + "..."
}

// Normalize performs basic string normalization (lowercase + trim). Search
// cache keys are built from normalized queries so case/whitespace variants
// share one entry.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
