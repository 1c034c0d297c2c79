package util

import (
	"regexp"
	"strings"
)

var reSpaces = regexp.MustCompile(`\s+`)

// CollapseSpaces trims the string and squeezes runs of whitespace,
// including non-breaking spaces, into single spaces.
func CollapseSpaces(input string) string {
	s := strings.ReplaceAll(input, "\u00a0", " ")
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}

// FoldName prepares a product name or reference for case-insensitive
// comparison during reconciliation.
func FoldName(input string) string {
	return strings.ToLower(CollapseSpaces(input))
}

// SplitLines breaks text into trimmed, non-empty lines with
// non-breaking spaces normalized, so downstream patterns can rely on
// plain ASCII whitespace.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\u00a0", " ")
	parts := strings.Split(text, "\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Truncate cuts a string to at most n runes.
func Truncate(input string, n int) string {
	r := []rune(input)
	if len(r) <= n {
		return input
	}
	return string(r[:n])
}

func StringPtr(v string) *string { return &v }

func FloatPtr(v float64) *float64 { return &v }
