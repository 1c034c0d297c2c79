package util

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	currencyPattern = regexp.MustCompile(`(?i)(€|\$|£|eur|euros?|ttc|ht)`)
	digitPattern    = regexp.MustCompile(`\d`)
)

// ParsePrice turns a locale-ambiguous price string into a float64.
// When both separators occur, the one appearing last is the decimal
// point and the other is a thousands separator. A lone comma is a
// decimal point. Unparseable input yields 0, never an error: callers
// must not treat 0 as "absent", use ParsePricePtr for presence.
func ParsePrice(raw string) float64 {
	cleaned := currencyPattern.ReplaceAllString(raw, "")
	cleaned = strings.ReplaceAll(cleaned, "\u00a0", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.TrimSpace(cleaned)

	lastComma := strings.LastIndex(cleaned, ",")
	lastDot := strings.LastIndex(cleaned, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case lastComma >= 0:
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}

	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return parsed
}

// ParsePricePtr is ParsePrice with presence: nil when the input carries
// no digit at all.
func ParsePricePtr(raw string) *float64 {
	if !digitPattern.MatchString(raw) {
		return nil
	}
	v := ParsePrice(raw)
	return &v
}
