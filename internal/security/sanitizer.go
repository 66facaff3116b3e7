package security

import (
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// Length caps for free text stored with ledger rows
const (
	MaxNameLength   = 50
	MaxReasonLength = 200
)

var htmlPolicy = bluemonday.StrictPolicy()

// SanitizeString trims whitespace, removes null bytes and caps the length
// at maxRunes characters.
func SanitizeString(input string, maxRunes int) string {
	input = strings.TrimSpace(input)
	input = strings.ReplaceAll(input, "\x00", "")

	if maxRunes > 0 && utf8.RuneCountInString(input) > maxRunes {
		input = strings.TrimSpace(string([]rune(input)[:maxRunes]))
	}

	return input
}

// SanitizeHTML removes all HTML tags
func SanitizeHTML(input string) string {
	return htmlPolicy.Sanitize(input)
}

// SanitizeText prepares user supplied text such as a display name or an
// admin reason for storage.
func SanitizeText(input string, maxRunes int) string {
	return SanitizeString(SanitizeHTML(input), maxRunes)
}
