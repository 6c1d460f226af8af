package transcription

import (
	"regexp"
	"strings"
)

var (
	// Keeps word characters, whitespace and the accented letters used in
	// Spanish; everything else is stripped.
	nonLinguistic = regexp.MustCompile(`[^\w\sáéíóúÁÉÍÓÚñÑüÜ]`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// CleanText normalizes transcript text: strips non-linguistic characters,
// collapses whitespace runs and trims the ends. Total and idempotent.
func CleanText(text string) string {
	clean := nonLinguistic.ReplaceAllString(text, "")
	clean = whitespaceRun.ReplaceAllString(clean, " ")
	return strings.TrimSpace(clean)
}
