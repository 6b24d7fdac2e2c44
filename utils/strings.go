package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// UpperSnake converts an identifier to UPPER_SNAKE_CASE:
// "serieId" -> "SERIE_ID", "isCapsule" -> "IS_CAPSULE", "created_at" -> "CREATED_AT".
// Characters that are not letters or digits become a single underscore. A
// leading digit is prefixed with an underscore so the result is always a
// valid enum name. An input without letters or digits yields "".
func UpperSnake(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 4)
	pendingSep := false

	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			pendingSep = b.Len() > 0
			continue
		}
		if unicode.IsUpper(r) && i > 0 && b.Len() > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				pendingSep = true
			}
		}
		if pendingSep {
			b.WriteByte('_')
			pendingSep = false
		}
		if b.Len() == 0 && unicode.IsDigit(r) {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}

	// A Caser keeps state, so one is created per call.
	return cases.Upper(language.Und).String(b.String())
}
