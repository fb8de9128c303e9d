package moderation

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Normalize lower-cases text, turns every rune that is not a letter, digit or
// whitespace into a space, collapses runs of whitespace and trims the result.
// Normalize(Normalize(s)) == Normalize(s) for every s.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	// cases.Caser keeps state, so one is built per call.
	lowered := cases.Lower(language.Und).String(norm.NFC.String(text))

	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, lowered)

	return strings.Join(strings.Fields(mapped), " ")
}

// Tokens splits normalized text on single spaces.
func Tokens(text string) []string {
	return strings.Fields(Normalize(text))
}
