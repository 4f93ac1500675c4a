package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeTitle cleans a raw title (often a release or file name) into a
// display title: separators become spaces, runs collapse, and the result is
// title-cased. Returns "Unknown Title" when nothing usable remains.
func NormalizeTitle(raw string) string {
	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range raw {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r) || r == '\'':
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	title := strings.TrimSpace(cleaned.String())
	if title == "" {
		return "Unknown Title"
	}
	return cases.Title(language.Und).String(title)
}

// NormalizeKey lowercases and trims a comparison key so lookups are
// case-insensitive.
func NormalizeKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
