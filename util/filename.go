package util

import (
	"strings"
	"unicode"
)

// SanitizeFilename makes s safe to use as a single path element: separators and control characters are replaced,
// surrounding whitespace and dots are trimmed, and an empty result becomes "_".
func SanitizeFilename(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case r == ':' || r == '*' || r == '?' || r == '"' || r == '<' || r == '>' || r == '|':
			return '_'
		case unicode.IsControl(r):
			return -1
		default:
			return r
		}
	}, s)
	s = strings.Trim(s, " .")
	if s == "" {
		return "_"
	}
	return s
}
