package storage

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// fallbackStem is used when a title yields no usable file name.
const fallbackStem = "index"

// SanitizeFilename maps a page title to a file name stem.
//
// Only letters, digits, space, underscore and hyphen survive; every other
// rune (path separators, punctuation, symbols) is dropped and trailing
// whitespace is trimmed. An empty title returns "index".
//
// A non-empty title with no valid characters (e.g. "!!!") returns "".
// Use StemFor when the result must be a usable file name.
func SanitizeFilename(title string) string {
	if title == "" {
		return fallbackStem
	}

	// NFC keeps "é" as one letter instead of "e" + a dropped combining mark.
	title = norm.NFC.String(title)

	var sb strings.Builder
	sb.Grow(len(title))
	for _, r := range title {
		if isFilenameRune(r) {
			sb.WriteRune(r)
		}
	}

	return strings.TrimRightFunc(sb.String(), unicode.IsSpace)
}

// StemFor returns SanitizeFilename(title), or "index" if that is empty.
func StemFor(title string) string {
	if stem := SanitizeFilename(title); stem != "" {
		return stem
	}
	return fallbackStem
}

func isFilenameRune(r rune) bool {
	switch {
	case unicode.IsLetter(r), unicode.IsNumber(r):
		return true
	case r == ' ', r == '_', r == '-':
		return true
	default:
		return false
	}
}
