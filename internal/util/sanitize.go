package util

import (
	"strings"
	"unicode"
)

// SanitizeDisplayName strips control and invisible characters and collapses
// runs of whitespace so two names that render the same compare equal.
func SanitizeDisplayName(name string) string {
	builder := strings.Builder{}
	builder.Grow(len(name))

	pendingSpace := false
	for _, char := range name {
		switch {
		case unicode.IsSpace(char):
			pendingSpace = builder.Len() > 0
		case unicode.IsControl(char) || isInvisibleUnicode(char):
		default:
			if pendingSpace {
				builder.WriteByte(' ')
				pendingSpace = false
			}
			builder.WriteRune(char)
		}
	}

	return builder.String()
}

func isInvisibleUnicode(r rune) bool {
	switch r {
	case
		'\u200B', // zero-width space
		'\u200C', // zero-width non-joiner
		'\u200D', // zero-width joiner
		'\u2060', // word joiner
		'\uFEFF', // BOM
		'\uFFF9', '\uFFFA', '\uFFFB':
		return true
	}

	return unicode.Is(unicode.Cf, r)
}
