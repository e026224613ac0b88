// Package textutil provides the text sanitization shared by the place token
// codec and the provider payload mappers, so both apply identical rules.
package textutil

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Normalize collapses runs of whitespace into a single space and trims the
// ends. An all-whitespace input normalizes to "".
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			inSpace = true
			continue
		}
		if inSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// NormalizeBounded normalizes s and enforces a maximum rune length.
// Returns ok=false when the normalized string is empty or exceeds max.
func NormalizeBounded(s string, max int) (string, bool) {
	n := Normalize(s)
	if n == "" || utf8.RuneCountInString(n) > max {
		return "", false
	}
	return n, true
}

// CapitalizeFirst upper-cases the first rune of s, leaving the rest intact.
func CapitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	upper := unicode.ToUpper(r)
	if upper == r {
		return s
	}
	return string(upper) + s[size:]
}
