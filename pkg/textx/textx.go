// Package textx provides small text utilities shared by catalog readers and
// request decoding.
package textx

import (
	"strings"
)

// SanitizeText removes control characters except tab/newline/CR and trims spaces.
func SanitizeText(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' || (r >= 32 && r != 127) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// CleanField sanitizes s and collapses inner whitespace runs to one space.
// Used for single-line catalog fields such as company or location.
func CleanField(s string) string {
	return strings.Join(strings.Fields(SanitizeText(s)), " ")
}

// SplitList splits s on any rune in seps, cleans every element and drops
// empty ones. Order and duplicates are kept.
func SplitList(s, seps string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return strings.ContainsRune(seps, r) })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = CleanField(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
