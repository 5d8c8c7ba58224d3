package fuzzy

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases s, strips combining marks and turns every run of
// non-alphanumeric runes into a single space, so "Amélie: Le Fabuleux" and
// "amelie le fabuleux" compare equal.
func Fold(s string) string {
	if s == "" {
		return ""
	}
	// Transformers and casers carry state, build them per call.
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(stripMarks, s)
	if err != nil {
		stripped = s
	}
	folded := cases.Fold().String(stripped)

	var builder strings.Builder
	builder.Grow(len(folded))
	pendingSpace := false
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			if pendingSpace && builder.Len() > 0 {
				builder.WriteByte(' ')
			}
			pendingSpace = false
			builder.WriteRune(r)
			continue
		}
		pendingSpace = true
	}
	return builder.String()
}
