package identity

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Key builds the normalized composite identity of a character: "name-realm",
// case-folded and NFC-normalized. Empty inputs are treated as empty strings,
// so Key never fails and two spellings that only differ in case or Unicode
// composition map to the same key.
func Key(name, realm string) string {
	return fold(name) + "-" + fold(realm)
}

// fold returns the caseless, NFC-normalized form of s.
// A cases.Caser is stateful, so a fresh one is used per call.
func fold(s string) string {
	if s == "" {
		return ""
	}
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(s)))
}

// Slug converts a display realm or guild name into the URL slug used by the
// remote API ("Area 52" -> "area-52", "Aggra (Português)" -> "aggra-português").
func Slug(s string) string {
	s = cases.Lower(language.Und).String(norm.NFC.String(strings.TrimSpace(s)))

	var b strings.Builder
	b.Grow(len(s))
	dash := false
	for _, r := range s {
		switch {
		case r == '\'' || r == '(' || r == ')':
			continue
		case r == ' ' || r == '-' || r == '_':
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		default:
			b.WriteRune(r)
			dash = false
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
