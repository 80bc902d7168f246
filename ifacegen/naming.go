package ifacegen

import (
	"strings"
	"unicode"
)

// TitleCase upper-cases every letter that follows a non-letter and
// lower-cases every other letter.
// e.g., "iterator" → "Iterator", "foo_bar" → "Foo_Bar", "HashMap" → "Hashmap",
// "utf8string" → "Utf8String"
func TitleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}
