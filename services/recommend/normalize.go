package recommend

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/cases"
)

// normalizeTitle folds case, transliterates to ASCII and drops punctuation so that
// "Amélie" and "amelie!" compare equal.
func normalizeTitle(title string) string {
	ascii := unidecode.Unidecode(strings.TrimSpace(title))
	folded := cases.Fold().String(ascii)
	var b strings.Builder
	b.Grow(len(folded))
	space := false
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			space = false
		case unicode.IsSpace(r) || r == '-' || r == ':':
			if !space && b.Len() > 0 {
				b.WriteByte(' ')
				space = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// cleanValue strips markdown emphasis and wrapping quotes the model tends to add
// around field values.
func cleanValue(v string) string {
	v = strings.Trim(v, "*_` \t\r")
	if len(v) >= 2 {
		first, last := v[0], v[len(v)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			v = strings.TrimSpace(v[1 : len(v)-1])
		}
	}
	return v
}
