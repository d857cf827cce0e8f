// Package normalize provides the canonical-form and variation logic used to
// index and match customer names and phone numbers.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Name produces the canonical form of a person/company name: lowercase,
// diacritics decomposed to their base letter, everything that is not a
// letter, digit or whitespace removed, whitespace collapsed.
func Name(s string) string {
	s = strings.ToLower(s)

	if stripped, _, err := transform.String(diacriticStripper, s); err == nil {
		s = stripped
	}

	var result strings.Builder
	prevSpace := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			result.WriteRune(r)
			prevSpace = false
		} else if unicode.IsSpace(r) {
			if !prevSpace && result.Len() > 0 {
				result.WriteRune(' ')
				prevSpace = true
			}
		}
	}

	return strings.TrimSpace(result.String())
}

// NameVariations expands a raw name into the set of canonical variants used
// as index keys: the canonical form, the same tokens in reverse order
// ("Lastname Firstname" input swaps), and one variant per dictionary
// equivalence of any token. The set is deduplicated and never empty for a
// non-empty canonical form.
func NameVariations(s string) []string {
	canonical := Name(s)
	if canonical == "" {
		return nil
	}

	seen := map[string]bool{canonical: true}
	variations := []string{canonical}

	add := func(v string) {
		if v != "" && !seen[v] {
			seen[v] = true
			variations = append(variations, v)
		}
	}

	tokens := strings.Fields(canonical)
	if len(tokens) > 1 {
		reversed := make([]string, len(tokens))
		for i, tok := range tokens {
			reversed[len(tokens)-1-i] = tok
		}
		add(strings.Join(reversed, " "))
	}

	// Substitute any token that appears in the equivalence dictionary,
	// one substitution per variant.
	for i, tok := range tokens {
		for _, alt := range Equivalents(tok) {
			sub := make([]string, len(tokens))
			copy(sub, tokens)
			sub[i] = alt
			add(strings.Join(sub, " "))
			if len(tokens) > 1 {
				rev := make([]string, len(sub))
				for j, t := range sub {
					rev[len(sub)-1-j] = t
				}
				add(strings.Join(rev, " "))
			}
		}
	}

	return variations
}
