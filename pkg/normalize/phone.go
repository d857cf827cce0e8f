package normalize

import (
	"strings"
	"unicode"
)

// phoneSuffixLen is the national-number length used for matching. Keeping
// only the rightmost digits makes "0744xxxxxx" and "+40744xxxxxx" collide.
const phoneSuffixLen = 9

// Digits removes every non-digit character from a phone number.
func Digits(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// PhoneSuffix returns the rightmost nine digits of a phone number, or the
// full digit string when shorter. Empty input yields "".
func PhoneSuffix(s string) string {
	digits := Digits(s)
	if len(digits) > phoneSuffixLen {
		return digits[len(digits)-phoneSuffixLen:]
	}
	return digits
}
