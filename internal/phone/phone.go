// Package phone canonicalizes and validates Vietnamese phone numbers.
package phone

import "strings"

const countryPrefix = "+84"

// canonicalLen is the length of a canonical number: "+84" plus nine digits.
const canonicalLen = 12

// Normalize converts a local-format number (leading "0") to the canonical
// "+84" form. Numbers that do not start with "0" are returned unchanged, so
// Normalize is idempotent.
func Normalize(number string) string {
	if strings.HasPrefix(number, "0") {
		return countryPrefix + number[1:]
	}
	return number
}

// Valid reports whether number is a canonical "+84" number of the expected
// length. Callers must Normalize first; Valid never rewrites its input.
func Valid(number string) bool {
	return len(number) == canonicalLen && strings.HasPrefix(number, countryPrefix)
}
