// Package phone normalizes and formats North American phone numbers.
package phone

import (
	"errors"
	"strings"
)

// ErrInvalid reports input that cannot be normalized to E.164.
var ErrInvalid = errors.New("invalid phone number")

// Normalize converts free-form input to E.164.
//
// Eleven digits with a leading 1 and ten bare digits are treated as NANP
// numbers; longer digit strings are assumed to already carry a country code.
func Normalize(input string) (string, error) {
	digits := Digits(input)
	switch {
	case len(digits) == 11 && strings.HasPrefix(digits, "1"):
		return "+" + digits, nil
	case len(digits) == 10:
		return "+1" + digits, nil
	case len(digits) > 11:
		return "+" + digits, nil
	default:
		return "", ErrInvalid
	}
}

// FormatEnglish renders a NANP number as "(AAA) PPP-LLLL". It reports false
// for numbers that are not ten-digit NANP numbers once normalized.
func FormatEnglish(input string) (string, bool) {
	normalized, err := Normalize(input)
	if err != nil {
		return "", false
	}
	core := strings.TrimPrefix(normalized, "+")
	if len(core) == 11 && strings.HasPrefix(core, "1") {
		core = core[1:]
	}
	if len(core) != 10 {
		return "", false
	}
	return "(" + core[:3] + ") " + core[3:6] + "-" + core[6:], true
}

// Display returns the English format when available and the input otherwise.
func Display(input string) string {
	if formatted, ok := FormatEnglish(input); ok {
		return formatted
	}
	return strings.TrimSpace(input)
}

// LastFour returns the final four digits of input, or "" when it has fewer.
func LastFour(input string) string {
	digits := Digits(input)
	if len(digits) < 4 {
		return ""
	}
	return digits[len(digits)-4:]
}

// Digits strips everything but ASCII digits.
func Digits(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Mask hides all but the last four digits, as "***-***-4567".
func Mask(input string) string {
	last := LastFour(input)
	if last == "" {
		return ""
	}
	return "***-***-" + last
}
