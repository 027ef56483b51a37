package domain

import (
	"math"
	"unicode/utf8"
)

// MaxExpectedLength bounds the length of a challenge's expected string.
const MaxExpectedLength = 200

// maxBits bounds the bit size accepted from untrusted input.
const maxBits = 1 << 20

// Challenge is a code a subject was asked to retype. It is never mutated
// after construction.
type Challenge struct {
	Alphabet string `json:"alphabet"`
	Bits     int    `json:"bits"`
	Expected string `json:"expected"`
}

// Validate checks a typed challenge. It never fails hard: all problems are
// reported as ValidationError values.
func (c Challenge) Validate() []ValidationError {
	var errs []ValidationError
	if !IsValidAlphabet(c.Alphabet) {
		errs = append(errs, invalidType("test alphabet is unknown"))
	}
	if c.Bits <= 0 {
		errs = append(errs, invalidType("test bits are not a positive integer"))
	}
	if utf8.RuneCountInString(c.Expected) > MaxExpectedLength {
		errs = append(errs, invalidType("expected test input is too long"))
	}
	if len(errs) > 0 {
		return errs
	}
	return c.checkLength()
}

// checkLength verifies that the expected string has the length implied by
// the alphabet and bit size. Callers must have validated the alphabet.
func (c Challenge) checkLength() []ValidationError {
	if StringSizeToEncode(c.Bits, c.Alphabet) != utf8.RuneCountInString(c.Expected) {
		return []ValidationError{invalidType("expected test input does not match alphabet and bits")}
	}
	return nil
}

// ChallengePayload is the untrusted form of a Challenge as decoded from JSON.
type ChallengePayload struct {
	Alphabet any `json:"alphabet"`
	Bits     any `json:"bits"`
	Expected any `json:"expected"`
}

// Parse validates the payload and converts it to a Challenge. The returned
// Challenge is only meaningful when no errors are returned.
func (p ChallengePayload) Parse() (Challenge, []ValidationError) {
	var (
		c    Challenge
		errs []ValidationError
	)

	alphabet, ok := p.Alphabet.(string)
	if !ok {
		errs = append(errs, invalidType("test alphabet is not a string"))
	} else if !IsValidAlphabet(alphabet) {
		errs = append(errs, invalidType("test alphabet is unknown"))
	}
	c.Alphabet = alphabet

	if bits, ok := p.Bits.(float64); !ok {
		errs = append(errs, invalidType("test bits are not a number"))
	} else if n, ok := wholeNumber(bits); !ok || n <= 0 || n > maxBits {
		errs = append(errs, invalidType("test bits are not a positive integer"))
	} else {
		c.Bits = n
	}

	expected, ok := p.Expected.(string)
	if !ok {
		errs = append(errs, invalidType("expected test input is not a string"))
	} else if utf8.RuneCountInString(expected) > MaxExpectedLength {
		errs = append(errs, invalidType("expected test input is too long"))
	}
	c.Expected = expected

	if len(errs) > 0 {
		return c, errs
	}
	return c, c.checkLength()
}

// wholeNumber converts a decoded JSON number to an int when it has no
// fractional part and fits comfortably in an int.
func wholeNumber(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}
