package domain

import (
	"math"
	"strings"
)

// Alphabet names, in registry order.
const (
	Base10   = "base10"
	Base16   = "base16"
	Base32   = "base32"
	Base36   = "base36"
	Base58   = "base58"
	Base64   = "base64"
	Base1024 = "base1024"
)

// Syllable parts for the base1024 alphabet. Every consonant-vowel-consonant
// triple is distinct, so the alphabet has exactly 16*4*16 symbols.
const (
	syllableConsonants = "bdfghjklmnprstvz"
	syllableVowels     = "aeio"
)

// Alphabet is a named, ordered set of unique symbols used to render codes.
type Alphabet struct {
	Name    string
	Symbols []string
}

// Size returns the number of symbols in the alphabet.
func (a Alphabet) Size() int {
	return len(a.Symbols)
}

// BitsPerSymbol returns the entropy carried by a single symbol.
func (a Alphabet) BitsPerSymbol() float64 {
	return math.Log2(float64(a.Size()))
}

var registry = []Alphabet{
	fromCharacters(Base10, "0123456789"),
	fromCharacters(Base16, "0123456789abcdef"),
	fromCharacters(Base32, "abcdefghijklmnopqrstuvwxyz234567"),
	fromCharacters(Base36, "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"),
	fromCharacters(Base58, "123456789ABCDEFGHJKLMNOPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"),
	fromCharacters(Base64, "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"),
	{Name: Base1024, Symbols: syllables()},
}

func fromCharacters(name, chars string) Alphabet {
	return Alphabet{Name: name, Symbols: strings.Split(chars, "")}
}

func syllables() []string {
	symbols := make([]string, 0, len(syllableConsonants)*len(syllableVowels)*len(syllableConsonants))
	for _, a := range syllableConsonants {
		for _, b := range syllableVowels {
			for _, c := range syllableConsonants {
				symbols = append(symbols, string([]rune{a, b, c}))
			}
		}
	}
	return symbols
}

// Alphabets returns the registered alphabet names in registry order.
func Alphabets() []string {
	names := make([]string, len(registry))
	for i, a := range registry {
		names[i] = a.Name
	}
	return names
}

// LookupAlphabet returns the alphabet registered under name.
func LookupAlphabet(name string) (Alphabet, bool) {
	for _, a := range registry {
		if a.Name == name {
			return a, true
		}
	}
	return Alphabet{}, false
}

// IsValidAlphabet reports whether name is a registered alphabet.
func IsValidAlphabet(name string) bool {
	_, ok := LookupAlphabet(name)
	return ok
}

// SymbolCountToEncode returns how many symbols of the alphabet are needed to
// carry the given number of bits. It returns 0 for unknown alphabets.
func SymbolCountToEncode(bits int, alphabet string) int {
	a, ok := LookupAlphabet(alphabet)
	if !ok || a.Size() < 2 {
		return 0
	}
	return int(math.Ceil(float64(bits) / a.BitsPerSymbol()))
}

// StringSizeToEncode returns the expected length of a code carrying the given
// number of bits.
//
// For base1024 each symbol spans three characters, yet the deployed
// behaviour returns the symbol count unchanged. That behaviour is kept here;
// see DESIGN.md before changing it.
func StringSizeToEncode(bits int, alphabet string) int {
	return SymbolCountToEncode(bits, alphabet)
}
