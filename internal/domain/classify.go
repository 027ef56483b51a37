package domain

import "strconv"

// Outcome tags produced by Classify. Tags carrying a count or gap are built
// with the suffixes below, e.g. "2-del" or "0-trans".
const (
	// OutcomeNoError is the statistics bucket for correctly typed codes.
	OutcomeNoError = "no error"

	TagSubstitution      = "1sub"
	TagPhonetic          = "phonetic"
	TagMultiSubstitution = "nsub"

	suffixDeletion           = "-del"
	suffixInsertion          = "-ins"
	suffixTransposition      = "-trans"
	suffixTwin               = "-twin"
	suffixDoubleSubstitution = "-2sub"
)

// Classify categorises how input diverges from expected. The comparison is
// made rune by rune and the first matching rule wins:
//
//   - different lengths: "<n>-del" or "<n>-ins"
//   - a single differing position: "1sub"
//   - two adjacent positions forming the 1/0 pattern of spoken teens and
//     tens ("17" typed as "70"): "phonetic"
//   - the two differing characters swapped: "<gap>-trans"
//   - both positions expecting the same character and both typed as the same
//     other character: "<gap>-twin"
//   - exactly two differing positions: "<gap>-2sub"
//   - anything else: "nsub"
//
// gap is the number of untouched characters between the first two differing
// positions. Identical strings are not a transcription error and yield
// OutcomeNoError.
func Classify(expected, input string) string {
	e, in := []rune(expected), []rune(input)

	if delta := len(e) - len(in); delta > 0 {
		return strconv.Itoa(delta) + suffixDeletion
	} else if delta < 0 {
		return strconv.Itoa(-delta) + suffixInsertion
	}

	first := firstDifference(e, in)
	if first < 0 {
		return OutcomeNoError
	}
	offset := firstDifference(e[first+1:], in[first+1:])
	if offset < 0 {
		return TagSubstitution
	}
	second := first + 1 + offset
	gap := strconv.Itoa(second - first - 1)

	if second == first+1 {
		if e[first] == '1' && in[second] == '0' && e[second] == in[first] {
			return TagPhonetic
		}
		if e[second] == '1' && in[first] == '0' && e[first] == in[second] {
			return TagPhonetic
		}
	}
	if e[first] == in[second] && e[second] == in[first] {
		return gap + suffixTransposition
	}
	if e[first] == e[second] && in[first] == in[second] {
		return gap + suffixTwin
	}
	if firstDifference(e[second+1:], in[second+1:]) < 0 {
		return gap + suffixDoubleSubstitution
	}
	return TagMultiSubstitution
}

// firstDifference returns the first index at which a and b differ, or -1.
// Both slices must have the same length.
func firstDifference(a, b []rune) int {
	for i := range a {
		if a[i] != b[i] {
			return i
		}
	}
	return -1
}
