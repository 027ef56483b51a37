package domain

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// Limits on untrusted submission fields.
const (
	MinUserLength  = 20
	MaxUserLength  = 200
	MaxInputLength = 200
)

// TranscriptionError records a single mistyped code. Its type is derived
// from the input and challenge once, at construction, and cannot change.
type TranscriptionError struct {
	Input     string
	Challenge Challenge
	kind      string
}

// NewTranscriptionError classifies input against the challenge.
func NewTranscriptionError(input string, challenge Challenge) TranscriptionError {
	return TranscriptionError{
		Input:     input,
		Challenge: challenge,
		kind:      Classify(challenge.Expected, input),
	}
}

// Type returns the classification tag of the error.
func (e TranscriptionError) Type() string {
	return e.kind
}

// Validate checks the error input and its challenge.
func (e TranscriptionError) Validate() []ValidationError {
	var errs []ValidationError
	if utf8.RuneCountInString(e.Input) > MaxInputLength {
		errs = append(errs, invalidType("error input is too long"))
	} else if e.Input == e.Challenge.Expected {
		errs = append(errs, invalidType("error input matches the expected test input"))
	}
	return append(errs, e.Challenge.Validate()...)
}

type transcriptionErrorJSON struct {
	Input string    `json:"input"`
	Type  string    `json:"type"`
	Test  Challenge `json:"test"`
}

// MarshalJSON encodes the error as {input, type, test}.
func (e TranscriptionError) MarshalJSON() ([]byte, error) {
	return json.Marshal(transcriptionErrorJSON{Input: e.Input, Type: e.kind, Test: e.Challenge})
}

// UnmarshalJSON decodes {input, test} and classifies the error again. A
// stored type is ignored so that it always agrees with the classifier.
func (e *TranscriptionError) UnmarshalJSON(data []byte) error {
	var raw transcriptionErrorJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = NewTranscriptionError(raw.Input, raw.Test)
	return nil
}

// Submission holds one subject's results: attempts per alphabet and every
// mistyped code.
type Submission struct {
	User   string               `json:"user"`
	Total  map[string]int       `json:"total"`
	Errors []TranscriptionError `json:"errors"`
}

// NewSubmission returns an empty submission for user.
func NewSubmission(user string) *Submission {
	return &Submission{
		User:   user,
		Total:  make(map[string]int),
		Errors: []TranscriptionError{},
	}
}

// AddEntry records one attempt at challenge. Only a mismatching input is
// recorded as an error.
func (s *Submission) AddEntry(input string, challenge Challenge) {
	if s.Total == nil {
		s.Total = make(map[string]int)
	}
	s.Total[challenge.Alphabet]++
	if input != challenge.Expected {
		s.Errors = append(s.Errors, NewTranscriptionError(input, challenge))
	}
}

// ErrorCounts returns the number of recorded errors per alphabet.
func (s *Submission) ErrorCounts() map[string]int {
	counts := make(map[string]int)
	for _, e := range s.Errors {
		counts[e.Challenge.Alphabet]++
	}
	return counts
}

// Validate checks a typed submission. The user checks stop at the first
// failure; every other check accumulates.
func (s *Submission) Validate() []ValidationError {
	var errs []ValidationError
	if e, ok := validateUserLength(s.User); !ok {
		errs = append(errs, e)
	}
	for alphabet, count := range s.Total {
		if !IsValidAlphabet(alphabet) || count < 0 {
			errs = append(errs, errTotalFormat)
			break
		}
	}
	for _, e := range s.Errors {
		errs = append(errs, e.Validate()...)
	}
	if len(errs) > 0 {
		return errs
	}
	return s.checkAttempts()
}

// checkAttempts enforces that no alphabet reports more errors than attempts.
func (s *Submission) checkAttempts() []ValidationError {
	var errs []ValidationError
	counts := s.ErrorCounts()
	for _, alphabet := range Alphabets() {
		if counts[alphabet] > s.Total[alphabet] {
			errs = append(errs, invalidType(fmt.Sprintf(
				"total for %s is lower than its number of errors", alphabet)))
		}
	}
	return errs
}

var errTotalFormat = invalidType("total contains elements of the wrong format")

func validateUserLength(user string) (ValidationError, bool) {
	switch n := utf8.RuneCountInString(user); {
	case n < MinUserLength:
		return invalidType("user is not long enough"), false
	case n > MaxUserLength:
		return invalidType("user is too long"), false
	}
	return ValidationError{}, true
}
