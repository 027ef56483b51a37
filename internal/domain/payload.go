package domain

import "unicode/utf8"

// SubmissionPayload is a submission as received from a client, before any
// type checking. Loosely typed fields are validated by ParseSubmission.
type SubmissionPayload struct {
	User   any            `json:"user"`
	Total  any            `json:"total"`
	Errors []ErrorPayload `json:"errors"`
}

// ErrorPayload is the untrusted form of a TranscriptionError.
type ErrorPayload struct {
	Input any               `json:"input"`
	Test  *ChallengePayload `json:"test"`
}

// ParseSubmission validates an untrusted payload and builds the Submission
// it describes. When validation fails the returned Submission is nil and the
// slice lists every failure found.
//
// A nil payload is treated as an empty one.
func ParseSubmission(p *SubmissionPayload) (*Submission, []ValidationError) {
	if p == nil {
		p = &SubmissionPayload{}
	}
	var errs []ValidationError

	user, ok := p.User.(string)
	if !ok {
		errs = append(errs, invalidType("user is not a string"))
	} else if e, ok := validateUserLength(user); !ok {
		errs = append(errs, e)
	}

	total, ok := parseTotal(p.Total)
	if !ok {
		errs = append(errs, errTotalFormat)
	}

	transcriptionErrors := make([]TranscriptionError, 0, len(p.Errors))
	for _, ep := range p.Errors {
		te, teErrs := ep.parse()
		if len(teErrs) > 0 {
			errs = append(errs, teErrs...)
			continue
		}
		transcriptionErrors = append(transcriptionErrors, te)
	}

	if len(errs) > 0 {
		return nil, errs
	}

	s := &Submission{User: user, Total: total, Errors: transcriptionErrors}
	if errs := s.checkAttempts(); len(errs) > 0 {
		return nil, errs
	}
	return s, nil
}

func parseTotal(v any) (map[string]int, bool) {
	raw, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	total := make(map[string]int, len(raw))
	for alphabet, value := range raw {
		if !IsValidAlphabet(alphabet) {
			return nil, false
		}
		f, ok := value.(float64)
		if !ok {
			return nil, false
		}
		n, ok := wholeNumber(f)
		if !ok || n < 0 {
			return nil, false
		}
		total[alphabet] = n
	}
	return total, true
}

func (p ErrorPayload) parse() (TranscriptionError, []ValidationError) {
	var errs []ValidationError

	input, ok := p.Input.(string)
	if !ok {
		errs = append(errs, invalidType("error input is not a string"))
	} else if utf8.RuneCountInString(input) > MaxInputLength {
		errs = append(errs, invalidType("error input is too long"))
	}

	if p.Test == nil {
		return TranscriptionError{}, append(errs, invalidType("error test is not an object"))
	}
	challenge, challengeErrs := p.Test.Parse()
	errs = append(errs, challengeErrs...)
	if len(errs) > 0 {
		return TranscriptionError{}, errs
	}

	if input == challenge.Expected {
		return TranscriptionError{}, []ValidationError{
			invalidType("error input matches the expected test input"),
		}
	}
	return NewTranscriptionError(input, challenge), nil
}
