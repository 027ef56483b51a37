package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUser = "subject-0123456789abcdef"

func payloadFromJSON(t *testing.T, body string) *SubmissionPayload {
	t.Helper()
	var p SubmissionPayload
	require.NoError(t, json.Unmarshal([]byte(body), &p))
	return &p
}

func TestParseSubmission(t *testing.T) {
	p := payloadFromJSON(t, `{
		"user": "`+testUser+`",
		"total": {"base16": 3, "base10": 1},
		"errors": [
			{"input": "0123456789abcdfe", "test": {"alphabet": "base16", "bits": 64, "expected": "0123456789abcdef"}}
		]
	}`)

	s, errs := ParseSubmission(p)
	require.Empty(t, errs)
	require.NotNil(t, s)

	assert.Equal(t, testUser, s.User)
	assert.Equal(t, map[string]int{Base16: 3, Base10: 1}, s.Total)
	require.Len(t, s.Errors, 1)
	assert.Equal(t, "0-trans", s.Errors[0].Type())
	assert.Equal(t, Base16, s.Errors[0].Challenge.Alphabet)
	assert.Empty(t, s.Validate())
}

func TestParseSubmissionUserBoundaries(t *testing.T) {
	testCases := []struct {
		length  int
		wantErr string
	}{
		{length: 19, wantErr: "user is not long enough"},
		{length: 20},
		{length: 200},
		{length: 201, wantErr: "user is too long"},
	}

	for _, tc := range testCases {
		p := &SubmissionPayload{User: strings.Repeat("u", tc.length), Total: map[string]any{}}
		s, errs := ParseSubmission(p)
		if tc.wantErr == "" {
			assert.Empty(t, errs, "length %d", tc.length)
			assert.NotNil(t, s)
			continue
		}
		require.Len(t, errs, 1, "length %d", tc.length)
		assert.Equal(t, tc.wantErr, errs[0].Message)
		assert.Nil(t, s)
	}
}

func TestParseSubmissionFailures(t *testing.T) {
	testCases := []struct {
		name     string
		body     string
		wantErrs []string
	}{
		{
			name:     "empty payload",
			body:     `{}`,
			wantErrs: []string{"user is not a string", "total contains elements of the wrong format"},
		},
		{
			name:     "user is a number",
			body:     `{"user": 12345678901234567890123, "total": {}}`,
			wantErrs: []string{"user is not a string"},
		},
		{
			name:     "unknown alphabet in total",
			body:     `{"user": "` + testUser + `", "total": {"base17": 2}}`,
			wantErrs: []string{"total contains elements of the wrong format"},
		},
		{
			name:     "non-numeric total",
			body:     `{"user": "` + testUser + `", "total": {"base10": "2"}}`,
			wantErrs: []string{"total contains elements of the wrong format"},
		},
		{
			name:     "negative total",
			body:     `{"user": "` + testUser + `", "total": {"base10": -1}}`,
			wantErrs: []string{"total contains elements of the wrong format"},
		},
		{
			name: "errors are validated after the user",
			body: `{"user": "short", "total": {"base10": 1}, "errors": [
				{"input": 4, "test": {"alphabet": "base10", "bits": 64, "expected": "12345678901234567890"}}
			]}`,
			wantErrs: []string{"user is not long enough", "error input is not a string"},
		},
		{
			name: "missing test",
			body: `{"user": "` + testUser + `", "total": {"base10": 1}, "errors": [{"input": "1"}]}`,
			wantErrs: []string{"error test is not an object"},
		},
		{
			name: "input equal to expected",
			body: `{"user": "` + testUser + `", "total": {"base10": 1}, "errors": [
				{"input": "12345678901234567890", "test": {"alphabet": "base10", "bits": 64, "expected": "12345678901234567890"}}
			]}`,
			wantErrs: []string{"error input matches the expected test input"},
		},
		{
			name: "more errors than attempts",
			body: `{"user": "` + testUser + `", "total": {"base10": 0}, "errors": [
				{"input": "1234567890123456789", "test": {"alphabet": "base10", "bits": 64, "expected": "12345678901234567890"}}
			]}`,
			wantErrs: []string{"total for base10 is lower than its number of errors"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, errs := ParseSubmission(payloadFromJSON(t, tc.body))
			assert.Nil(t, s)
			var messages []string
			for _, e := range errs {
				messages = append(messages, e.Message)
			}
			assert.Equal(t, tc.wantErrs, messages)
		})
	}
}

func TestParseSubmissionNilPayload(t *testing.T) {
	s, errs := ParseSubmission(nil)
	assert.Nil(t, s)
	assert.NotEmpty(t, errs)
	assert.Equal(t, "user is not a string", errs[0].Message)
}

func TestAddEntry(t *testing.T) {
	s := NewSubmission(testUser)
	c := Challenge{Alphabet: Base10, Bits: 64, Expected: "12345678901234567890"}

	s.AddEntry(c.Expected, c)
	s.AddEntry("1234567890123456789", c)
	s.AddEntry("21345678901234567890", c)

	assert.Equal(t, 3, s.Total[Base10])
	require.Len(t, s.Errors, 2)
	assert.Equal(t, "1-del", s.Errors[0].Type())
	assert.Equal(t, "0-trans", s.Errors[1].Type())
	assert.Equal(t, map[string]int{Base10: 2}, s.ErrorCounts())
	assert.Empty(t, s.Validate())
}

func TestTranscriptionErrorJSON(t *testing.T) {
	c := Challenge{Alphabet: Base16, Bits: 64, Expected: "0123456789abcdef"}
	te := NewTranscriptionError("0123456789abcde", c)

	data, err := json.Marshal(te)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"input":"0123456789abcde","type":"1-del","test":{"alphabet":"base16","bits":64,"expected":"0123456789abcdef"}}`,
		string(data))

	// A tampered type is recomputed on decode.
	tampered := strings.Replace(string(data), `"1-del"`, `"nsub"`, 1)
	var decoded TranscriptionError
	require.NoError(t, json.Unmarshal([]byte(tampered), &decoded))
	assert.Equal(t, te, decoded)
	assert.Equal(t, "1-del", decoded.Type())
}

func TestSubmissionValidate(t *testing.T) {
	s := NewSubmission("too-short")
	s.Total["nope"] = 1
	errs := s.Validate()
	require.Len(t, errs, 2)
	assert.Equal(t, "user is not long enough", errs[0].Message)
	assert.Equal(t, "total contains elements of the wrong format", errs[1].Message)
}
