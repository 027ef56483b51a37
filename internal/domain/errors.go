package domain

import "errors"

// Validation codes reported to clients.
const (
	// CodeInvalidType is used for every field-level validation failure.
	CodeInvalidType = "invalid_type"

	// CodeInvalidPayload is used when the request body cannot be decoded at all.
	CodeInvalidPayload = "invalid_payload"

	// CodeSemantic is used for unexpected failures while handling a request.
	CodeSemantic = "semantic"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	ErrValidation = errors.New("validation failed")

	// ErrUnknownAlphabet is returned when an alphabet name is not registered.
	ErrUnknownAlphabet = errors.New("unknown alphabet")
)

// ValidationError describes a single validation failure. Validation results
// are plain data: a nil or empty slice of ValidationError means success.
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface so a single failure can be wrapped
// when a caller needs an error value.
func (e ValidationError) Error() string {
	return e.Code + ": " + e.Message
}

func invalidType(message string) ValidationError {
	return ValidationError{Code: CodeInvalidType, Message: message}
}
