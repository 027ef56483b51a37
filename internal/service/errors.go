package service

import (
	"errors"
	"fmt"
)

// Common service errors, checked with errors.Is.
var (
	// ErrNilSubmission is returned when RecordSubmission gets no submission.
	ErrNilSubmission = errors.New("submission is nil")

	// ErrPersistence indicates the submission was applied in memory but the
	// study could not be saved. The API maps it to 500.
	ErrPersistence = errors.New("failed to persist study")
)

// StudyServiceError carries the failing operation.
type StudyServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for StudyServiceError.
func (e *StudyServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("study service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("study service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StudyServiceError) Unwrap() error {
	return e.Err
}

// NewStudyServiceError creates a new StudyServiceError.
func NewStudyServiceError(operation, message string, err error) *StudyServiceError {
	return &StudyServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
