package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/transcribe-api/internal/api/shared"
	"github.com/phrazzld/transcribe-api/internal/service"
)

// MapErrorToStatusCode maps service errors to HTTP status codes.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, service.ErrNilSubmission),
		errors.Is(err, shared.ErrBodyTooLarge):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err that does not
// leak internal details.
func GetSafeErrorMessage(err error) string {
	switch {
	case err == nil:
		return "An unexpected error occurred"
	case errors.Is(err, service.ErrPersistence):
		return "Submission recorded but could not be saved"
	case errors.Is(err, service.ErrNilSubmission):
		return "Submission is missing"
	case errors.Is(err, shared.ErrBodyTooLarge):
		return "Request body too large"
	default:
		return "An unexpected error occurred"
	}
}
