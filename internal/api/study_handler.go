package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/phrazzld/transcribe-api/internal/api/shared"
	"github.com/phrazzld/transcribe-api/internal/domain"
	"github.com/phrazzld/transcribe-api/internal/metrics"
	"github.com/phrazzld/transcribe-api/internal/platform/logger"
	"github.com/phrazzld/transcribe-api/internal/service"
)

// SubmitRequest is the body of POST /submissions.
type SubmitRequest struct {
	Submission *domain.SubmissionPayload `json:"submission"`
}

// StudyHandler serves the study endpoints.
type StudyHandler struct {
	studyService service.StudyService
	logger       *slog.Logger
}

// NewStudyHandler creates a StudyHandler.
func NewStudyHandler(studyService service.StudyService, logger *slog.Logger) *StudyHandler {
	if studyService == nil {
		panic("studyService cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StudyHandler{
		studyService: studyService,
		logger:       logger.With("component", "study_handler"),
	}
}

// SubmitSubmission handles POST /submissions.
//
// Malformed JSON yields 400 with a single invalid_payload error; field
// validation failures yield 400 listing every failure; success is 200 with
// an empty body.
func (h *StudyHandler) SubmitSubmission(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req SubmitRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		metrics.RecordRejection(metrics.ReasonInvalidPayload)
		status := http.StatusBadRequest
		var opts []shared.ResponseOption
		if errors.Is(err, shared.ErrBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
			opts = append(opts, shared.WithElevatedLogLevel())
		}
		shared.RespondWithErrorAndLog(w, r, status, domain.CodeInvalidPayload,
			"request body is not valid JSON", err, opts...)
		return
	}

	submission, validationErrs := domain.ParseSubmission(req.Submission)
	if len(validationErrs) > 0 {
		metrics.RecordRejection(metrics.ReasonValidation)
		log.Debug("submission failed validation", slog.Int("error_count", len(validationErrs)))
		shared.RespondWithErrors(w, r, http.StatusBadRequest, validationErrs)
		return
	}

	if err := h.studyService.RecordSubmission(r.Context(), submission); err != nil {
		if errors.Is(err, service.ErrPersistence) {
			metrics.RecordRejection(metrics.ReasonPersistence)
		}
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), domain.CodeSemantic,
			GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondEmpty(w, http.StatusOK)
}

// GetStatistics handles GET /statistics.
func (h *StudyHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, h.studyService.Statistics(r.Context()))
}

// Preflight handles OPTIONS /submissions. The CORS headers are set by the
// CORS middleware.
func (h *StudyHandler) Preflight(w http.ResponseWriter, r *http.Request) {
	shared.RespondEmpty(w, http.StatusOK)
}
