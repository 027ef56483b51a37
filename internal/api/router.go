package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/transcribe-api/internal/api/middleware"
	"github.com/phrazzld/transcribe-api/internal/api/shared"
	"github.com/phrazzld/transcribe-api/internal/metrics"
	"github.com/phrazzld/transcribe-api/internal/service"
)

// RouterConfig holds the dependencies of the HTTP router.
type RouterConfig struct {
	StudyService service.StudyService
	CORSOrigins  []string
	// MaxBodyBytes defaults to shared.MaxBodyBytes when zero.
	MaxBodyBytes int64
	Logger       *slog.Logger
}

// NewRouter builds the study API router.
func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	limit := cfg.MaxBodyBytes
	if limit <= 0 {
		limit = shared.MaxBodyBytes
	}

	studyHandler := NewStudyHandler(cfg.StudyService, log)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.NewTraceMiddleware(log))
	r.Use(middleware.Metrics)
	r.Use(middleware.Recoverer)
	r.Use(middleware.NewCORSMiddleware(cfg.CORSOrigins))
	r.Use(middleware.NewBodyLimitMiddleware(limit))

	r.Post("/submissions", studyHandler.SubmitSubmission)
	r.Options("/submissions", studyHandler.Preflight)
	r.Get("/statistics", studyHandler.GetStatistics)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error("failed to write health check response", "error", err)
		}
	})
	r.Handle("/metrics", metrics.Handler())

	return r
}
