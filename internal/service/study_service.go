package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/phrazzld/transcribe-api/internal/domain"
	"github.com/phrazzld/transcribe-api/internal/domain/study"
	"github.com/phrazzld/transcribe-api/internal/events"
	"github.com/phrazzld/transcribe-api/internal/metrics"
	"github.com/phrazzld/transcribe-api/internal/platform/logger"
	"github.com/phrazzld/transcribe-api/internal/redact"
)

// StudyService provides the operations of the study server.
type StudyService interface {
	// RecordSubmission stores sub as its user's live submission, replacing
	// any earlier one, and publishes the new study snapshot. With synchronous
	// persistence a failed save is returned as ErrPersistence.
	RecordSubmission(ctx context.Context, sub *domain.Submission) error

	// Statistics returns a copy of the current statistics.
	Statistics(ctx context.Context) study.Statistics

	// Rebuild recomputes the statistics from the live submissions.
	Rebuild(ctx context.Context)

	// Snapshot serializes the study.
	Snapshot(ctx context.Context) ([]byte, error)

	// SubmissionCount returns the number of live submissions.
	SubmissionCount(ctx context.Context) int
}

// StudyServiceConfig configures a StudyService.
type StudyServiceConfig struct {
	// SyncPersistence makes RecordSubmission fail when the snapshot cannot
	// be saved. Otherwise save failures are only logged by the service.
	SyncPersistence bool
}

type studyServiceImpl struct {
	mu       sync.Mutex
	study    *study.Study
	sequence uint64

	emitter events.EventEmitter
	config  StudyServiceConfig
	logger  *slog.Logger
}

var _ StudyService = (*studyServiceImpl)(nil)

// NewStudyService creates a StudyService over st that publishes changes
// through emitter.
func NewStudyService(
	st *study.Study,
	emitter events.EventEmitter,
	config StudyServiceConfig,
	logger *slog.Logger,
) (StudyService, error) {
	if st == nil {
		return nil, errors.New("study cannot be nil")
	}
	if emitter == nil {
		return nil, errors.New("event emitter cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	metrics.SetLiveSubmissions(st.Len())
	return &studyServiceImpl{
		study:   st,
		emitter: emitter,
		config:  config,
		logger:  logger.With(slog.String("component", "study_service")),
	}, nil
}

func (s *studyServiceImpl) RecordSubmission(ctx context.Context, sub *domain.Submission) error {
	log := logger.FromContextOrDefault(ctx, s.logger)
	if sub == nil {
		return NewStudyServiceError("record_submission", "invalid input", ErrNilSubmission)
	}

	s.mu.Lock()
	replaced := s.study.Add(sub)
	s.sequence++
	sequence := s.sequence
	live := s.study.Len()
	snapshot, err := json.Marshal(s.study)
	s.mu.Unlock()

	metrics.RecordSubmission(replaced, live)
	log.InfoContext(ctx, "submission recorded",
		slog.Bool("replaced", replaced),
		slog.Int("errors", len(sub.Errors)),
		slog.Uint64("sequence", sequence))

	if err != nil {
		return NewStudyServiceError("record_submission", "failed to serialize study", err)
	}

	if err := s.publish(ctx, sequence, snapshot); err != nil {
		if s.config.SyncPersistence {
			return NewStudyServiceError("record_submission", "study not saved",
				fmt.Errorf("%w: %w", ErrPersistence, err))
		}
		log.ErrorContext(ctx, "failed to persist study",
			slog.Uint64("sequence", sequence),
			slog.String("error", redact.Error(err)))
	}
	return nil
}

func (s *studyServiceImpl) publish(ctx context.Context, sequence uint64, snapshot []byte) error {
	event, err := events.NewStudyChangedEvent(sequence, snapshot)
	if err != nil {
		return err
	}
	return s.emitter.EmitEvent(ctx, event)
}

func (s *studyServiceImpl) Statistics(ctx context.Context) study.Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.study.Statistics()
}

func (s *studyServiceImpl) Rebuild(ctx context.Context) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	s.mu.Lock()
	s.study.BuildStatistics()
	n := s.study.Len()
	s.mu.Unlock()

	log.InfoContext(ctx, "statistics rebuilt", slog.Int("submissions", n))
}

func (s *studyServiceImpl) Snapshot(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(s.study)
	if err != nil {
		return nil, NewStudyServiceError("snapshot", "failed to serialize study", err)
	}
	return data, nil
}

func (s *studyServiceImpl) SubmissionCount(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.study.Len()
}
