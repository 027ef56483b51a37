package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/phrazzld/transcribe-api/internal/domain"
	"github.com/phrazzld/transcribe-api/internal/domain/study"
	"github.com/phrazzld/transcribe-api/internal/events"
	"github.com/phrazzld/transcribe-api/internal/platform/filestore"
	"github.com/phrazzld/transcribe-api/internal/platform/logger"
	"github.com/phrazzld/transcribe-api/internal/service"
	"github.com/phrazzld/transcribe-api/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingEmitter keeps every emitted event and fails with err when set.
type recordingEmitter struct {
	mu     sync.Mutex
	events []*events.StudyChangedEvent
	err    error
}

func (e *recordingEmitter) EmitEvent(_ context.Context, event *events.StudyChangedEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
	return e.err
}

func (e *recordingEmitter) emitted() []*events.StudyChangedEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*events.StudyChangedEvent(nil), e.events...)
}

var challenge = domain.Challenge{
	Alphabet: domain.Base10,
	Bits:     64,
	Expected: "12345678901234567890",
}

func user(i int) string {
	return fmt.Sprintf("participant-%012d", i)
}

func newSubmission(u string, attempts int, inputs ...string) *domain.Submission {
	s := domain.NewSubmission(u)
	s.Total[domain.Base10] = attempts
	for _, in := range inputs {
		s.Errors = append(s.Errors, domain.NewTranscriptionError(in, challenge))
	}
	return s
}

func newService(t *testing.T, emitter events.EventEmitter, syncSave bool) service.StudyService {
	t.Helper()
	log, _ := logger.NewTestLogger()
	svc, err := service.NewStudyService(study.New(nil), emitter,
		service.StudyServiceConfig{SyncPersistence: syncSave}, log)
	require.NoError(t, err)
	return svc
}

func TestNewStudyServiceValidation(t *testing.T) {
	_, err := service.NewStudyService(nil, &recordingEmitter{}, service.StudyServiceConfig{}, nil)
	assert.Error(t, err)

	_, err = service.NewStudyService(study.New(nil), nil, service.StudyServiceConfig{}, nil)
	assert.Error(t, err)

	svc, err := service.NewStudyService(study.New(nil), &recordingEmitter{}, service.StudyServiceConfig{}, nil)
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestRecordSubmission(t *testing.T) {
	ctx := context.Background()
	emitter := &recordingEmitter{}
	svc := newService(t, emitter, true)

	require.NoError(t, svc.RecordSubmission(ctx, newSubmission(user(1), 3, "1234567890123456789")))
	require.NoError(t, svc.RecordSubmission(ctx, newSubmission(user(2), 2)))

	stats := svc.Statistics(ctx)
	assert.Equal(t, 5, stats[domain.Base10].Total)
	assert.Equal(t, 1, stats.Count(domain.Base10, "1-del"))
	assert.Equal(t, 4, stats.Count(domain.Base10, domain.OutcomeNoError))
	assert.Equal(t, 2, svc.SubmissionCount(ctx))

	emitted := emitter.emitted()
	require.Len(t, emitted, 2)
	assert.Equal(t, uint64(1), emitted[0].Sequence)
	assert.Equal(t, uint64(2), emitted[1].Sequence)

	restored, skipped, err := study.Decode(emitted[1].Snapshot)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	assert.Equal(t, 2, restored.Len())
}

func TestRecordSubmissionReplaces(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, &recordingEmitter{}, false)

	require.NoError(t, svc.RecordSubmission(ctx, newSubmission(user(1), 3, "1234567890123456789")))
	require.NoError(t, svc.RecordSubmission(ctx, newSubmission(user(1), 1)))

	stats := svc.Statistics(ctx)
	assert.Equal(t, 1, svc.SubmissionCount(ctx))
	assert.Equal(t, 1, stats[domain.Base10].Total)
	assert.Equal(t, 0, stats.Count(domain.Base10, "1-del"))
	assert.Equal(t, 1, stats.Count(domain.Base10, domain.OutcomeNoError))
}

func TestRecordSubmissionNil(t *testing.T) {
	svc := newService(t, &recordingEmitter{}, true)

	err := svc.RecordSubmission(context.Background(), nil)
	assert.ErrorIs(t, err, service.ErrNilSubmission)

	var serviceErr *service.StudyServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, "record_submission", serviceErr.Operation)
}

func TestRecordSubmissionPersistenceFailure(t *testing.T) {
	ctx := context.Background()
	saveErr := errors.New("disk full")

	t.Run("sync mode returns the failure", func(t *testing.T) {
		svc := newService(t, &recordingEmitter{err: saveErr}, true)

		err := svc.RecordSubmission(ctx, newSubmission(user(1), 1))
		assert.ErrorIs(t, err, service.ErrPersistence)
		assert.ErrorIs(t, err, saveErr)
		assert.Equal(t, 1, svc.SubmissionCount(ctx), "submission stays in memory")
	})

	t.Run("async mode logs the failure", func(t *testing.T) {
		log, buf := logger.NewTestLogger()
		svc, err := service.NewStudyService(study.New(nil), &recordingEmitter{err: saveErr},
			service.StudyServiceConfig{}, log)
		require.NoError(t, err)

		require.NoError(t, svc.RecordSubmission(ctx, newSubmission(user(1), 1)))

		entry, ok := buf.Find("failed to persist study")
		require.True(t, ok)
		assert.Equal(t, "ERROR", entry["level"])
	})
}

func TestRebuildKeepsStatisticsEquivalent(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, &recordingEmitter{}, false)

	require.NoError(t, svc.RecordSubmission(ctx, newSubmission(user(1), 2, "1234567890123456789")))
	require.NoError(t, svc.RecordSubmission(ctx, newSubmission(user(1), 2)))
	before := svc.Statistics(ctx)

	svc.Rebuild(ctx)
	after := svc.Statistics(ctx)

	assert.True(t, before.Equivalent(after))
	assert.NotContains(t, after[domain.Base10].Outcomes, "1-del")
}

func TestSnapshot(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, &recordingEmitter{}, false)
	require.NoError(t, svc.RecordSubmission(ctx, newSubmission(user(7), 4, "21345678901234567890")))

	data, err := svc.Snapshot(ctx)
	require.NoError(t, err)

	var shape struct {
		Submissions map[string]json.RawMessage `json:"submissions"`
	}
	require.NoError(t, json.Unmarshal(data, &shape))
	assert.Contains(t, shape.Submissions, user(7))
}

func TestConcurrentSubmissions(t *testing.T) {
	ctx := context.Background()
	emitter := &recordingEmitter{}
	svc := newService(t, emitter, false)

	const users = 16
	const rounds = 5
	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				assert.NoError(t, svc.RecordSubmission(ctx, newSubmission(user(i), r+1)))
				_ = svc.Statistics(ctx)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, users, svc.SubmissionCount(ctx))
	stats := svc.Statistics(ctx)
	assert.Equal(t, users*rounds, stats[domain.Base10].Total)

	seen := make(map[uint64]bool)
	for _, e := range emitter.emitted() {
		assert.False(t, seen[e.Sequence], "sequence %d emitted twice", e.Sequence)
		seen[e.Sequence] = true
	}
	assert.Len(t, seen, users*rounds)
}

func TestRecordSubmissionPersistsThroughPipeline(t *testing.T) {
	ctx := context.Background()
	log, _ := logger.NewTestLogger()
	st := filestore.New(filepath.Join(t.TempDir(), "study.json"), log)

	emitter := events.NewInMemoryEventEmitter(log)
	emitter.RegisterHandler(task.NewSaveStudyEventHandler(nil, st, task.NewSequenceTracker(), log))

	svc, err := service.NewStudyService(study.New(nil), emitter,
		service.StudyServiceConfig{SyncPersistence: true}, log)
	require.NoError(t, err)

	require.NoError(t, svc.RecordSubmission(ctx, newSubmission(user(1), 2, "1234567890123456789")))
	require.NoError(t, svc.RecordSubmission(ctx, newSubmission(user(2), 1)))

	data, err := st.Load(ctx)
	require.NoError(t, err)
	restored, _, err := study.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 2, restored.Len())
	assert.True(t, svc.Statistics(ctx).Equivalent(restored.Statistics()))
}
