package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/transcribe-api/internal/metrics"
	"github.com/phrazzld/transcribe-api/internal/store"
)

// SaveStudyTask writes one study snapshot through a StudyStore.
type SaveStudyTask struct {
	id       uuid.UUID
	sequence uint64
	snapshot []byte
	store    store.StudyStore
	tracker  *SequenceTracker
	logger   *slog.Logger

	mu     sync.Mutex
	status TaskStatus
}

var _ Task = (*SaveStudyTask)(nil)

// NewSaveStudyTask creates a pending save of snapshot, registering its
// sequence number with tracker.
func NewSaveStudyTask(
	sequence uint64,
	snapshot []byte,
	st store.StudyStore,
	tracker *SequenceTracker,
	logger *slog.Logger,
) *SaveStudyTask {
	if logger == nil {
		logger = slog.Default()
	}
	tracker.Observe(sequence)
	id := uuid.New()
	return &SaveStudyTask{
		id:       id,
		sequence: sequence,
		snapshot: snapshot,
		store:    st,
		tracker:  tracker,
		logger: logger.With(
			"component", "save_study_task",
			"task_id", id,
			"sequence", sequence,
		),
		status: TaskStatusPending,
	}
}

// ID implements Task.
func (t *SaveStudyTask) ID() uuid.UUID { return t.id }

// Type implements Task.
func (t *SaveStudyTask) Type() string { return TaskTypeSaveStudy }

// Sequence returns the sequence number of the snapshot.
func (t *SaveStudyTask) Sequence() uint64 { return t.sequence }

// Status implements Task.
func (t *SaveStudyTask) Status() TaskStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

func (t *SaveStudyTask) setStatus(s TaskStatus) {
	t.mu.Lock()
	t.status = s
	t.mu.Unlock()
}

// Execute saves the snapshot unless a newer one supersedes it.
func (t *SaveStudyTask) Execute(ctx context.Context) error {
	t.setStatus(TaskStatusProcessing)
	start := time.Now()

	skipped, err := t.tracker.Do(t.sequence, func() error {
		return t.store.Save(ctx, t.snapshot)
	})
	elapsed := time.Since(start)

	switch {
	case err != nil:
		t.setStatus(TaskStatusFailed)
		metrics.RecordSave(metrics.ResultFailure, elapsed)
		return fmt.Errorf("save study snapshot %d: %w", t.sequence, err)
	case skipped:
		t.setStatus(TaskStatusSkipped)
		metrics.RecordSave(metrics.ResultSkipped, 0)
		t.logger.DebugContext(ctx, "skipped superseded study snapshot",
			"latest_sequence", t.tracker.Latest())
		return nil
	}

	t.setStatus(TaskStatusCompleted)
	metrics.RecordSave(metrics.ResultSuccess, elapsed)
	t.logger.DebugContext(ctx, "study snapshot saved",
		"bytes", len(t.snapshot),
		"duration_ms", elapsed.Milliseconds())
	return nil
}
