package task

import (
	"context"
	"errors"
	"log/slog"

	"github.com/phrazzld/transcribe-api/internal/events"
	"github.com/phrazzld/transcribe-api/internal/store"
)

// SaveStudyEventHandler turns StudyChangedEvents into SaveStudyTasks.
//
// With a nil Submitter every save runs inline and its error is returned to
// the emitter. Otherwise tasks are submitted for background execution; when
// the queue cannot take one the save runs inline instead, so no snapshot is
// dropped.
type SaveStudyEventHandler struct {
	runner  Submitter
	store   store.StudyStore
	tracker *SequenceTracker
	logger  *slog.Logger
}

var _ events.EventHandler = (*SaveStudyEventHandler)(nil)

// NewSaveStudyEventHandler creates a handler saving through st.
func NewSaveStudyEventHandler(
	runner Submitter,
	st store.StudyStore,
	tracker *SequenceTracker,
	logger *slog.Logger,
) *SaveStudyEventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if tracker == nil {
		tracker = NewSequenceTracker()
	}
	return &SaveStudyEventHandler{
		runner:  runner,
		store:   st,
		tracker: tracker,
		logger:  logger.With("component", "save_study_event_handler"),
	}
}

// HandleEvent implements events.EventHandler.
func (h *SaveStudyEventHandler) HandleEvent(ctx context.Context, event *events.StudyChangedEvent) error {
	if event.Type != events.TypeStudyChanged {
		h.logger.DebugContext(ctx, "ignoring event with unsupported type",
			"event_type", event.Type,
			"event_id", event.ID)
		return nil
	}

	task := NewSaveStudyTask(event.Sequence, event.Snapshot, h.store, h.tracker, h.logger)
	if h.runner == nil {
		return task.Execute(ctx)
	}

	err := h.runner.Submit(ctx, task)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrQueueFull), errors.Is(err, ErrQueueClosed):
		h.logger.WarnContext(ctx, "task queue unavailable, saving inline",
			"reason", err.Error(),
			"event_id", event.ID,
			"sequence", event.Sequence)
		return task.Execute(ctx)
	default:
		return err
	}
}
