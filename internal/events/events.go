package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// TypeStudyChanged is the type of events emitted when the study changes.
const TypeStudyChanged = "study.changed"

// ErrEmptySnapshot is returned when an event is built without a snapshot.
var ErrEmptySnapshot = errors.New("study snapshot is empty")

// StudyChangedEvent carries a serialized study taken right after a change.
// Sequence increases with every change so handlers can discard snapshots
// older than one they already processed.
type StudyChangedEvent struct {
	ID        uuid.UUID       `json:"id"`
	Type      string          `json:"type"`
	Sequence  uint64          `json:"sequence"`
	Snapshot  json.RawMessage `json:"snapshot"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewStudyChangedEvent creates an event for the snapshot taken at sequence.
func NewStudyChangedEvent(sequence uint64, snapshot []byte) (*StudyChangedEvent, error) {
	if len(snapshot) == 0 {
		return nil, ErrEmptySnapshot
	}
	return &StudyChangedEvent{
		ID:        uuid.New(),
		Type:      TypeStudyChanged,
		Sequence:  sequence,
		Snapshot:  snapshot,
		CreatedAt: time.Now(),
	}, nil
}

// EventHandler processes emitted events.
type EventHandler interface {
	HandleEvent(ctx context.Context, event *StudyChangedEvent) error
}

// EventHandlerFunc adapts a function to EventHandler.
type EventHandlerFunc func(ctx context.Context, event *StudyChangedEvent) error

// HandleEvent calls f.
func (f EventHandlerFunc) HandleEvent(ctx context.Context, event *StudyChangedEvent) error {
	return f(ctx, event)
}

// EventEmitter publishes events to registered handlers.
type EventEmitter interface {
	EmitEvent(ctx context.Context, event *StudyChangedEvent) error
}
