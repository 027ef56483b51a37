package task

import (
	"context"

	"github.com/google/uuid"
)

// TaskStatus represents the current state of a task
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusSkipped    TaskStatus = "skipped"
	TaskStatusFailed     TaskStatus = "failed"
)

// TaskTypeSaveStudy is the type of SaveStudyTask.
const TaskTypeSaveStudy = "save_study"

// Task is a unit of background work.
type Task interface {
	ID() uuid.UUID
	Type() string
	Status() TaskStatus
	Execute(ctx context.Context) error
}

// TaskQueueReader gives workers read-only access to queued tasks.
type TaskQueueReader interface {
	GetChannel() <-chan Task
}

// TaskQueueWriter lets producers enqueue tasks.
type TaskQueueWriter interface {
	// Enqueue adds a task without blocking. It fails when the queue is
	// full or closed.
	Enqueue(task Task) error
	Close()
}
