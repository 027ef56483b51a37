package task

import (
	"context"
	"log/slog"
	"sync"

	"github.com/phrazzld/transcribe-api/internal/metrics"
	"github.com/phrazzld/transcribe-api/internal/redact"
)

// TaskRunnerConfig holds configuration for the task runner
type TaskRunnerConfig struct {
	// WorkerCount determines how many concurrent workers process tasks
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory task queue
	QueueSize int
}

// DefaultTaskRunnerConfig returns a single worker over a 16-task queue.
func DefaultTaskRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount: 1,
		QueueSize:   16,
	}
}

// Submitter accepts tasks for background execution.
type Submitter interface {
	Submit(ctx context.Context, task Task) error
}

// TaskRunner combines a TaskQueue and a WorkerPool.
type TaskRunner struct {
	queue  *TaskQueue
	pool   *WorkerPool
	logger *slog.Logger

	stopOnce sync.Once
	stopErr  error
}

var _ Submitter = (*TaskRunner)(nil)

// NewTaskRunner creates a runner. Task failures are logged at ERROR and
// counted until SetErrorHandler replaces that behavior.
func NewTaskRunner(config TaskRunnerConfig, logger *slog.Logger) *TaskRunner {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "task_runner")

	queue := NewTaskQueue(config.QueueSize, logger)
	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: config.WorkerCount}, logger)
	r := &TaskRunner{queue: queue, pool: pool, logger: logger}
	pool.SetErrorHandler(r.defaultErrorHandler)
	return r
}

func (r *TaskRunner) defaultErrorHandler(task Task, err error) {
	metrics.RecordTaskFailure(task.Type())
	r.logger.Error("task execution failed",
		"task_id", task.ID(),
		"task_type", task.Type(),
		"error", redact.Error(err))
}

// SetErrorHandler replaces the failure callback. It must be called before
// Start.
func (r *TaskRunner) SetErrorHandler(handler func(task Task, err error)) {
	r.pool.SetErrorHandler(handler)
}

// Submit enqueues task without blocking. It returns ErrQueueFull or
// ErrQueueClosed when the task cannot be accepted.
func (r *TaskRunner) Submit(ctx context.Context, task Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.queue.Enqueue(task)
}

// Start launches the workers.
func (r *TaskRunner) Start() {
	r.pool.Start()
}

// Stop closes the queue and waits for queued tasks to finish. If ctx ends
// first, running tasks are canceled and ctx's error is returned.
func (r *TaskRunner) Stop(ctx context.Context) error {
	r.stopOnce.Do(func() {
		r.queue.Close()

		drained := make(chan struct{})
		go func() {
			r.pool.Wait()
			close(drained)
		}()

		select {
		case <-drained:
			r.logger.Info("task queue drained")
		case <-ctx.Done():
			r.logger.Warn("shutdown deadline reached, abandoning queued tasks",
				"pending", r.queue.Len())
			r.stopErr = ctx.Err()
		}
		r.pool.Stop()
	})
	return r.stopErr
}
