package task

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorkerPool(t *testing.T) {
	logger := setupTestLogger()
	queue := NewTaskQueue(1, logger)

	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 5}, logger)
	assert.Equal(t, 5, pool.workerCount)
	assert.Nil(t, pool.errorHandler)

	pool = NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 0}, logger)
	assert.Equal(t, 1, pool.workerCount)

	pool = NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: -5}, logger)
	assert.Equal(t, 1, pool.workerCount)

	assert.Equal(t, 1, DefaultWorkerPoolConfig().WorkerCount)
}

func TestWorkerPool_ProcessesUntilQueueClosed(t *testing.T) {
	logger := setupTestLogger()
	queue := NewTaskQueue(10, logger)
	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 3}, logger)

	var executed atomic.Int32
	for i := 0; i < 10; i++ {
		require.NoError(t, queue.Enqueue(newFuncTask(func(context.Context) error {
			executed.Add(1)
			return nil
		})))
	}

	pool.Start()
	pool.Start()
	queue.Close()
	pool.Wait()

	assert.Equal(t, int32(10), executed.Load())
	pool.Stop()
}

func TestWorkerPool_ErrorHandler(t *testing.T) {
	logger := setupTestLogger()
	queue := NewTaskQueue(2, logger)
	pool := NewWorkerPool(queue, DefaultWorkerPoolConfig(), logger)

	var mu sync.Mutex
	var failures []error
	pool.SetErrorHandler(func(_ Task, err error) {
		mu.Lock()
		defer mu.Unlock()
		failures = append(failures, err)
	})

	boom := errors.New("boom")
	require.NoError(t, queue.Enqueue(newFuncTask(func(context.Context) error { return boom })))
	require.NoError(t, queue.Enqueue(newFuncTask(func(context.Context) error { panic("kaboom") })))

	pool.Start()
	queue.Close()
	pool.Wait()
	pool.Stop()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, failures, 2)
	assert.ErrorIs(t, failures[0], boom)
	var panicErr *PanicError
	require.ErrorAs(t, failures[1], &panicErr)
	assert.Equal(t, "kaboom", panicErr.Value)
}

func TestWorkerPool_StopCancelsRunningTask(t *testing.T) {
	logger := setupTestLogger()
	queue := NewTaskQueue(1, logger)
	pool := NewWorkerPool(queue, DefaultWorkerPoolConfig(), logger)

	started := make(chan struct{})
	var gotErr atomic.Value
	require.NoError(t, queue.Enqueue(newFuncTask(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		gotErr.Store(ctx.Err())
		return ctx.Err()
	})))

	pool.Start()
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("task did not start")
	}
	pool.Stop()

	assert.ErrorIs(t, gotErr.Load().(error), context.Canceled)
}
