package taskq

import (
	"context"

	"github.com/google/uuid"
)

// TaskFunc is the function executed by a worker for a given task payload.
type TaskFunc[T any] func(T) error

// Task represents a single unit of deferred work submitted to a queue.
//
// Payload is passed to Fn when executed. A task transits the queue exactly
// once: the queue owns it from a successful Enqueue until a worker takes it,
// the worker owns it for the duration of execution, then it is discarded.
type Task[T any] struct {
	Payload T
	Fn      TaskFunc[T]

	// ID is an optional identifier used for diagnostics only. It has no
	// effect on scheduling or ordering.
	ID string

	// Ctx controls cancellation of retry waits and carries the logger.
	// Nil is treated as context.Background().
	Ctx context.Context

	// CleanupFunc, if set, is executed after the task body, whether it
	// returned, failed, or panicked.
	CleanupFunc func()

	// Retry overrides the pool's default retry policy for this task only.
	// Non-zero fields win over the defaults.
	Retry *RetryPolicy
}

// NewTask builds a task with a generated diagnostic ID and a background
// context. Callers that need cancellation or a custom ID can construct the
// Task literal directly.
func NewTask[T any](payload T, fn TaskFunc[T]) Task[T] {
	return Task[T]{
		Payload: payload,
		Fn:      fn,
		ID:      uuid.NewString(),
		Ctx:     context.Background(),
	}
}
