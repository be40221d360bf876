package taskq

import (
	"errors"
)

var (
	// ErrQueueClosed is returned by Enqueue and TryEnqueue once the queue
	// has stopped accepting work. The caller keeps ownership of the task.
	ErrQueueClosed = errors.New("taskq: queue is closed")

	// ErrQueueFull is returned by TryEnqueue when the buffer is at capacity.
	ErrQueueFull = errors.New("taskq: queue is full")

	// ErrQueueDrained is returned by Dequeue when no task will ever arrive
	// again. It is the sanctioned worker-exit signal, not an application
	// error.
	ErrQueueDrained = errors.New("taskq: queue is drained")

	// ErrNilFunc is returned when a submitted Task has a nil Fn.
	ErrNilFunc = errors.New("taskq: task func is nil")

	// ErrAlreadyStarted is returned by Pool.Start on a second call.
	ErrAlreadyStarted = errors.New("taskq: pool already started")
)

// ShutdownMode selects what happens to buffered tasks when a queue stops
// accepting work.
type ShutdownMode int

const (
	// Graceful stops intake but keeps buffered tasks deliverable until the
	// queue runs dry.
	Graceful ShutdownMode = iota

	// Immediate stops intake and discards buffered tasks.
	Immediate
)

func (m ShutdownMode) String() string {
	switch m {
	case Graceful:
		return "Graceful"
	case Immediate:
		return "Immediate"
	default:
		return "Unknown"
	}
}

// Queue defines the minimal interface required by the pool to enqueue and
// dequeue tasks.
//
// Implementations must be safe for concurrent producers and consumers.
//
// The interface is intentionally small so alternative buffer strategies can
// be swapped in without affecting the pool logic.
type Queue[T any] interface {
	// Enqueue appends a task, blocking while the buffer is full and the
	// queue still open. Returns ErrQueueClosed once intake has stopped.
	Enqueue(task Task[T]) error

	// TryEnqueue is the non-blocking variant. Returns ErrQueueFull or
	// ErrQueueClosed instead of waiting.
	TryEnqueue(task Task[T]) error

	// Dequeue removes and returns the oldest buffered task, blocking while
	// the queue is empty and still open. Returns ErrQueueDrained when no
	// task will ever arrive again.
	Dequeue() (Task[T], error)

	// Shutdown moves the queue lifecycle forward and wakes every blocked
	// caller. Idempotent. Returns the number of buffered tasks discarded
	// by this call, so callers tracking queue depth can settle their
	// accounting; a graceful shutdown always returns zero.
	Shutdown(mode ShutdownMode) int

	// Len reports the number of buffered tasks. Observational only.
	Len() int

	// IsOpen reports whether Enqueue can still succeed. Observational only.
	IsOpen() bool
}
