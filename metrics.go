package taskq

import (
	"sync/atomic"
)

// MetricsPolicy defines hooks used by the worker pool to report
// queueing and execution activity.
//
// Implementations must be safe for concurrent use.
// All methods are expected to be lightweight and non-blocking.
type MetricsPolicy interface {

	// IncQueued increments the queued tasks gauge on a successful submit.
	IncQueued()

	// DecQueued decrements the queued gauge when a worker takes a task.
	DecQueued()

	// BatchDecQueued decrements the queued gauge by n.
	//
	// This is used when an immediate shutdown discards a batch of
	// buffered tasks that no worker will ever dequeue.
	BatchDecQueued(n int64)

	// IncExecuted increments the finished tasks counter. A task counts as
	// finished whether its body returned, failed, or panicked.
	IncExecuted()

	// IncTaskError increments the failed tasks counter.
	IncTaskError()
}

// AtomicMetrics is a lock-free metrics implementation backed by atomics.
//
// Writes are optimized for hot paths.
// Reads are intended for cold-path observation.
type AtomicMetrics struct {
	// executed is the total number of tasks finished, failed and
	// panicked ones included.
	executed atomic.Uint64

	_ [56]byte // padding to avoid false sharing

	// queued is the current number of tasks buffered.
	queued atomic.Int64

	_ [56]byte

	// taskErrors is the total number of tasks whose final attempt failed.
	taskErrors atomic.Uint64
}

// Executed returns the total number of finished tasks.
// Intended for cold-path observation.
func (m *AtomicMetrics) Executed() uint64 {
	return m.executed.Load()
}

// Queued returns the current number of queued tasks.
// Intended for cold-path observation.
func (m *AtomicMetrics) Queued() int64 {
	return m.queued.Load()
}

// TaskErrors returns the total number of failed tasks.
func (m *AtomicMetrics) TaskErrors() uint64 {
	return m.taskErrors.Load()
}

// IncQueued increments the queued tasks gauge by one.
func (m *AtomicMetrics) IncQueued() {
	m.queued.Add(1)
}

// DecQueued decrements the queued tasks gauge by one.
func (m *AtomicMetrics) DecQueued() {
	m.queued.Add(-1)
}

// BatchDecQueued decrements the queued tasks gauge by n.
func (m *AtomicMetrics) BatchDecQueued(n int64) {
	m.queued.Add(-n)
}

// IncExecuted increments the finished tasks counter by one.
func (m *AtomicMetrics) IncExecuted() {
	m.executed.Add(1)
}

// IncTaskError increments the failed tasks counter by one.
func (m *AtomicMetrics) IncTaskError() {
	m.taskErrors.Add(1)
}

//------------- NoopMetrics ----------------------------------

// NoopMetrics is a MetricsPolicy implementation that discards
// all metric updates.
//
// It can be used when metrics collection is disabled and
// zero overhead is desired.
type NoopMetrics struct{}

func (m *NoopMetrics) IncQueued()           {}
func (m *NoopMetrics) DecQueued()           {}
func (m *NoopMetrics) BatchDecQueued(int64) {}
func (m *NoopMetrics) IncExecuted()         {}
func (m *NoopMetrics) IncTaskError()        {}
