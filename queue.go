package taskq

import (
	"fmt"
	"sync"

	"github.com/gammazero/deque"
	"github.com/jacobsa/syncutil"
)

// queueState tracks the queue lifecycle. Transitions are monotonic:
// open -> draining -> closed, never backward.
type queueState int

const (
	stateOpen queueState = iota
	stateDraining
	stateClosed
)

// BoundedQueue is a blocking, capacity-bounded, multi-producer
// multi-consumer FIFO buffer of tasks.
//
// A single mutex guards the buffer and the lifecycle state. Two condition
// variables park producers (queue full) and consumers (queue empty); normal
// progress signals one waiter, shutdown broadcasts to all of them so no
// goroutine is ever left blocked on a queue that will not change again.
// Every wait re-checks its predicate in a loop, so spurious wakeups are
// harmless.
//
// Tasks are delivered in enqueue order, exactly once. The queue never holds
// its lock while a task body runs; execution is entirely the consumer's
// business.
type BoundedQueue[T any] struct {
	capacity int

	mu syncutil.InvariantMutex

	// Guarded by mu.
	buf   deque.Deque[Task[T]]
	state queueState

	notFull  *sync.Cond
	notEmpty *sync.Cond
}

var _ Queue[any] = (*BoundedQueue[any])(nil)

// NewBoundedQueue creates an open queue holding at most capacity tasks.
// A capacity of 1 behaves as a single-slot rendezvous. Panics if capacity
// is less than 1: such a queue could never make progress, which is a
// programming error rather than a runtime condition.
func NewBoundedQueue[T any](capacity int) *BoundedQueue[T] {
	if capacity < 1 {
		panic(fmt.Sprintf("taskq: queue capacity must be >= 1, got %d", capacity))
	}
	q := &BoundedQueue[T]{capacity: capacity}
	q.mu = syncutil.NewInvariantMutex(q.checkInvariants)
	q.notFull = sync.NewCond(&q.mu)
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// checkInvariants runs under mu when syncutil.EnableInvariantChecking has
// been called. A violation is a bug in the queue itself, so it panics.
func (q *BoundedQueue[T]) checkInvariants() {
	if n := q.buf.Len(); n < 0 || n > q.capacity {
		panic(fmt.Sprintf("taskq: buffer length %d outside [0, %d]", n, q.capacity))
	}
	if q.state < stateOpen || q.state > stateClosed {
		panic(fmt.Sprintf("taskq: impossible queue state %d", q.state))
	}
	// Immediate shutdown discards the buffer under the lock, so a closed
	// queue is always empty.
	if q.state == stateClosed && q.buf.Len() != 0 {
		panic("taskq: closed queue still holds tasks")
	}
}

// Enqueue inserts task at the tail, blocking while the buffer is full and
// the queue still open. At most one parked consumer is woken.
//
// If intake has stopped by the time a slot is available (including while
// the caller was blocked), Enqueue returns ErrQueueClosed and the task is
// not stored; ownership stays with the caller, who may retry elsewhere,
// drop, or escalate.
func (q *BoundedQueue[T]) Enqueue(task Task[T]) error {
	if task.Fn == nil {
		return ErrNilFunc
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	for q.buf.Len() == q.capacity && q.state == stateOpen {
		q.notFull.Wait()
	}
	if q.state != stateOpen {
		return ErrQueueClosed
	}
	q.buf.PushBack(task)
	q.notEmpty.Signal()
	return nil
}

// TryEnqueue is the non-blocking variant of Enqueue. It fails immediately
// with ErrQueueClosed if intake has stopped, or ErrQueueFull if the buffer
// is at capacity.
func (q *BoundedQueue[T]) TryEnqueue(task Task[T]) error {
	if task.Fn == nil {
		return ErrNilFunc
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.state != stateOpen {
		return ErrQueueClosed
	}
	if q.buf.Len() == q.capacity {
		return ErrQueueFull
	}
	q.buf.PushBack(task)
	q.notEmpty.Signal()
	return nil
}

// Dequeue removes and returns the oldest task, blocking while the buffer
// is empty and the queue still open. At most one parked producer is woken.
//
// A draining queue keeps delivering buffered tasks until it runs dry.
// ErrQueueDrained means no task will ever arrive again and is the
// consumer's signal to stop.
func (q *BoundedQueue[T]) Dequeue() (Task[T], error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.buf.Len() == 0 && q.state == stateOpen {
		q.notEmpty.Wait()
	}
	if q.buf.Len() == 0 {
		// Draining with nothing left, or closed.
		return Task[T]{}, ErrQueueDrained
	}
	task := q.buf.PopFront()
	q.notFull.Signal()
	return task, nil
}

// Shutdown moves the queue forward in its lifecycle and wakes every caller
// blocked in Enqueue or Dequeue so they can observe the new state.
//
// Graceful stops intake but keeps buffered tasks deliverable. Immediate
// also discards them; the number of tasks thrown away is returned so the
// caller can settle any queue-depth accounting. Calling Shutdown again is
// a no-op, except that Immediate escalates an earlier Graceful
// (draining -> closed); the state never moves backward.
//
// Shutdown only flips state and broadcasts; it never waits for drainage,
// so it is safe to call from a consumer, including from inside a task body.
func (q *BoundedQueue[T]) Shutdown(mode ShutdownMode) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	discarded := 0
	switch mode {
	case Immediate:
		if q.state == stateClosed {
			return 0
		}
		discarded = q.buf.Len()
		q.buf.Clear()
		q.state = stateClosed
	default:
		if q.state != stateOpen {
			return 0
		}
		q.state = stateDraining
	}
	q.notFull.Broadcast()
	q.notEmpty.Broadcast()
	return discarded
}

// Len reports the number of buffered tasks. The value may be stale by the
// time the caller acts on it; control decisions belong in Enqueue/Dequeue,
// which re-check under the lock.
func (q *BoundedQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.buf.Len()
}

// Cap returns the configured capacity.
func (q *BoundedQueue[T]) Cap() int { return q.capacity }

// IsOpen reports whether Enqueue can still succeed. Observational only,
// same caveat as Len.
func (q *BoundedQueue[T]) IsOpen() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state == stateOpen
}
