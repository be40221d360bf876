// Package taskq provides a bounded, blocking task queue and a worker pool
// with cooperative shutdown.
//
// Design goals
//
// The package is designed around the following principles:
//
//   - One shared mutable resource (the queue), guarded by one mutex
//   - No lock held while a task body runs
//   - Every blocked goroutine is woken by shutdown, none is ever leaked
//   - Routine conditions (closed, drained, full) are errors, not panics;
//     broken invariants panic, they are never "handled"
//
// Rather than optimizing for raw dispatch throughput, taskq optimizes for
// predictable coordination semantics: strict FIFO delivery, a hard capacity
// bound that backpressures producers, and a shutdown protocol that always
// terminates.
//
// Architecture overview
//
// The component is composed of three layers:
//
//   1. Storage (BoundedQueue)
//      A mutex plus two condition variables around a deque. Producers park
//      while the buffer is full, consumers park while it is empty, and
//      every wait re-checks its predicate in a loop so spurious wakeups
//      are harmless.
//
//   2. Execution (Pool / workers)
//      A fixed set of worker goroutines, each looping on Dequeue and
//      executing tasks outside any lock. Workers are owned and joined;
//      there is no fire-and-forget goroutine anywhere in the package.
//
//   3. Task lifecycle
//      Tasks carry their payload, execution function, optional context,
//      optional cleanup logic, and an optional retry policy.
//
// Shutdown protocol
//
// The queue moves through three states: open, draining, closed. The
// transition is monotonic and driven by Shutdown, which is idempotent.
//
// Graceful shutdown stops intake but keeps delivering buffered tasks;
// workers exit one by one as Dequeue starts reporting ErrQueueDrained.
// Immediate shutdown additionally discards the buffer, so workers exit
// without touching the pending tasks.
//
// Shutdown broadcasts on both condition variables. Normal progress signals
// exactly one waiter; only the state change wakes everyone, because every
// blocked goroutine must get its chance to observe it.
//
// Error handling
//
// The pool distinguishes between two classes of errors:
//
//   - Task errors: returned by task functions or produced by panic recovery
//   - Internal errors: unexpected failures inside the pool itself
//
// Errors are reported via user-provided handlers and do not stop
// worker execution. Panics inside tasks are recovered to prevent
// worker termination. ErrQueueDrained is not an error in the usual
// sense: it is the one sanctioned way a worker learns it is done.
//
// Intended use cases
//
// taskq is well suited for:
//
//   - In-process background work with bounded memory
//   - Producer/consumer pipelines that need backpressure
//   - Hosts that need a clean drain-then-stop lifecycle
//
// It is not an actor runtime, not a distributed scheduler, and not a
// durable queue. Tasks are fire-and-forget; a host needing result
// propagation should layer a future or channel on top of the task body
// rather than expect the queue to track results.
package taskq
