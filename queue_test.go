package taskq_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	tq "github.com/Andrej220/go-utils/taskq"
)

// -----------------------------------------------------------------------------
// FIFO and capacity
// -----------------------------------------------------------------------------

func TestQueueFIFO(t *testing.T) {
	t.Parallel()

	q := newTestQueue(t, 8)

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(tq.Task[int]{Payload: i, Fn: noop}))
	}
	require.Equal(t, 5, q.Len())

	for i := 0; i < 5; i++ {
		task, err := q.Dequeue()
		require.NoError(t, err)
		require.Equal(t, i, task.Payload)
	}
	require.Equal(t, 0, q.Len())
}

func TestQueueCapacityValidation(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() { tq.NewBoundedQueue[int](0) })
	require.Panics(t, func() { tq.NewBoundedQueue[int](-3) })
	require.Equal(t, 4, tq.NewBoundedQueue[int](4).Cap())
}

func TestQueueNilFunc(t *testing.T) {
	t.Parallel()

	q := newTestQueue(t, 1)
	require.ErrorIs(t, q.Enqueue(tq.Task[int]{}), tq.ErrNilFunc)
	require.ErrorIs(t, q.TryEnqueue(tq.Task[int]{}), tq.ErrNilFunc)
}

// Capacity 2, producer enqueues A, B, C; C blocks until a consumer frees a
// slot; the consumer sees A, B, C in order and then the drained signal.
func TestQueueProducerBackpressure(t *testing.T) {
	t.Parallel()

	q := tq.NewBoundedQueue[string](2)

	producerDone := make(chan error, 1)
	go func() {
		for _, s := range []string{"A", "B", "C"} {
			if err := q.Enqueue(tq.Task[string]{Payload: s, Fn: func(string) error { return nil }}); err != nil {
				producerDone <- err
				return
			}
		}
		producerDone <- nil
	}()

	waitUntil(t, time.Second, func() bool { return q.Len() == 2 })

	// The producer must still be parked on C.
	select {
	case err := <-producerDone:
		t.Fatalf("producer finished early: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	for _, want := range []string{"A", "B"} {
		task, err := q.Dequeue()
		require.NoError(t, err)
		require.Equal(t, want, task.Payload)
	}

	select {
	case err := <-producerDone:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("producer still blocked after slots freed")
	}

	task, err := q.Dequeue()
	require.NoError(t, err)
	require.Equal(t, "C", task.Payload)

	q.Shutdown(tq.Graceful)
	_, err = q.Dequeue()
	require.ErrorIs(t, err, tq.ErrQueueDrained)
}

// A consumer parked on an empty open queue must be woken by a single
// enqueue and get exactly that item.
func TestQueueWakesParkedConsumer(t *testing.T) {
	t.Parallel()

	q := newTestQueue(t, 4)

	got := make(chan int, 1)
	go func() {
		task, err := q.Dequeue()
		if err != nil {
			close(got)
			return
		}
		got <- task.Payload
	}()

	// Give the consumer time to park.
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, q.Enqueue(tq.Task[int]{Payload: 42, Fn: noop}))

	select {
	case v, ok := <-got:
		require.True(t, ok, "consumer exited without an item")
		require.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("consumer never woke up")
	}
}

// -----------------------------------------------------------------------------
// TryEnqueue
// -----------------------------------------------------------------------------

func TestQueueTryEnqueue(t *testing.T) {
	t.Parallel()

	q := newTestQueue(t, 1)

	require.NoError(t, q.TryEnqueue(tq.Task[int]{Payload: 1, Fn: noop}))
	require.ErrorIs(t, q.TryEnqueue(tq.Task[int]{Payload: 2, Fn: noop}), tq.ErrQueueFull)

	q.Shutdown(tq.Graceful)
	require.ErrorIs(t, q.TryEnqueue(tq.Task[int]{Payload: 3, Fn: noop}), tq.ErrQueueClosed)
}

// -----------------------------------------------------------------------------
// Shutdown protocol
// -----------------------------------------------------------------------------

func TestQueueGracefulDrain(t *testing.T) {
	t.Parallel()

	q := newTestQueue(t, 8)
	for i := 0; i < 3; i++ {
		require.NoError(t, q.Enqueue(tq.Task[int]{Payload: i, Fn: noop}))
	}

	q.Shutdown(tq.Graceful)
	require.False(t, q.IsOpen())
	require.ErrorIs(t, q.Enqueue(tq.Task[int]{Payload: 9, Fn: noop}), tq.ErrQueueClosed)

	// Buffered tasks are still delivered, in order.
	for i := 0; i < 3; i++ {
		task, err := q.Dequeue()
		require.NoError(t, err)
		require.Equal(t, i, task.Payload)
	}

	_, err := q.Dequeue()
	require.ErrorIs(t, err, tq.ErrQueueDrained)
}

func TestQueueImmediateDiscards(t *testing.T) {
	t.Parallel()

	q := newTestQueue(t, 8)
	for i := 0; i < 3; i++ {
		require.NoError(t, q.Enqueue(tq.Task[int]{Payload: i, Fn: noop}))
	}

	require.Equal(t, 3, q.Shutdown(tq.Immediate))
	require.Equal(t, 0, q.Len())

	_, err := q.Dequeue()
	require.ErrorIs(t, err, tq.ErrQueueDrained)
	require.ErrorIs(t, q.Enqueue(tq.Task[int]{Payload: 9, Fn: noop}), tq.ErrQueueClosed)
}

func TestQueueShutdownIdempotent(t *testing.T) {
	t.Parallel()

	q := newTestQueue(t, 8)
	require.NoError(t, q.Enqueue(tq.Task[int]{Payload: 1, Fn: noop}))

	require.Equal(t, 0, q.Shutdown(tq.Graceful))
	require.Equal(t, 0, q.Shutdown(tq.Graceful)) // no-op
	require.Equal(t, 1, q.Len())

	// Escalates draining -> closed, discarding the leftover task.
	require.Equal(t, 1, q.Shutdown(tq.Immediate))
	require.Equal(t, 0, q.Len())

	require.Equal(t, 0, q.Shutdown(tq.Graceful)) // no-op, never moves backward
	require.Equal(t, 0, q.Shutdown(tq.Immediate))
	require.False(t, q.IsOpen())
}

func TestShutdownModeString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Graceful", tq.Graceful.String())
	require.Equal(t, "Immediate", tq.Immediate.String())
	require.Equal(t, "Unknown", tq.ShutdownMode(42).String())
}

func TestQueueShutdownWakesBlockedProducer(t *testing.T) {
	t.Parallel()

	q := newTestQueue(t, 1)
	require.NoError(t, q.Enqueue(tq.Task[int]{Payload: 1, Fn: noop}))

	errCh := make(chan error, 1)
	go func() {
		errCh <- q.Enqueue(tq.Task[int]{Payload: 2, Fn: noop})
	}()

	time.Sleep(20 * time.Millisecond)
	q.Shutdown(tq.Graceful)

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, tq.ErrQueueClosed)
	case <-time.After(time.Second):
		t.Fatal("blocked producer never woke after shutdown")
	}

	// The buffered task survives a graceful shutdown.
	task, err := q.Dequeue()
	require.NoError(t, err)
	require.Equal(t, 1, task.Payload)
}

func TestQueueShutdownWakesAllConsumers(t *testing.T) {
	t.Parallel()

	q := newTestQueue(t, 4)

	const consumers = 8
	var wg sync.WaitGroup
	errs := make(chan error, consumers)
	for i := 0; i < consumers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := q.Dequeue()
			errs <- err
		}()
	}

	time.Sleep(20 * time.Millisecond)
	q.Shutdown(tq.Graceful)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("not every consumer woke after shutdown")
	}

	close(errs)
	for err := range errs {
		require.ErrorIs(t, err, tq.ErrQueueDrained)
	}
}
