package taskq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	boff "github.com/Andrej220/go-utils/backoff"
	lg "github.com/Andrej220/go-utils/zlog"
)

// Pool owns a fixed set of worker goroutines draining one shared queue.
//
// The pool holds a reference to the queue, not ownership: several pools may
// share one queue, and shutting the pool down shuts the queue down for all
// of them.
//
// A worker never dies because a task failed. Panics are recovered, errors
// go to OnTaskError, and the worker moves on to the next Dequeue. The only
// sanctioned exit is the queue reporting ErrQueueDrained.
type Pool[T any] struct {
	queue Queue[T]
	opts  Options

	wg            sync.WaitGroup
	started       atomic.Bool
	activeWorkers atomic.Int32

	// OnTaskError observes a task failure: the final failed attempt, a
	// recovered panic, or a cancellation during backoff. Must be safe for
	// concurrent use. Nil means failures are dropped silently.
	OnTaskError func(err error, task Task[T])

	// OnInternalError observes non-task failures inside the pool itself.
	OnInternalError func(err error)
}

// NewPool configures a pool over queue. No goroutine is spawned here;
// construction is side-effect-free so hosts can wire handlers before any
// worker runs. Call Start to spawn the workers.
func NewPool[T any](queue Queue[T], opts Options) (*Pool[T], error) {
	if queue == nil {
		return nil, fmt.Errorf("taskq: nil queue")
	}
	if opts.Workers < 0 {
		return nil, fmt.Errorf("taskq: negative worker count %d", opts.Workers)
	}
	opts.FillDefaults()
	return &Pool[T]{queue: queue, opts: opts}, nil
}

// Start spawns the worker goroutines. A pool starts at most once; a second
// call returns ErrAlreadyStarted and changes nothing.
func (p *Pool[T]) Start() error {
	if !p.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	for i := 0; i < p.opts.Workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return nil
}

// Submit enqueues a task, blocking while the queue is full. Tasks whose
// context is already canceled are rejected up front.
func (p *Pool[T]) Submit(task Task[T]) error {
	if task.Ctx == nil {
		task.Ctx = context.Background()
	}
	if err := task.Ctx.Err(); err != nil {
		return err
	}
	if err := p.queue.Enqueue(task); err != nil {
		return err
	}
	p.opts.Metrics.IncQueued()
	lg.FromContext(task.Ctx).Info("Task submitted", lg.String("task_id", task.ID))
	return nil
}

// TrySubmit is the non-blocking variant of Submit.
func (p *Pool[T]) TrySubmit(task Task[T]) error {
	if task.Ctx == nil {
		task.Ctx = context.Background()
	}
	if err := task.Ctx.Err(); err != nil {
		return err
	}
	if err := p.queue.TryEnqueue(task); err != nil {
		return err
	}
	p.opts.Metrics.IncQueued()
	return nil
}

// Shutdown forwards mode to the queue and returns without waiting. Workers
// observe the state change on their next Dequeue. Safe to call from inside
// a task body.
//
// Tasks discarded by an immediate shutdown are removed from the queued
// gauge here: no worker will ever dequeue them.
func (p *Pool[T]) Shutdown(mode ShutdownMode) {
	if n := p.queue.Shutdown(mode); n > 0 {
		p.opts.Metrics.BatchDecQueued(int64(n))
	}
}

// AwaitTermination blocks until every worker goroutine has exited, or until
// ctx expires, whichever comes first. On timeout the workers keep running
// and the caller may wait again; the pool never force-kills a task body.
func (p *Pool[T]) AwaitTermination(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.wg.Wait()
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop is the blocking convenience: graceful shutdown plus unbounded wait.
func (p *Pool[T]) Stop() {
	p.Shutdown(Graceful)
	_ = p.AwaitTermination(context.Background())
}

// ActiveWorkers reports how many workers are executing a task body right now.
func (p *Pool[T]) ActiveWorkers() int32 { return p.activeWorkers.Load() }

// QueueLen reports the number of tasks waiting in the shared queue.
func (p *Pool[T]) QueueLen() int { return p.queue.Len() }

func (p *Pool[T]) worker() {
	defer p.wg.Done()
	for {
		task, err := p.queue.Dequeue()
		if err != nil {
			if !errors.Is(err, ErrQueueDrained) {
				p.reportInternalError(err)
			}
			return
		}
		p.opts.Metrics.DecQueued()
		p.runTask(task)
	}
}

// runTask executes one task outside any queue lock, isolating panics and
// guaranteeing cleanup.
func (p *Pool[T]) runTask(task Task[T]) {
	if task.Ctx == nil {
		task.Ctx = context.Background()
	}
	p.activeWorkers.Add(1)
	defer p.activeWorkers.Add(-1)
	defer func() {
		if r := recover(); r != nil {
			lg.FromContext(task.Ctx).Error("task panicked",
				lg.Any("panic", r),
				lg.String("task_id", task.ID),
			)
			p.opts.Metrics.IncTaskError()
			p.reportTaskError(fmt.Errorf("taskq: task panicked: %v", r), task)
		}
		if task.CleanupFunc != nil {
			task.CleanupFunc()
		}
		p.opts.Metrics.IncExecuted()
	}()
	p.processTask(task)
}

func (p *Pool[T]) processTask(task Task[T]) {
	logger := lg.FromContext(task.Ctx).With(lg.String("task_id", task.ID))
	logger.Info("Worker processing task", lg.Int32("active_workers", p.activeWorkers.Load()))

	pol := p.opts.DefaultRetry
	if task.Retry != nil {
		// override non-zero per-task values
		if task.Retry.Attempts > 0 {
			pol.Attempts = task.Retry.Attempts
		}
		if task.Retry.Initial > 0 {
			pol.Initial = task.Retry.Initial
		}
		if task.Retry.Max > 0 {
			pol.Max = task.Retry.Max
		}
	}

	bo := boff.New(pol.Initial, pol.Max, time.Now().UnixNano())

	for attempt := 1; attempt <= pol.Attempts; attempt++ {
		err := task.Fn(task.Payload)
		if err == nil {
			logger.Info("Worker finished", lg.Int32("active_workers", p.activeWorkers.Load()))
			return
		}
		if attempt == pol.Attempts {
			logger.Error("Worker error", lg.Int("attempt", attempt), lg.Any("error", err))
			p.opts.Metrics.IncTaskError()
			p.reportTaskError(err, task)
			return
		}
		delay := bo.Next()
		logger.Warn("task attempt failed; backing off",
			lg.Int("attempt", attempt),
			lg.String("sleep", delay.String()),
			lg.Any("error", err),
		)
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-task.Ctx.Done():
			if !timer.Stop() {
				<-timer.C // drain if timer is fired
			}
			logger.Info("Task canceled", lg.Any("reason", task.Ctx.Err()))
			p.opts.Metrics.IncTaskError()
			p.reportTaskError(task.Ctx.Err(), task)
			return
		}
	}
}
