package throttle

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog"

	throttleerrors "github.com/gothrottle/throttle/errors"
	"github.com/gothrottle/throttle/metrics"
	"github.com/gothrottle/throttle/queue"
	"github.com/gothrottle/throttle/retry"
)

// task is a submitted unit of work. The settle functions are bound once at
// submission and reused by every retry.
type task struct {
	run     func() error
	succeed func()
	fail    func(err error)
	// retries is the number of times the task has been queued again after a failure.
	retries int
}

// Scheduler executes tasks with a ceiling of concurrent executions. Tasks that
// can't be executed right away wait on a queue. Failed tasks are retried with
// a backoff if the failure is transient, the retries cut the line and are
// executed before the tasks already waiting.
//
// The queue is unbounded and submitted tasks can't be canceled.
type Scheduler struct {
	cfg     Config
	backoff retry.BackoffConfig
	rec     metrics.Recorder
	log     zerolog.Logger

	// mu protects the queue, the active counter and the jitter source.
	mu     sync.Mutex
	active int
	queue  *queue.Queue[*task]
}

// New returns a new scheduler ready to accept tasks.
func New(cfg Config) *Scheduler {
	cfg.defaults()

	return &Scheduler{
		cfg: cfg,
		backoff: retry.BackoffConfig{
			Initial: cfg.InitialRetryDelay,
			Max:     cfg.MaxRetryDelay,
		},
		rec:   cfg.MetricsRecorder.WithID(cfg.ID),
		log:   cfg.Logger.With().Str("scheduler", cfg.ID).Logger(),
		queue: queue.New[*task](),
	}
}

// Submit queues fn on the scheduler and returns a future of its result right
// away, it never blocks. ctx is passed to every attempt of fn, the scheduler
// doesn't use it to cancel the task.
func Submit[T any](ctx context.Context, s *Scheduler, fn func(ctx context.Context) (T, error)) *Future[T] {
	if ctx == nil {
		ctx = context.Background()
	}

	f := newFuture[T]()
	var result T
	t := &task{
		run: func() error {
			v, err := fn(ctx)
			if err == nil {
				result = v
			}
			return err
		},
		succeed: func() { f.resolve(result, nil) },
		fail: func(err error) {
			var zero T
			f.resolve(zero, err)
		},
	}

	s.submit(t)
	return f
}

type indexedResult[T any] struct {
	i     int
	value T
	err   error
}

// SubmitAll submits every fn independently and returns a future that settles
// with all the results in order, or with the first terminal failure. When one
// fails the rest keep running until they settle.
func SubmitAll[T any](ctx context.Context, s *Scheduler, fns []func(ctx context.Context) (T, error)) *Future[[]T] {
	all := newFuture[[]T]()

	futures := make([]*Future[T], 0, len(fns))
	for _, fn := range fns {
		futures = append(futures, Submit(ctx, s, fn))
	}

	go func() {
		// Buffered so the waiters never block once we stop reading.
		resC := make(chan indexedResult[T], len(futures))
		for i, f := range futures {
			go func(i int, f *Future[T]) {
				v, err := f.Result()
				resC <- indexedResult[T]{i: i, value: v, err: err}
			}(i, f)
		}

		values := make([]T, len(futures))
		for range futures {
			res := <-resC
			if res.err != nil {
				all.resolve(nil, res.err)
				return
			}
			values[res.i] = res.value
		}
		all.resolve(values, nil)
	}()

	return all
}

// Run satisfies Runner interface. It submits f and waits for its result.
func (s *Scheduler) Run(ctx context.Context, f Func) error {
	if ctx == nil {
		ctx = context.Background()
	}
	_, err := Submit(ctx, s, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, f(ctx)
	}).Wait(ctx)
	return err
}

// QueueLen returns the number of tasks waiting to be executed. Retries that
// are waiting for their backoff are not counted.
func (s *Scheduler) QueueLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

// Active returns the number of tasks being executed.
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *Scheduler) submit(t *task) {
	s.rec.IncSubmitted()

	s.mu.Lock()
	s.queue.PushBack(t)
	s.mu.Unlock()

	s.drain()
}

func (s *Scheduler) requeue(t *task) {
	s.mu.Lock()
	s.queue.PushFront(t)
	s.mu.Unlock()

	s.drain()
}

// drain starts queued tasks until the concurrency ceiling is reached or the
// queue is empty.
func (s *Scheduler) drain() {
	var ready []*task

	s.mu.Lock()
	for s.active < s.cfg.MaxConcurrent {
		t, ok := s.queue.PopFront()
		if !ok {
			break
		}
		s.active++
		ready = append(ready, t)
	}
	s.measureState()
	s.mu.Unlock()

	for _, t := range ready {
		go s.execute(t)
	}
}

// release frees an execution slot.
func (s *Scheduler) release() {
	s.mu.Lock()
	s.active--
	s.measureState()
	s.mu.Unlock()
}

// measureState must be called while holding the lock.
func (s *Scheduler) measureState() {
	s.rec.SetQueueLength(s.queue.Len())
	s.rec.SetActive(s.active)
}

func (s *Scheduler) execute(t *task) {
	start := time.Now()
	err := s.runTask(t)
	s.rec.ObserveAttempt(start, err == nil)

	if err == nil {
		s.release()
		s.rec.IncSettled(true)
		t.succeed()
		s.drain()
		return
	}

	kind := retry.Classify(err)
	if t.retries < s.cfg.MaxRetries && s.cfg.RetryPolicy(err) {
		s.mu.Lock()
		delay := retry.Delay(t.retries, err, s.backoff, s.cfg.Rand)
		s.mu.Unlock()

		t.retries++
		s.rec.IncRetry(string(kind))
		s.rec.ObserveRetryDelay(delay)
		s.log.Debug().
			Int("retry", t.retries).
			Dur("delay", delay).
			Str("kind", string(kind)).
			Err(err).
			Msg("retry scheduled")

		// The slot is not held while waiting.
		time.AfterFunc(delay, func() { s.requeue(t) })
		s.release()
		s.drain()
		return
	}

	s.log.Debug().
		Int("attempts", t.retries+1).
		Str("kind", string(kind)).
		Err(err).
		Msg("task failed")

	s.release()
	s.rec.IncSettled(false)
	t.fail(err)
	s.drain()
}

// runTask executes the task converting a panic into an error so it settles
// the task like any other failure.
func (s *Scheduler) runTask(t *task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", throttleerrors.ErrPanic, r)
			s.log.Error().
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("task panicked")
		}
	}()

	return t.run()
}
