package throttle

import (
	"context"
	"sync"
)

// Future is the result of a submitted task, it settles exactly once with the
// value of the task or with the error of its last attempt.
type Future[T any] struct {
	done  chan struct{}
	once  sync.Once
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// resolve settles the future, only the first call has effect. It returns
// true if this call settled the future.
func (f *Future[T]) resolve(value T, err error) bool {
	settled := false
	f.once.Do(func() {
		f.value = value
		f.err = err
		settled = true
		close(f.done)
	})
	return settled
}

// Done returns a channel that is closed when the future settles.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Result blocks until the future settles and returns its result.
func (f *Future[T]) Result() (T, error) {
	<-f.done
	return f.value, f.err
}

// Wait is like Result but stops waiting when the context is done. Giving up
// waiting doesn't cancel the task, it keeps running until it settles.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	// A settled future always wins over a done context.
	select {
	case <-f.done:
		return f.value, f.err
	default:
	}

	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
