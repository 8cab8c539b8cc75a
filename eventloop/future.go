package eventloop

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrFutureTimeout is returned by GetWithTimeout when the deadline passes first.
var ErrFutureTimeout = errors.New("eventloop: timed out waiting for future")

// Future is the eventual result of an asynchronous call.
//
// A Future is resolved exactly once, by whoever computes the value: a loop
// task, a pool worker, or the caller itself for already-known results.
// Resolution is visible to every reader, any number of times.
type Future[R any] struct {
	done chan struct{}

	mu        sync.Mutex
	resolved  bool
	value     R
	err       error
	callbacks []func()
}

// NewFuture creates an unresolved future.
func NewFuture[R any]() *Future[R] {
	return &Future[R]{done: make(chan struct{})}
}

// Completed returns a future that is already resolved with value and err.
func Completed[R any](value R, err error) *Future[R] {
	f := NewFuture[R]()
	f.Resolve(value, err)
	return f
}

// Resolve stores the outcome and wakes all waiters. Only the first call has an
// effect; it reports whether this call was the one that resolved the future.
func (f *Future[R]) Resolve(value R, err error) bool {
	f.mu.Lock()
	if f.resolved {
		f.mu.Unlock()
		return false
	}
	f.resolved = true
	f.value = value
	f.err = err
	callbacks := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()

	for _, cb := range callbacks {
		cb()
	}
	return true
}

// Done returns a channel that is closed once the future is resolved.
func (f *Future[R]) Done() <-chan struct{} {
	return f.done
}

// IsReady reports whether the future has been resolved, without blocking.
func (f *Future[R]) IsReady() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Get blocks the calling goroutine until the future is resolved.
// From inside a loop task use Await instead, which lets other tasks run.
func (f *Future[R]) Get() (R, error) {
	<-f.done
	return f.value, f.err
}

// GetWithContext is Get bounded by ctx.
func (f *Future[R]) GetWithContext(ctx context.Context) (R, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}

// GetWithTimeout is Get bounded by timeout.
func (f *Future[R]) GetWithTimeout(timeout time.Duration) (R, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-f.done:
		return f.value, f.err
	case <-timer.C:
		var zero R
		return zero, ErrFutureTimeout
	}
}

// Await waits for the future from a loop task, suspending the task so the
// loop can run others in the meantime. Called with a context that does not
// belong to a loop, Await behaves like GetWithContext.
//
// If ctx is cancelled first, Await returns ctx.Err(); the future itself is
// left untouched and still receives its result.
func (f *Future[R]) Await(ctx context.Context) (R, error) {
	t := currentTask(ctx)
	if t == nil {
		return f.GetWithContext(ctx)
	}

	if !f.IsReady() && ctx.Err() == nil {
		t.suspend(ctx, f.whenDone)
	}

	select {
	case <-f.done:
		return f.value, f.err
	default:
		var zero R
		return zero, ctx.Err()
	}
}

// whenDone runs fn once the future is resolved, immediately if it already is.
func (f *Future[R]) whenDone(fn func()) {
	f.mu.Lock()
	if !f.resolved {
		f.callbacks = append(f.callbacks, fn)
		f.mu.Unlock()
		return
	}
	f.mu.Unlock()
	fn()
}

// Gather awaits every future and returns their values in argument order.
// The error is that of the first failed future in argument order.
func Gather[R any](ctx context.Context, futures ...*Future[R]) ([]R, error) {
	results := make([]R, len(futures))
	var firstErr error

	for i, f := range futures {
		v, err := f.Await(ctx)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		results[i] = v
	}

	return results, firstErr
}
