package cast

import (
	"context"

	"github.com/utkarsh5026/poolcast/eventloop"
)

// Adapted is a function exposed in all three calling conventions.
type Adapted[A, R any] interface {
	Name() string
	Mode() Mode
	Blocking(ctx context.Context, args A) (R, error)
	Async(ctx context.Context, args A) *eventloop.Future[R]
	Pooled(ctx context.Context, args A) (*eventloop.Future[R], error)
}

var (
	_ Adapted[int, int] = (*Adapter[int, int])(nil)
	_ Adapted[int, int] = (*BlockingAdapter[int, int])(nil)
	_ Adapted[int, int] = (*AsyncAdapter[int, int])(nil)
)

// BlockingAdapter wraps a blocking function. Calling it behaves exactly like
// the original function; Async and Pooled expose the other conventions.
type BlockingAdapter[A, R any] struct {
	*Adapter[A, R]
}

// Call invokes the wrapped function directly, as the original would be called.
func (b *BlockingAdapter[A, R]) Call(ctx context.Context, args A) (R, error) {
	return b.blockingFn(ctx, args)
}

// AsyncAdapter wraps an asynchronous function. Calling it behaves exactly
// like the original function; Blocking and Pooled expose the other conventions.
type AsyncAdapter[A, R any] struct {
	*Adapter[A, R]
}

// Call invokes the wrapped function directly and returns its future.
func (a *AsyncAdapter[A, R]) Call(ctx context.Context, args A) *eventloop.Future[R] {
	return a.asyncFn(ctx, args)
}

// CastBlockingToAsync wraps a blocking function so it can also be awaited
// and offloaded to a pool.
//
//	double, _ := cast.CastBlockingToAsync(func(ctx context.Context, n int) (int, error) {
//	    return n * 2, nil
//	})
//	v, err := double.Call(ctx, 4)           // blocking, like the original
//	f := double.Async(ctx, 4)               // completed future
//	f, err = double.Pooled(loopCtx, 4)      // runs on the current pool
func CastBlockingToAsync[A, R any](fn func(context.Context, A) (R, error), opts ...Option) (*BlockingAdapter[A, R], error) {
	a, err := newAdapter[A, R](fn, opts)
	if err != nil {
		return nil, err
	}
	return &BlockingAdapter[A, R]{Adapter: a}, nil
}

// CastAsyncToBlocking wraps an asynchronous function so it can also be called
// from plain blocking code and offloaded to a pool.
func CastAsyncToBlocking[A, R any](fn func(context.Context, A) *eventloop.Future[R], opts ...Option) (*AsyncAdapter[A, R], error) {
	a, err := newAdapter[A, R](fn, opts)
	if err != nil {
		return nil, err
	}
	return &AsyncAdapter[A, R]{Adapter: a}, nil
}

// Wrap classifies fn and returns the matching adapter: a *BlockingAdapter for
// blocking functions, an *AsyncAdapter for asynchronous ones.
func Wrap[A, R any](fn any, opts ...Option) (Adapted[A, R], error) {
	a, err := newAdapter[A, R](fn, opts)
	if err != nil {
		return nil, err
	}

	if a.mode == Blocking {
		return &BlockingAdapter[A, R]{Adapter: a}, nil
	}
	return &AsyncAdapter[A, R]{Adapter: a}, nil
}

// ToAsync casts a blocking function into one that always uses the
// asynchronous convention.
func ToAsync[A, R any](fn func(context.Context, A) (R, error)) (AsyncFunc[A, R], error) {
	a, err := newAdapter[A, R](fn, nil)
	if err != nil {
		return nil, err
	}
	return a.Async, nil
}

// ToBlocking casts an asynchronous function into one that always blocks
// until the result is available.
func ToBlocking[A, R any](fn func(context.Context, A) *eventloop.Future[R]) (BlockingFunc[A, R], error) {
	a, err := newAdapter[A, R](fn, nil)
	if err != nil {
		return nil, err
	}
	return a.Blocking, nil
}

// ToPooled casts a blocking or asynchronous function into one that always
// offloads to the current worker pool.
func ToPooled[A, R any](fn any) (PooledFunc[A, R], error) {
	a, err := newAdapter[A, R](fn, nil)
	if err != nil {
		return nil, err
	}
	return a.Pooled, nil
}
