package cast

import (
	"context"
	"fmt"

	"github.com/utkarsh5026/poolcast/eventloop"
)

// Mode is the native calling convention of a function.
type Mode int

const (
	// Blocking functions return their result directly on the calling goroutine.
	Blocking Mode = iota + 1
	// Asynchronous functions return a future that a loop drives to completion.
	Asynchronous
)

func (m Mode) String() string {
	switch m {
	case Blocking:
		return "blocking"
	case Asynchronous:
		return "asynchronous"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// BlockingFunc is a function that computes its result on the calling goroutine.
type BlockingFunc[A, R any] func(ctx context.Context, args A) (R, error)

// AsyncFunc is a function whose result is delivered through a future. It is
// expected to be called from a loop task (see eventloop.Go).
type AsyncFunc[A, R any] func(ctx context.Context, args A) *eventloop.Future[R]

// PooledFunc offloads a call to the current worker pool. It fails
// immediately, without a future, when no loop or no pool is available.
type PooledFunc[A, R any] func(ctx context.Context, args A) (*eventloop.Future[R], error)

// Classify reports the native mode of fn from its declared type.
//
// BlockingFunc[A, R] and func(context.Context, A) (R, error) are Blocking;
// AsyncFunc[A, R] and func(context.Context, A) *eventloop.Future[R] are
// Asynchronous; an Adapted[A, R] keeps its own mode. Anything else, including
// nil functions, fails with ErrInvalidCallable.
func Classify[A, R any](fn any) (Mode, error) {
	switch f := fn.(type) {
	case BlockingFunc[A, R]:
		if f != nil {
			return Blocking, nil
		}
	case func(context.Context, A) (R, error):
		if f != nil {
			return Blocking, nil
		}
	case AsyncFunc[A, R]:
		if f != nil {
			return Asynchronous, nil
		}
	case func(context.Context, A) *eventloop.Future[R]:
		if f != nil {
			return Asynchronous, nil
		}
	case Adapted[A, R]:
		if m := f.Mode(); m == Blocking || m == Asynchronous {
			return m, nil
		}
	}

	return 0, fmt.Errorf("%w: %T", ErrInvalidCallable, fn)
}
