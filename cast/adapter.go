package cast

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"github.com/utkarsh5026/poolcast/eventloop"
	"github.com/utkarsh5026/poolcast/pool"
)

// Adapter owns one function and exposes it in all three calling conventions.
// The native mode is fixed when the adapter is built; every entry point
// derives its behavior from it.
type Adapter[A, R any] struct {
	name string
	doc  string
	mode Mode

	// exactly one of these is set, matching mode
	blockingFn BlockingFunc[A, R]
	asyncFn    AsyncFunc[A, R]
}

// Option configures an Adapter.
type Option func(*adapterConfig)

type adapterConfig struct {
	name string
	doc  string
}

// WithName overrides the name reported by the adapter. By default it is the
// name of the wrapped function.
func WithName(name string) Option {
	return func(cfg *adapterConfig) {
		if name != "" {
			cfg.name = name
		}
	}
}

// WithDoc attaches a description to the adapter.
func WithDoc(doc string) Option {
	return func(cfg *adapterConfig) {
		cfg.doc = doc
	}
}

func newAdapter[A, R any](fn any, opts []Option) (*Adapter[A, R], error) {
	mode, err := Classify[A, R](fn)
	if err != nil {
		return nil, err
	}

	cfg := adapterConfig{name: funcName(fn)}
	for _, opt := range opts {
		opt(&cfg)
	}

	a := &Adapter[A, R]{
		name: cfg.name,
		doc:  cfg.doc,
		mode: mode,
	}

	switch f := fn.(type) {
	case BlockingFunc[A, R]:
		a.blockingFn = f
	case func(context.Context, A) (R, error):
		a.blockingFn = f
	case AsyncFunc[A, R]:
		a.asyncFn = f
	case func(context.Context, A) *eventloop.Future[R]:
		a.asyncFn = f
	case Adapted[A, R]:
		if mode == Blocking {
			a.blockingFn = f.Blocking
		} else {
			a.asyncFn = f.Async
		}
	}

	Logger().Debug("callable adapted", zap.String("name", a.name), zap.Stringer("mode", mode))
	return a, nil
}

// Blocking calls the function and waits for its result on the calling
// goroutine.
//
// A blocking function is called directly. An asynchronous function is run to
// completion on a dedicated loop; this fails with ErrNestedScheduler when ctx
// already belongs to a running loop.
func (a *Adapter[A, R]) Blocking(ctx context.Context, args A) (R, error) {
	if a.mode == Blocking {
		return a.blockingFn(ctx, args)
	}

	return eventloop.Run(ctx, func(ctx context.Context) (R, error) {
		return a.asyncFn(ctx, args).Await(ctx)
	})
}

// Async calls the function with the asynchronous convention.
//
// An asynchronous function is driven on the caller's loop. A blocking
// function runs in-line and its outcome is wrapped in a completed future; it
// is not moved off the calling goroutine (use Pooled for that).
func (a *Adapter[A, R]) Async(ctx context.Context, args A) *eventloop.Future[R] {
	if a.mode == Asynchronous {
		return a.asyncFn(ctx, args)
	}

	return eventloop.Completed[R](a.blockingFn(ctx, args))
}

// Pooled offloads the call to the innermost active worker pool and returns a
// future the calling task can Await while the worker computes.
//
// ctx must belong to a running loop (ErrNoScheduler) and a pool scope must be
// active (ErrNoActivePool); both are checked before anything is submitted.
// The worker calls Blocking, so an asynchronous function gets a loop of its
// own on the worker goroutine. Once submitted, the call runs to completion
// even if ctx is cancelled; its result is then discarded.
func (a *Adapter[A, R]) Pooled(ctx context.Context, args A) (*eventloop.Future[R], error) {
	if !eventloop.Running(ctx) {
		return nil, ErrNoScheduler
	}

	p := CurrentPool(ctx)
	if p == nil {
		return nil, ErrNoActivePool
	}

	wctx := eventloop.Detach(context.WithoutCancel(ctx))
	return pool.Submit(wctx, p, func(ctx context.Context) (R, error) {
		return a.Blocking(ctx, args)
	})
}

// Mode returns the native mode of the wrapped function.
func (a *Adapter[A, R]) Mode() Mode {
	if a == nil {
		return 0
	}
	return a.mode
}

// Name returns the name of the wrapped function.
func (a *Adapter[A, R]) Name() string {
	return a.name
}

// Doc returns the description given with WithDoc.
func (a *Adapter[A, R]) Doc() string {
	return a.doc
}

func (a *Adapter[A, R]) String() string {
	return fmt.Sprintf("<%s function %s>", a.mode, a.name)
}

// funcName returns the package-qualified name of fn, e.g. "cast.double".
func funcName(fn any) string {
	if named, ok := fn.(interface{ Name() string }); ok {
		return named.Name()
	}

	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return fmt.Sprintf("%T", fn)
	}

	rf := runtime.FuncForPC(v.Pointer())
	if rf == nil {
		return fmt.Sprintf("%T", fn)
	}

	name := rf.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}
