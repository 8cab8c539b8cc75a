// Package eventloop provides a small cooperative scheduler for Go code that
// wants asynchronous calling conventions.
//
// A loop is started with Run, which blocks the calling goroutine until the
// main task and every task it spawned have finished. Tasks are ordinary Go
// functions taking a context; each runs on its own goroutine, but a loop lets
// only one of its tasks execute at a time. A task gives up control only when
// it awaits a Future that is not yet resolved, so between two Await calls a
// task has the loop to itself.
//
// # Basic Usage
//
//	total, err := eventloop.Run(ctx, func(ctx context.Context) (int, error) {
//	    a := eventloop.Go(ctx, fetchA)
//	    b := eventloop.Go(ctx, fetchB)
//	    values, err := eventloop.Gather(ctx, a, b)
//	    if err != nil {
//	        return 0, err
//	    }
//	    return values[0] + values[1], nil
//	})
//
// # Contexts
//
// The context passed to a task identifies the task and its loop. It must stay
// on the task's goroutine: before handing it to another goroutine, strip the
// loop ownership with Detach. Running reports whether a context belongs to a
// live loop, and Run refuses to start a second loop from such a context
// (ErrNestedScheduler).
//
// # Futures
//
// A Future is resolved exactly once and may be read any number of times.
// Await suspends the current task; Get, GetWithContext and GetWithTimeout
// block the calling goroutine and are meant for code running outside a loop.
//
// # Panics
//
// A panicking task resolves its future with a *PanicError holding the panic
// value and stack; the loop itself keeps running.
package eventloop
