// Package cast lets one function be called as blocking, asynchronous or
// pooled, whichever convention it was originally written in.
//
// A function is blocking when it computes its result on the calling goroutine
// (func(context.Context, A) (R, error)) and asynchronous when it returns an
// *eventloop.Future[R] that a loop drives to completion. Wrapping either kind
// produces an adapter exposing three entry points:
//
//   - Blocking waits for the result on the caller. Asynchronous functions get
//     a dedicated loop, so calling it from a loop task fails with
//     ErrNestedScheduler.
//   - Async returns a future. Blocking functions run in-line and their result
//     is wrapped in an already completed future.
//   - Pooled submits the call to the current worker pool and returns a future
//     the calling task awaits while the loop keeps running other tasks.
//
// # Basic Usage
//
//	fetch, err := cast.CastBlockingToAsync(func(ctx context.Context, url string) ([]byte, error) {
//	    return download(ctx, url)
//	})
//
//	err = cast.WithPool(ctx, func(ctx context.Context) error {
//	    _, err := eventloop.Run(ctx, func(ctx context.Context) ([][]byte, error) {
//	        a, _ := fetch.Pooled(ctx, "https://a.example")
//	        b, _ := fetch.Pooled(ctx, "https://b.example")
//	        return eventloop.Gather(ctx, a, b)
//	    })
//	    return err
//	}, pool.WithMaxWorkers(4))
//
// # Pool Scopes
//
// Pools are kept on a Stack. EnterScope (or WithPool) starts a pool and makes
// it current; closing the scope restores the previous one and shuts the pool
// down. Adopt pushes a pool owned elsewhere. Contexts use DefaultStack unless
// WithStack attaches a different one, which keeps independent call trees from
// seeing each other's pools.
package cast
