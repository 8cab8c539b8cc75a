// Package pool provides the bounded worker pool that blocking work is
// offloaded to.
//
// The primary type is Pool, a long-running set of worker goroutines fed from
// a shared FIFO queue. Workers are started lazily, one at a time, whenever a
// job arrives and no idle worker can take it, until the configured maximum
// is reached. An unbounded pool keeps adding workers as long as jobs wait.
//
// # Basic Usage
//
//	p := pool.New(pool.WithMaxWorkers(4))
//	if err := p.Start(ctx); err != nil {
//	    return err
//	}
//	defer p.Shutdown(0)
//
//	future, err := pool.Submit(ctx, p, func(ctx context.Context) (string, error) {
//	    name, _ := pool.WorkerName(ctx)
//	    return "ran on " + name, nil
//	})
//	if err != nil {
//	    return err
//	}
//	msg, err := future.Get()
//
// Submit returns an *eventloop.Future, so a loop task can Await the result
// while the worker computes it.
//
// # Worker Initialization
//
// WithWorkerInit registers a function that every worker runs once before
// taking jobs:
//
//	p := pool.New(
//	    pool.WithNamePrefix("db"),
//	    pool.WithWorkerInit(func(ctx context.Context, args ...any) error {
//	        return openConnection(args[0].(string))
//	    }, dsn),
//	)
//
// If the initializer fails, the pool is broken: jobs still queued fail with
// ErrBrokenPool, and so does every later submission.
//
// # Configuration Options
//
//   - WithMaxWorkers(n): Cap the number of workers (default: min(32, GOMAXPROCS+4))
//   - WithUnbounded(): Start a worker for every job that finds no idle worker
//   - WithNamePrefix(s): Name workers "<s>_<index>"
//   - WithWorkerInit(fn, args...): Run fn(ctx, args...) once per worker
//   - WithRateLimit(tasksPerSecond, burst): Throttle how fast jobs start
//   - WithCPUAffinity(): Pin each worker to an OS thread and logical CPU
//   - WithLogger(l): Use l instead of the package Logger
//
// # Error Handling
//
// Errors returned by a job reach its future unchanged. Panics are recovered
// and delivered as *eventloop.PanicError with the stack trace of the worker.
// The pool never retries a job.
package pool
