package benchmarks

import (
	"context"
	"testing"
	"time"

	"github.com/utkarsh5026/poolcast/cast"
	"github.com/utkarsh5026/poolcast/eventloop"
	"github.com/utkarsh5026/poolcast/pool"
)

// cpuBoundWork simulates a CPU-intensive operation
func cpuBoundWork(iterations int) func(ctx context.Context, task int) (int, error) {
	return func(ctx context.Context, task int) (int, error) {
		result := 0
		for i := 0; i < iterations; i++ {
			result += i * task
		}
		return result, nil
	}
}

// ioBoundWork simulates an I/O operation with a delay
func ioBoundWork(delay time.Duration) func(ctx context.Context, task int) (int, error) {
	return func(ctx context.Context, task int) (int, error) {
		select {
		case <-time.After(delay):
			return task * 2, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}

// asyncWork is the asynchronous counterpart of ioBoundWork: it suspends on
// the loop instead of blocking it.
func asyncWork(delay time.Duration) func(ctx context.Context, task int) *eventloop.Future[int] {
	return func(ctx context.Context, task int) *eventloop.Future[int] {
		return eventloop.Go(ctx, func(ctx context.Context) (int, error) {
			if err := eventloop.Sleep(ctx, delay); err != nil {
				return 0, err
			}
			return task * 2, nil
		})
	}
}

// poolScope returns a context with a private pool stack holding a started
// pool. The pool is shut down when the benchmark ends.
func poolScope(b *testing.B, opts ...pool.Option) context.Context {
	b.Helper()

	ctx := cast.WithStack(context.Background(), cast.NewStack())
	scope, err := cast.EnterScope(ctx, opts...)
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { _ = scope.Close() })
	return ctx
}

// pooledBatch offloads taskCount calls of a and awaits them all from one loop.
func pooledBatch(ctx context.Context, a cast.Adapted[int, int], taskCount int) error {
	_, err := eventloop.Run(ctx, func(ctx context.Context) ([]int, error) {
		futures := make([]*eventloop.Future[int], taskCount)
		for i := range futures {
			f, err := a.Pooled(ctx, i)
			if err != nil {
				return nil, err
			}
			futures[i] = f
		}
		return eventloop.Gather(ctx, futures...)
	})
	return err
}

// reportThroughput reports calls/sec given the number of calls in one op.
func reportThroughput(b *testing.B, callsPerOp int) {
	nsPerOp := float64(b.Elapsed().Nanoseconds()) / float64(b.N)
	if nsPerOp == 0 {
		return
	}
	b.ReportMetric(float64(callsPerOp)/nsPerOp*1e9, "calls/sec")
}
