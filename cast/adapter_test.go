package cast_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/utkarsh5026/poolcast/cast"
	"github.com/utkarsh5026/poolcast/eventloop"
	"github.com/utkarsh5026/poolcast/pool"
)

type lookupError struct {
	key string
}

func (e *lookupError) Error() string {
	return fmt.Sprintf("key %q not found", e.key)
}

func square(ctx context.Context, n int) (int, error) {
	return n * n, nil
}

func squareLater(ctx context.Context, n int) *eventloop.Future[int] {
	return eventloop.Go(ctx, func(ctx context.Context) (int, error) {
		if err := eventloop.Sleep(ctx, time.Millisecond); err != nil {
			return 0, err
		}
		return n * n, nil
	})
}

// isolated returns a context with its own pool stack and a started pool
// pushed on it.
func isolated(t *testing.T, opts ...pool.Option) context.Context {
	t.Helper()

	ctx := cast.WithStack(context.Background(), cast.NewStack())
	scope, err := cast.EnterScope(ctx, opts...)
	if err != nil {
		t.Fatalf("failed to enter pool scope: %v", err)
	}
	t.Cleanup(func() { _ = scope.Close() })
	return ctx
}

func TestAdapter_Async_MatchesBlocking(t *testing.T) {
	a, err := cast.CastBlockingToAsync(square)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, n := range []int{-3, 0, 1, 7, 12} {
		want, _ := square(context.Background(), n)

		got, err := eventloop.Run(context.Background(), func(ctx context.Context) (int, error) {
			return a.Async(ctx, n).Await(ctx)
		})
		if err != nil {
			t.Fatalf("square(%d): unexpected error: %v", n, err)
		}
		if got != want {
			t.Errorf("square(%d): expected %d, got %d", n, want, got)
		}
	}
}

func TestAdapter_Async_RunsInline(t *testing.T) {
	var calls atomic.Int32
	a, _ := cast.CastBlockingToAsync(func(ctx context.Context, n int) (int, error) {
		calls.Add(1)
		return n + 1, nil
	})

	future := a.Async(context.Background(), 1)
	if calls.Load() != 1 {
		t.Errorf("expected the blocking function to run in-line, ran %d times", calls.Load())
	}
	if !future.IsReady() {
		t.Error("expected an already completed future")
	}
	if v, err := future.Get(); v != 2 || err != nil {
		t.Errorf("expected (2, nil), got (%d, %v)", v, err)
	}
}

func TestAdapter_Blocking_DrivesAsync(t *testing.T) {
	a, err := cast.CastAsyncToBlocking(squareLater)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, n := range []int{2, 5, 9} {
		want, _ := eventloop.Run(context.Background(), func(ctx context.Context) (int, error) {
			return squareLater(ctx, n).Await(ctx)
		})

		got, err := a.Blocking(context.Background(), n)
		if err != nil {
			t.Fatalf("squareLater(%d): unexpected error: %v", n, err)
		}
		if got != want {
			t.Errorf("squareLater(%d): expected %d, got %d", n, want, got)
		}
	}
}

func TestAdapter_Blocking_NestedScheduler(t *testing.T) {
	a, _ := cast.CastAsyncToBlocking(squareLater)

	_, err := eventloop.Run(context.Background(), func(ctx context.Context) (int, error) {
		return a.Blocking(ctx, 3)
	})
	if !errors.Is(err, cast.ErrNestedScheduler) {
		t.Errorf("expected ErrNestedScheduler, got %v", err)
	}
}

func TestAdapter_Blocking_CallsBlockingDirectly(t *testing.T) {
	a, _ := cast.CastBlockingToAsync(square)

	// A blocking function never needs a loop, even from inside one.
	v, err := eventloop.Run(context.Background(), func(ctx context.Context) (int, error) {
		return a.Blocking(ctx, 4)
	})
	if err != nil || v != 16 {
		t.Errorf("expected (16, nil), got (%d, %v)", v, err)
	}
}

func TestAdapter_Pooled_Errors(t *testing.T) {
	a, _ := cast.CastBlockingToAsync(square)

	t.Run("no active pool", func(t *testing.T) {
		ctx := cast.WithStack(context.Background(), cast.NewStack())

		done := make(chan error, 1)
		go func() {
			_, err := eventloop.Run(ctx, func(ctx context.Context) (int, error) {
				f, err := a.Pooled(ctx, 2)
				if err != nil {
					return 0, err
				}
				return f.Await(ctx)
			})
			done <- err
		}()

		select {
		case err := <-done:
			if !errors.Is(err, cast.ErrNoActivePool) {
				t.Errorf("expected ErrNoActivePool, got %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("pooled call without a pool did not fail promptly")
		}
	})

	t.Run("no running loop", func(t *testing.T) {
		ctx := isolated(t, pool.WithMaxWorkers(1))

		f, err := a.Pooled(ctx, 2)
		if !errors.Is(err, cast.ErrNoScheduler) {
			t.Errorf("expected ErrNoScheduler, got %v", err)
		}
		if f != nil {
			t.Error("expected no future on failure")
		}
	})
}

func TestAdapter_Pooled_GathersDistinctResults(t *testing.T) {
	ctx := isolated(t, pool.WithMaxWorkers(3))

	identity, _ := cast.CastBlockingToAsync(func(ctx context.Context, n int) (int, error) {
		time.Sleep(5 * time.Millisecond)
		return n, nil
	})

	values, err := eventloop.Run(ctx, func(ctx context.Context) ([]int, error) {
		var futures []*eventloop.Future[int]
		for _, n := range []int{5, 8, 10} {
			f, err := identity.Pooled(ctx, n)
			if err != nil {
				return nil, err
			}
			futures = append(futures, f)
		}
		return eventloop.Gather(ctx, futures...)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []int{5, 8, 10}
	if len(values) != len(want) {
		t.Fatalf("expected %v, got %v", want, values)
	}
	for i := range want {
		if values[i] != want[i] {
			t.Errorf("expected %v, got %v", want, values)
			break
		}
	}
}

func TestAdapter_Pooled_PropagatesFailure(t *testing.T) {
	ctx := isolated(t, pool.WithMaxWorkers(2))

	lookup, _ := cast.CastBlockingToAsync(func(ctx context.Context, key string) (string, error) {
		return "", &lookupError{key: key}
	})

	_, err := eventloop.Run(ctx, func(ctx context.Context) (string, error) {
		f, err := lookup.Pooled(ctx, "missing")
		if err != nil {
			return "", err
		}
		return f.Await(ctx)
	})

	var lerr *lookupError
	if !errors.As(err, &lerr) {
		t.Fatalf("expected *lookupError, got %T: %v", err, err)
	}
	if lerr.key != "missing" {
		t.Errorf("expected key %q, got %q", "missing", lerr.key)
	}
	if errors.Is(err, pool.ErrBrokenPool) || errors.Is(err, pool.ErrPoolClosed) {
		t.Errorf("failure should not be reported as a pool failure: %v", err)
	}
}

func TestAdapter_Pooled_Panic(t *testing.T) {
	ctx := isolated(t, pool.WithMaxWorkers(1))

	boom, _ := cast.CastBlockingToAsync(func(ctx context.Context, _ struct{}) (int, error) {
		panic("boom")
	})

	_, err := eventloop.Run(ctx, func(ctx context.Context) (int, error) {
		f, err := boom.Pooled(ctx, struct{}{})
		if err != nil {
			return 0, err
		}
		return f.Await(ctx)
	})

	var pe *eventloop.PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *eventloop.PanicError, got %v", err)
	}
	if pe.Value != "boom" {
		t.Errorf("expected panic value boom, got %v", pe.Value)
	}
}

func TestAdapter_Pooled_AsyncRunsOnWorkerLoop(t *testing.T) {
	ctx := isolated(t, pool.WithMaxWorkers(1), pool.WithNamePrefix("cpu"))

	a, _ := cast.CastAsyncToBlocking(func(ctx context.Context, n int) *eventloop.Future[int] {
		return eventloop.Go(ctx, func(ctx context.Context) (int, error) {
			name, ok := pool.WorkerName(ctx)
			if !ok || !strings.HasPrefix(name, "cpu_") {
				return 0, fmt.Errorf("expected to run on a cpu worker, got %q", name)
			}
			if !eventloop.Running(ctx) {
				return 0, errors.New("expected a loop on the worker")
			}
			return n * 3, nil
		})
	})

	v, err := eventloop.Run(ctx, func(ctx context.Context) (int, error) {
		f, err := a.Pooled(ctx, 7)
		if err != nil {
			return 0, err
		}
		return f.Await(ctx)
	})
	if err != nil || v != 21 {
		t.Errorf("expected (21, nil), got (%d, %v)", v, err)
	}
}

func TestAdapter_Pooled_LoopKeepsRunning(t *testing.T) {
	ctx := isolated(t, pool.WithMaxWorkers(1))

	release := make(chan struct{})
	wait, _ := cast.CastBlockingToAsync(func(ctx context.Context, n int) (int, error) {
		select {
		case <-release:
			return n, nil
		case <-time.After(2 * time.Second):
			return 0, errors.New("loop was blocked by the pooled call")
		}
	})

	v, err := eventloop.Run(ctx, func(ctx context.Context) (int, error) {
		f, err := wait.Pooled(ctx, 11)
		if err != nil {
			return 0, err
		}

		// Only runs if the main task gives the loop up while the worker waits.
		eventloop.Go(ctx, func(ctx context.Context) (struct{}, error) {
			close(release)
			return struct{}{}, nil
		})

		return f.Await(ctx)
	})
	if err != nil || v != 11 {
		t.Errorf("expected (11, nil), got (%d, %v)", v, err)
	}
}

func TestAdapter_Pooled_CancelledCallerDoesNotAbortWorker(t *testing.T) {
	ctx := isolated(t, pool.WithMaxWorkers(1))

	started := make(chan struct{})
	slow, _ := cast.CastBlockingToAsync(func(ctx context.Context, n int) (int, error) {
		close(started)
		time.Sleep(20 * time.Millisecond)
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		return n, nil
	})

	var pooled *eventloop.Future[int]
	_, err := eventloop.Run(ctx, func(ctx context.Context) (int, error) {
		cctx, cancel := context.WithCancel(ctx)
		f, err := slow.Pooled(cctx, 3)
		if err != nil {
			cancel()
			return 0, err
		}
		pooled = f

		<-started
		cancel()
		return f.Await(cctx)
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected the awaiting task to see context.Canceled, got %v", err)
	}

	v, err := pooled.GetWithTimeout(time.Second)
	if err != nil || v != 3 {
		t.Errorf("expected the worker to finish with (3, nil), got (%d, %v)", v, err)
	}
}

func TestAdapter_Identity(t *testing.T) {
	blocking, _ := cast.CastBlockingToAsync(square)
	if blocking.Name() != "cast_test.square" {
		t.Errorf("expected name cast_test.square, got %q", blocking.Name())
	}
	if blocking.String() != "<blocking function cast_test.square>" {
		t.Errorf("unexpected string %q", blocking.String())
	}

	async, _ := cast.CastAsyncToBlocking(squareLater, cast.WithDoc("squares later"))
	if async.Name() != "cast_test.squareLater" {
		t.Errorf("expected name cast_test.squareLater, got %q", async.Name())
	}
	if async.Doc() != "squares later" {
		t.Errorf("expected doc to be kept, got %q", async.Doc())
	}

	renamed, _ := cast.CastBlockingToAsync(square, cast.WithName("sq"))
	if renamed.Name() != "sq" {
		t.Errorf("expected overridden name sq, got %q", renamed.Name())
	}
}
