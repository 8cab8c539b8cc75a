package pool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/utkarsh5026/poolcast/eventloop"
)

// runJobs submits numJobs no-op jobs and returns how long the pool took to
// finish them.
func runJobs(t *testing.T, p *Pool, numJobs int) time.Duration {
	t.Helper()

	start := time.Now()
	for i := range numJobs {
		if err := p.Go(context.Background(), func(ctx context.Context) {}); err != nil {
			t.Fatalf("failed to submit job %d: %v", i, err)
		}
	}
	if err := p.Wait(); err != nil {
		t.Fatalf("wait failed: %v", err)
	}
	return time.Since(start)
}

func TestPool_RateLimit_BasicThroughput(t *testing.T) {
	// 1 burst token then 5 more at 50/s: at least ~100ms.
	p := New(WithMaxWorkers(4), WithRateLimit(50, 1))
	_ = p.Start(context.Background())
	defer p.Shutdown(2 * time.Second)

	if elapsed := runJobs(t, p, 6); elapsed < 80*time.Millisecond {
		t.Errorf("expected rate limiting to slow jobs down, took %v", elapsed)
	}
}

func TestPool_RateLimit_BurstBehavior(t *testing.T) {
	p := New(WithMaxWorkers(10), WithRateLimit(5, 10))
	_ = p.Start(context.Background())
	defer p.Shutdown(time.Second)

	// With burst=10 and 10 jobs, all should start via the burst.
	if elapsed := runJobs(t, p, 10); elapsed > 500*time.Millisecond {
		t.Errorf("burst should allow fast processing, took %v", elapsed)
	}
}

func TestPool_RateLimit_WithContextCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	p := New(WithMaxWorkers(2), WithRateLimit(2, 1))
	_ = p.Start(ctx)
	defer p.Shutdown(time.Second)

	futures := make([]*eventloop.Future[int], 0, 10)
	for range 10 {
		f, err := Submit(context.Background(), p, func(ctx context.Context) (int, error) {
			return 1, nil
		})
		if err != nil {
			t.Fatalf("submit failed: %v", err)
		}
		futures = append(futures, f)
	}

	start := time.Now()
	failed := 0
	for _, f := range futures {
		if _, err := f.GetWithTimeout(2 * time.Second); err != nil {
			failed++
		}
	}

	if failed == 0 {
		t.Error("expected jobs waiting on the limiter to fail once the pool context ended")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("should have stopped due to context, but took %v", elapsed)
	}
}

func TestPool_RateLimit_InvalidParameters(t *testing.T) {
	tests := []struct {
		name           string
		tasksPerSecond float64
		burst          int
	}{
		{"zero rate", 0, 10},
		{"negative rate", -5, 10},
		{"zero burst", 10, 0},
		{"negative burst", 10, -5},
		{"both zero", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(WithMaxWorkers(2), WithRateLimit(tt.tasksPerSecond, tt.burst))
			if p.cfg.rateLimiter != nil {
				t.Fatal("invalid parameters should not install a limiter")
			}

			_ = p.Start(context.Background())
			defer p.Shutdown(time.Second)

			if elapsed := runJobs(t, p, 20); elapsed > 100*time.Millisecond {
				t.Errorf("should not have rate limiting with invalid params, but took %v", elapsed)
			}
		})
	}
}

func TestPool_RateLimit_FailureKeepsErrorKind(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(WithMaxWorkers(1), WithRateLimit(1, 1))
	_ = p.Start(ctx)
	defer p.Shutdown(time.Second)

	f, err := Submit(context.Background(), p, func(ctx context.Context) (int, error) {
		return 1, nil
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if _, err := f.GetWithTimeout(time.Second); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled from the limiter, got %v", err)
	}
}
