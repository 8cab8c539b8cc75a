package pool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/utkarsh5026/poolcast/eventloop"
	"github.com/utkarsh5026/poolcast/internal/scheduler"
)

// Pool is a long-running, bounded set of worker goroutines accepting
// submitted blocking jobs. Workers are started lazily: a new one is added
// only when a job arrives and no idle worker can take it, up to the
// configured maximum.
//
// A Pool must be started with Start before jobs are submitted and released
// with Shutdown, which waits for queued and running jobs to finish.
type Pool struct {
	cfg *config
	log *zap.Logger

	mu    sync.Mutex
	state *poolState
}

// poolState holds the runtime state of a started pool.
type poolState struct {
	ctx      context.Context
	cancel   context.CancelFunc
	jobs     *scheduler.Queue[*job]
	group    errgroup.Group
	shutdown atomic.Bool
	done     chan struct{} // Closed when all workers have finished
	workers  int           // guarded by Pool.mu
	idle     atomic.Int64
	broken   atomic.Pointer[error]

	flightMu   sync.Mutex
	flightCond *sync.Cond
	inflight   int
}

// job is a unit of work waiting in the queue. fail is used instead of run when
// the job cannot be executed.
type job struct {
	ctx  context.Context
	run  func(ctx context.Context)
	fail func(err error)
}

// New creates a Pool with the specified options.
// This does NOT start any workers; use Start before submitting jobs.
//
// Example:
//
//	p := pool.New(pool.WithMaxWorkers(8), pool.WithNamePrefix("io"))
//	if err := p.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Shutdown(0)
func New(opts ...Option) *Pool {
	cfg := newConfig(opts...)
	return &Pool{
		cfg: cfg,
		log: cfg.logger.With(zap.String("pool", cfg.namePrefix)),
	}
}

// Start prepares the pool to accept jobs. ctx bounds the lifetime of the
// workers: worker initializers and rate-limit waits observe it.
//
// Returns ErrPoolAlreadyStarted if the pool was started before.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != nil {
		return ErrPoolAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	st := &poolState{
		ctx:    ctx,
		cancel: cancel,
		jobs:   scheduler.NewQueue[*job](),
		done:   make(chan struct{}),
	}
	st.flightCond = sync.NewCond(&st.flightMu)
	p.state = st

	p.log.Debug("pool started",
		zap.Int("max_workers", p.cfg.maxWorkers),
		zap.Bool("cpu_affinity", p.cfg.pinWorkers))
	return nil
}

// Go submits fn for execution on a worker. fn receives ctx enriched with the
// identity of the worker running it. Panics in fn are recovered and logged.
func (p *Pool) Go(ctx context.Context, fn func(ctx context.Context)) error {
	return p.submit(&job{
		ctx: ctx,
		run: fn,
		fail: func(err error) {
			p.log.Warn("job dropped", zap.Error(err))
		},
	})
}

// Submit runs fn on a worker of p and returns a future for its result.
// Errors returned by fn reach the future unchanged; a panic is delivered as
// an *eventloop.PanicError.
//
// Example:
//
//	future, err := pool.Submit(ctx, p, func(ctx context.Context) (int, error) {
//	    return compute(), nil
//	})
//	if err != nil {
//	    return err
//	}
//	value, err := future.Get()
func Submit[R any](ctx context.Context, p *Pool, fn func(ctx context.Context) (R, error)) (*eventloop.Future[R], error) {
	future := eventloop.NewFuture[R]()

	err := p.submit(&job{
		ctx: ctx,
		run: func(ctx context.Context) {
			future.Resolve(eventloop.SafeCall(ctx, fn))
		},
		fail: func(err error) {
			var zero R
			future.Resolve(zero, err)
		},
	})
	if err != nil {
		return nil, err
	}
	return future, nil
}

func (p *Pool) submit(j *job) error {
	if j.ctx == nil {
		j.ctx = context.Background()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	st := p.state
	if st == nil {
		return ErrPoolNotStarted
	}
	if err := st.brokenErr(); err != nil {
		return err
	}
	if st.shutdown.Load() {
		return ErrPoolClosed
	}

	st.begin()
	if err := st.jobs.Push(j); err != nil {
		st.end()
		if broken := st.brokenErr(); broken != nil {
			return broken
		}
		return ErrPoolClosed
	}

	if int(st.idle.Load()) < st.jobs.Len() && (p.cfg.maxWorkers == 0 || st.workers < p.cfg.maxWorkers) {
		id := st.workers
		st.workers++
		st.group.Go(func() error {
			return p.worker(st, id)
		})
	}

	return nil
}

// Wait blocks until every job submitted so far has finished.
func (p *Pool) Wait() error {
	p.mu.Lock()
	st := p.state
	p.mu.Unlock()

	if st == nil {
		return ErrPoolNotStarted
	}

	st.flightMu.Lock()
	for st.inflight > 0 {
		st.flightCond.Wait()
	}
	st.flightMu.Unlock()
	return nil
}

// Shutdown stops accepting jobs and waits for queued and running jobs to
// finish, then for all workers to exit.
//
// Parameters:
//   - timeout: Maximum duration to wait (0 = wait forever)
//
// Returns ErrShutdownTimeout if the workers did not finish in time, the
// initialization error if the pool is broken, or ErrPoolClosed on a second call.
//
// Example:
//
//	p.Start(ctx)
//	defer p.Shutdown(10 * time.Second)
func (p *Pool) Shutdown(timeout time.Duration) error {
	p.mu.Lock()
	st := p.state
	if st == nil {
		p.mu.Unlock()
		return ErrPoolNotStarted
	}
	if !st.shutdown.CompareAndSwap(false, true) {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	st.jobs.Close()
	workers := st.workers
	p.mu.Unlock()

	go func() {
		_ = st.group.Wait()
		close(st.done)
	}()

	err := waitUntil(st.done, timeout)
	st.cancel()
	if err != nil {
		p.log.Warn("pool shutdown timed out", zap.Duration("timeout", timeout))
		return err
	}

	p.log.Debug("pool shut down", zap.Int("workers", workers))
	return st.brokenErr()
}

// Name returns the worker name prefix of the pool.
func (p *Pool) Name() string {
	return p.cfg.namePrefix
}

// MaxWorkers returns the worker cap, or 0 for an unbounded pool.
func (p *Pool) MaxWorkers() int {
	return p.cfg.maxWorkers
}

// Workers returns the number of workers started so far.
func (p *Pool) Workers() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == nil {
		return 0
	}
	return p.state.workers
}

// Pending returns the number of queued jobs no worker has picked up yet.
func (p *Pool) Pending() int {
	p.mu.Lock()
	st := p.state
	p.mu.Unlock()

	if st == nil {
		return 0
	}
	return st.jobs.Len()
}

func (p *Pool) String() string {
	return fmt.Sprintf("pool(%s)", p.cfg.namePrefix)
}

func (st *poolState) begin() {
	st.flightMu.Lock()
	st.inflight++
	st.flightMu.Unlock()
}

func (st *poolState) end() {
	st.flightMu.Lock()
	st.inflight--
	if st.inflight == 0 {
		st.flightCond.Broadcast()
	}
	st.flightMu.Unlock()
}

func (st *poolState) brokenErr() error {
	if p := st.broken.Load(); p != nil {
		return *p
	}
	return nil
}

// breakPool marks the pool unusable and closes the queue; jobs already queued
// are failed by whichever worker pops them.
func (st *poolState) breakPool(cause error) error {
	err := fmt.Errorf("%w: %w", ErrBrokenPool, cause)
	if !st.broken.CompareAndSwap(nil, &err) {
		return st.brokenErr()
	}
	st.jobs.Close()
	return err
}
