package pool

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Option is a functional option for configuring a Pool.
type Option func(*config)

// WorkerInitFunc runs once on every worker before it takes its first job.
// ctx identifies the worker (see WorkerName); args are the values given to
// WithWorkerInit.
type WorkerInitFunc func(ctx context.Context, args ...any) error

type config struct {
	maxWorkers  int // 0 means unbounded
	namePrefix  string
	workerInit  WorkerInitFunc
	initArgs    []any
	rateLimiter *rate.Limiter
	pinWorkers  bool
	logger      *zap.Logger
}

var poolCounter atomic.Int64

// WithMaxWorkers caps the number of worker goroutines.
// Non-positive values are ignored. If not specified, defaults to
// min(32, GOMAXPROCS+4).
func WithMaxWorkers(count int) Option {
	return func(cfg *config) {
		if count > 0 {
			cfg.maxWorkers = count
		}
	}
}

// WithUnbounded removes the cap on worker goroutines: a new worker is started
// whenever a job arrives and no idle worker can take it.
func WithUnbounded() Option {
	return func(cfg *config) {
		cfg.maxWorkers = 0
	}
}

// WithNamePrefix sets the prefix of worker names. Workers are named
// "<prefix>_<index>". If not specified, defaults to "pool-<n>".
func WithNamePrefix(prefix string) Option {
	return func(cfg *config) {
		if prefix != "" {
			cfg.namePrefix = prefix
		}
	}
}

// WithWorkerInit registers fn to be called with args once per worker, before
// the worker takes any job. If fn fails the pool is broken: queued and later
// submissions fail with ErrBrokenPool.
func WithWorkerInit(fn WorkerInitFunc, args ...any) Option {
	return func(cfg *config) {
		cfg.workerInit = fn
		cfg.initArgs = args
	}
}

// WithRateLimit limits how fast workers start jobs.
// tasksPerSecond specifies the sustained rate and burst the number of jobs
// that may start back to back. If not specified, no rate limiting is applied.
//
// Example:
//
//	WithRateLimit(10, 5) // Allow 10 jobs/sec with burst of 5
func WithRateLimit(tasksPerSecond float64, burst int) Option {
	return func(cfg *config) {
		if tasksPerSecond > 0 && burst > 0 {
			cfg.rateLimiter = rate.NewLimiter(rate.Limit(tasksPerSecond), burst)
		}
	}
}

// WithCPUAffinity locks every worker to an OS thread pinned to one logical CPU.
func WithCPUAffinity() Option {
	return func(cfg *config) {
		cfg.pinWorkers = true
	}
}

// WithLogger sets the logger used by the pool. Defaults to Logger().
func WithLogger(l *zap.Logger) Option {
	return func(cfg *config) {
		if l != nil {
			cfg.logger = l
		}
	}
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		maxWorkers: defaultMaxWorkers(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.namePrefix == "" {
		cfg.namePrefix = fmt.Sprintf("pool-%d", poolCounter.Add(1))
	}
	if cfg.logger == nil {
		cfg.logger = Logger()
	}

	return cfg
}

func defaultMaxWorkers() int {
	return min(32, runtime.GOMAXPROCS(0)+4)
}
