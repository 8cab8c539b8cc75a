package pool

import (
	"context"
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/utkarsh5026/poolcast/eventloop"
	"github.com/utkarsh5026/poolcast/internal/cpu"
)

type workerKey struct{}

type workerInfo struct {
	id   int
	name string
}

// WorkerName returns the name of the worker running the current job, and
// false when ctx does not come from a pool worker.
func WorkerName(ctx context.Context) (string, bool) {
	w, ok := ctx.Value(workerKey{}).(*workerInfo)
	if !ok || w == nil {
		return "", false
	}
	return w.name, true
}

// worker is the event loop of one pool goroutine. It runs the initializer,
// then takes jobs from the shared queue until the queue is closed and drained.
func (p *Pool) worker(st *poolState, id int) error {
	w := &workerInfo{
		id:   id,
		name: fmt.Sprintf("%s_%d", p.cfg.namePrefix, id),
	}
	log := p.log.With(zap.String("worker", w.name))

	if p.cfg.pinWorkers {
		release, err := cpu.Pin(id)
		defer release()
		if err != nil {
			log.Warn("cpu affinity not applied", zap.Error(err))
		}
	}

	if p.cfg.workerInit != nil {
		if err := p.initWorker(st.ctx, w); err != nil {
			log.Error("worker initializer failed", zap.Error(err))
			broken := st.breakPool(err)
			st.drain(broken)
			return broken
		}
	}

	log.Debug("worker started")
	defer log.Debug("worker stopped")

	for {
		st.idle.Add(1)
		j, ok := st.jobs.Pop()
		st.idle.Add(-1)
		if !ok {
			return nil
		}
		p.execute(st, w, j)
	}
}

func (p *Pool) initWorker(ctx context.Context, w *workerInfo) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &eventloop.PanicError{Value: r, Stack: debug.Stack()}
		}
	}()

	ctx = context.WithValue(ctx, workerKey{}, w)
	return p.cfg.workerInit(ctx, p.cfg.initArgs...)
}

// execute runs one job with panic recovery. Jobs popped from a broken pool
// are failed instead of run.
func (p *Pool) execute(st *poolState, w *workerInfo, j *job) {
	defer st.end()

	if err := st.brokenErr(); err != nil {
		j.fail(err)
		return
	}

	if p.cfg.rateLimiter != nil {
		if err := p.cfg.rateLimiter.Wait(st.ctx); err != nil {
			j.fail(err)
			return
		}
	}

	defer func() {
		if r := recover(); r != nil {
			perr := &eventloop.PanicError{Value: r, Stack: debug.Stack()}
			p.log.Error("job panicked", zap.String("worker", w.name), zap.Any("panic", r))
			j.fail(perr)
		}
	}()

	j.run(context.WithValue(j.ctx, workerKey{}, w))
}

// drain fails every job still queued with err.
func (st *poolState) drain(err error) {
	for {
		j, ok := st.jobs.TryPop()
		if !ok {
			return
		}
		j.fail(err)
		st.end()
	}
}
