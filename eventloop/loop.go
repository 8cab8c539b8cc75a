package eventloop

import (
	"context"
	"sync"
	"time"

	"github.com/utkarsh5026/poolcast/internal/scheduler"
)

type ctxKey struct{}

// loop drives the tasks of one Run call. Every task has its own goroutine,
// but only the task currently holding the loop executes; the others are parked
// on their resume channel until the driver hands control to them.
type loop struct {
	ready *scheduler.Queue[*task]

	mu      sync.Mutex
	pending int
	closed  bool
}

type task struct {
	loop   *loop
	resume chan struct{}
	yield  chan struct{}
}

func currentTask(ctx context.Context) *task {
	t, _ := ctx.Value(ctxKey{}).(*task)
	return t
}

// Running reports whether ctx belongs to a task of a running loop.
func Running(ctx context.Context) bool {
	return currentTask(ctx) != nil
}

// Detach returns a context carrying the same values and deadline as ctx but no
// loop ownership. Use it before handing a loop context to another goroutine,
// which may then start a loop of its own.
func Detach(ctx context.Context) context.Context {
	if !Running(ctx) {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, (*task)(nil))
}

// Run starts a dedicated loop, runs fn as its main task and drives the loop
// until every task spawned on it has finished. The calling goroutine blocks
// for the whole time.
//
// When fn returns, the context of tasks that are still pending is cancelled;
// Run keeps driving them until they return.
//
// Run fails with ErrNestedScheduler if ctx already belongs to a running loop.
func Run[R any](ctx context.Context, fn func(context.Context) (R, error)) (R, error) {
	var zero R
	if Running(ctx) {
		return zero, ErrNestedScheduler
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	l := &loop{ready: scheduler.NewQueue[*task]()}
	main := NewFuture[R]()

	err := l.spawn(ctx, func(ctx context.Context) {
		main.Resolve(SafeCall(ctx, fn))
		cancel()
	})
	if err != nil {
		return zero, err
	}

	l.drive()
	return main.Get()
}

// Go spawns fn as a new task on the loop that owns ctx and returns its future.
// Outside a loop the returned future fails with ErrNoRunningLoop.
func Go[R any](ctx context.Context, fn func(context.Context) (R, error)) *Future[R] {
	f := NewFuture[R]()

	t := currentTask(ctx)
	if t == nil {
		var zero R
		f.Resolve(zero, ErrNoRunningLoop)
		return f
	}

	err := t.loop.spawn(ctx, func(ctx context.Context) {
		f.Resolve(SafeCall(ctx, fn))
	})
	if err != nil {
		var zero R
		f.Resolve(zero, err)
	}
	return f
}

// Sleep suspends the current task for d, or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	f := NewFuture[struct{}]()
	timer := time.AfterFunc(d, func() {
		f.Resolve(struct{}{}, nil)
	})
	defer timer.Stop()

	_, err := f.Await(ctx)
	return err
}

func (l *loop) spawn(ctx context.Context, run func(context.Context)) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrLoopClosed
	}
	l.pending++
	l.mu.Unlock()

	t := &task{
		loop:   l,
		resume: make(chan struct{}),
		yield:  make(chan struct{}),
	}
	tctx := context.WithValue(ctx, ctxKey{}, t)

	go func() {
		<-t.resume
		run(tctx)
		l.finish()
		t.yield <- struct{}{}
	}()

	// The queue is closed only after pending drops to zero, and this task
	// holds a pending slot, so the push always succeeds.
	return l.ready.Push(t)
}

func (l *loop) finish() {
	l.mu.Lock()
	l.pending--
	last := l.pending == 0
	if last {
		l.closed = true
	}
	l.mu.Unlock()

	if last {
		l.ready.Close()
	}
}

// drive hands control to ready tasks one at a time until the loop is empty.
func (l *loop) drive() {
	for {
		t, ok := l.ready.Pop()
		if !ok {
			return
		}
		t.resume <- struct{}{}
		<-t.yield
	}
}

// suspend gives control back to the driver until register's callback fires or
// ctx is done, whichever comes first.
func (t *task) suspend(ctx context.Context, register func(func())) {
	var once sync.Once
	wake := func() {
		once.Do(func() {
			_ = t.loop.ready.Push(t)
		})
	}

	stop := context.AfterFunc(ctx, wake)
	register(wake)

	t.yield <- struct{}{}
	<-t.resume
	stop()
}
