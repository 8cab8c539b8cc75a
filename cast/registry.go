package cast

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/utkarsh5026/poolcast/pool"
)

type stackKey struct{}

// Stack is an ordered set of active worker pools. The last pushed pool is the
// one pooled calls use. A Stack is safe for concurrent use; scopes entered
// from different goroutines share it.
type Stack struct {
	mu    sync.Mutex
	pools []*pool.Pool
}

var defaultStack = NewStack()

// NewStack creates an empty stack.
func NewStack() *Stack {
	return &Stack{}
}

// DefaultStack returns the process-wide stack used by contexts that carry no
// stack of their own.
func DefaultStack() *Stack {
	return defaultStack
}

// Push makes p the current pool.
func (s *Stack) Push(p *pool.Pool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pools = append(s.pools, p)
}

// Remove takes p off the stack, searching from the top. Scopes that exit out
// of order therefore never remove each other's pools. It reports whether p
// was found.
func (s *Stack) Remove(p *pool.Pool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.pools) - 1; i >= 0; i-- {
		if s.pools[i] == p {
			s.pools = append(s.pools[:i], s.pools[i+1:]...)
			return true
		}
	}
	return false
}

// Current returns the top of the stack, or nil if it is empty.
func (s *Stack) Current() *pool.Pool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pools) == 0 {
		return nil
	}
	return s.pools[len(s.pools)-1]
}

// Depth returns the number of pools on the stack.
func (s *Stack) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pools)
}

// WithStack returns a context whose pool scopes and pooled calls use s
// instead of the default stack.
func WithStack(ctx context.Context, s *Stack) context.Context {
	return context.WithValue(ctx, stackKey{}, s)
}

// StackFrom returns the stack carried by ctx, or DefaultStack.
func StackFrom(ctx context.Context) *Stack {
	if s, ok := ctx.Value(stackKey{}).(*Stack); ok && s != nil {
		return s
	}
	return defaultStack
}

// CurrentPool returns the pool pooled calls made with ctx would use, or nil.
func CurrentPool(ctx context.Context) *pool.Pool {
	return StackFrom(ctx).Current()
}

// Scope is the guard of an active pool. Close removes the pool from its
// stack and, for pools the scope created, shuts it down.
type Scope struct {
	stack *Stack
	pool  *pool.Pool
	owned bool

	once sync.Once
	err  error
}

// EnterScope creates and starts a pool from opts and makes it the current
// pool of the stack carried by ctx. The caller must Close the scope:
//
//	scope, err := cast.EnterScope(ctx, pool.WithMaxWorkers(4))
//	if err != nil {
//	    return err
//	}
//	defer scope.Close()
func EnterScope(ctx context.Context, opts ...pool.Option) (*Scope, error) {
	p := pool.New(opts...)
	if err := p.Start(context.WithoutCancel(ctx)); err != nil {
		return nil, err
	}
	return push(ctx, p, true), nil
}

// Adopt makes an already started pool the current pool for the lifetime of
// the returned scope. Closing the scope does not shut the pool down.
func Adopt(ctx context.Context, p *pool.Pool) *Scope {
	return push(ctx, p, false)
}

func push(ctx context.Context, p *pool.Pool, owned bool) *Scope {
	s := StackFrom(ctx)
	s.Push(p)

	Logger().Debug("pool scope entered",
		zap.String("pool", p.Name()),
		zap.Bool("owned", owned),
		zap.Int("depth", s.Depth()))

	return &Scope{stack: s, pool: p, owned: owned}
}

// Pool returns the pool guarded by the scope.
func (s *Scope) Pool() *pool.Pool {
	return s.pool
}

// Close removes the pool from the stack, then shuts it down if the scope
// owns it, waiting for every submitted call to finish. Later calls return
// the result of the first.
func (s *Scope) Close() error {
	s.once.Do(func() {
		s.stack.Remove(s.pool)
		if s.owned {
			s.err = s.pool.Shutdown(0)
		}

		Logger().Debug("pool scope exited",
			zap.String("pool", s.pool.Name()),
			zap.Int("depth", s.stack.Depth()),
			zap.Error(s.err))
	})
	return s.err
}

// WithPool runs fn inside a new pool scope. The scope is closed when fn
// returns or panics; a close error is returned if fn itself succeeded.
func WithPool(ctx context.Context, fn func(ctx context.Context) error, opts ...pool.Option) (err error) {
	scope, err := EnterScope(ctx, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := scope.Close(); err == nil {
			err = cerr
		}
	}()

	return fn(ctx)
}
