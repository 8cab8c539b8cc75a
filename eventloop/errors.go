package eventloop

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
)

var (
	// ErrNestedScheduler is returned when a dedicated loop is requested from a
	// context that already belongs to a running loop.
	ErrNestedScheduler = errors.New("eventloop: cannot start a loop from inside a running loop")

	// ErrNoRunningLoop is returned by operations that must be issued from a loop task.
	ErrNoRunningLoop = errors.New("eventloop: no running loop in context")

	// ErrLoopClosed is returned when a task is spawned on a loop that has already finished.
	ErrLoopClosed = errors.New("eventloop: loop is closed")
)

// PanicError carries a value recovered from a panicking task together with
// the stack of the goroutine that panicked.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v\nstack trace:\n%s", e.Value, e.Stack)
}

// Unwrap exposes the panic value when it is itself an error, so errors.Is and
// errors.As see through the recovery.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// SafeCall invokes fn and converts a panic into a *PanicError.
func SafeCall[R any](ctx context.Context, fn func(context.Context) (R, error)) (result R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()

	return fn(ctx)
}
