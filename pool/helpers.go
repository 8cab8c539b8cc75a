package pool

import (
	"errors"
	"time"
)

var (
	ErrShutdownTimeout    = errors.New("error in shutting down: timeout reached")
	ErrPoolNotStarted     = errors.New("pool not started")
	ErrPoolAlreadyStarted = errors.New("pool already started")
	ErrPoolClosed         = errors.New("pool shut down")
	ErrBrokenPool         = errors.New("pool is broken: a worker failed to initialize")
)

// waitUntil blocks until either the done channel is closed or the timeout is reached.
// It is used during graceful shutdown to wait for workers to complete their jobs.
func waitUntil(d <-chan struct{}, timeout time.Duration) error {
	if timeout <= 0 {
		<-d
		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-d:
		return nil
	case <-timer.C:
		return ErrShutdownTimeout
	}
}
