package cast

import (
	"errors"

	"github.com/utkarsh5026/poolcast/eventloop"
)

var (
	// ErrInvalidCallable is returned when a value is neither a blocking nor an
	// asynchronous function of the requested argument and result types.
	ErrInvalidCallable = errors.New("cast: callable is neither blocking nor asynchronous")

	// ErrNoActivePool is returned by pooled calls made while the pool stack is empty.
	ErrNoActivePool = errors.New("cast: no active worker pool; run the call inside cast.EnterScope or cast.WithPool")

	// ErrNestedScheduler is returned when a blocking call of an asynchronous
	// function is made from a context that already belongs to a running loop.
	ErrNestedScheduler = eventloop.ErrNestedScheduler

	// ErrNoScheduler is returned by pooled calls made outside a running loop.
	ErrNoScheduler = eventloop.ErrNoRunningLoop
)
