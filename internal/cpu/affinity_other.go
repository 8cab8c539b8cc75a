//go:build !linux && !darwin && !windows

package cpu

import (
	"errors"
	"runtime"
)

// Pin locks the calling goroutine to its OS thread; core pinning is not
// available on this platform.
func Pin(workerID int) (release func(), err error) {
	runtime.LockOSThread()
	return runtime.UnlockOSThread, errors.New("cpu: thread affinity not supported on " + runtime.GOOS)
}
