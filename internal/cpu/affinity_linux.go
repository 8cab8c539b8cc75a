//go:build linux

package cpu

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// Pin locks the calling goroutine to its OS thread and restricts that thread
// to a single logical CPU chosen from workerID. The returned release function
// unlocks the thread and must be deferred by the caller even when err is non-nil.
func Pin(workerID int) (release func(), err error) {
	runtime.LockOSThread()
	release = runtime.UnlockOSThread

	var mask unix.CPUSet
	mask.Zero()
	mask.Set(coreFor(workerID))

	// 0 selects the current thread.
	if err := unix.SchedSetaffinity(0, &mask); err != nil {
		return release, err
	}
	return release, nil
}
