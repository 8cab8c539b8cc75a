//go:build darwin

package cpu

import (
	"runtime"
)

// Pin locks the calling goroutine to its OS thread.
// macOS offers no thread-to-core pinning, so the core choice is dropped.
func Pin(workerID int) (release func(), err error) {
	runtime.LockOSThread()
	return runtime.UnlockOSThread, nil
}
