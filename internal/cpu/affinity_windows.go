//go:build windows

package cpu

import (
	"runtime"
	"syscall"
)

var (
	kernel32              = syscall.NewLazyDLL("kernel32.dll")
	setThreadAffinityMask = kernel32.NewProc("SetThreadAffinityMask")
	getCurrentThread      = kernel32.NewProc("GetCurrentThread")
)

// Pin locks the calling goroutine to its OS thread and sets the thread's
// affinity mask to one logical CPU chosen from workerID.
func Pin(workerID int) (release func(), err error) {
	runtime.LockOSThread()
	release = runtime.UnlockOSThread

	handle, _, _ := getCurrentThread.Call()
	mask := uintptr(1) << uint(coreFor(workerID))

	// A zero previous mask means the call failed.
	prev, _, callErr := setThreadAffinityMask.Call(handle, mask)
	if prev == 0 {
		return release, callErr
	}
	return release, nil
}
