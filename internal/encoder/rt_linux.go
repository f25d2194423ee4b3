//go:build linux

package encoder

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// lockRealtime pins the calling goroutine to its OS thread and switches that
// thread to SCHED_FIFO at the given priority. The thread is never unpinned:
// the runtime discards it when the goroutine exits, so the raised policy
// cannot leak to other goroutines. The returned func is a no-op kept for
// symmetry with other platforms.
func lockRealtime(priority int) (func(), error) {
	runtime.LockOSThread()
	release := func() {}

	attr := unix.SchedAttr{
		Size:     unix.SizeofSchedAttr,
		Policy:   unix.SCHED_FIFO,
		Priority: uint32(priority),
	}
	if err := unix.SchedSetAttr(0, &attr, 0); err != nil {
		return release, fmt.Errorf("sched_setattr SCHED_FIFO %d: %w", priority, err)
	}
	return release, nil
}
