//go:build !linux

package encoder

import (
	"errors"
	"runtime"
)

func lockRealtime(priority int) (func(), error) {
	runtime.LockOSThread()
	return runtime.UnlockOSThread, errors.New("realtime scheduling requires Linux")
}
