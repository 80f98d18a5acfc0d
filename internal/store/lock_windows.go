//go:build windows

package store

import (
	"os"

	"golang.org/x/sys/windows"
)

// Advisory whole-file locks via LockFileEx. The byte range covers the whole
// file regardless of its size. Without LOCKFILE_FAIL_IMMEDIATELY the call
// blocks until the lock is obtainable, matching the flock path.

const lockRange = ^uint32(0)

func lockShared(f *os.File) error {
	return lockFile(f, 0)
}

func lockExclusive(f *os.File) error {
	return lockFile(f, windows.LOCKFILE_EXCLUSIVE_LOCK)
}

func lockFile(f *os.File, flags uint32) error {
	ol := new(windows.Overlapped)
	return windows.LockFileEx(windows.Handle(f.Fd()), flags, 0, lockRange, lockRange, ol)
}

func unlockFile(f *os.File) error {
	ol := new(windows.Overlapped)
	return windows.UnlockFileEx(windows.Handle(f.Fd()), 0, lockRange, lockRange, ol)
}
